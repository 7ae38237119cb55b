package bundler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/oshokin/battleshiper-adapter/internal/logger"
)

const (
	// DefaultGoBinary is the go command looked up in PATH.
	DefaultGoBinary = "go"

	// targetOS is the only OS of the Lambda custom runtime.
	targetOS = "linux"

	// buildTags drop the legacy RPC mode of aws-lambda-go.
	buildTags = "lambda.norpc"
)

// errIncompleteRequest is returned for requests without an entry or output.
var errIncompleteRequest = errors.New("bundle request is incomplete")

// Request describes one compilation.
type Request struct {
	// EntryDir is the directory of the main package to compile.
	EntryDir string
	// Output is where the executable is written.
	Output string
	// Arch is the GOARCH of the target, amd64 or arm64.
	Arch string
	// Debug keeps symbol tables in the executable.
	Debug bool
}

// Result is the outcome of a compilation that ran.
type Result struct {
	// Diagnostics are the messages reported by the compiler.
	Diagnostics []Diagnostic
	// Err is the failure of the compiler process, nil on success.
	Err error
}

// Failed reports whether the compiler exited unsuccessfully.
func (r *Result) Failed() bool {
	return r.Err != nil
}

// Bundler compiles an entry package into a single executable.
type Bundler interface {
	Bundle(ctx context.Context, req *Request) (*Result, error)
}

// GoBundler compiles with the go command.
type GoBundler struct {
	// Runner executes the go command.
	Runner CommandRunner
	// GoBinary overrides the go command.
	GoBinary string
}

// NewGoBundler returns a bundler running the go command from PATH.
func NewGoBundler() *GoBundler {
	return &GoBundler{Runner: ExecRunner{}, GoBinary: DefaultGoBinary}
}

// Args returns the go command arguments for req.
func Args(req *Request) []string {
	args := []string{"build", "-trimpath", "-tags", buildTags, "-o", req.Output}
	if !req.Debug {
		args = append(args, "-ldflags=-s -w")
	}

	return append(args, ".")
}

// Env returns the environment entries selecting the Lambda target.
func Env(req *Request) []string {
	return []string{
		"GOOS=" + targetOS,
		"GOARCH=" + req.Arch,
		"CGO_ENABLED=0",
	}
}

// Bundle runs go build for req. The returned error is reserved for requests that could not be attempted.
func (b *GoBundler) Bundle(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || strings.TrimSpace(req.EntryDir) == "" || strings.TrimSpace(req.Output) == "" {
		return nil, errIncompleteRequest
	}

	runner := b.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	binary := b.GoBinary
	if binary == "" {
		binary = DefaultGoBinary
	}

	output, err := runner.RunOutput(ctx, req.EntryDir, Env(req), binary, Args(req)...)

	return &Result{
		Diagnostics: Parse(output, err != nil),
		Err:         err,
	}, nil
}

// Run bundles req and applies the blocking policy: any diagnostic, warning or
// error, is written to console and aborts with a *DiagnosticsError.
func Run(ctx context.Context, b Bundler, req *Request, console io.Writer) error {
	logger.InfoKV(ctx, "Bundling entry", "entry", req.EntryDir, "output", req.Output, "arch", req.Arch)

	result, err := b.Bundle(ctx, req)
	if err != nil {
		return fmt.Errorf("bundle: %w", err)
	}

	diagnostics := result.Diagnostics
	if result.Failed() && len(diagnostics) == 0 {
		diagnostics = []Diagnostic{{Severity: SeverityError, Message: result.Err.Error()}}
	}

	if len(diagnostics) == 0 {
		logger.InfoKV(ctx, "Entry bundled", "output", req.Output)

		return nil
	}

	if console != nil {
		_, _ = io.WriteString(console, Format(diagnostics))
	}

	errs, warns := Count(diagnostics)
	logger.ErrorKV(ctx, "Bundle aborted", "errors", errs, "warnings", warns)

	return &DiagnosticsError{Diagnostics: diagnostics}
}
