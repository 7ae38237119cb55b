package integration

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/battleshiper-adapter/internal/bundler"
	"github.com/oshokin/battleshiper-adapter/internal/config"
	"github.com/oshokin/battleshiper-adapter/internal/service/packager"
)

const serverSource = `package server

import (
	"net/http"

	"github.com/oshokin/battleshiper-adapter/lambda"
)

func New(lambda.Manifest) (lambda.Server, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	return lambda.NewHandlerServer(mux, nil), nil
}
`

// TestPackager_GoToolchain compiles the generated entry against this module with the real go command.
func TestPackager_GoToolchain(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("compiles with the go command")
	}

	if _, err := exec.LookPath(bundler.DefaultGoBinary); err != nil {
		t.Skip("go command is not in PATH")
	}

	repoRoot, err := filepath.Abs(filepath.Join("..", ".."))
	require.NoError(t, err)

	p := newProject(t, config.Publish{})
	p.write(t, "go.mod", "module example.com/app\n\ngo 1.25\n\n"+
		"require github.com/oshokin/battleshiper-adapter v0.0.0\n\n"+
		"replace github.com/oshokin/battleshiper-adapter => "+repoRoot+"\n")
	p.write(t, "server/server.go", serverSource)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	runner := bundler.ExecRunner{}

	// Resolve the dependency closure of the server package up front so the build prints nothing.
	if output, tidyErr := runner.RunOutput(ctx, p.root, nil, bundler.DefaultGoBinary, "mod", "tidy"); tidyErr != nil {
		t.Skipf("modules are not available: %v\n%s", tidyErr, output)
	}

	var console bytes.Buffer

	err = packager.Run(ctx, &packager.Options{
		ConfigPath: p.configPath,
		Bundler:    &bundler.GoBundler{Runner: runner, GoBinary: bundler.DefaultGoBinary},
		Console:    &console,
	})
	require.NoError(t, err, console.String())
	require.Empty(t, console.String())

	executable := p.read(t, filepath.Join(p.outDir, "server", "bootstrap"))
	require.True(t, bytes.HasPrefix(executable, []byte("\x7fELF")))
	require.FileExists(t, filepath.Join(p.outDir, "server", "bootstrap.zip"))

	info, err := os.Stat(filepath.Join(p.outDir, "server", "bootstrap"))
	require.NoError(t, err)
	require.NotZero(t, info.Size())
}
