package bundler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// CommandRunner executes external commands.
type CommandRunner interface {
	// RunOutput runs name in dir with extra environment entries and returns combined output.
	RunOutput(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error)
}

// ExecRunner is a CommandRunner backed by os/exec.
type ExecRunner struct{}

// RunOutput runs the command and returns its combined stdout and stderr.
func (ExecRunner) RunOutput(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("run %s: %w", name, err)
	}

	return output, nil
}
