package proc

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Result holds the outcome of a single external command invocation.
// The exit code is always captured explicitly so callers branch on it
// instead of relying on error truthiness.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

func (r Result) Ok() bool {
	return r.ExitCode == 0
}

// Output returns stdout with surrounding whitespace trimmed.
func (r Result) Output() string {
	return strings.TrimSpace(r.Stdout)
}

// Lines returns stdout split into non-empty trimmed lines.
func (r Result) Lines() []string {
	var lines []string
	for _, line := range strings.Split(r.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Runner executes external commands. The error return is reserved for
// failures to invoke the command at all; a command that ran and exited
// non-zero is reported through Result.ExitCode.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (Result, error)
	LookPath(name string) (string, error)
}

type execRunner struct {
	logger zerolog.Logger
}

// NewRunner returns a Runner backed by os/exec.
func NewRunner(logger zerolog.Logger) Runner {
	return &execRunner{logger: logger}
}

func (r *execRunner) Run(ctx context.Context, dir string, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug().Str("dir", dir).Str("cmd", name).Strs("args", args).Msg("running command")

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		return res, err
	}

	r.logger.Debug().Str("cmd", name).Int("exit_code", res.ExitCode).Msg("command finished")
	return res, nil
}

func (r *execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
