// Package proctest provides a scripted Runner for tests.
package proctest

import (
	"context"
	"fmt"
	"strings"

	"github.com/sober-pm/spm-update/proc"
)

// Runner replays canned results keyed by the full command line
// ("git fetch origin"). Unscripted commands succeed with empty output.
type Runner struct {
	// Results maps a command line to its outcome.
	Results map[string]proc.Result
	// Sequences maps a command line to per-invocation outcomes,
	// consumed in order. It takes precedence over Results until
	// exhausted.
	Sequences map[string][]proc.Result
	// Missing lists executables LookPath should not find.
	Missing map[string]bool
	// RunErr, when set, makes every Run call fail to invoke.
	RunErr error
	// Calls records every command line in invocation order.
	Calls []string
}

func (r *Runner) Run(_ context.Context, _ string, name string, args ...string) (proc.Result, error) {
	call := strings.Join(append([]string{name}, args...), " ")
	r.Calls = append(r.Calls, call)
	if r.RunErr != nil {
		return proc.Result{ExitCode: -1}, r.RunErr
	}
	if seq, ok := r.Sequences[call]; ok && len(seq) > 0 {
		res := seq[0]
		r.Sequences[call] = seq[1:]
		return res, nil
	}
	res, ok := r.Results[call]
	if !ok {
		return proc.Result{}, nil
	}
	return res, nil
}

func (r *Runner) LookPath(name string) (string, error) {
	if r.Missing[name] {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return "/usr/bin/" + name, nil
}

// CallCount returns how many recorded calls start with prefix.
func (r *Runner) CallCount(prefix string) int {
	count := 0
	for _, call := range r.Calls {
		if strings.HasPrefix(call, prefix) {
			count++
		}
	}
	return count
}
