package gitcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sober-pm/spm-update/proc"
)

var (
	// ErrGitNotFound means the git binary is not in PATH.
	ErrGitNotFound = errors.New("git is not installed or not in PATH")
	// ErrNotARepository means the directory is not inside a git working tree.
	ErrNotARepository = errors.New("not a git repository")
)

// Repository runs git operations against a single working tree.
type Repository struct {
	runner proc.Runner
	dir    string
	logger zerolog.Logger
}

func Open(runner proc.Runner, dir string, logger zerolog.Logger) *Repository {
	return &Repository{
		runner: runner,
		dir:    dir,
		logger: logger.With().Str("repo", dir).Logger(),
	}
}

func (r *Repository) Dir() string {
	return r.dir
}

// Preflight verifies git is installed and the directory is a working tree.
func (r *Repository) Preflight(ctx context.Context) error {
	if _, err := r.runner.LookPath("git"); err != nil {
		return ErrGitNotFound
	}

	res, err := r.git(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return fmt.Errorf("could not run git: %w", err)
	}
	if !res.Ok() || res.Output() != "true" {
		return fmt.Errorf("%w: %s", ErrNotARepository, r.dir)
	}
	return nil
}

// Fetch updates remote-tracking refs for the given remote.
func (r *Repository) Fetch(ctx context.Context, remote string) error {
	res, err := r.git(ctx, "fetch", remote)
	if err != nil {
		return fmt.Errorf("could not run git fetch: %w", err)
	}
	if !res.Ok() {
		return fmt.Errorf("git fetch failed (exit %d): %s", res.ExitCode, firstLine(res.Stderr))
	}
	return nil
}

// RevParse resolves a ref to a commit hash.
func (r *Repository) RevParse(ctx context.Context, ref string) (string, error) {
	res, err := r.git(ctx, "rev-parse", ref)
	if err != nil {
		return "", fmt.Errorf("could not run git rev-parse: %w", err)
	}
	if !res.Ok() {
		return "", fmt.Errorf("git rev-parse %s failed (exit %d): %s", ref, res.ExitCode, firstLine(res.Stderr))
	}
	return res.Output(), nil
}

// ChangeLog returns one-line descriptions of commits reachable from
// to but not from from.
func (r *Repository) ChangeLog(ctx context.Context, from string, to string) ([]string, error) {
	res, err := r.git(ctx, "log", "--oneline", from+".."+to)
	if err != nil {
		return nil, fmt.Errorf("could not run git log: %w", err)
	}
	if !res.Ok() {
		return nil, fmt.Errorf("git log failed (exit %d): %s", res.ExitCode, firstLine(res.Stderr))
	}
	return res.Lines(), nil
}

// ChangedFiles returns the paths touched between the two refs.
func (r *Repository) ChangedFiles(ctx context.Context, from string, to string) ([]string, error) {
	res, err := r.git(ctx, "diff", "--name-only", from, to)
	if err != nil {
		return nil, fmt.Errorf("could not run git diff: %w", err)
	}
	if !res.Ok() {
		return nil, fmt.Errorf("git diff failed (exit %d): %s", res.ExitCode, firstLine(res.Stderr))
	}
	return res.Lines(), nil
}

// HasLocalChanges reports whether the working tree has uncommitted
// modifications. diff-index exits 1 when differences exist.
func (r *Repository) HasLocalChanges(ctx context.Context) (bool, error) {
	res, err := r.git(ctx, "diff-index", "--quiet", "HEAD", "--")
	if err != nil {
		return false, fmt.Errorf("could not run git diff-index: %w", err)
	}
	switch res.ExitCode {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("git diff-index failed (exit %d): %s", res.ExitCode, firstLine(res.Stderr))
	}
}

// Stash shelves uncommitted modifications under the given message.
func (r *Repository) Stash(ctx context.Context, message string) error {
	res, err := r.git(ctx, "stash", "push", "-m", message)
	if err != nil {
		return fmt.Errorf("could not run git stash: %w", err)
	}
	if !res.Ok() {
		return fmt.Errorf("git stash failed (exit %d): %s", res.ExitCode, firstLine(res.Stderr))
	}
	return nil
}

// StashPop restores the most recently stashed modifications.
func (r *Repository) StashPop(ctx context.Context) error {
	res, err := r.git(ctx, "stash", "pop")
	if err != nil {
		return fmt.Errorf("could not run git stash pop: %w", err)
	}
	if !res.Ok() {
		return fmt.Errorf("git stash pop failed (exit %d): %s", res.ExitCode, firstLine(res.Stderr))
	}
	return nil
}

// Pull merges remote changes into the current branch. The structured
// result is returned even on failure so callers can surface the exact
// exit code.
func (r *Repository) Pull(ctx context.Context, remote string, branch string) (proc.Result, error) {
	res, err := r.git(ctx, "pull", remote, branch)
	if err != nil {
		return res, fmt.Errorf("could not run git pull: %w", err)
	}
	return res, nil
}

func (r *Repository) git(ctx context.Context, args ...string) (proc.Result, error) {
	return r.runner.Run(ctx, r.dir, "git", args...)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
