package updater

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

type Outcome string

const (
	// OutcomeUpToDate means local and remote revisions were already equal.
	OutcomeUpToDate Outcome = "up-to-date"
	// OutcomeDeclined means the user answered no at the confirmation prompt.
	OutcomeDeclined Outcome = "declined"
	// OutcomeUpdated means remote changes were pulled successfully.
	OutcomeUpdated Outcome = "updated"
)

// Report describes what an update run did. Non-fatal problems (backup,
// stash restore) are carried here instead of aborting the run.
type Report struct {
	Outcome         Outcome
	FromRevision    string
	ToRevision      string
	IncomingCommits []string

	BackupPath string
	BackupErr  error

	Stashed     bool
	StashPopErr error

	DepsChanged   bool
	DepsRefreshed bool
	DepsErr       error
	// DepsManualCommand is set when the user must reinstall
	// dependencies themselves.
	DepsManualCommand string
}

func (r *Report) MarshalZerologObject(e *zerolog.Event) {
	e.Str("outcome", string(r.Outcome))
	e.Str("from", r.FromRevision)
	if r.ToRevision != "" {
		e.Str("to", r.ToRevision)
	}
	if len(r.IncomingCommits) > 0 {
		e.Int("incoming_commits", len(r.IncomingCommits))
	}
	if r.BackupPath != "" {
		e.Str("backup", r.BackupPath)
	}
	if r.DepsChanged {
		e.Bool("deps_refreshed", r.DepsRefreshed)
	}
}

// PullError is the fatal failure of the pull step, carrying the exact
// exit code so it can be surfaced to the user.
type PullError struct {
	ExitCode int
	Stderr   string
}

func (e *PullError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if i := strings.IndexByte(detail, '\n'); i >= 0 {
		detail = detail[:i]
	}
	return fmt.Sprintf("git pull failed (exit %d): %s", e.ExitCode, detail)
}
