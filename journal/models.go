package journal

import (
	"time"

	"github.com/rs/zerolog"
)

type Outcome string

const (
	OutcomeUpdated  Outcome = "updated"
	OutcomeUpToDate Outcome = "up-to-date"
	OutcomeDeclined Outcome = "declined"
	OutcomeFailed   Outcome = "failed"
)

// Run records one invocation of the update workflow.
type Run struct {
	ID           string `gorm:"primaryKey"`
	StartedAt    time.Time
	FinishedAt   time.Time
	FromRevision string
	ToRevision   string
	Outcome      Outcome
	BackupPath   string
	Detail       string
}

func (r Run) MarshalZerologObject(e *zerolog.Event) {
	e.Str("id", r.ID)
	e.Time("started_at", r.StartedAt)
	e.Str("outcome", string(r.Outcome))
	if r.FromRevision != "" {
		e.Str("from", r.FromRevision)
	}
	if r.ToRevision != "" {
		e.Str("to", r.ToRevision)
	}
	if r.BackupPath != "" {
		e.Str("backup", r.BackupPath)
	}
	if r.Detail != "" {
		e.Str("detail", r.Detail)
	}
}
