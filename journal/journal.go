// Package journal persists the history of update runs in a local
// sqlite database.
package journal

import (
	"context"
	"errors"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const iterateBatchSize = 50

type Journal struct {
	Lock   sync.Mutex
	Cli    *gorm.DB
	Logger zerolog.Logger
	DryRun bool
}

// Begin records the start of an update run from the given revision.
func (j *Journal) Begin(ctx context.Context, fromRevision string) (*Run, error) {
	j.Lock.Lock()
	defer j.Lock.Unlock()

	run := &Run{
		ID:           uuid.NewString(),
		StartedAt:    time.Now().UTC(),
		FromRevision: fromRevision,
	}

	j.Logger.Debug().Object("run", *run).Msg("recording update run start")
	if j.DryRun {
		return run, nil
	}

	err := j.Cli.WithContext(ctx).Create(run).Error
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Finish completes a run with its outcome. ToRevision, BackupPath and
// Detail are taken from the run as the caller last set them.
func (j *Journal) Finish(ctx context.Context, run *Run, outcome Outcome) error {
	j.Lock.Lock()
	defer j.Lock.Unlock()

	run.FinishedAt = time.Now().UTC()
	run.Outcome = outcome

	j.Logger.Debug().Object("run", *run).Msg("recording update run result")
	if j.DryRun {
		return nil
	}

	return j.Cli.WithContext(ctx).Save(run).Error
}

// IterRuns iterates recorded runs, newest first.
func (j *Journal) IterRuns(ctx context.Context, opts ...IterRunsOptions) (iter.Seq[Run], error) {
	o := iterRunsOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(Run) bool) {
		offset := 0
		yielded := 0
		for {
			batch := iterateBatchSize
			if o.limit > 0 && o.limit-yielded < batch {
				batch = o.limit - yielded
			}
			if batch == 0 {
				return
			}

			runs := []Run{}
			j.Lock.Lock()
			err := j.Cli.WithContext(ctx).
				Order("started_at DESC").
				Limit(batch).
				Offset(offset).
				Find(&runs).Error
			j.Lock.Unlock()
			if err != nil {
				j.Logger.Error().Err(err).Msg("error fetching runs from database")
				return
			}
			if len(runs) == 0 {
				return
			}

			for _, run := range runs {
				if ctx.Err() != nil {
					return
				}
				if !yield(run) {
					return
				}
				yielded++
			}
			offset += len(runs)
		}
	}, nil
}

// LastRun returns the most recently started run, or nil when the
// journal is empty.
func (j *Journal) LastRun(ctx context.Context) (*Run, error) {
	j.Lock.Lock()
	defer j.Lock.Unlock()

	run := &Run{}
	err := j.Cli.WithContext(ctx).Order("started_at DESC").First(run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}
