package backup

import "time"

type options struct {
	dryRun       bool
	now          func() time.Time
	keep         int
	maxTotalSize int64
}

type Option func(o *options)

func WithDryRun(dryRun bool) Option {
	return func(o *options) {
		o.dryRun = dryRun
	}
}

// WithNow overrides the clock used to name snapshots.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithKeep retains at most n snapshots when pruning.
func WithKeep(n int) Option {
	return func(o *options) {
		o.keep = n
	}
}

// WithMaxTotalSize caps the total bytes kept across snapshots when pruning.
func WithMaxTotalSize(size int64) Option {
	return func(o *options) {
		o.maxTotalSize = size
	}
}
