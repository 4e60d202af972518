package updater

import "time"

type options struct {
	dryRun     bool
	assumeYes  bool
	skipBackup bool
	now        func() time.Time
}

type Option func(o *options)

// WithDryRun stops before any mutating step (backup copy, stash, pull,
// dependency reinstall), reporting what would have happened.
func WithDryRun(dryRun bool) Option {
	return func(o *options) {
		o.dryRun = dryRun
	}
}

// WithAssumeYes skips the interactive confirmation.
func WithAssumeYes(yes bool) Option {
	return func(o *options) {
		o.assumeYes = yes
	}
}

// WithSkipBackup skips the user-data snapshot.
func WithSkipBackup(skip bool) Option {
	return func(o *options) {
		o.skipBackup = skip
	}
}

// WithNow overrides the clock used for backup snapshot names.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
