package config

import (
	"path/filepath"

	"github.com/rs/zerolog"
)

const (
	DefaultRemote   = "origin"
	DefaultBranch   = "main"
	DefaultManifest = "requirements.txt"
	DefaultDataDir  = "ProfileManagerData"
)

type Config struct {
	Checkouts []ConfigCheckout `json:"checkouts,omitempty"`
}

// ConfigCheckout describes one watched checkout for daemon mode.
type ConfigCheckout struct {
	RepoDir            string       `json:"repo_dir"`
	DataDir            string       `json:"data_dir,omitempty"`
	Remote             string       `json:"remote,omitempty"`
	Branch             string       `json:"branch,omitempty"`
	Manifest           string       `json:"manifest,omitempty"`
	BackupKeep         int          `json:"backup_keep,omitempty"`
	BackupMaxTotalSize SizeArgument `json:"backup_max_total_size,omitempty"`
	Enable             bool         `json:"enable"`
	Schedule           string       `json:"cron"`
}

// Normalize fills the defaulted fields in place.
func (c *ConfigCheckout) Normalize() {
	if c.Remote == "" {
		c.Remote = DefaultRemote
	}
	if c.Branch == "" {
		c.Branch = DefaultBranch
	}
	if c.Manifest == "" {
		c.Manifest = DefaultManifest
	}
	// The default data directory lives inside the checkout, never
	// relative to the daemon's working directory.
	if c.DataDir == "" {
		c.DataDir = filepath.Join(c.RepoDir, DefaultDataDir)
	}
}

func (c ConfigCheckout) MarshalZerologObject(e *zerolog.Event) {
	e.Str("repo_dir", c.RepoDir)
	e.Str("data_dir", c.DataDir)
	e.Bool("enable", c.Enable)
	e.Str("schedule", c.Schedule)

	if c.Remote != "" {
		e.Str("remote", c.Remote)
	}
	if c.Branch != "" {
		e.Str("branch", c.Branch)
	}
	if c.BackupKeep > 0 {
		e.Int("backup_keep", c.BackupKeep)
	}
	if c.BackupMaxTotalSize.Size > 0 {
		e.Int64("backup_max_total_size", c.BackupMaxTotalSize.Size)
	}
}
