// Package pipcmd reinstalls the application's Python dependencies
// after an update touched the manifest.
package pipcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sober-pm/spm-update/proc"
)

// ErrPipNotFound means no pip executable is in PATH.
var ErrPipNotFound = errors.New("pip is not installed or not in PATH")

var candidates = []string{"pip3", "pip"}

type Installer struct {
	runner proc.Runner
	logger zerolog.Logger
}

func New(runner proc.Runner, logger zerolog.Logger) *Installer {
	return &Installer{runner: runner, logger: logger}
}

// Detect returns the first available pip executable, or "" when none is.
func (i *Installer) Detect() string {
	for _, name := range candidates {
		if _, err := i.runner.LookPath(name); err == nil {
			return name
		}
	}
	return ""
}

// Reinstall upgrades dependencies from the manifest file in dir.
func (i *Installer) Reinstall(ctx context.Context, dir string, manifest string) error {
	pip := i.Detect()
	if pip == "" {
		return ErrPipNotFound
	}

	i.logger.Info().Str("pip", pip).Str("manifest", manifest).Msg("reinstalling dependencies")
	res, err := i.runner.Run(ctx, dir, pip, "install", "-r", manifest, "--upgrade")
	if err != nil {
		return fmt.Errorf("could not run %s: %w", pip, err)
	}
	if !res.Ok() {
		return fmt.Errorf("%s install failed (exit %d): %s", pip, res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	i.logger.Info().Str("manifest", manifest).Msg("dependencies reinstalled")
	return nil
}

// ManualCommand is what the user should run themselves when pip is absent.
func ManualCommand(manifest string) string {
	return fmt.Sprintf("pip install -r %s --upgrade", manifest)
}
