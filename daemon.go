package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sober-pm/spm-update/backup"
	"github.com/sober-pm/spm-update/config"
	"github.com/sober-pm/spm-update/fileutils"
	"github.com/sober-pm/spm-update/gitcmd"
	"github.com/sober-pm/spm-update/proc"
	"github.com/sober-pm/spm-update/scheduler"
)

func daemonCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	if args.Daemon.DryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	cfg, err := config.LoadFromFile(args.Daemon.Config)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	runner := proc.NewRunner(logger)
	sched := scheduler.NewScheduler(scheduler.SchedulerParams{
		Logger: logger,
	})

	err = addCheckJobsFromConfig(ctx, sched, cfg, runner, logger, args.Daemon.DryRun)
	if err != nil {
		return fmt.Errorf("could not add check jobs: %w", err)
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	startConfigFileWatcher(ctx, args.Daemon.Config, logger, ticker, func(cfg *config.Config) {
		sched.RemoveJobs()
		err := addCheckJobsFromConfig(ctx, sched, cfg, runner, logger, args.Daemon.DryRun)
		if err != nil {
			logger.Error().Err(err).Msg("failed to add check jobs")
		}
	})

	sched.Start()
	defer sched.Stop()

	<-ctx.Done()

	return nil
}

func addCheckJobsFromConfig(
	ctx context.Context,
	sched *scheduler.Scheduler,
	cfg *config.Config,
	runner proc.Runner,
	logger zerolog.Logger,
	dryRun bool,
) error {
	repoDirs := make(map[string]struct{})

	for _, checkout := range cfg.Checkouts {
		checkout.Normalize()

		if checkout.RepoDir == "" {
			logger.Warn().Msg("skipping checkout without a repo directory")
			continue
		}
		if checkout.Schedule == "" {
			logger.Warn().Str("repo", checkout.RepoDir).Msg("skipping checkout without a schedule")
			continue
		}

		if _, ok := repoDirs[checkout.RepoDir]; ok {
			logger.Warn().Str("repo", checkout.RepoDir).Msg("skipping duplicate checkout")
			continue
		}
		repoDirs[checkout.RepoDir] = struct{}{}

		if !checkout.Enable {
			logger.Info().Str("repo", checkout.RepoDir).Msg("skipping disabled checkout")
			continue
		}

		job := &checkJob{
			ctx:      ctx,
			checkout: checkout,
			runner:   runner,
			dryRun:   dryRun,
			logger:   logger.With().Str("repo", checkout.RepoDir).Logger(),
		}
		if err := sched.AddCheckJob(checkout.Schedule, job); err != nil {
			logger.Error().Err(err).Str("repo", checkout.RepoDir).Msg("could not add check job")
			continue
		}

		logger.Info().
			Object("checkout", checkout).
			Msg("added check job")
	}
	return nil
}

func startConfigFileWatcher(ctx context.Context, cfgPath string, logger zerolog.Logger, ticker *time.Ticker, onChanged func(cfg *config.Config)) {
	logger.Info().Str("path", cfgPath).Msg("watching config file for changes")
	watcher, err := fileutils.WatchFile(ctx, cfgPath, when(ticker.C), func(err error) {
		logger.Error().Err(err).Msg("could not watch config file")
	})
	if err != nil {
		logger.Error().Err(err).Msg("could not watch config file")
		return
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-watcher:
				logger.Info().Str("path", cfgPath).Msg("config file changed, reloading")

				cfg, err := config.LoadFromFile(cfgPath)
				if err != nil {
					logger.Error().Err(err).Msg("could not load config")
					break
				}

				onChanged(cfg)
			}
		}
	}()
}

func when[T any](ch <-chan T) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		defer close(out)
		for range ch {
			out <- struct{}{}
		}
	}()
	return out
}

// checkJob periodically reports update availability for one checkout
// and applies the snapshot retention policy. It never mutates the
// working tree.
type checkJob struct {
	ctx      context.Context
	checkout config.ConfigCheckout
	runner   proc.Runner
	logger   zerolog.Logger
	dryRun   bool
}

func (j *checkJob) Run() {
	repo := gitcmd.Open(j.runner, j.checkout.RepoDir, j.logger)

	incoming, err := checkForUpdates(j.ctx, repo, j.checkout.Remote, j.checkout.Branch)
	if err != nil {
		j.logger.Error().Err(err).Msg("update check failed")
		return
	}
	if len(incoming) == 0 {
		j.logger.Info().Msg("up to date")
	} else {
		j.logger.Info().Int("commits", len(incoming)).Str("latest", incoming[0]).Msg("update available")
	}

	j.pruneSnapshots()
}

func (j *checkJob) pruneSnapshots() {
	if j.checkout.BackupKeep <= 0 && j.checkout.BackupMaxTotalSize.Size == 0 {
		return
	}
	if !fileutils.IsDir(j.checkout.DataDir) {
		return
	}

	opts := []backup.Option{backup.WithDryRun(j.dryRun)}
	if j.checkout.BackupKeep > 0 {
		opts = append(opts, backup.WithKeep(j.checkout.BackupKeep))
	}
	if j.checkout.BackupMaxTotalSize.Size > 0 {
		opts = append(opts, backup.WithMaxTotalSize(j.checkout.BackupMaxTotalSize.Size))
	}

	if _, err := backup.Prune(j.ctx, j.checkout.DataDir, j.logger, opts...); err != nil {
		j.logger.Error().Err(err).Msg("snapshot prune failed")
	}
}
