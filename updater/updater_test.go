package updater_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sober-pm/spm-update/backup"
	"github.com/sober-pm/spm-update/gitcmd"
	"github.com/sober-pm/spm-update/journal"
	"github.com/sober-pm/spm-update/pipcmd"
	"github.com/sober-pm/spm-update/proc"
	"github.com/sober-pm/spm-update/proc/proctest"
	"github.com/sober-pm/spm-update/updater"
)

type yesPrompter struct{ asked int }

func (p *yesPrompter) Confirm(string) (bool, error) {
	p.asked++
	return true, nil
}

type noPrompter struct{}

func (noPrompter) Confirm(string) (bool, error) { return false, nil }

// upToDateScript reports local and remote at the same revision.
func upToDateScript() map[string]proc.Result {
	return map[string]proc.Result{
		"git rev-parse --is-inside-work-tree": {Stdout: "true\n"},
		"git rev-parse HEAD":                  {Stdout: "aaa111\n"},
		"git rev-parse origin/main":           {Stdout: "aaa111\n"},
	}
}

// behindScript reports one incoming commit and a clean working tree.
func behindScript() *proctest.Runner {
	return &proctest.Runner{
		Results: map[string]proc.Result{
			"git rev-parse --is-inside-work-tree": {Stdout: "true\n"},
			"git rev-parse origin/main":           {Stdout: "bbb222\n"},
			"git log --oneline HEAD..origin/main": {Stdout: "bbb222 fix profile launcher\n"},
			"git diff --name-only aaa111 bbb222":  {Stdout: "main.py\n"},
		},
		Sequences: map[string][]proc.Result{
			"git rev-parse HEAD": {
				{Stdout: "aaa111\n"},
				{Stdout: "bbb222\n"},
			},
		},
	}
}

func newDataDir(t *testing.T) string {
	t.Helper()
	dataDir := filepath.Join(t.TempDir(), "ProfileManagerData")
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "profile1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "profiles.json"), []byte(`{"profiles": []}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "profile1", "settings.json"), []byte(`{}`), 0644))
	return dataDir
}

func newParams(runner *proctest.Runner, dataDir string) updater.Params {
	return updater.Params{
		Repo:      gitcmd.Open(runner, "/tmp/checkout", zerolog.Nop()),
		Installer: pipcmd.New(runner, zerolog.Nop()),
		DataDir:   dataDir,
		Remote:    "origin",
		Branch:    "main",
		Manifest:  "requirements.txt",
		Prompter:  &yesPrompter{},
		Logger:    zerolog.Nop(),
	}
}

func snapshotCount(t *testing.T, dataDir string) int {
	t.Helper()
	snapshots, err := backup.List(dataDir)
	require.NoError(t, err)
	return len(snapshots)
}

func TestRun_NotARepository(t *testing.T) {
	runner := &proctest.Runner{Results: map[string]proc.Result{
		"git rev-parse --is-inside-work-tree": {ExitCode: 128, Stderr: "fatal: not a git repository"},
	}}
	dataDir := newDataDir(t)

	_, err := updater.Run(context.Background(), newParams(runner, dataDir))
	assert.ErrorIs(t, err, gitcmd.ErrNotARepository)

	// Fails before any backup or pull.
	assert.Equal(t, 0, snapshotCount(t, dataDir))
	assert.Equal(t, 0, runner.CallCount("git pull"))
}

func TestRun_GitMissing(t *testing.T) {
	runner := &proctest.Runner{Missing: map[string]bool{"git": true}}

	_, err := updater.Run(context.Background(), newParams(runner, newDataDir(t)))
	assert.ErrorIs(t, err, gitcmd.ErrGitNotFound)
}

func TestRun_UpToDate(t *testing.T) {
	runner := &proctest.Runner{Results: upToDateScript()}
	dataDir := newDataDir(t)

	report, err := updater.Run(context.Background(), newParams(runner, dataDir))
	require.NoError(t, err)

	assert.Equal(t, updater.OutcomeUpToDate, report.Outcome)
	assert.Equal(t, "aaa111", report.FromRevision)
	assert.Equal(t, 0, snapshotCount(t, dataDir))
	assert.Equal(t, 0, runner.CallCount("git pull"))
}

func TestRun_Declined(t *testing.T) {
	runner := behindScript()
	dataDir := newDataDir(t)
	params := newParams(runner, dataDir)
	params.Prompter = noPrompter{}

	report, err := updater.Run(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, updater.OutcomeDeclined, report.Outcome)
	assert.Equal(t, 0, snapshotCount(t, dataDir))
	assert.Equal(t, 0, runner.CallCount("git pull"))
}

func TestRun_Updated(t *testing.T) {
	runner := behindScript()
	dataDir := newDataDir(t)
	prompter := &yesPrompter{}
	params := newParams(runner, dataDir)
	params.Prompter = prompter

	report, err := updater.Run(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, updater.OutcomeUpdated, report.Outcome)
	assert.Equal(t, "aaa111", report.FromRevision)
	assert.Equal(t, "bbb222", report.ToRevision)
	assert.Equal(t, []string{"bbb222 fix profile launcher"}, report.IncomingCommits)
	assert.Equal(t, 1, prompter.asked)
	assert.Equal(t, 1, runner.CallCount("git pull origin main"))
	assert.False(t, report.Stashed)
	assert.False(t, report.DepsChanged)
	assert.Equal(t, 0, runner.CallCount("pip"))

	// The snapshot exists, its name carries a parseable timestamp
	// and its contents match the data directory byte for byte.
	require.NotEmpty(t, report.BackupPath)
	assert.NoError(t, report.BackupErr)
	_, ok := backup.ParseSnapshotTime(dataDir, report.BackupPath)
	assert.True(t, ok)
	assert.NoError(t, backup.Verify(context.Background(), dataDir, report.BackupPath, zerolog.Nop()))
}

func TestRun_NoDataDir_SkipsBackup(t *testing.T) {
	runner := behindScript()
	params := newParams(runner, filepath.Join(t.TempDir(), "missing"))

	report, err := updater.Run(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, updater.OutcomeUpdated, report.Outcome)
	assert.Empty(t, report.BackupPath)
	assert.NoError(t, report.BackupErr)
}

func TestRun_DirtyTree_StashedAndRestored(t *testing.T) {
	runner := behindScript()
	runner.Results["git diff-index --quiet HEAD --"] = proc.Result{ExitCode: 1}

	report, err := updater.Run(context.Background(), newParams(runner, newDataDir(t)))
	require.NoError(t, err)

	assert.True(t, report.Stashed)
	assert.NoError(t, report.StashPopErr)
	assert.Equal(t, 1, runner.CallCount("git stash push"))
	assert.Equal(t, 1, runner.CallCount("git stash pop"))
}

func TestRun_StashPopFailure_IsNonFatal(t *testing.T) {
	runner := behindScript()
	runner.Results["git diff-index --quiet HEAD --"] = proc.Result{ExitCode: 1}
	runner.Results["git stash pop"] = proc.Result{ExitCode: 1, Stderr: "conflict in main.py"}

	report, err := updater.Run(context.Background(), newParams(runner, newDataDir(t)))
	require.NoError(t, err)

	assert.Equal(t, updater.OutcomeUpdated, report.Outcome)
	assert.True(t, report.Stashed)
	assert.Error(t, report.StashPopErr)
}

func TestRun_PullFailure_IsFatal(t *testing.T) {
	runner := behindScript()
	runner.Results["git pull origin main"] = proc.Result{ExitCode: 1, Stderr: "error: could not apply"}
	dataDir := newDataDir(t)

	report, err := updater.Run(context.Background(), newParams(runner, dataDir))
	require.Error(t, err)

	var pullErr *updater.PullError
	require.ErrorAs(t, err, &pullErr)
	assert.Equal(t, 1, pullErr.ExitCode)

	// The backup taken before the pull survives, and no dependency
	// reinstall is attempted after a failed pull.
	assert.Equal(t, 1, snapshotCount(t, dataDir))
	assert.Equal(t, 0, runner.CallCount("pip"))
	require.NotNil(t, report)
	assert.NotEmpty(t, report.BackupPath)
}

func TestRun_ManifestChanged_ReinstallsOnce(t *testing.T) {
	runner := behindScript()
	runner.Results["git diff --name-only aaa111 bbb222"] = proc.Result{Stdout: "main.py\nrequirements.txt\n"}

	report, err := updater.Run(context.Background(), newParams(runner, newDataDir(t)))
	require.NoError(t, err)

	assert.True(t, report.DepsChanged)
	assert.True(t, report.DepsRefreshed)
	assert.Equal(t, 1, runner.CallCount("pip3 install -r requirements.txt --upgrade"))

	// The reinstall happens after the pull.
	pullIdx, pipIdx := -1, -1
	for i, call := range runner.Calls {
		switch call {
		case "git pull origin main":
			pullIdx = i
		case "pip3 install -r requirements.txt --upgrade":
			pipIdx = i
		}
	}
	assert.Greater(t, pipIdx, pullIdx)
}

func TestRun_ManifestChanged_PipMissing(t *testing.T) {
	runner := behindScript()
	runner.Results["git diff --name-only aaa111 bbb222"] = proc.Result{Stdout: "requirements.txt\n"}
	runner.Missing = map[string]bool{"pip3": true, "pip": true}

	report, err := updater.Run(context.Background(), newParams(runner, newDataDir(t)))
	require.NoError(t, err)

	assert.Equal(t, updater.OutcomeUpdated, report.Outcome)
	assert.True(t, report.DepsChanged)
	assert.False(t, report.DepsRefreshed)
	assert.Equal(t, "pip install -r requirements.txt --upgrade", report.DepsManualCommand)
	assert.Equal(t, 0, runner.CallCount("pip"))
}

func TestRun_DryRun_MutatesNothing(t *testing.T) {
	runner := behindScript()
	runner.Results["git diff-index --quiet HEAD --"] = proc.Result{ExitCode: 1}
	dataDir := newDataDir(t)

	report, err := updater.Run(context.Background(), newParams(runner, dataDir),
		updater.WithDryRun(true))
	require.NoError(t, err)

	assert.Equal(t, updater.OutcomeUpdated, report.Outcome)
	assert.Equal(t, 0, snapshotCount(t, dataDir))
	assert.Equal(t, 0, runner.CallCount("git pull"))
	assert.Equal(t, 0, runner.CallCount("git stash"))
	assert.Equal(t, 0, runner.CallCount("pip"))
}

func TestRun_AssumeYes_SkipsPrompt(t *testing.T) {
	runner := behindScript()
	prompter := &yesPrompter{}
	params := newParams(runner, newDataDir(t))
	params.Prompter = prompter

	_, err := updater.Run(context.Background(), params, updater.WithAssumeYes(true))
	require.NoError(t, err)
	assert.Equal(t, 0, prompter.asked)
}

func TestRun_SkipBackup(t *testing.T) {
	runner := behindScript()
	dataDir := newDataDir(t)

	report, err := updater.Run(context.Background(), newParams(runner, dataDir),
		updater.WithSkipBackup(true))
	require.NoError(t, err)

	assert.Empty(t, report.BackupPath)
	assert.Equal(t, 0, snapshotCount(t, dataDir))
}

func TestRun_RecordsJournal(t *testing.T) {
	cli, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "journal.db")), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, cli.AutoMigrate(&journal.Run{}))
	j := &journal.Journal{Cli: cli, Logger: zerolog.Nop()}

	runner := behindScript()
	runner.Results["git pull origin main"] = proc.Result{ExitCode: 1, Stderr: "network down"}
	params := newParams(runner, newDataDir(t))
	params.Journal = j

	_, err = updater.Run(context.Background(), params)
	require.Error(t, err)

	last, err := j.LastRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, journal.OutcomeFailed, last.Outcome)
	assert.Equal(t, "aaa111", last.FromRevision)
	assert.Contains(t, last.Detail, "git pull failed")
	assert.NotEmpty(t, last.BackupPath)
}
