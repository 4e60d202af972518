package main

import "github.com/sober-pm/spm-update/config"

type Command struct {
	Version struct{} `cmd:"" help:"Print version information."`
	Update  struct {
		Repo       string `help:"application checkout directory" short:"r" default:"."`
		Data       string `help:"user data directory (default: ProfileManagerData inside the checkout)" short:"d"`
		Remote     string `help:"git remote name" default:"origin"`
		Branch     string `help:"git branch name" default:"main"`
		Manifest   string `help:"dependency manifest file" default:"requirements.txt"`
		Database   string `help:"update history database path"`
		Yes        bool   `help:"apply without asking for confirmation" short:"y"`
		SkipBackup bool   `help:"don't snapshot the user data directory first"`
		DryRun     bool   `help:"don't change any files, just print the output"`
	} `cmd:"" help:"Fetch and apply application updates."`
	Check struct {
		Repo   string `help:"application checkout directory" short:"r" default:"."`
		Remote string `help:"git remote name" default:"origin"`
		Branch string `help:"git branch name" default:"main"`
	} `cmd:"" help:"Check whether updates are available without changing anything."`
	Backup struct {
		Data   string `help:"user data directory path" short:"d" required:""`
		DryRun bool   `help:"don't write any files, just print the output"`
	} `cmd:"" help:"Snapshot the user data directory now."`
	Restore struct {
		Data     string `help:"user data directory path" short:"d" required:""`
		Snapshot string `help:"snapshot directory to restore (default: the newest)"`
		Yes      bool   `help:"restore without asking for confirmation" short:"y"`
		DryRun   bool   `help:"don't write any files, just print the output"`
	} `cmd:"" help:"Restore a snapshot over the user data directory."`
	Prune struct {
		Data    string              `help:"user data directory path" short:"d" required:""`
		Keep    int                 `help:"number of snapshots to keep" default:"-1"`
		MaxSize config.SizeArgument `help:"maximum total bytes kept across snapshots"`
		DryRun  bool                `help:"don't delete any files, just print the output"`
	} `cmd:"" help:"Delete old user data snapshots."`
	History struct {
		Database string `help:"update history database path" required:""`
		Limit    int    `help:"maximum runs to show" default:"20"`
	} `cmd:"" help:"Show recorded update runs."`
	Daemon struct {
		Config string `help:"config file path" short:"c" required:""`
		DryRun bool   `help:"don't change any files, just print the output"`
	} `cmd:"" help:"Periodically check the configured checkouts for updates."`
}
