package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/daybook/internal/cli"
	"github.com/julianstephens/daybook/internal/constants"
	"github.com/julianstephens/daybook/internal/engine"
	apperrors "github.com/julianstephens/daybook/internal/errors"
	"github.com/julianstephens/daybook/internal/keyring"
	"github.com/julianstephens/daybook/internal/leaderboard"
	"github.com/julianstephens/daybook/internal/logger"
	"github.com/julianstephens/daybook/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Store path or PostgreSQL connection string. For PostgreSQL, credentials must NOT be embedded in the connection string. Use the OS keyring or the ${env} environment variable instead." type:"string" default:"${config_path}"`
	User    string `help:"User id to operate as." default:"${default_user}"`
	Debug   bool   `help:"Enable debug logging."`

	Init    cli.InitCmd    `cmd:"" help:"Initialize daybook storage."`
	Migrate cli.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  cli.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`

	Today cli.TodayCmd `cmd:"" help:"Show today's entry, rolling over from the last active day if needed." default:"1"`
	Plan  cli.PlanCmd  `cmd:"" help:"Seed routines into a future date without rollover."`
	Roll  cli.RollCmd  `cmd:"" help:"Push today's unfinished ad hoc tasks to tomorrow."`

	Task struct {
		Add    cli.TaskAddCmd    `cmd:"" help:"Add a task to a day."`
		Done   cli.TaskDoneCmd   `cmd:"" help:"Toggle a task's completion."`
		Delete cli.TaskDeleteCmd `cmd:"" help:"Delete a task from a day."`
		List   cli.TaskListCmd   `cmd:"" help:"List a day's tasks."`
	} `cmd:"" help:"Manage tasks."`

	Routine cli.RoutineCmd `cmd:"" help:"Manage morning and night routines."`
	Board   cli.BoardCmd   `cmd:"" help:"Show the completion leaderboard."`
	User_   cli.UserCmd    `cmd:"" name:"user" help:"Manage the user profile."`

	Backup struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    cli.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage store backups."`

	Keyring cli.KeyringCmd `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily task ledger with routine injection and day rollover"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":      constants.Version,
			"config_path":  constants.DefaultConfigPath,
			"default_user": constants.DefaultUser,
			"env":          constants.ConnectionEnvVar,
		},
	)

	store, err := selectStore(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: configDir(store),
	}); err != nil {
		apperrors.Fatal(err)
	}

	appCtx := &cli.Context{
		Store:  store,
		Engine: engine.New(store),
		Board:  leaderboard.New(store),
		User:   CLI.User,
	}

	// Init and migrate handle their own loading (Load refuses an out-of-date
	// schema, which is exactly what migrate is for), doctor reports load
	// failures as findings, and keyring commands never touch the store.
	command := ctx.Command()
	skipLoad := command == "init" || command == "migrate" || command == "doctor" ||
		strings.HasPrefix(command, "keyring")
	if !skipLoad {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
		defer store.Close()
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		apperrors.Fatal(err)
	}
}

// selectStore picks a storage provider from the config value. PostgreSQL URLs
// on the command line must not embed credentials; the full connection string
// comes from the OS keyring or the environment instead.
func selectStore(config string) (storage.Provider, error) {
	if strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://") {
		if storage.HasEmbeddedCredentials(config) {
			return nil, fmt.Errorf("connection strings with embedded credentials are not allowed on the command line; store the full string with 'daybook keyring set' or export %s", constants.ConnectionEnvVar)
		}
		return storage.NewPostgresStore(resolveConnString(config)), nil
	}

	// The config flag is a plain string so PostgreSQL URLs survive parsing,
	// which means tilde expansion is on us.
	if strings.HasPrefix(config, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory: %w", err)
		}
		config = filepath.Join(home, config[2:])
	}

	if filepath.Ext(config) == ".json" {
		return storage.NewJSONStore(config), nil
	}
	return storage.NewSQLiteStore(config), nil
}

// configDir returns the directory logs live under. Postgres stores have no
// local file, so they fall back to the default config directory.
func configDir(store storage.Provider) string {
	if _, ok := store.(*storage.PostgresStore); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".config", constants.AppName)
		}
		return "."
	}
	return filepath.Dir(store.GetConfigPath())
}

// resolveConnString prefers a credentialed connection string from the keyring
// or the environment over the bare URL given on the command line.
func resolveConnString(config string) string {
	if connStr, err := keyring.GetConnectionString(); err == nil {
		return connStr
	} else if !errors.Is(err, keyring.ErrNotFound) {
		logger.Debug("keyring unavailable", "err", err)
	}

	if connStr := os.Getenv(constants.ConnectionEnvVar); connStr != "" {
		return connStr
	}
	return config
}
