package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/routinely/internal/cache"
	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/constants"
	apperr "github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/keyring"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/storage/postgres"
	"github.com/julianstephens/routinely/internal/storage/sqlite"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"SQLite path or PostgreSQL connection string. Passwords must NOT be embedded; use the keyring or ${env_conn} instead." env:"ROUTINELY_CONFIG" default:"${default_config}"`
	Debug   bool   `help:"Log debug output to stderr as well as the log file."`
	User    string `help:"User whose routines to manage." env:"ROUTINELY_USER" default:"${default_user}"`
	Seed    uint64 `help:"Seed for schedule randomness (0 draws from the clock)."`

	ProviderTimeout time.Duration `help:"Per-source timeout when assembling the day's context." default:"5s"`
	CacheTTL        time.Duration `help:"How long assembled contexts stay cached." default:"5m"`
	RedisAddr       string        `help:"Redis address for a shared context cache; empty keeps it in memory for a single invocation." env:"ROUTINELY_REDIS_ADDR"`
	RedisPassword   string        `help:"Redis password." env:"ROUTINELY_REDIS_PASSWORD"`
	RedisDB         int           `help:"Redis database number." name:"redis-db"`

	Init     cli.InitCmd     `cmd:"" help:"Initialize routinely storage."`
	Doctor   cli.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Keyring  cli.KeyringCmd  `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Profile  cli.ProfileCmd  `cmd:"" help:"Show or edit your profile."`
	Routines cli.RoutinesCmd `cmd:"" help:"Generate and track daily routines."`
	Habits   cli.HabitsCmd   `cmd:"" help:"Manage habits."`
	Reviews  cli.ReviewsCmd  `cmd:"" help:"Record evening reviews."`
	Cache    cli.CacheCmd    `cmd:"" help:"Inspect the routine context cache (per-process unless --redis-addr is set)."`
	Settings cli.SettingsCmd `cmd:"" help:"Manage application settings."`
	Backup   cli.BackupCmd   `cmd:"" help:"Snapshot and restore the SQLite database."`
}

func defaultUser() string {
	if u := strings.TrimSpace(os.Getenv("USER")); u != "" {
		return u
	}
	return "default"
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func openStore(config string) (storage.Provider, error) {
	if postgres.IsConnString(config) || strings.Contains(config, "host=") {
		if err := postgres.ValidateConnString(config); err != nil {
			return nil, fmt.Errorf("%w\n       store credentials with 'routinely keyring set' or %s instead", err, constants.EnvConnectionString)
		}
		return postgres.New(keyring.ResolveConnectionString(config)), nil
	}
	return sqlite.NewStore(expandHome(config)), nil
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Adaptive daily routine planner"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
			"default_user":   defaultUser(),
			"env_conn":       constants.EnvConnectionString,
		},
	)

	configDir := filepath.Dir(expandHome(constants.DefaultConfigPath))
	if !postgres.IsConnString(CLI.Config) {
		configDir = filepath.Dir(expandHome(CLI.Config))
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := openStore(CLI.Config)
	if err != nil {
		apperr.Fatal(err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	appCtx := cli.New(ctx, store, CLI.User)
	defer appCtx.Close()

	cfg := cli.Config{
		Seed:            CLI.Seed,
		ProviderTimeout: CLI.ProviderTimeout,
		CacheTTL:        CLI.CacheTTL,
		Redis: cache.RedisConfig{
			Addr:     CLI.RedisAddr,
			Password: CLI.RedisPassword,
			DB:       CLI.RedisDB,
		},
	}

	command := kctx.Command()
	switch {
	case strings.HasPrefix(command, "init"), strings.HasPrefix(command, "keyring"), strings.HasPrefix(command, "backup"):
	case strings.HasPrefix(command, "doctor"):
		// Doctor reports load failures itself.
		if err := store.Load(ctx); err == nil {
			if err := appCtx.Wire(cfg); err != nil {
				logger.Warn("doctor: engine wiring failed", "error", err)
			}
		}
	default:
		if err := store.Load(ctx); err != nil {
			apperr.Fatal(err)
		}
		if err := appCtx.Wire(cfg); err != nil {
			apperr.Fatal(err)
		}
	}

	if err := kctx.Run(appCtx); err != nil {
		logger.Error("Command failed", "command", command, "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", apperr.Format(err))
		os.Exit(1)
	}
}
