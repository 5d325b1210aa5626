package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"breakmate/internal/app"
	"breakmate/internal/config"
	"breakmate/internal/platform"
	"breakmate/internal/storage"
	"breakmate/internal/xslog"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appID = "com.breakmate.app"

// Flag names.
const (
	FlagConfig   = "config"
	FlagLogLevel = "log-level"
	FlagDebug    = "debug"
	FlagHidden   = "hidden"
)

var version = "dev"

func main() {
	v := config.NewViper()

	rootCmd := &cobra.Command{
		Use:   "breakmate",
		Short: "Reminds you to rest your eyes with a fullscreen break on every display",
		Long: `BreakMate runs in the system tray and counts down the work interval.
When it elapses, a fullscreen overlay covers every display for the break
duration. Breaks can be skipped or snoozed from the overlay.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v)
		},
	}

	flags := rootCmd.Flags()
	flags.String(FlagConfig, "", "Config file path (default: <user config dir>/BreakMate/config.yaml)")
	flags.String(FlagLogLevel, "info", "Log level: debug, info, warn or error")
	flags.Bool(FlagDebug, false, "Log at debug level and echo logs to stderr")
	flags.Bool(FlagHidden, false, "Start in the tray without showing the main window")

	_ = v.BindPFlag(config.KeyConfig, flags.Lookup(FlagConfig))
	_ = v.BindPFlag("log.level", flags.Lookup(FlagLogLevel))
	_ = v.BindPFlag(FlagDebug, flags.Lookup(FlagDebug))
	_ = v.BindPFlag(FlagHidden, flags.Lookup(FlagHidden))

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("breakmate %s\n", version)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, v *viper.Viper) error {
	platformService := platform.NewService()
	configDir, err := platformService.GetConfigDir()
	if err != nil {
		return err
	}

	appDir := filepath.Join(configDir, config.Default().AppName)
	if _, err := config.LoadDotEnv(".env", filepath.Join(appDir, ".env")); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadConfig(v, appDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	var echo io.Writer
	if v.GetBool(FlagDebug) {
		level = slog.LevelDebug
		echo = os.Stderr
	}
	logResult := SetupLogger(appDir, level, cfg.Log, echo)
	defer func() { _ = logResult.Close() }()
	logger := logResult.Logger
	slog.SetDefault(logger)

	guard, err := platform.AcquireSingleInstance(cfg.AppName)
	if errors.Is(err, platform.ErrAlreadyRunning) {
		logger.Info("another instance is running, asked it to show itself")
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = guard.Release() }()

	store, err := storage.Open(configDir, config.Default().AppName)
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}
	logger.Info("starting",
		slog.String("version", version),
		xslog.Path(store.Path()),
		slog.String("log_file", logResult.FilePath))

	core, err := app.NewCore(app.CoreDeps{
		Config:      cfg,
		Store:       store,
		Autostarter: platformService,
		IdleChecker: platform.NewIdleProvider(),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	application, err := app.New(app.Deps{
		Fyne:   fyneapp.NewWithID(appID),
		Core:   core,
		Store:  store,
		Config: cfg,
		Guard:  guard,
		Hidden: v.GetBool(FlagHidden),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped with error", xslog.Error(err))
		return err
	}
	logger.Info("stopped")
	return nil
}
