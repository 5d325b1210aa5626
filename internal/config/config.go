// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config holds cadences, delays and logging options.
type Config struct {
	AppName    string           `mapstructure:"app_name"`
	Timer      TimerConfig      `mapstructure:"timer"`
	Break      BreakConfig      `mapstructure:"break"`
	Overlay    OverlayConfig    `mapstructure:"overlay"`
	Display    DisplayConfig    `mapstructure:"display"`
	SmartPause SmartPauseConfig `mapstructure:"smart_pause"`
	IPC        IPCConfig        `mapstructure:"ipc"`
	Log        LogConfig        `mapstructure:"log"`
}

// TimerConfig controls the work/break controller.
type TimerConfig struct {
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	RestartDelay     time.Duration `mapstructure:"restart_delay"`
	SnoozeDuration   time.Duration `mapstructure:"snooze_duration"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
}

// BreakConfig controls the break countdown.
type BreakConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// OverlayConfig controls overlay orchestration and visuals.
type OverlayConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	SettleDelay     time.Duration `mapstructure:"settle_delay"`
	CompletionDelay time.Duration `mapstructure:"completion_delay"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	Tolerance       int           `mapstructure:"tolerance"`
	Opacity         int           `mapstructure:"opacity"`
	FadeDuration    time.Duration `mapstructure:"fade_duration"`
}

// DisplayConfig controls display topology polling.
type DisplayConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// SmartPauseConfig controls idle polling.
type SmartPauseConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// IPCConfig controls the message bus.
type IPCConfig struct {
	QueueSize   int           `mapstructure:"queue_size"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// LogConfig controls log output and rotation.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		AppName: "BreakMate",
		Timer: TimerConfig{
			TickInterval:     100 * time.Millisecond,
			RestartDelay:     500 * time.Millisecond,
			SnoozeDuration:   5 * time.Minute,
			ProgressInterval: time.Second,
		},
		Break: BreakConfig{
			PollInterval: 100 * time.Millisecond,
		},
		Overlay: OverlayConfig{
			PollInterval:    100 * time.Millisecond,
			SettleDelay:     300 * time.Millisecond,
			CompletionDelay: 100 * time.Millisecond,
			QueryTimeout:    2 * time.Second,
			Tolerance:       100,
			Opacity:         235,
			FadeDuration:    400 * time.Millisecond,
		},
		Display: DisplayConfig{
			PollInterval: 2 * time.Second,
		},
		SmartPause: SmartPauseConfig{
			PollInterval: 5 * time.Second,
		},
		IPC: IPCConfig{
			QueueSize:   256,
			CallTimeout: 2 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			File:       "breakmate.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}

// Validate reports every out-of-range value.
func (cfg *Config) Validate() error {
	var errs []error
	positive := []struct {
		name  string
		value time.Duration
	}{
		{"timer.tick_interval", cfg.Timer.TickInterval},
		{"timer.restart_delay", cfg.Timer.RestartDelay},
		{"timer.snooze_duration", cfg.Timer.SnoozeDuration},
		{"timer.progress_interval", cfg.Timer.ProgressInterval},
		{"break.poll_interval", cfg.Break.PollInterval},
		{"overlay.poll_interval", cfg.Overlay.PollInterval},
		{"overlay.settle_delay", cfg.Overlay.SettleDelay},
		{"overlay.completion_delay", cfg.Overlay.CompletionDelay},
		{"overlay.query_timeout", cfg.Overlay.QueryTimeout},
		{"display.poll_interval", cfg.Display.PollInterval},
		{"smart_pause.poll_interval", cfg.SmartPause.PollInterval},
		{"ipc.call_timeout", cfg.IPC.CallTimeout},
	}
	for _, field := range positive {
		if field.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", field.name, field.value))
		}
	}
	if cfg.Overlay.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("overlay.tolerance must be positive, got %d", cfg.Overlay.Tolerance))
	}
	if cfg.Overlay.Opacity < 0 || cfg.Overlay.Opacity > 255 {
		errs = append(errs, fmt.Errorf("overlay.opacity must be within 0..255, got %d", cfg.Overlay.Opacity))
	}
	if cfg.IPC.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("ipc.queue_size must be positive, got %d", cfg.IPC.QueueSize))
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
