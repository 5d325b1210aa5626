package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(NewViper(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_AppDirFile(t *testing.T) {
	dir := t.TempDir()
	content := `
overlay:
  settle_delay: 450ms
  tolerance: 40
smart_pause:
  poll_interval: 10s
log:
  level: debug
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	cfg, err := LoadConfig(NewViper(), dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Overlay.SettleDelay != 450*time.Millisecond {
		t.Errorf("Overlay.SettleDelay = %v, want 450ms", cfg.Overlay.SettleDelay)
	}
	if cfg.Overlay.Tolerance != 40 {
		t.Errorf("Overlay.Tolerance = %d, want 40", cfg.Overlay.Tolerance)
	}
	if cfg.SmartPause.PollInterval != 10*time.Second {
		t.Errorf("SmartPause.PollInterval = %v, want 10s", cfg.SmartPause.PollInterval)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	// Untouched sections keep defaults.
	if cfg.Timer.SnoozeDuration != 5*time.Minute {
		t.Errorf("Timer.SnoozeDuration = %v, want 5m", cfg.Timer.SnoozeDuration)
	}
}

func TestLoadConfig_ExplicitFileOverridesAppDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("ipc:\n  queue_size: 64\n"), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	explicit := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(explicit, []byte("ipc:\n  queue_size: 32\n"), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	v := NewViper()
	v.Set(KeyConfig, explicit)
	cfg, err := LoadConfig(v, dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.IPC.QueueSize != 32 {
		t.Errorf("IPC.QueueSize = %d, want 32", cfg.IPC.QueueSize)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	v := NewViper()
	v.Set(KeyConfig, filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := LoadConfig(v, ""); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("timer:\n  snooze_duration: 2m\n"), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	t.Setenv("BREAKMATE_TIMER_SNOOZE_DURATION", "7m")
	t.Setenv("BREAKMATE_OVERLAY_QUERY_TIMEOUT", "3s")

	cfg, err := LoadConfig(NewViper(), dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Timer.SnoozeDuration != 7*time.Minute {
		t.Errorf("Timer.SnoozeDuration = %v, want 7m", cfg.Timer.SnoozeDuration)
	}
	if cfg.Overlay.QueryTimeout != 3*time.Second {
		t.Errorf("Overlay.QueryTimeout = %v, want 3s", cfg.Overlay.QueryTimeout)
	}
}

func TestLoadConfig_FlagOverridesEnv(t *testing.T) {
	t.Setenv("BREAKMATE_LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	if err := flags.Parse([]string{"--log-level=error"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	v := NewViper()
	if err := v.BindPFlag("log.level", flags.Lookup("log-level")); err != nil {
		t.Fatalf("bind flag: %v", err)
	}

	cfg, err := LoadConfig(v, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want error", cfg.Log.Level)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	content := "overlay:\n  opacity: 300\nipc:\n  queue_size: 0\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	if _, err := LoadConfig(NewViper(), dir); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "BREAKMATE_IPC_QUEUE_SIZE=128\nBREAKMATE_LOG_LEVEL=debug\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write .env failed: %v", err)
	}

	// Registers cleanup that unsets the variable again.
	t.Setenv("BREAKMATE_IPC_QUEUE_SIZE", "")
	if err := os.Unsetenv("BREAKMATE_IPC_QUEUE_SIZE"); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	t.Setenv("BREAKMATE_LOG_LEVEL", "warn")

	applied, err := LoadDotEnv(filepath.Join(dir, "missing.env"), path)
	if err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"BREAKMATE_IPC_QUEUE_SIZE": "128"}, applied); diff != "" {
		t.Errorf("applied mismatch (-want +got):\n%s", diff)
	}

	cfg, err := LoadConfig(NewViper(), "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.IPC.QueueSize != 128 {
		t.Errorf("IPC.QueueSize = %d, want 128", cfg.IPC.QueueSize)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    slog.Level
		wantErr bool
	}{
		{name: "debug", in: "debug", want: slog.LevelDebug},
		{name: "upper", in: "WARN", want: slog.LevelWarn},
		{name: "padded", in: " error ", want: slog.LevelError},
		{name: "invalid", in: "loud", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
