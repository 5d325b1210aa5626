// Package autolaunch keeps the start-on-login preference and the OS login entry in agreement.
package autolaunch

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"breakmate/internal/platform"
	"breakmate/internal/storage"
	"breakmate/internal/xslog"
)

// Autostarter manages the OS login entry.
type Autostarter interface {
	EnableAutostart(appName, execPath string, args ...string) error
	DisableAutostart(appName string) error
	AutostartEnabled(appName string) (bool, error)
}

// Store persists the preference.
type Store interface {
	HasStored(key string) bool
	Bool(key string, fallback bool) bool
	Set(key string, value any) error
}

// AskFunc asks the user whether to start on login.
type AskFunc func(ctx context.Context) (bool, error)

// Result reports the outcome of an enable or disable request.
type Result struct {
	Success bool
	Error   string
}

// Config identifies the login entry.
type Config struct {
	AppName  string
	ExecPath string
	Args     []string
}

// Service toggles start-on-login.
type Service struct {
	autostarter Autostarter
	store       Store
	logger      *slog.Logger
	config      Config
}

// New creates a Service. An empty ExecPath resolves to the running executable.
func New(autostarter Autostarter, store Store, logger *slog.Logger, config Config) *Service {
	if config.AppName == "" {
		config.AppName = "BreakMate"
	}
	if config.ExecPath == "" {
		if execPath, err := os.Executable(); err == nil {
			config.ExecPath = execPath
		}
	}
	if config.Args == nil {
		config.Args = []string{platform.HiddenFlag}
	}
	return &Service{
		autostarter: autostarter,
		store:       store,
		logger:      xslog.OrDiscard(logger).With(xslog.Component("autolaunch")),
		config:      config,
	}
}

// Enable writes the login entry and records the preference.
func (service *Service) Enable() Result {
	if err := service.autostarter.EnableAutostart(service.config.AppName, service.config.ExecPath, service.config.Args...); err != nil {
		service.logger.Error("enable auto-launch failed", xslog.Error(err))
		return Result{Error: err.Error()}
	}
	if err := service.store.Set(storage.KeyAutoLaunchEnabled, true); err != nil {
		service.logger.Error("persist auto-launch preference failed", xslog.Error(err))
		return Result{Error: err.Error()}
	}
	service.logger.Info("auto-launch enabled")
	return Result{Success: true}
}

// Disable removes the login entry and records the preference.
func (service *Service) Disable() Result {
	if err := service.autostarter.DisableAutostart(service.config.AppName); err != nil {
		service.logger.Error("disable auto-launch failed", xslog.Error(err))
		return Result{Error: err.Error()}
	}
	if err := service.store.Set(storage.KeyAutoLaunchEnabled, false); err != nil {
		service.logger.Error("persist auto-launch preference failed", xslog.Error(err))
		return Result{Error: err.Error()}
	}
	service.logger.Info("auto-launch disabled")
	return Result{Success: true}
}

// IsEnabled trusts the stored preference and falls back to the OS entry.
func (service *Service) IsEnabled() bool {
	if service.store.HasStored(storage.KeyAutoLaunchEnabled) {
		return service.store.Bool(storage.KeyAutoLaunchEnabled, false)
	}
	return service.osEnabled()
}

// Reconcile asks on first run and afterwards re-applies the stored preference to the OS.
func (service *Service) Reconcile(ctx context.Context, ask AskFunc) error {
	if !service.store.Bool(storage.KeyAutoLaunchConfigured, false) {
		return service.firstRun(ctx, ask)
	}

	wanted := service.store.Bool(storage.KeyAutoLaunchEnabled, false)
	actual := service.osEnabled()
	switch {
	case wanted && !actual:
		if err := service.autostarter.EnableAutostart(service.config.AppName, service.config.ExecPath, service.config.Args...); err != nil {
			return fmt.Errorf("re-enable auto-launch: %w", err)
		}
		service.logger.Info("auto-launch re-enabled from saved preference")
	case !wanted && actual:
		if err := service.autostarter.DisableAutostart(service.config.AppName); err != nil {
			return fmt.Errorf("disable auto-launch: %w", err)
		}
		service.logger.Info("auto-launch disabled from saved preference")
	}
	return nil
}

func (service *Service) firstRun(ctx context.Context, ask AskFunc) error {
	if ask == nil {
		return nil
	}
	accepted, err := ask(ctx)
	if err != nil {
		return fmt.Errorf("ask auto-launch permission: %w", err)
	}

	if err := service.store.Set(storage.KeyAutoLaunchConfigured, true); err != nil {
		return fmt.Errorf("persist auto-launch configured: %w", err)
	}
	if !accepted {
		if err := service.store.Set(storage.KeyAutoLaunchEnabled, false); err != nil {
			return fmt.Errorf("persist auto-launch preference: %w", err)
		}
		service.logger.Info("auto-launch declined by user")
		return nil
	}

	if result := service.Enable(); !result.Success {
		return fmt.Errorf("enable auto-launch: %s", result.Error)
	}
	return nil
}

func (service *Service) osEnabled() bool {
	enabled, err := service.autostarter.AutostartEnabled(service.config.AppName)
	if err != nil {
		service.logger.Warn("query auto-launch failed", xslog.Error(err))
		return false
	}
	return enabled
}
