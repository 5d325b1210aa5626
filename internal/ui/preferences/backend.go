package preferences

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"breakmate/internal/ipc"
	"breakmate/internal/storage"
	"breakmate/internal/xslog"
)

// Backend loads and saves preferences over the message bus.
type Backend struct {
	store      *ipc.StoreClient
	autoLaunch *ipc.AutoLaunchClient
	smartPause *ipc.SmartPauseClient
	logger     *slog.Logger
}

// NewBackend creates a Backend bound to bus.
func NewBackend(bus *ipc.Bus, logger *slog.Logger) *Backend {
	return &Backend{
		store:      ipc.NewStoreClient(bus),
		autoLaunch: ipc.NewAutoLaunchClient(bus),
		smartPause: ipc.NewSmartPauseClient(bus),
		logger:     xslog.OrDiscard(logger).With(xslog.Component("preferences")),
	}
}

// Load reads current preferences. Fields that cannot be read keep their defaults.
func (backend *Backend) Load(ctx context.Context) Settings {
	settings := DefaultSettings()

	if err := backend.store.Get(ctx, storage.KeyTimerSettings, &settings.Timer); err != nil {
		backend.logger.Warn("load timer settings failed", xslog.Error(err))
		settings.Timer = DefaultSettings().Timer
	}
	if err := backend.store.Get(ctx, storage.KeyTheme, &settings.Theme); err != nil || !IsTheme(settings.Theme) {
		settings.Theme = ThemeSystem
	}
	if enabled, err := backend.smartPause.IsEnabled(ctx); err == nil {
		settings.SmartPauseEnabled = enabled
	} else {
		backend.logger.Warn("load smart pause state failed", xslog.Error(err))
	}
	if minutes, err := backend.smartPause.Threshold(ctx); err == nil && minutes > 0 {
		settings.SmartPauseThreshold = minutes
	}
	if enabled, err := backend.autoLaunch.IsEnabled(ctx); err == nil {
		settings.StartOnLogin = enabled
	} else {
		backend.logger.Warn("load auto-launch state failed", xslog.Error(err))
	}
	return settings
}

// Save persists the fields that differ between previous and next.
func (backend *Backend) Save(ctx context.Context, previous, next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}

	var errs []error
	if next.Timer != previous.Timer {
		if err := backend.store.Set(ctx, storage.KeyTimerSettings, next.Timer); err != nil {
			errs = append(errs, fmt.Errorf("save timer settings: %w", err))
		}
	}
	if next.Theme != previous.Theme {
		if err := backend.store.Set(ctx, storage.KeyTheme, next.Theme); err != nil {
			errs = append(errs, fmt.Errorf("save theme: %w", err))
		}
	}
	if next.SmartPauseEnabled != previous.SmartPauseEnabled {
		if result := backend.smartPause.SetEnabled(ctx, next.SmartPauseEnabled); !result.Success {
			errs = append(errs, fmt.Errorf("save smart pause: %s", result.Error))
		}
	}
	if next.SmartPauseThreshold != previous.SmartPauseThreshold {
		if result := backend.smartPause.SetThreshold(ctx, next.SmartPauseThreshold); !result.Success {
			errs = append(errs, fmt.Errorf("save smart pause threshold: %s", result.Error))
		}
	}
	if next.StartOnLogin != previous.StartOnLogin {
		if result := backend.autoLaunch.SetEnabled(ctx, next.StartOnLogin); !result.Success {
			errs = append(errs, fmt.Errorf("update start on login: %s", result.Error))
		}
	}
	return errors.Join(errs...)
}
