package overlay

import (
	"log/slog"
	"sync/atomic"

	"breakmate/internal/core/model"
	"breakmate/internal/ui/screen"
	"breakmate/internal/xslog"

	"fyne.io/fyne/v2"
)

// FyneHost creates fyne overlay windows for the displays reported by a screen source.
type FyneHost struct {
	app    fyne.App
	source screen.Source
	sender Sender
	logger *slog.Logger
	config WindowConfig
	warned atomic.Bool
}

// NewFyneHost creates a FyneHost.
func NewFyneHost(app fyne.App, source screen.Source, sender Sender, logger *slog.Logger, config WindowConfig) *FyneHost {
	return &FyneHost{
		app:    app,
		source: source,
		sender: sender,
		logger: logger,
		config: config,
	}
}

// Displays returns the attached displays.
func (host *FyneHost) Displays() []model.Display {
	displays := host.source.Displays()
	if !positionsWindows && len(displays) > 1 && host.warned.CompareAndSwap(false, true) {
		xslog.OrDiscard(host.logger).Warn("overlays cannot be placed per monitor on this platform, "+
			"the window manager picks where each one goes fullscreen", xslog.Count(len(displays)))
	}
	return displays
}

// NewSurface creates an overlay window bound to display.
func (host *FyneHost) NewSurface(display model.Display) Surface {
	return NewWindow(host.app, display, host.sender, host.logger, host.config)
}
