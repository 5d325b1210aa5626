// Package screen enumerates attached displays and reports topology changes.
package screen

import (
	"fmt"
	"log/slog"

	"breakmate/internal/core/model"
	"breakmate/internal/xslog"

	"fyne.io/fyne/v2"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Source enumerates the currently attached displays.
type Source interface {
	Displays() []model.Display
}

// FallbackDisplay is reported when no monitor can be enumerated.
var FallbackDisplay = model.Display{
	ID:     "primary",
	Name:   "primary",
	Bounds: model.Rect{Width: 1920, Height: 1080},
}

// GLFWSource reads monitors through glfw on the fyne main thread.
type GLFWSource struct {
	logger *slog.Logger
}

// NewGLFWSource creates a GLFWSource.
func NewGLFWSource(logger *slog.Logger) *GLFWSource {
	return &GLFWSource{logger: xslog.OrDiscard(logger).With(xslog.Component("screen"))}
}

// Displays returns every attached monitor, or FallbackDisplay when none can be read.
func (source *GLFWSource) Displays() []model.Display {
	var displays []model.Display
	fyne.DoAndWait(func() {
		displays = source.enumerate()
	})
	if len(displays) == 0 {
		return []model.Display{FallbackDisplay}
	}
	return displays
}

func (source *GLFWSource) enumerate() (displays []model.Display) {
	// glfw panics when called before the driver initialised it.
	defer func() {
		if recovered := recover(); recovered != nil {
			source.logger.Warn("enumerate monitors failed", xslog.ErrorAny(recovered))
			displays = nil
		}
	}()

	for _, monitor := range glfw.GetMonitors() {
		mode := monitor.GetVideoMode()
		if mode == nil {
			continue
		}
		x, y := monitor.GetPos()
		name := monitor.GetName()
		displays = append(displays, model.Display{
			ID:   fmt.Sprintf("%s@%d,%d", name, x, y),
			Name: name,
			Bounds: model.Rect{
				X:      x,
				Y:      y,
				Width:  mode.Width,
				Height: mode.Height,
			},
		})
	}
	return displays
}
