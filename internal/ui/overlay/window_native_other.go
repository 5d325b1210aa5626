//go:build !windows

package overlay

import (
	"breakmate/internal/core/model"

	"fyne.io/fyne/v2"
)

// positionsWindows reports whether overlays can be moved onto a specific monitor.
const positionsWindows = false

// placeOnDisplay is best effort outside Windows: fyne exposes no window position API,
// so the fullscreen request on the window decides the monitor.
func placeOnDisplay(window fyne.Window, bounds model.Rect, _ uint8) {
	window.Resize(fyne.NewSize(float32(bounds.Width), float32(bounds.Height)))
}

func releaseFocus(fyne.Window) {}
