// Package theme applies the light, dark or system appearance to the fyne app.
package theme

import (
	"image/color"

	"fyne.io/fyne/v2"
	fynetheme "fyne.io/fyne/v2/theme"
)

// Names accepted by Apply.
const (
	System = "system"
	Light  = "light"
	Dark   = "dark"
)

// forcedVariant renders the default theme in a fixed variant regardless of the OS setting.
type forcedVariant struct {
	fyne.Theme
	variant fyne.ThemeVariant
}

func (forced *forcedVariant) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return forced.Theme.Color(name, forced.variant)
}

// For returns the fyne theme for name. Unknown names follow the system.
func For(name string) fyne.Theme {
	switch name {
	case Light:
		return &forcedVariant{Theme: fynetheme.DefaultTheme(), variant: fynetheme.VariantLight}
	case Dark:
		return &forcedVariant{Theme: fynetheme.DefaultTheme(), variant: fynetheme.VariantDark}
	default:
		return fynetheme.DefaultTheme()
	}
}

// Apply switches app to the named theme.
func Apply(app fyne.App, name string) {
	app.Settings().SetTheme(For(name))
}
