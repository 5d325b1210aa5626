package theme

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	fynetheme "fyne.io/fyne/v2/theme"
)

func TestForcedVariantIgnoresSystem(t *testing.T) {
	test.NewTempApp(t)

	tests := []struct {
		name    string
		variant fyne.ThemeVariant
	}{
		{name: Light, variant: fynetheme.VariantLight},
		{name: Dark, variant: fynetheme.VariantDark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forced := For(tt.name)
			want := fynetheme.DefaultTheme().Color(fynetheme.ColorNameBackground, tt.variant)
			for _, system := range []fyne.ThemeVariant{fynetheme.VariantLight, fynetheme.VariantDark} {
				got := forced.Color(fynetheme.ColorNameBackground, system)
				if got != want {
					t.Errorf("Color(background, %d) = %v, want %v", system, got, want)
				}
			}
		})
	}
}

func TestSystemFollowsVariant(t *testing.T) {
	test.NewTempApp(t)

	system := For(System)
	light := system.Color(fynetheme.ColorNameBackground, fynetheme.VariantLight)
	dark := system.Color(fynetheme.ColorNameBackground, fynetheme.VariantDark)
	if light == dark {
		t.Error("system theme returned the same background for light and dark")
	}
	if For("unknown") == nil {
		t.Error("For(unknown) = nil")
	}
}
