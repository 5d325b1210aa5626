package app

import (
	"context"
	"image/color"
	"testing"
	"time"

	"breakmate/internal/core/model"
	"breakmate/internal/ipc"
	"breakmate/internal/storage"
	"breakmate/internal/ui/theme"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	fynetheme "fyne.io/fyne/v2/theme"
)

type staticSource []model.Display

func (source staticSource) Displays() []model.Display {
	return source
}

func background(app fyne.App) color.Color {
	return app.Settings().Theme().Color(fynetheme.ColorNameBackground, fynetheme.VariantLight)
}

func TestNewAppliesThemeSetting(t *testing.T) {
	fyneApp := test.NewApp()
	t.Cleanup(fyneApp.Quit)

	harness := newTestCore(t)
	if err := harness.store.Set(storage.KeyTheme, theme.Dark); err != nil {
		t.Fatalf("Set(theme) error = %v", err)
	}

	shell, err := New(Deps{
		Fyne:   fyneApp,
		Core:   harness.Core,
		Store:  harness.store,
		Source: staticSource{{ID: "primary", Bounds: model.Rect{Width: 1920, Height: 1080}}},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if shell.orchestrator == nil || shell.watcher == nil || shell.main == nil {
		t.Fatal("New() left components unset")
	}

	dark := fynetheme.DefaultTheme().Color(fynetheme.ColorNameBackground, fynetheme.VariantDark)
	if got := background(fyneApp); got != dark {
		t.Errorf("background = %v, want dark %v", got, dark)
	}

	client := ipc.NewStoreClient(harness.Bus())
	if err := client.Set(context.Background(), storage.KeyTheme, theme.Light); err != nil {
		t.Fatalf("Set(theme) through bus error = %v", err)
	}

	light := fynetheme.DefaultTheme().Color(fynetheme.ColorNameBackground, fynetheme.VariantLight)
	deadline := time.Now().Add(2 * time.Second)
	for background(fyneApp) != light {
		if time.Now().After(deadline) {
			t.Fatalf("background = %v, want light %v", background(fyneApp), light)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Fatal("New(Deps{}) error = nil, want error")
	}
}
