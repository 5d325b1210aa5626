package preferences

import (
	"context"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

const saveTimeout = 5 * time.Second

// Window handles the preferences UI.
type Window struct {
	window       fyne.Window
	backend      *Backend
	settings     Settings
	onSaved      func(Settings)
	workMinutes  *widget.Entry
	breakSeconds *widget.Entry
	longMinutes  *widget.Entry
	longInterval *widget.Entry
	smartPause   *widget.Check
	threshold    *widget.Entry
	startOnLogin *widget.Check
	theme        *widget.Select
}

// New creates a preferences window. onSaved runs on the main thread after a successful save.
func New(app fyne.App, backend *Backend, onSaved func(Settings)) *Window {
	window := app.NewWindow("BreakMate Settings")

	prefs := &Window{
		window:       window,
		backend:      backend,
		settings:     DefaultSettings(),
		onSaved:      onSaved,
		workMinutes:  widget.NewEntry(),
		breakSeconds: widget.NewEntry(),
		longMinutes:  widget.NewEntry(),
		longInterval: widget.NewEntry(),
		smartPause:   widget.NewCheck("Reset the timer after I step away", nil),
		threshold:    widget.NewEntry(),
		startOnLogin: widget.NewCheck("Start BreakMate on login", nil),
		theme:        widget.NewSelect(Themes, nil),
	}

	form := container.NewVBox(
		widget.NewLabelWithStyle("Timer", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Break every"), prefs.workMinutes, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Break duration"), prefs.breakSeconds, widget.NewLabel("sec")),
		container.NewHBox(widget.NewLabel("Long break duration"), prefs.longMinutes, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Long break every"), prefs.longInterval, widget.NewLabel("breaks")),
		widget.NewLabelWithStyle("Smart pause", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.smartPause,
		container.NewHBox(widget.NewLabel("Away after"), prefs.threshold, widget.NewLabel("min idle")),
		widget.NewLabelWithStyle("General", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.startOnLogin,
		container.NewHBox(widget.NewLabel("Theme"), prefs.theme),
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", window.Hide)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(420, 460))
	window.SetCloseIntercept(window.Hide)
	prefs.fill(prefs.settings)

	return prefs
}

// Show reloads current values and displays the window.
func (prefs *Window) Show() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		settings := prefs.backend.Load(ctx)
		fyne.Do(func() {
			prefs.settings = settings
			prefs.fill(settings)
			prefs.window.Show()
			prefs.window.RequestFocus()
		})
	}()
}

func (prefs *Window) fill(settings Settings) {
	form := FormFromSettings(settings)
	prefs.workMinutes.SetText(form.WorkMinutes)
	prefs.breakSeconds.SetText(form.BreakSeconds)
	prefs.longMinutes.SetText(form.LongBreakMinutes)
	prefs.longInterval.SetText(form.LongBreakInterval)
	prefs.threshold.SetText(form.SmartPauseThreshold)
	prefs.smartPause.SetChecked(settings.SmartPauseEnabled)
	prefs.startOnLogin.SetChecked(settings.StartOnLogin)
	prefs.theme.SetSelected(settings.Theme)
}

func (prefs *Window) handleSave() {
	form := Form{
		WorkMinutes:         prefs.workMinutes.Text,
		BreakSeconds:        prefs.breakSeconds.Text,
		LongBreakMinutes:    prefs.longMinutes.Text,
		LongBreakInterval:   prefs.longInterval.Text,
		SmartPauseThreshold: prefs.threshold.Text,
	}
	next, err := form.Apply(prefs.settings)
	if err != nil {
		dialog.ShowError(err, prefs.window)
		return
	}
	next.SmartPauseEnabled = prefs.smartPause.Checked
	next.StartOnLogin = prefs.startOnLogin.Checked
	next.Theme = prefs.theme.Selected

	previous := prefs.settings
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		err := prefs.backend.Save(ctx, previous, next)
		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(err, prefs.window)
				return
			}
			prefs.settings = next
			prefs.window.Hide()
			if prefs.onSaved != nil {
				prefs.onSaved(next)
			}
		})
	}()
}
