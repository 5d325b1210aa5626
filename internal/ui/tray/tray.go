package tray

import (
	"fmt"
	"sync"

	"breakmate/internal/core/model"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnOpen        func()
	OnTakeBreak   func()
	OnTogglePause func()
	OnSkipBreak   func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	mu         sync.Mutex
	app        desktop.App
	callbacks  Callbacks
	statusItem *fyne.MenuItem
	breakItem  *fyne.MenuItem
	pauseItem  *fyne.MenuItem
	skipItem   *fyne.MenuItem
	lastStatus string
	lastPause  string
	lastBreak  bool
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Starting...", nil)
	manager.statusItem.Disabled = true
	manager.breakItem = fyne.NewMenuItem("Take Break Now", invoke(callbacks.OnTakeBreak))
	manager.pauseItem = fyne.NewMenuItem("Pause", invoke(callbacks.OnTogglePause))
	manager.skipItem = fyne.NewMenuItem("Skip break", invoke(callbacks.OnSkipBreak))
	manager.skipItem.Disabled = true

	manager.refreshMenu()
	return manager
}

// Update reflects state in the menu. Calls that change nothing are skipped.
func (manager *Manager) Update(state model.TimerState) {
	status := StatusText(state)
	pauseLabel := "Pause"
	if !state.IsRunning {
		pauseLabel = "Resume"
	}

	manager.mu.Lock()
	unchanged := status == manager.lastStatus &&
		pauseLabel == manager.lastPause &&
		state.IsOnBreak == manager.lastBreak
	manager.lastStatus = status
	manager.lastPause = pauseLabel
	manager.lastBreak = state.IsOnBreak
	manager.mu.Unlock()
	if unchanged {
		return
	}

	fyne.Do(func() {
		manager.statusItem.Label = status
		manager.pauseItem.Label = pauseLabel
		manager.pauseItem.Disabled = state.IsOnBreak
		manager.breakItem.Disabled = state.IsOnBreak
		manager.skipItem.Disabled = !state.IsOnBreak
		manager.refreshMenu()
	})
}

// StatusText renders the first menu line for state.
func StatusText(state model.TimerState) string {
	switch {
	case state.IsOnBreak:
		return fmt.Sprintf("On break (%s)", model.FormatClock(state.TimeRemaining))
	case state.IsSystemLocked:
		return "Away"
	case !state.IsRunning:
		return fmt.Sprintf("Paused (%s left)", model.FormatClock(state.TimeRemaining))
	default:
		return fmt.Sprintf("Next break in %s", model.FormatClock(state.TimeRemaining))
	}
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu("BreakMate",
		manager.statusItem,
		fyne.NewMenuItem("Open BreakMate", invoke(manager.callbacks.OnOpen)),
		manager.breakItem,
		manager.pauseItem,
		manager.skipItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", invoke(manager.callbacks.OnQuit)),
	))
}

func invoke(callback func()) func() {
	return func() {
		if callback != nil {
			callback()
		}
	}
}
