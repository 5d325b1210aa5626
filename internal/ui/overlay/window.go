package overlay

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"breakmate/internal/core/model"
	"breakmate/internal/ipc"
	"breakmate/internal/ui/animation"
	"breakmate/internal/xslog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/jonboulle/clockwork"
)

// Sender forwards overlay button presses to the controller context.
type Sender interface {
	Send(channel ipc.Channel, payload any)
}

// WindowConfig defines overlay visuals.
type WindowConfig struct {
	Opacity        uint8
	FadeDuration   time.Duration
	SnoozeDuration time.Duration
	Title          string
	Message        string
	Animation      animation.Config
	Clock          clockwork.Clock
}

// DefaultWindowConfig returns the stock overlay look.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Opacity:        235,
		FadeDuration:   400 * time.Millisecond,
		SnoozeDuration: 5 * time.Minute,
		Title:          "Time for a break",
		Message:        "Look at something 20 feet away and let your eyes relax.",
		Animation:      animation.DefaultConfig(),
	}
}

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// Window is the fyne overlay shown on one display.
type Window struct {
	mu       sync.Mutex
	id       string
	bounds   model.Rect
	config   WindowConfig
	sender   Sender
	logger   *slog.Logger
	engine   *animation.Engine
	loading  bool
	onLoaded []func()
	focused  bool
	closed   bool

	// Set on the fyne main thread once content is built.
	window     fyne.Window
	background *canvas.Rectangle
	eye        *canvas.Image
	timerLabel *canvas.Text
}

// NewWindow creates an overlay for display. Content is built on the main thread and
// the window reports loaded once it is ready.
func NewWindow(app fyne.App, display model.Display, sender Sender, logger *slog.Logger, config WindowConfig) *Window {
	overlay := &Window{
		id:      display.ID,
		bounds:  display.Bounds,
		config:  config,
		sender:  sender,
		logger:  xslog.OrDiscard(logger).With(xslog.Component("overlay-window"), xslog.Window(display.ID)),
		loading: true,
	}
	overlay.engine = animation.New(config.Animation, config.Clock, overlay.renderFrame)

	fyne.Do(func() {
		overlay.build(app)
	})
	return overlay
}

func (overlay *Window) build(app fyne.App) {
	var window fyne.Window
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash window is undecorated (no native frame/buttons).
		window = driver.CreateSplashWindow()
	} else {
		window = app.NewWindow("BreakMate")
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)
	window.Resize(fyne.NewSize(float32(overlay.bounds.Width), float32(overlay.bounds.Height)))
	window.SetOnClosed(func() {
		overlay.mu.Lock()
		overlay.closed = true
		overlay.mu.Unlock()
		overlay.engine.Stop()
	})

	background := canvas.NewRectangle(color.NRGBA{A: 0})

	eye := canvas.NewImageFromResource(theme.VisibilityIcon())
	eye.FillMode = canvas.ImageFillContain
	eye.SetMinSize(fyne.NewSize(96, 96))

	title := canvas.NewText(overlay.config.Title, color.White)
	title.Alignment = fyne.TextAlignCenter
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.TextSize = 32

	message := canvas.NewText(overlay.config.Message, color.NRGBA{R: 220, G: 220, B: 220, A: 255})
	message.Alignment = fyne.TextAlignCenter
	message.TextSize = 18

	timerLabel := canvas.NewText(model.FormatClock(0), color.NRGBA{R: 232, G: 190, B: 66, A: 255})
	timerLabel.Alignment = fyne.TextAlignCenter
	timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timerLabel.TextSize = 56

	skipButton := widget.NewButton("Skip", func() {
		overlay.sender.Send(ipc.ChannelBreakSkip, ipc.Empty{})
	})
	snoozeButton := widget.NewButton(snoozeLabel(overlay.config.SnoozeDuration), func() {
		overlay.sender.Send(ipc.ChannelBreakSnooze, ipc.Empty{})
	})
	buttons := container.NewHBox(layout.NewSpacer(), snoozeButton, skipButton, layout.NewSpacer())

	content := container.NewVBox(
		layout.NewSpacer(),
		container.NewCenter(eye),
		title,
		message,
		timerLabel,
		buttons,
		layout.NewSpacer(),
	)
	window.SetContent(container.NewStack(background, content))

	overlay.mu.Lock()
	overlay.window = window
	overlay.background = background
	overlay.eye = eye
	overlay.timerLabel = timerLabel
	overlay.loading = false
	handlers := overlay.onLoaded
	overlay.onLoaded = nil
	overlay.mu.Unlock()

	overlay.logger.Debug("overlay content loaded")
	for _, handler := range handlers {
		go handler()
	}
}

// snoozeLabel names the snooze button after the configured delay.
func snoozeLabel(delay time.Duration) string {
	switch {
	case delay <= 0:
		return "Snooze"
	case delay%time.Minute == 0:
		return fmt.Sprintf("Snooze %d min", int(delay/time.Minute))
	case delay < time.Minute:
		return fmt.Sprintf("Snooze %d sec", int(delay/time.Second))
	default:
		return "Snooze " + delay.Round(time.Second).String()
	}
}

// ID returns the display identifier the overlay is bound to.
func (overlay *Window) ID() string {
	return overlay.id
}

// Bounds returns the display geometry the overlay was created for.
func (overlay *Window) Bounds() model.Rect {
	return overlay.bounds
}

// IsLoading reports whether the content is still being built.
func (overlay *Window) IsLoading() bool {
	overlay.mu.Lock()
	defer overlay.mu.Unlock()
	return overlay.loading
}

// OnLoaded runs handler once the content is ready, immediately if it already is.
func (overlay *Window) OnLoaded(handler func()) {
	overlay.mu.Lock()
	if overlay.loading {
		overlay.onLoaded = append(overlay.onLoaded, handler)
		overlay.mu.Unlock()
		return
	}
	overlay.mu.Unlock()
	go handler()
}

// Send applies a message addressed to the overlay.
func (overlay *Window) Send(message ipc.Message) {
	switch message.Channel {
	case ipc.ChannelBreakStart:
		var start ipc.BreakStart
		if err := message.Decode(&start); err != nil {
			overlay.logger.Warn("decode break start failed", xslog.Error(err))
			return
		}
		overlay.begin(start.Duration)
	case ipc.ChannelBreakTimerUpdate:
		var update ipc.TimerUpdate
		if err := message.Decode(&update); err != nil {
			overlay.logger.Warn("decode timer update failed", xslog.Error(err))
			return
		}
		overlay.setRemaining(update.Remaining)
	default:
		overlay.logger.Debug("ignoring message", xslog.Channel(string(message.Channel)))
	}
}

// Show makes the overlay visible on its display.
func (overlay *Window) Show() {
	overlay.onWindow(func(window fyne.Window) {
		window.Show()
		placeOnDisplay(window, overlay.bounds, overlay.config.Opacity)
	})
}

// Focus brings the overlay to the front.
func (overlay *Window) Focus() {
	overlay.mu.Lock()
	overlay.focused = true
	overlay.mu.Unlock()
	overlay.onWindow(func(window fyne.Window) {
		window.RequestFocus()
	})
}

// Blur releases input focus.
func (overlay *Window) Blur() {
	overlay.mu.Lock()
	overlay.focused = false
	overlay.mu.Unlock()
	overlay.onWindow(releaseFocus)
}

// IsFocused reports whether the overlay holds input focus.
func (overlay *Window) IsFocused() bool {
	overlay.mu.Lock()
	defer overlay.mu.Unlock()
	return overlay.focused
}

// SetFullScreen toggles fullscreen presentation.
func (overlay *Window) SetFullScreen(enabled bool) {
	overlay.onWindow(func(window fyne.Window) {
		window.SetFullScreen(enabled)
	})
}

// Hide hides the overlay and stops its animation.
func (overlay *Window) Hide() {
	overlay.engine.Stop()
	overlay.onWindow(func(window fyne.Window) {
		window.Hide()
	})
}

// Close destroys the overlay.
func (overlay *Window) Close() {
	overlay.mu.Lock()
	if overlay.closed {
		overlay.mu.Unlock()
		return
	}
	overlay.closed = true
	overlay.mu.Unlock()

	overlay.engine.Stop()
	overlay.onWindow(func(window fyne.Window) {
		window.Close()
	})
}

// IsClosed reports whether the overlay was destroyed.
func (overlay *Window) IsClosed() bool {
	overlay.mu.Lock()
	defer overlay.mu.Unlock()
	return overlay.closed
}

func (overlay *Window) begin(duration int) {
	overlay.setRemaining(duration)
	overlay.engine.Start(context.Background())

	overlay.mu.Lock()
	background := overlay.background
	overlay.mu.Unlock()
	if background == nil {
		return
	}

	target := color.NRGBA{R: 12, G: 16, B: 24, A: overlay.config.Opacity}
	fyne.Do(func() {
		fade := canvas.NewColorRGBAAnimation(color.NRGBA{R: 12, G: 16, B: 24}, target, overlay.config.FadeDuration, func(value color.Color) {
			background.FillColor = value
			background.Refresh()
		})
		fade.Start()
	})
}

func (overlay *Window) setRemaining(seconds int) {
	overlay.mu.Lock()
	label := overlay.timerLabel
	overlay.mu.Unlock()
	if label == nil {
		return
	}
	text := model.FormatClock(seconds)
	fyne.Do(func() {
		label.Text = text
		label.Refresh()
	})
}

func (overlay *Window) renderFrame(frame animation.Frame) {
	overlay.mu.Lock()
	eye := overlay.eye
	overlay.mu.Unlock()
	if eye == nil {
		return
	}

	resource := theme.VisibilityIcon()
	if frame == animation.FrameClosed {
		resource = theme.VisibilityOffIcon()
	}
	fyne.Do(func() {
		eye.Resource = resource
		eye.Refresh()
	})
}

// onWindow runs action on the main thread once the window exists.
func (overlay *Window) onWindow(action func(fyne.Window)) {
	fyne.Do(func() {
		overlay.mu.Lock()
		window := overlay.window
		overlay.mu.Unlock()
		if window == nil {
			return
		}
		action(window)
	})
}
