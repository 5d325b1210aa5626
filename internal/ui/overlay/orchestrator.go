package overlay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"breakmate/internal/core/model"
	"breakmate/internal/ipc"
	"breakmate/internal/xslog"

	"github.com/jonboulle/clockwork"
)

// Host creates overlay surfaces and reports the attached displays.
type Host interface {
	Displays() []model.Display
	NewSurface(display model.Display) Surface
}

// Surface is one overlay window bound to a display.
type Surface interface {
	ID() string
	Bounds() model.Rect
	IsLoading() bool
	OnLoaded(handler func())
	Send(message ipc.Message)
	Show()
	Focus()
	Blur()
	IsFocused() bool
	SetFullScreen(enabled bool)
	Hide()
	Close()
	IsClosed() bool
}

// BreakTimer is the remote break countdown.
type BreakTimer interface {
	Start(ctx context.Context, seconds int) error
	Stop(ctx context.Context) error
	Remaining(ctx context.Context) (int, error)
	IsActive(ctx context.Context) (bool, error)
}

// Controller receives break outcomes.
type Controller interface {
	CompleteBreak(ctx context.Context) error
	BreakSkipped(ctx context.Context) error
	BreakSnoozed(ctx context.Context) error
}

// Config controls orchestration cadences.
type Config struct {
	Clock           clockwork.Clock
	PollInterval    time.Duration
	SettleDelay     time.Duration
	CompletionDelay time.Duration
	QueryTimeout    time.Duration
	// Tolerance is the pixel distance within which a window still belongs to a display.
	Tolerance int
}

// Orchestrator shows one overlay per display for the duration of a break.
type Orchestrator struct {
	mu         sync.Mutex
	teardownMu sync.Mutex
	host       Host
	timer      BreakTimer
	controller Controller
	logger     *slog.Logger
	config     Config
	windows    []Surface
	stopCh     chan struct{}
	baseCtx    context.Context
	cancel     context.CancelFunc
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(host Host, timer BreakTimer, controller Controller, logger *slog.Logger, config Config) *Orchestrator {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 100 * time.Millisecond
	}
	if config.SettleDelay <= 0 {
		config.SettleDelay = 300 * time.Millisecond
	}
	if config.CompletionDelay <= 0 {
		config.CompletionDelay = 100 * time.Millisecond
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = 2 * time.Second
	}
	if config.Tolerance <= 0 {
		config.Tolerance = 100
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		host:       host,
		timer:      timer,
		controller: controller,
		logger:     xslog.OrDiscard(logger).With(xslog.Component("overlay")),
		config:     config,
		baseCtx:    baseCtx,
		cancel:     cancel,
	}
}

// StartBreak starts the break countdown and presents an overlay on every display.
func (orchestrator *Orchestrator) StartBreak(ctx context.Context, seconds int) {
	if err := orchestrator.timer.Start(ctx, seconds); err != nil {
		orchestrator.logger.Error("start break timer failed", xslog.Error(err))
	}

	orchestrator.mu.Lock()
	if len(orchestrator.windows) == 0 {
		orchestrator.createWindowsLocked()
	}
	windows := append([]Surface(nil), orchestrator.windows...)
	orchestrator.mu.Unlock()

	remaining := orchestrator.remaining(ctx, seconds)
	for _, window := range windows {
		orchestrator.present(window, remaining)
	}

	orchestrator.startBroadcast()
	orchestrator.logger.Info("break started", xslog.Count(len(windows)), xslog.Seconds(seconds))
}

// HideBreak tears down every overlay if a break is active.
func (orchestrator *Orchestrator) HideBreak(ctx context.Context) {
	orchestrator.teardown(ctx)
}

// Skip ends the break early and reports it as skipped.
func (orchestrator *Orchestrator) Skip(ctx context.Context) {
	if !orchestrator.teardown(ctx) {
		return
	}
	if err := orchestrator.controller.BreakSkipped(ctx); err != nil {
		orchestrator.logger.Error("signal break skipped failed", xslog.Error(err))
	}
}

// Snooze ends the break early and reports it as snoozed.
func (orchestrator *Orchestrator) Snooze(ctx context.Context) {
	if !orchestrator.teardown(ctx) {
		return
	}
	if err := orchestrator.controller.BreakSnoozed(ctx); err != nil {
		orchestrator.logger.Error("signal break snoozed failed", xslog.Error(err))
	}
}

// DisplayAdded presents an overlay on every attached display that has none yet.
func (orchestrator *Orchestrator) DisplayAdded(ctx context.Context, display model.Display) {
	if !orchestrator.isActive(ctx) {
		return
	}
	remaining := orchestrator.remaining(ctx, 0)

	orchestrator.mu.Lock()
	var created []Surface
	for _, candidate := range orchestrator.host.Displays() {
		if orchestrator.coveredLocked(candidate.Bounds) {
			continue
		}
		window := orchestrator.host.NewSurface(candidate)
		orchestrator.windows = append(orchestrator.windows, window)
		created = append(created, window)
	}
	orchestrator.mu.Unlock()

	for _, window := range created {
		orchestrator.present(window, remaining)
	}
	orchestrator.logger.Info("overlay added for new display",
		xslog.Display(display),
		xslog.Count(len(created)),
		xslog.Remaining(remaining),
	)
}

// DisplayRemoved closes overlays whose display is gone.
func (orchestrator *Orchestrator) DisplayRemoved(ctx context.Context) {
	if !orchestrator.isActive(ctx) {
		return
	}
	displays := orchestrator.host.Displays()

	orchestrator.mu.Lock()
	kept := orchestrator.windows[:0]
	var dropped []Surface
	for _, window := range orchestrator.windows {
		if window.IsClosed() {
			continue
		}
		if onAnyDisplay(window.Bounds(), displays, orchestrator.config.Tolerance) {
			kept = append(kept, window)
			continue
		}
		dropped = append(dropped, window)
	}
	orchestrator.windows = kept
	orchestrator.mu.Unlock()

	for _, window := range dropped {
		closeSurface(window)
		orchestrator.logger.Info("removed overlay from disconnected display", xslog.Window(window.ID()))
	}
}

// Windows returns the tracked overlays.
func (orchestrator *Orchestrator) Windows() []Surface {
	orchestrator.mu.Lock()
	defer orchestrator.mu.Unlock()
	return append([]Surface(nil), orchestrator.windows...)
}

// Close stops broadcasting and destroys every overlay without touching the break timer.
func (orchestrator *Orchestrator) Close() {
	orchestrator.stopBroadcast()
	orchestrator.cancel()
	for _, window := range orchestrator.takeWindows() {
		closeSurface(window)
	}
}

func (orchestrator *Orchestrator) createWindowsLocked() {
	displays := orchestrator.host.Displays()
	for _, display := range displays {
		orchestrator.windows = append(orchestrator.windows, orchestrator.host.NewSurface(display))
		orchestrator.logger.Debug("overlay created", xslog.Display(display))
	}
}

func (orchestrator *Orchestrator) coveredLocked(bounds model.Rect) bool {
	for _, window := range orchestrator.windows {
		if !window.IsClosed() && window.Bounds().Near(bounds, orchestrator.config.Tolerance) {
			return true
		}
	}
	return false
}

// present sends the start message once the surface has loaded, then shows it after the settle delay.
func (orchestrator *Orchestrator) present(window Surface, remaining int) {
	start := func() {
		message, err := ipc.NewMessage(ipc.ChannelBreakStart, ipc.BreakStart{Duration: remaining})
		if err != nil {
			orchestrator.logger.Error("encode break start failed", xslog.Error(err))
			return
		}
		window.Send(message)
		orchestrator.config.Clock.AfterFunc(orchestrator.config.SettleDelay, func() {
			if window.IsClosed() {
				return
			}
			window.Show()
			window.Focus()
			window.SetFullScreen(true)
		})
	}

	if window.IsLoading() {
		window.OnLoaded(start)
		return
	}
	start()
}

func (orchestrator *Orchestrator) startBroadcast() {
	stopCh := make(chan struct{})

	orchestrator.mu.Lock()
	if orchestrator.stopCh != nil {
		close(orchestrator.stopCh)
	}
	orchestrator.stopCh = stopCh
	orchestrator.mu.Unlock()

	ticker := orchestrator.config.Clock.NewTicker(orchestrator.config.PollInterval)
	go orchestrator.broadcast(ticker, stopCh)
}

func (orchestrator *Orchestrator) stopBroadcast() {
	orchestrator.mu.Lock()
	defer orchestrator.mu.Unlock()
	if orchestrator.stopCh != nil {
		close(orchestrator.stopCh)
		orchestrator.stopCh = nil
	}
}

// releaseBroadcast forgets stopCh if it is still the current loop.
func (orchestrator *Orchestrator) releaseBroadcast(stopCh chan struct{}) bool {
	orchestrator.mu.Lock()
	defer orchestrator.mu.Unlock()
	if orchestrator.stopCh != stopCh {
		return false
	}
	orchestrator.stopCh = nil
	return true
}

func (orchestrator *Orchestrator) broadcast(ticker clockwork.Ticker, stopCh chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-orchestrator.baseCtx.Done():
			return
		case <-ticker.Chan():
		}

		remaining, err := orchestrator.queryRemaining()
		if err != nil {
			orchestrator.logger.Warn("query break remaining failed", xslog.Error(err))
			continue
		}
		orchestrator.pushUpdate(remaining)
		if remaining > 0 {
			continue
		}

		if !orchestrator.releaseBroadcast(stopCh) {
			return
		}
		select {
		case <-orchestrator.config.Clock.After(orchestrator.config.CompletionDelay):
		case <-orchestrator.baseCtx.Done():
			return
		}
		orchestrator.complete()
		return
	}
}

func (orchestrator *Orchestrator) queryRemaining() (int, error) {
	ctx, cancel := context.WithTimeout(orchestrator.baseCtx, orchestrator.config.QueryTimeout)
	defer cancel()
	return orchestrator.timer.Remaining(ctx)
}

func (orchestrator *Orchestrator) pushUpdate(remaining int) {
	message, err := ipc.NewMessage(ipc.ChannelBreakTimerUpdate, ipc.TimerUpdate{Remaining: remaining})
	if err != nil {
		orchestrator.logger.Error("encode timer update failed", xslog.Error(err))
		return
	}
	for _, window := range orchestrator.Windows() {
		if window.IsClosed() || window.IsLoading() {
			continue
		}
		window.Send(message)
	}
}

func (orchestrator *Orchestrator) complete() {
	ctx, cancel := context.WithTimeout(orchestrator.baseCtx, orchestrator.config.QueryTimeout)
	defer cancel()
	if !orchestrator.teardown(ctx) {
		return
	}
	if err := orchestrator.controller.CompleteBreak(ctx); err != nil {
		orchestrator.logger.Error("signal break complete failed", xslog.Error(err))
		return
	}
	orchestrator.logger.Info("break completed, work timer resumed")
}

// teardown reports whether it ended an active break. Concurrent callers are serialised
// so only the first one observes the break as active.
func (orchestrator *Orchestrator) teardown(ctx context.Context) bool {
	orchestrator.teardownMu.Lock()
	defer orchestrator.teardownMu.Unlock()

	if !orchestrator.isActive(ctx) {
		orchestrator.logger.Debug("hide requested but break not active, skipping")
		return false
	}
	if err := orchestrator.timer.Stop(ctx); err != nil {
		orchestrator.logger.Error("stop break timer failed", xslog.Error(err))
	}
	orchestrator.stopBroadcast()

	windows := orchestrator.takeWindows()
	for _, window := range windows {
		closeSurface(window)
	}
	orchestrator.logger.Info("overlays hidden", xslog.Count(len(windows)))
	return true
}

func (orchestrator *Orchestrator) takeWindows() []Surface {
	orchestrator.mu.Lock()
	defer orchestrator.mu.Unlock()
	windows := orchestrator.windows
	orchestrator.windows = nil
	return windows
}

func (orchestrator *Orchestrator) isActive(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, orchestrator.config.QueryTimeout)
	defer cancel()
	active, err := orchestrator.timer.IsActive(ctx)
	if err != nil {
		orchestrator.logger.Warn("query break active failed", xslog.Error(err))
		return false
	}
	return active
}

func (orchestrator *Orchestrator) remaining(ctx context.Context, fallback int) int {
	ctx, cancel := context.WithTimeout(ctx, orchestrator.config.QueryTimeout)
	defer cancel()
	remaining, err := orchestrator.timer.Remaining(ctx)
	if err != nil {
		orchestrator.logger.Warn("query break remaining failed", xslog.Error(err))
		return fallback
	}
	return remaining
}

func closeSurface(window Surface) {
	if window.IsClosed() {
		return
	}
	if window.IsFocused() {
		window.Blur()
	}
	window.SetFullScreen(false)
	window.Hide()
	window.Close()
}

func onAnyDisplay(bounds model.Rect, displays []model.Display, tolerance int) bool {
	for _, display := range displays {
		if bounds.Near(display.Bounds, tolerance) {
			return true
		}
	}
	return false
}
