package breaktimer

import (
	"log/slog"
	"sync"
	"time"

	"breakmate/internal/core/model"
	"breakmate/internal/xslog"

	"github.com/jonboulle/clockwork"
)

// Config contains runtime options for Manager.
type Config struct {
	Clock        clockwork.Clock
	PollInterval time.Duration
}

// Manager owns the countdown of the visible break overlay.
// Remaining time is always derived from the start timestamp.
type Manager struct {
	mu                sync.Mutex
	logger            *slog.Logger
	options           Config
	state             model.BreakBroadcastState
	ticker            clockwork.Ticker
	stopCh            chan struct{}
	updateCallbacks   []func(remaining int)
	completeCallbacks []func()
}

// New creates an inactive Manager.
func New(logger *slog.Logger, options Config) *Manager {
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	if options.PollInterval <= 0 {
		options.PollInterval = 100 * time.Millisecond
	}
	return &Manager{
		logger:  xslog.OrDiscard(logger).With(xslog.Component("breaktimer")),
		options: options,
	}
}

// Configure sets the duration reported while no break is running.
func (manager *Manager) Configure(seconds int) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	if manager.state.IsActive {
		return
	}
	manager.state.CurrentBreakDuration = seconds
}

// StartBreakTimer starts a countdown of seconds, replacing any running one.
func (manager *Manager) StartBreakTimer(seconds int) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	manager.stopLoopLocked()
	manager.state = model.BreakBroadcastState{
		IsActive:             true,
		CurrentBreakDuration: seconds,
		BreakStartTime:       manager.options.Clock.Now(),
	}

	ticker := manager.options.Clock.NewTicker(manager.options.PollInterval)
	stopCh := make(chan struct{})
	manager.ticker = ticker
	manager.stopCh = stopCh
	go manager.run(ticker, stopCh)

	manager.logger.Info("started break timer", xslog.Seconds(seconds))
}

// StopBreakTimer cancels the countdown. It is a no-op when no break is active.
func (manager *Manager) StopBreakTimer() {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	if !manager.state.IsActive {
		manager.logger.Debug("stop requested but break not active, skipping")
		return
	}
	manager.state.IsActive = false
	manager.state.BreakStartTime = time.Time{}
	manager.stopLoopLocked()
	manager.logger.Info("stopped break timer")
}

// BreakTimeRemaining returns the remaining break seconds.
func (manager *Manager) BreakTimeRemaining() int {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.state.Remaining(manager.options.Clock.Now())
}

// IsActive reports whether a break countdown is active.
func (manager *Manager) IsActive() bool {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.state.IsActive
}

// Duration returns the length of the current or configured break in seconds.
func (manager *Manager) Duration() int {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.state.CurrentBreakDuration
}

// OnTimerUpdate registers a callback invoked on every poll with the remaining seconds.
func (manager *Manager) OnTimerUpdate(callback func(remaining int)) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.updateCallbacks = append(manager.updateCallbacks, callback)
}

// OnTimerComplete registers a callback invoked once when a countdown reaches zero.
func (manager *Manager) OnTimerComplete(callback func()) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.completeCallbacks = append(manager.completeCallbacks, callback)
}

// RemoveAllCallbacks drops every registered callback.
func (manager *Manager) RemoveAllCallbacks() {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.updateCallbacks = nil
	manager.completeCallbacks = nil
}

func (manager *Manager) run(ticker clockwork.Ticker, stopCh chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.Chan():
			if manager.tick(stopCh) {
				return
			}
		}
	}
}

// tick reports whether the loop owning stopCh is finished.
func (manager *Manager) tick(stopCh chan struct{}) bool {
	manager.mu.Lock()
	if manager.stopCh != stopCh {
		manager.mu.Unlock()
		return true
	}
	remaining := manager.state.Remaining(manager.options.Clock.Now())
	updates := append([]func(int){}, manager.updateCallbacks...)
	var completes []func()
	done := remaining <= 0
	if done {
		manager.stopLoopLocked()
		completes = append(completes, manager.completeCallbacks...)
	}
	manager.mu.Unlock()

	for _, callback := range updates {
		manager.safely("update", func() { callback(remaining) })
	}
	for _, callback := range completes {
		manager.safely("complete", callback)
	}
	if done {
		manager.logger.Info("break timer reached zero")
	}
	return done
}

func (manager *Manager) safely(kind string, callback func()) {
	defer func() {
		if recovered := recover(); recovered != nil {
			manager.logger.Error("break timer callback panicked", xslog.Reason(kind), xslog.ErrorAny(recovered))
		}
	}()
	callback()
}

func (manager *Manager) stopLoopLocked() {
	if manager.ticker != nil {
		manager.ticker.Stop()
		manager.ticker = nil
	}
	if manager.stopCh != nil {
		close(manager.stopCh)
		manager.stopCh = nil
	}
}
