package timekeeper

import (
	"log/slog"
	"sync"
	"time"

	"breakmate/internal/core/model"
	"breakmate/internal/ipc"
	"breakmate/internal/xslog"

	"github.com/jonboulle/clockwork"
)

// Notifier delivers phase changes to the overlay context.
type Notifier interface {
	Send(channel ipc.Channel, payload any)
}

// Config contains runtime options for TimeKeeper.
type Config struct {
	Clock            clockwork.Clock
	TickInterval     time.Duration
	RestartDelay     time.Duration
	SnoozeDuration   time.Duration
	ProgressInterval time.Duration
}

// TimeKeeper is the single authoritative work/break countdown.
// The countdown is anchored to the wall clock: every tick recomputes the
// remaining time from the start timestamp instead of decrementing a counter.
type TimeKeeper struct {
	mu               sync.Mutex
	logger           *slog.Logger
	options          Config
	settings         model.TimerSettings
	state            model.TimerState
	notifier         Notifier
	ticker           clockwork.Ticker
	stopCh           chan struct{}
	startedAt        time.Time
	duration         int
	restart          clockwork.Timer
	events           []chan Event
	closed           bool
	lastProgressSent time.Time
}

// New creates a stopped TimeKeeper positioned at the start of a work phase.
func New(settings model.TimerSettings, logger *slog.Logger, options Config) *TimeKeeper {
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	if options.TickInterval <= 0 {
		options.TickInterval = 100 * time.Millisecond
	}
	if options.RestartDelay <= 0 {
		options.RestartDelay = 500 * time.Millisecond
	}
	if options.SnoozeDuration <= 0 {
		options.SnoozeDuration = 5 * time.Minute
	}
	if options.ProgressInterval <= 0 {
		options.ProgressInterval = time.Second
	}
	if err := settings.Validate(); err != nil {
		settings = model.DefaultTimerSettings()
	}

	return &TimeKeeper{
		logger:   xslog.OrDiscard(logger).With(xslog.Component("timekeeper")),
		options:  options,
		settings: settings,
		state:    model.NewTimerState(settings),
	}
}

// SetNotifier injects the phase change notifier.
func (keeper *TimeKeeper) SetNotifier(notifier Notifier) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.notifier = notifier
}

// Subscribe registers a new observer channel.
func (keeper *TimeKeeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		close(ch)
		return ch
	}
	keeper.events = append(keeper.events, ch)
	return ch
}

// State returns a snapshot of the timer state.
func (keeper *TimeKeeper) State() model.TimerState {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.state
}

// Settings returns the active timer settings.
func (keeper *TimeKeeper) Settings() model.TimerSettings {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.settings
}

// UpdateSettings replaces the durations. A stopped countdown is reset to the new phase length.
func (keeper *TimeKeeper) UpdateSettings(settings model.TimerSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.settings = settings
	if !keeper.state.IsRunning {
		keeper.state.TimeRemaining = settings.PhaseSeconds(keeper.state.IsOnBreak)
	}
	keeper.emitStateLocked(EventStateChange)
	return nil
}

// Start launches the countdown. It is a no-op while a countdown is already running.
func (keeper *TimeKeeper) Start() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if keeper.closed {
		return
	}
	if keeper.state.IsRunning || keeper.ticker != nil {
		keeper.logger.Debug("timer already running, ignoring start")
		return
	}

	keeper.state.IsRunning = true
	keeper.startedAt = keeper.options.Clock.Now()
	keeper.duration = keeper.state.TimeRemaining

	ticker := keeper.options.Clock.NewTicker(keeper.options.TickInterval)
	stopCh := make(chan struct{})
	keeper.ticker = ticker
	keeper.stopCh = stopCh
	go keeper.run(ticker, stopCh)

	keeper.logger.Info("started timer", xslog.Remaining(keeper.duration), xslog.OnBreak(keeper.state.IsOnBreak))
	keeper.emitStateLocked(EventStateChange)
}

// Pause stops the countdown and keeps the remaining time.
func (keeper *TimeKeeper) Pause() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if !keeper.state.IsRunning {
		return
	}
	keeper.pauseLocked()
	keeper.logger.Info("paused timer", xslog.Remaining(keeper.state.TimeRemaining))
	keeper.emitStateLocked(EventStateChange)
}

// Reset pauses and restores the full duration of the current phase.
func (keeper *TimeKeeper) Reset() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	keeper.pauseLocked()
	keeper.cancelRestartLocked()
	keeper.state.TimeRemaining = keeper.settings.PhaseSeconds(keeper.state.IsOnBreak)
	keeper.emitStateLocked(EventStateChange)
}

// SkipBreak ends the break early and starts the next work phase.
func (keeper *TimeKeeper) SkipBreak() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	keeper.enterWorkLocked(keeper.settings.WorkSeconds())
	keeper.logger.Info("break skipped", xslog.Count(keeper.state.TotalBreaksTaken))
}

// SnoozeBreak defers the next break by the snooze duration.
func (keeper *TimeKeeper) SnoozeBreak() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	keeper.enterWorkLocked(int(keeper.options.SnoozeDuration / time.Second))
	keeper.logger.Info("break snoozed", xslog.Duration(keeper.options.SnoozeDuration))
}

// CompleteBreak starts the next work phase after the break overlay finished.
func (keeper *TimeKeeper) CompleteBreak() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	keeper.enterWorkLocked(keeper.settings.WorkSeconds())
	keeper.logger.Info("break completed, transitioning to work", xslog.Count(keeper.state.TotalBreaksTaken))
}

// ResetDueToSystemResume discards elapsed time after the system was away and restarts the work phase.
func (keeper *TimeKeeper) ResetDueToSystemResume() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if keeper.closed {
		return
	}
	keeper.pauseLocked()
	keeper.cancelRestartLocked()
	keeper.state.IsOnBreak = false
	keeper.state.TimeRemaining = keeper.settings.WorkSeconds()
	keeper.scheduleRestartLocked()

	keeper.logger.Info("reset timer after system resume")
	keeper.emitStateLocked(EventSystemResume)
}

// SetSystemLocked records whether the session is considered locked.
func (keeper *TimeKeeper) SetSystemLocked(locked bool) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.state.IsSystemLocked == locked {
		return
	}
	keeper.state.IsSystemLocked = locked
	keeper.emitStateLocked(EventStateChange)
}

// Stop terminates every countdown and closes observers.
func (keeper *TimeKeeper) Stop() {
	keeper.mu.Lock()
	if keeper.closed {
		keeper.mu.Unlock()
		return
	}
	keeper.closed = true
	keeper.pauseLocked()
	keeper.cancelRestartLocked()
	events := keeper.events
	keeper.events = nil
	keeper.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (keeper *TimeKeeper) run(ticker clockwork.Ticker, stopCh chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.Chan():
			if keeper.tick(stopCh) {
				return
			}
		}
	}
}

// tick reports whether the loop owning stopCh is finished.
func (keeper *TimeKeeper) tick(stopCh chan struct{}) bool {
	keeper.mu.Lock()
	if keeper.stopCh != stopCh {
		keeper.mu.Unlock()
		return true
	}

	now := keeper.options.Clock.Now()
	remaining := model.RemainingSeconds(keeper.duration, keeper.startedAt, now)
	if remaining > 0 {
		keeper.state.TimeRemaining = remaining
		keeper.maybeEmitProgressLocked(now)
		keeper.mu.Unlock()
		return false
	}

	onBreak := keeper.completePhaseLocked()
	notifier := keeper.notifier
	keeper.mu.Unlock()

	if notifier != nil {
		notifier.Send(ipc.ChannelTimerComplete, ipc.TimerComplete{IsOnBreak: onBreak})
	}
	return true
}

// completePhaseLocked flips the phase and returns whether the new phase is a break.
func (keeper *TimeKeeper) completePhaseLocked() bool {
	keeper.pauseLocked()

	wasOnBreak := keeper.state.IsOnBreak
	if wasOnBreak {
		keeper.state.TotalBreaksTaken++
	} else {
		keeper.state.CycleCount++
	}
	keeper.state.IsOnBreak = !wasOnBreak
	keeper.state.TimeRemaining = keeper.settings.PhaseSeconds(keeper.state.IsOnBreak)

	if !keeper.state.IsOnBreak {
		keeper.scheduleRestartLocked()
	}

	keeper.logger.Info("phase complete",
		xslog.OnBreak(keeper.state.IsOnBreak),
		xslog.Remaining(keeper.state.TimeRemaining))
	keeper.emitStateLocked(EventPhaseComplete)
	return keeper.state.IsOnBreak
}

func (keeper *TimeKeeper) enterWorkLocked(seconds int) {
	if keeper.closed {
		return
	}
	keeper.pauseLocked()
	keeper.state.IsOnBreak = false
	keeper.state.TimeRemaining = seconds
	keeper.state.TotalBreaksTaken++
	keeper.scheduleRestartLocked()
	keeper.emitStateLocked(EventStateChange)
}

func (keeper *TimeKeeper) pauseLocked() {
	if keeper.ticker != nil {
		keeper.ticker.Stop()
		keeper.ticker = nil
	}
	if keeper.stopCh != nil {
		close(keeper.stopCh)
		keeper.stopCh = nil
	}
	keeper.state.IsRunning = false
	keeper.startedAt = time.Time{}
	keeper.duration = 0
}

func (keeper *TimeKeeper) scheduleRestartLocked() {
	keeper.cancelRestartLocked()
	keeper.restart = keeper.options.Clock.AfterFunc(keeper.options.RestartDelay, keeper.Start)
}

func (keeper *TimeKeeper) cancelRestartLocked() {
	if keeper.restart != nil {
		keeper.restart.Stop()
		keeper.restart = nil
	}
}

func (keeper *TimeKeeper) phaseLocked() Phase {
	if keeper.state.IsOnBreak {
		return PhaseBreak
	}
	return PhaseWork
}

func (keeper *TimeKeeper) progressLocked() float64 {
	total := keeper.settings.PhaseSeconds(keeper.state.IsOnBreak)
	if total <= 0 {
		return 1
	}
	progress := float64(total-keeper.state.TimeRemaining) / float64(total)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

func (keeper *TimeKeeper) maybeEmitProgressLocked(now time.Time) {
	if keeper.lastProgressSent.IsZero() || now.Sub(keeper.lastProgressSent) >= keeper.options.ProgressInterval {
		keeper.emitStateLocked(EventProgress)
		keeper.lastProgressSent = now
	}
}

func (keeper *TimeKeeper) emitStateLocked(eventType EventType) {
	keeper.emitLocked(Event{
		Type:      eventType,
		Phase:     keeper.phaseLocked(),
		State:     keeper.state,
		Remaining: time.Duration(keeper.state.TimeRemaining) * time.Second,
		Progress:  keeper.progressLocked(),
		At:        keeper.options.Clock.Now(),
	})
}

func (keeper *TimeKeeper) emitLocked(event Event) {
	for _, ch := range keeper.events {
		select {
		case ch <- event:
		default:
		}
	}
}
