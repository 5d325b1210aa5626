package smartpause

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"breakmate/internal/ipc"
	"breakmate/internal/xslog"

	"github.com/jonboulle/clockwork"
)

// ErrIdleUnsupported indicates idle detection is not available on this system.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// IdleChecker reports the duration of user inactivity.
type IdleChecker interface {
	IdleDuration() (time.Duration, error)
}

// Notifier delivers smart pause events to the rest of the application.
type Notifier interface {
	Send(channel ipc.Channel, payload any)
}

// Locker receives the system lock state.
type Locker interface {
	SetSystemLocked(locked bool)
}

// Config controls polling cadence and idle threshold.
type Config struct {
	Clock        clockwork.Clock
	PollInterval time.Duration
	Threshold    time.Duration
	Enabled      bool
}

// Monitor polls user idle time and reports away and return transitions.
type Monitor struct {
	mu          sync.Mutex
	config      Config
	logger      *slog.Logger
	checker     IdleChecker
	notifier    Notifier
	locker      Locker
	locked      bool
	unsupported bool
}

// New creates a Monitor. A nil checker leaves the monitor inert.
func New(checker IdleChecker, notifier Notifier, locker Locker, logger *slog.Logger, config Config) *Monitor {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.Threshold <= 0 {
		config.Threshold = 5 * time.Minute
	}
	return &Monitor{
		config:   config,
		logger:   xslog.OrDiscard(logger).With(xslog.Component("smartpause")),
		checker:  checker,
		notifier: notifier,
		locker:   locker,
	}
}

// Run polls until ctx is cancelled.
func (monitor *Monitor) Run(ctx context.Context) error {
	ticker := monitor.config.Clock.NewTicker(monitor.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			monitor.check()
		}
	}
}

// Enabled reports whether idle polling is active.
func (monitor *Monitor) Enabled() bool {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return monitor.config.Enabled && !monitor.unsupported
}

// Supported reports whether the idle checker works on this system.
func (monitor *Monitor) Supported() bool {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return monitor.checker != nil && !monitor.unsupported
}

// SetEnabled turns idle polling on or off. Disabling clears a pending locked state.
func (monitor *Monitor) SetEnabled(enabled bool) {
	monitor.mu.Lock()
	monitor.config.Enabled = enabled
	wasLocked := monitor.locked
	if !enabled {
		monitor.locked = false
	}
	monitor.mu.Unlock()

	monitor.logger.Info("smart pause toggled", slog.Bool("enabled", enabled))
	if !enabled && wasLocked && monitor.locker != nil {
		monitor.locker.SetSystemLocked(false)
	}
}

// Threshold returns the idle duration that counts as away.
func (monitor *Monitor) Threshold() time.Duration {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return monitor.config.Threshold
}

// SetThreshold replaces the idle threshold. Non-positive values are ignored.
func (monitor *Monitor) SetThreshold(threshold time.Duration) {
	if threshold <= 0 {
		monitor.logger.Debug("ignoring non-positive smart pause threshold", xslog.Duration(threshold))
		return
	}
	monitor.mu.Lock()
	monitor.config.Threshold = threshold
	monitor.mu.Unlock()
}

// Locked reports whether the user is currently considered away.
func (monitor *Monitor) Locked() bool {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return monitor.locked
}

func (monitor *Monitor) check() {
	monitor.mu.Lock()
	if !monitor.config.Enabled || monitor.unsupported || monitor.checker == nil {
		monitor.mu.Unlock()
		return
	}
	checker := monitor.checker
	threshold := monitor.config.Threshold
	monitor.mu.Unlock()

	idleDuration, err := checker.IdleDuration()
	if err != nil {
		if errors.Is(err, ErrIdleUnsupported) {
			monitor.mu.Lock()
			monitor.unsupported = true
			monitor.mu.Unlock()
			monitor.logger.Warn("idle detection unsupported, smart pause disabled", xslog.Error(err))
			return
		}
		monitor.logger.Warn("idle check failed", xslog.Error(err))
		return
	}

	monitor.mu.Lock()
	var becameLocked, becameUnlocked bool
	switch {
	case idleDuration >= threshold && !monitor.locked:
		monitor.locked = true
		becameLocked = true
	case idleDuration < threshold && monitor.locked:
		monitor.locked = false
		becameUnlocked = true
	}
	monitor.mu.Unlock()

	switch {
	case becameLocked:
		monitor.logger.Info("user away", xslog.Duration(idleDuration))
		if monitor.locker != nil {
			monitor.locker.SetSystemLocked(true)
		}
		monitor.send(ipc.ChannelSystemLocked, ipc.Empty{})
	case becameUnlocked:
		monitor.logger.Info("user returned", xslog.Duration(idleDuration))
		if monitor.locker != nil {
			monitor.locker.SetSystemLocked(false)
		}
		monitor.send(ipc.ChannelSystemUnlocked, ipc.Empty{})
		monitor.send(ipc.ChannelSmartPauseReset, ipc.Empty{})
	}
}

func (monitor *Monitor) send(channel ipc.Channel, payload any) {
	if monitor.notifier == nil {
		return
	}
	monitor.notifier.Send(channel, payload)
}
