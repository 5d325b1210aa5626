package screen

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"breakmate/internal/core/model"
	"breakmate/internal/xslog"

	"github.com/jonboulle/clockwork"
)

// WatcherConfig controls the polling cadence.
type WatcherConfig struct {
	Clock    clockwork.Clock
	Interval time.Duration
}

// Watcher polls a Source and reports added and removed displays.
type Watcher struct {
	mu        sync.Mutex
	source    Source
	logger    *slog.Logger
	config    WatcherConfig
	known     map[string]model.Display
	primed    bool
	onAdded   func(model.Display)
	onRemoved func(model.Display)
}

// NewWatcher creates a Watcher over source.
func NewWatcher(source Source, logger *slog.Logger, config WatcherConfig) *Watcher {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.Interval <= 0 {
		config.Interval = 2 * time.Second
	}
	return &Watcher{
		source: source,
		logger: xslog.OrDiscard(logger).With(xslog.Component("screen-watcher")),
		config: config,
		known:  make(map[string]model.Display),
	}
}

// OnAdded registers the handler for newly attached displays.
func (watcher *Watcher) OnAdded(handler func(model.Display)) {
	watcher.mu.Lock()
	defer watcher.mu.Unlock()
	watcher.onAdded = handler
}

// OnRemoved registers the handler for detached displays.
func (watcher *Watcher) OnRemoved(handler func(model.Display)) {
	watcher.mu.Lock()
	defer watcher.mu.Unlock()
	watcher.onRemoved = handler
}

// Run polls until ctx is cancelled. The first poll only records the topology.
func (watcher *Watcher) Run(ctx context.Context) error {
	watcher.Poll()

	ticker := watcher.config.Clock.NewTicker(watcher.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			watcher.Poll()
		}
	}
}

// Poll compares the source with the last known topology and fires handlers for the difference.
func (watcher *Watcher) Poll() (added, removed []model.Display) {
	current := watcher.source.Displays()

	watcher.mu.Lock()
	next := make(map[string]model.Display, len(current))
	for _, display := range current {
		next[display.ID] = display
		if _, ok := watcher.known[display.ID]; !ok && watcher.primed {
			added = append(added, display)
		}
	}
	for id, display := range watcher.known {
		if _, ok := next[id]; !ok {
			removed = append(removed, display)
		}
	}
	watcher.known = next
	watcher.primed = true
	onAdded := watcher.onAdded
	onRemoved := watcher.onRemoved
	watcher.mu.Unlock()

	for _, display := range removed {
		watcher.logger.Info("display removed", xslog.Display(display))
		if onRemoved != nil {
			onRemoved(display)
		}
	}
	for _, display := range added {
		watcher.logger.Info("display added", xslog.Display(display))
		if onAdded != nil {
			onAdded(display)
		}
	}
	return added, removed
}
