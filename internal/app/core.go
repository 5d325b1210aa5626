// Package app wires the BreakMate components together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"breakmate/internal/autolaunch"
	"breakmate/internal/config"
	"breakmate/internal/core/breaktimer"
	"breakmate/internal/core/model"
	"breakmate/internal/core/smartpause"
	"breakmate/internal/core/timekeeper"
	"breakmate/internal/ipc"
	"breakmate/internal/storage"
	"breakmate/internal/xslog"

	go_json "github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Overlay presents breaks on screen.
type Overlay interface {
	StartBreak(ctx context.Context, seconds int)
	HideBreak(ctx context.Context)
	Skip(ctx context.Context)
	Snooze(ctx context.Context)
}

// CoreDeps are the collaborators of Core.
type CoreDeps struct {
	Config      *config.Config
	Store       *storage.Store
	Autostarter autolaunch.Autostarter
	IdleChecker smartpause.IdleChecker
	Clock       clockwork.Clock
	Logger      *slog.Logger
}

// Core owns the controller context: timers, settings and platform services
// reachable through the message bus.
type Core struct {
	logger     *slog.Logger
	config     *config.Config
	store      *storage.Store
	bus        *ipc.Bus
	keeper     *timekeeper.TimeKeeper
	breakTimer *breaktimer.Manager
	smartPause *smartpause.Monitor
	autoLaunch *autolaunch.Service
	clock      clockwork.Clock

	mu           sync.Mutex
	overlay      Overlay
	settingHooks []func(key string)
	lastBreakEnd time.Time
}

// NewCore constructs every controller-side component and registers the bus handlers.
func NewCore(deps CoreDeps) (*Core, error) {
	if deps.Store == nil {
		return nil, errors.New("new core: store is required")
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	logger := xslog.OrDiscard(deps.Logger)

	settings, err := deps.Store.TimerSettings()
	if err != nil {
		logger.Warn("using default timer settings", xslog.Error(err))
	}

	bus := ipc.NewBus(logger, ipc.Config{
		QueueSize:   cfg.IPC.QueueSize,
		CallTimeout: cfg.IPC.CallTimeout,
	})

	keeper := timekeeper.New(settings, logger, timekeeper.Config{
		Clock:            deps.Clock,
		TickInterval:     cfg.Timer.TickInterval,
		RestartDelay:     cfg.Timer.RestartDelay,
		SnoozeDuration:   cfg.Timer.SnoozeDuration,
		ProgressInterval: cfg.Timer.ProgressInterval,
	})
	keeper.SetNotifier(bus)

	breakTimer := breaktimer.New(logger, breaktimer.Config{
		Clock:        deps.Clock,
		PollInterval: cfg.Break.PollInterval,
	})
	breakTimer.Configure(settings.BreakDuration)

	monitor := smartpause.New(deps.IdleChecker, bus, keeper, logger, smartpause.Config{
		Clock:        deps.Clock,
		PollInterval: cfg.SmartPause.PollInterval,
		Threshold:    time.Duration(deps.Store.Int(storage.KeySmartPauseThreshold, 5)) * time.Minute,
		Enabled:      deps.Store.Bool(storage.KeySmartPauseEnabled, true),
	})

	var autoLaunch *autolaunch.Service
	if deps.Autostarter != nil {
		autoLaunch = autolaunch.New(deps.Autostarter, deps.Store, logger, autolaunch.Config{AppName: cfg.AppName})
	}

	core := &Core{
		logger:     logger.With(xslog.Component("app")),
		config:     cfg,
		store:      deps.Store,
		bus:        bus,
		keeper:     keeper,
		breakTimer: breakTimer,
		smartPause: monitor,
		autoLaunch: autoLaunch,
		clock:      deps.Clock,
	}
	breakTimer.OnTimerComplete(core.breakCountdownFinished)
	core.registerStore()
	core.registerBreakTimer()
	core.registerController()
	core.registerSmartPause()
	core.registerAutoLaunch()
	return core, nil
}

// LastBreakFinished reports when a break countdown last ran to zero.
func (core *Core) LastBreakFinished() (time.Time, bool) {
	core.mu.Lock()
	defer core.mu.Unlock()
	return core.lastBreakEnd, !core.lastBreakEnd.IsZero()
}

func (core *Core) breakCountdownFinished() {
	now := core.clock.Now()
	core.mu.Lock()
	core.lastBreakEnd = now
	core.mu.Unlock()
	core.logger.Info("break countdown finished", xslog.Seconds(core.breakTimer.Duration()))
}

// Bus returns the message bus shared by both contexts.
func (core *Core) Bus() *ipc.Bus {
	return core.bus
}

// Keeper returns the work/break controller.
func (core *Core) Keeper() *timekeeper.TimeKeeper {
	return core.keeper
}

// BreakTimer returns the break countdown.
func (core *Core) BreakTimer() *breaktimer.Manager {
	return core.breakTimer
}

// AutoLaunch returns the start-on-login service, nil when no autostarter was given.
func (core *Core) AutoLaunch() *autolaunch.Service {
	return core.autoLaunch
}

// SetOverlay attaches the break presenter.
func (core *Core) SetOverlay(overlay Overlay) {
	core.mu.Lock()
	defer core.mu.Unlock()
	core.overlay = overlay
}

// OnSettingChanged registers a hook called after a store key was written or deleted.
func (core *Core) OnSettingChanged(hook func(key string)) {
	core.mu.Lock()
	defer core.mu.Unlock()
	core.settingHooks = append(core.settingHooks, hook)
}

// Start begins the work countdown.
func (core *Core) Start() {
	core.keeper.Start()
}

// Run runs the bus dispatch loop and the smart pause monitor until ctx is done.
func (core *Core) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return core.bus.Run(groupCtx)
	})
	group.Go(func() error {
		return core.smartPause.Run(groupCtx)
	})
	return group.Wait()
}

// Shutdown stops every countdown.
func (core *Core) Shutdown() {
	core.breakTimer.StopBreakTimer()
	core.breakTimer.RemoveAllCallbacks()
	core.keeper.Stop()
}

// TakeBreakNow shows a break immediately. The work countdown is paused until the break ends.
func (core *Core) TakeBreakNow(ctx context.Context) {
	overlay := core.currentOverlay()
	if overlay == nil {
		core.logger.Warn("no overlay attached, ignoring manual break")
		return
	}
	if core.breakTimer.IsActive() {
		core.logger.Debug("break already active, ignoring manual break")
		return
	}
	core.keeper.Pause()
	overlay.StartBreak(ctx, core.keeper.Settings().BreakDuration)
}

// TogglePause pauses a running countdown or resumes a paused one.
func (core *Core) TogglePause() {
	if core.keeper.State().IsRunning {
		core.keeper.Pause()
		return
	}
	core.keeper.Start()
}

// SkipBreak ends an active break from outside the overlay.
func (core *Core) SkipBreak(ctx context.Context) {
	if overlay := core.currentOverlay(); overlay != nil && core.breakTimer.IsActive() {
		overlay.Skip(ctx)
		return
	}
	if core.keeper.State().IsOnBreak {
		core.keeper.SkipBreak()
	}
}

func (core *Core) currentOverlay() Overlay {
	core.mu.Lock()
	defer core.mu.Unlock()
	return core.overlay
}

func (core *Core) settingChanged(key string) {
	core.mu.Lock()
	hooks := append([]func(string){}, core.settingHooks...)
	core.mu.Unlock()
	for _, hook := range hooks {
		hook(key)
	}
}

func (core *Core) registerStore() {
	ipc.Serve(core.bus, ipc.ChannelStoreGet, func(_ context.Context, request ipc.StoreKey) (ipc.StoreEntry, error) {
		value, ok := core.store.Value(request.Key)
		if !ok {
			return ipc.StoreEntry{Key: request.Key}, nil
		}
		encoded, err := go_json.Marshal(value)
		if err != nil {
			return ipc.StoreEntry{}, fmt.Errorf("encode %s: %w", request.Key, err)
		}
		return ipc.StoreEntry{Key: request.Key, Value: encoded, Found: true}, nil
	})

	ipc.Serve(core.bus, ipc.ChannelStoreSet, func(_ context.Context, request ipc.StoreEntry) (ipc.Empty, error) {
		if err := core.setSetting(request.Key, request.Value); err != nil {
			core.logger.Error("store set failed", xslog.Key(request.Key), xslog.Error(err))
			return ipc.Empty{}, err
		}
		return ipc.Empty{}, nil
	})

	ipc.Serve(core.bus, ipc.ChannelStoreDelete, func(_ context.Context, request ipc.StoreKey) (ipc.Empty, error) {
		if err := core.store.Delete(request.Key); err != nil {
			return ipc.Empty{}, err
		}
		core.settingChanged(request.Key)
		return ipc.Empty{}, nil
	})

	ipc.Serve(core.bus, ipc.ChannelStoreHas, func(_ context.Context, request ipc.StoreKey) (ipc.Presence, error) {
		return ipc.Presence{Has: core.store.Has(request.Key)}, nil
	})
}

func (core *Core) setSetting(key string, raw []byte) error {
	if key == storage.KeyTimerSettings {
		var settings model.TimerSettings
		if err := go_json.Unmarshal(raw, &settings); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		if err := settings.Validate(); err != nil {
			return err
		}
		if err := core.store.SaveTimerSettings(settings); err != nil {
			return err
		}
		if err := core.keeper.UpdateSettings(settings); err != nil {
			return err
		}
		core.breakTimer.Configure(settings.BreakDuration)
		core.settingChanged(key)
		return nil
	}

	var value any
	if len(raw) > 0 {
		if err := go_json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
	}
	if err := core.store.Set(key, value); err != nil {
		return err
	}
	core.settingChanged(key)
	return nil
}

func (core *Core) registerBreakTimer() {
	ipc.Serve(core.bus, ipc.ChannelBreakTimerStart, func(_ context.Context, request ipc.StartBreakTimer) (ipc.Empty, error) {
		core.breakTimer.StartBreakTimer(request.Duration)
		return ipc.Empty{}, nil
	})
	ipc.Serve(core.bus, ipc.ChannelBreakTimerStop, func(context.Context, ipc.Empty) (ipc.Empty, error) {
		core.breakTimer.StopBreakTimer()
		return ipc.Empty{}, nil
	})
	ipc.Serve(core.bus, ipc.ChannelBreakTimerRemaining, func(context.Context, ipc.Empty) (ipc.Remaining, error) {
		return ipc.Remaining{Remaining: core.breakTimer.BreakTimeRemaining()}, nil
	})
	ipc.Serve(core.bus, ipc.ChannelBreakTimerIsActive, func(context.Context, ipc.Empty) (ipc.Active, error) {
		return ipc.Active{Active: core.breakTimer.IsActive()}, nil
	})
}

func (core *Core) registerController() {
	ipc.Serve(core.bus, ipc.ChannelTimerCompleteBreak, func(context.Context, ipc.Empty) (ipc.Empty, error) {
		core.keeper.CompleteBreak()
		return ipc.Empty{}, nil
	})

	ipc.Listen(core.bus, ipc.ChannelTimerComplete, func(ctx context.Context, event ipc.TimerComplete) {
		overlay := core.currentOverlay()
		if overlay == nil {
			core.logger.Debug("no overlay attached", xslog.OnBreak(event.IsOnBreak))
			return
		}
		if event.IsOnBreak {
			overlay.StartBreak(ctx, core.keeper.Settings().BreakDuration)
			return
		}
		overlay.HideBreak(ctx)
	})

	ipc.Listen(core.bus, ipc.ChannelBreakSkip, func(ctx context.Context, _ ipc.Empty) {
		if overlay := core.currentOverlay(); overlay != nil {
			overlay.Skip(ctx)
		}
	})
	ipc.Listen(core.bus, ipc.ChannelBreakSnooze, func(ctx context.Context, _ ipc.Empty) {
		if overlay := core.currentOverlay(); overlay != nil {
			overlay.Snooze(ctx)
		}
	})
	ipc.Listen(core.bus, ipc.ChannelBreakSkipped, func(context.Context, ipc.Empty) {
		core.keeper.SkipBreak()
	})
	ipc.Listen(core.bus, ipc.ChannelBreakSnoozed, func(context.Context, ipc.Empty) {
		core.keeper.SnoozeBreak()
	})
}

func (core *Core) registerSmartPause() {
	ipc.Listen(core.bus, ipc.ChannelSmartPauseReset, func(context.Context, ipc.Empty) {
		if core.breakTimer.IsActive() {
			core.logger.Debug("break active, keeping timer after system resume")
			return
		}
		core.keeper.ResetDueToSystemResume()
	})
	ipc.Listen(core.bus, ipc.ChannelSystemLocked, func(context.Context, ipc.Empty) {
		core.logger.Info("system locked")
	})
	ipc.Listen(core.bus, ipc.ChannelSystemUnlocked, func(context.Context, ipc.Empty) {
		core.logger.Info("system unlocked")
	})

	ipc.Serve(core.bus, ipc.ChannelSmartPauseIsEnabled, func(context.Context, ipc.Empty) (ipc.Enabled, error) {
		return ipc.Enabled{Enabled: core.smartPause.Enabled()}, nil
	})
	ipc.Serve(core.bus, ipc.ChannelSmartPauseSetEnabled, func(_ context.Context, request ipc.Enabled) (ipc.Result, error) {
		if request.Enabled && !core.smartPause.Supported() {
			return ipc.Result{Error: smartpause.ErrIdleUnsupported.Error()}, nil
		}
		if err := core.store.Set(storage.KeySmartPauseEnabled, request.Enabled); err != nil {
			return ipc.Result{Error: err.Error()}, nil
		}
		core.smartPause.SetEnabled(request.Enabled)
		return ipc.Result{Success: true}, nil
	})
	ipc.Serve(core.bus, ipc.ChannelSmartPauseThreshold, func(context.Context, ipc.Empty) (ipc.Threshold, error) {
		return ipc.Threshold{Minutes: int(core.smartPause.Threshold() / time.Minute)}, nil
	})
	ipc.Serve(core.bus, ipc.ChannelSmartPauseSetThreshold, func(_ context.Context, request ipc.Threshold) (ipc.Result, error) {
		if request.Minutes <= 0 {
			return ipc.Result{Error: fmt.Sprintf("threshold must be positive, got %d", request.Minutes)}, nil
		}
		if err := core.store.Set(storage.KeySmartPauseThreshold, request.Minutes); err != nil {
			return ipc.Result{Error: err.Error()}, nil
		}
		core.smartPause.SetThreshold(time.Duration(request.Minutes) * time.Minute)
		return ipc.Result{Success: true}, nil
	})
}

func (core *Core) registerAutoLaunch() {
	ipc.Serve(core.bus, ipc.ChannelAutoLaunchEnable, func(context.Context, ipc.Empty) (ipc.Result, error) {
		if core.autoLaunch == nil {
			return ipc.Result{Error: "auto-launch unavailable"}, nil
		}
		return toResult(core.autoLaunch.Enable()), nil
	})
	ipc.Serve(core.bus, ipc.ChannelAutoLaunchDisable, func(context.Context, ipc.Empty) (ipc.Result, error) {
		if core.autoLaunch == nil {
			return ipc.Result{Error: "auto-launch unavailable"}, nil
		}
		return toResult(core.autoLaunch.Disable()), nil
	})
	ipc.Serve(core.bus, ipc.ChannelAutoLaunchIsEnabled, func(context.Context, ipc.Empty) (ipc.Enabled, error) {
		if core.autoLaunch == nil {
			return ipc.Enabled{}, nil
		}
		return ipc.Enabled{Enabled: core.autoLaunch.IsEnabled()}, nil
	})
}

func toResult(result autolaunch.Result) ipc.Result {
	return ipc.Result{Success: result.Success, Error: result.Error}
}
