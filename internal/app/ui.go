package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"breakmate/internal/config"
	"breakmate/internal/core/model"
	"breakmate/internal/ipc"
	"breakmate/internal/platform"
	"breakmate/internal/storage"
	"breakmate/internal/ui/overlay"
	"breakmate/internal/ui/preferences"
	"breakmate/internal/ui/screen"
	"breakmate/internal/ui/theme"
	"breakmate/internal/ui/tray"
	"breakmate/internal/xslog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fynetheme "fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/sync/errgroup"
)

const actionTimeout = 5 * time.Second

// Deps are the collaborators of App.
type Deps struct {
	Fyne   fyne.App
	Core   *Core
	Store  *storage.Store
	Config *config.Config
	Guard  *platform.InstanceGuard
	Source screen.Source
	Hidden bool
	Logger *slog.Logger
}

// App is the running desktop application: the controller core plus its fyne shell.
type App struct {
	fyne         fyne.App
	core         *Core
	store        *storage.Store
	config       *config.Config
	guard        *platform.InstanceGuard
	hidden       bool
	logger       *slog.Logger
	orchestrator *overlay.Orchestrator
	watcher      *screen.Watcher
	prefs        *preferences.Window
	tray         *tray.Manager
	main         fyne.Window
	status       *widget.Label
}

// New builds the UI shell around core.
func New(deps Deps) (*App, error) {
	if deps.Fyne == nil || deps.Core == nil || deps.Store == nil {
		return nil, errors.New("new app: fyne app, core and store are required")
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := xslog.OrDiscard(deps.Logger)
	source := deps.Source
	if source == nil {
		source = screen.NewGLFWSource(logger)
	}
	bus := deps.Core.Bus()

	windowConfig := overlay.DefaultWindowConfig()
	windowConfig.Opacity = uint8(cfg.Overlay.Opacity)
	windowConfig.FadeDuration = cfg.Overlay.FadeDuration
	windowConfig.SnoozeDuration = cfg.Timer.SnoozeDuration
	host := overlay.NewFyneHost(deps.Fyne, source, bus, logger, windowConfig)

	orchestrator := overlay.NewOrchestrator(host,
		ipc.NewBreakTimerClient(bus),
		ipc.NewControllerClient(bus),
		logger,
		overlay.Config{
			PollInterval:    cfg.Overlay.PollInterval,
			SettleDelay:     cfg.Overlay.SettleDelay,
			CompletionDelay: cfg.Overlay.CompletionDelay,
			QueryTimeout:    cfg.Overlay.QueryTimeout,
			Tolerance:       cfg.Overlay.Tolerance,
		})
	deps.Core.SetOverlay(orchestrator)

	app := &App{
		fyne:         deps.Fyne,
		core:         deps.Core,
		store:        deps.Store,
		config:       cfg,
		guard:        deps.Guard,
		hidden:       deps.Hidden,
		logger:       logger.With(xslog.Component("shell")),
		orchestrator: orchestrator,
		watcher:      screen.NewWatcher(source, logger, screen.WatcherConfig{Interval: cfg.Display.PollInterval}),
		prefs:        preferences.New(deps.Fyne, preferences.NewBackend(bus, logger), nil),
	}

	app.buildMainWindow()
	app.buildTray()

	theme.Apply(deps.Fyne, deps.Store.String(storage.KeyTheme, theme.System))
	deps.Core.OnSettingChanged(func(key string) {
		if key != storage.KeyTheme {
			return
		}
		name := deps.Store.String(storage.KeyTheme, theme.System)
		fyne.Do(func() {
			theme.Apply(deps.Fyne, name)
		})
	})
	return app, nil
}

// Run starts the background loops and blocks in the fyne event loop until the app quits.
func (app *App) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	app.watcher.OnAdded(func(display model.Display) {
		app.orchestrator.DisplayAdded(ctx, display)
	})
	app.watcher.OnRemoved(func(model.Display) {
		app.orchestrator.DisplayRemoved(ctx)
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return app.core.Run(groupCtx)
	})
	group.Go(func() error {
		return app.watcher.Run(groupCtx)
	})
	group.Go(func() error {
		return app.guard.Serve(groupCtx, app.showMain)
	})
	group.Go(func() error {
		app.followState(groupCtx)
		return nil
	})

	app.fyne.Lifecycle().SetOnStarted(func() {
		go app.startup(groupCtx)
	})
	stopped := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			fyne.Do(app.fyne.Quit)
		case <-stopped:
		}
	}()

	app.core.Start()
	app.fyne.Run()

	close(stopped)
	cancel()
	app.orchestrator.Close()
	app.core.Shutdown()
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (app *App) startup(ctx context.Context) {
	if app.hidden {
		app.logger.Info("started hidden")
		return
	}
	app.showMain()

	autoLaunch := app.core.AutoLaunch()
	if autoLaunch == nil {
		return
	}
	if err := autoLaunch.Reconcile(ctx, app.askAutoLaunch); err != nil {
		app.logger.Warn("auto-launch reconcile failed", xslog.Error(err))
	}
}

func (app *App) askAutoLaunch(ctx context.Context) (bool, error) {
	answer := make(chan bool, 1)
	fyne.Do(func() {
		dialog.ShowConfirm("Start on login",
			"Would you like BreakMate to start automatically when you log in?",
			func(accepted bool) { answer <- accepted },
			app.main)
	})
	select {
	case accepted := <-answer:
		return accepted, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (app *App) followState(ctx context.Context) {
	events := app.core.Keeper().Subscribe(32)
	app.render(app.core.Keeper().State())
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			app.render(event.State)
		}
	}
}

func (app *App) render(state model.TimerState) {
	if app.tray != nil {
		app.tray.Update(state)
	}
	text := tray.StatusText(state)
	if finished, ok := app.core.LastBreakFinished(); ok {
		text += "\nLast break ended " + finished.Format("15:04")
	}
	fyne.Do(func() {
		app.status.SetText(text)
	})
}

func (app *App) buildMainWindow() {
	app.status = widget.NewLabelWithStyle("Starting...", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	window := app.fyne.NewWindow(app.config.AppName)
	window.SetContent(container.NewVBox(
		widget.NewLabelWithStyle(app.config.AppName, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		app.status,
		widget.NewButton("Take Break Now", app.takeBreak),
		widget.NewButton("Pause / Resume", app.core.TogglePause),
		widget.NewButton("Settings", app.prefs.Show),
	))
	window.Resize(fyne.NewSize(320, 220))
	window.SetCloseIntercept(window.Hide)
	app.main = window
}

func (app *App) buildTray() {
	desktopApp, ok := app.fyne.(desktop.App)
	if !ok {
		app.logger.Warn("system tray unsupported on this platform")
		return
	}
	app.tray = tray.New(desktopApp, tray.Callbacks{
		OnOpen:        app.showMain,
		OnTakeBreak:   app.takeBreak,
		OnTogglePause: app.core.TogglePause,
		OnSkipBreak: func() {
			go app.withTimeout(app.core.SkipBreak)
		},
		OnQuit: app.fyne.Quit,
	})
	desktopApp.SetSystemTrayIcon(fynetheme.VisibilityIcon())
}

func (app *App) showMain() {
	fyne.Do(func() {
		app.main.Show()
		app.main.RequestFocus()
	})
}

func (app *App) takeBreak() {
	go app.withTimeout(app.core.TakeBreakNow)
}

func (app *App) withTimeout(action func(context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	action(ctx)
}
