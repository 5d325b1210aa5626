package preferences

import (
	"context"
	"strings"
	"sync"
	"testing"

	"breakmate/internal/core/model"
	"breakmate/internal/ipc"
	"breakmate/internal/storage"

	go_json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

type fakeServices struct {
	mu           sync.Mutex
	values       map[string]go_json.RawMessage
	smartEnabled bool
	threshold    int
	autoLaunch   bool
	denyLaunch   bool
	calls        []string
}

func (services *fakeServices) record(call string) {
	services.mu.Lock()
	defer services.mu.Unlock()
	services.calls = append(services.calls, call)
}

func (services *fakeServices) register(bus *ipc.Bus) {
	ipc.Serve(bus, ipc.ChannelStoreGet, func(_ context.Context, request ipc.StoreKey) (ipc.StoreEntry, error) {
		services.mu.Lock()
		defer services.mu.Unlock()
		value, ok := services.values[request.Key]
		return ipc.StoreEntry{Key: request.Key, Value: value, Found: ok}, nil
	})
	ipc.Serve(bus, ipc.ChannelStoreSet, func(_ context.Context, request ipc.StoreEntry) (ipc.Empty, error) {
		services.record("store-set:" + request.Key)
		services.mu.Lock()
		defer services.mu.Unlock()
		services.values[request.Key] = request.Value
		return ipc.Empty{}, nil
	})
	ipc.Serve(bus, ipc.ChannelSmartPauseIsEnabled, func(context.Context, ipc.Empty) (ipc.Enabled, error) {
		return ipc.Enabled{Enabled: services.smartEnabled}, nil
	})
	ipc.Serve(bus, ipc.ChannelSmartPauseThreshold, func(context.Context, ipc.Empty) (ipc.Threshold, error) {
		return ipc.Threshold{Minutes: services.threshold}, nil
	})
	ipc.Serve(bus, ipc.ChannelSmartPauseSetEnabled, func(context.Context, ipc.Enabled) (ipc.Result, error) {
		services.record("smart-pause:set-enabled")
		return ipc.Result{Success: true}, nil
	})
	ipc.Serve(bus, ipc.ChannelSmartPauseSetThreshold, func(context.Context, ipc.Threshold) (ipc.Result, error) {
		services.record("smart-pause:set-threshold")
		return ipc.Result{Success: true}, nil
	})
	ipc.Serve(bus, ipc.ChannelAutoLaunchIsEnabled, func(context.Context, ipc.Empty) (ipc.Enabled, error) {
		return ipc.Enabled{Enabled: services.autoLaunch}, nil
	})
	ipc.Serve(bus, ipc.ChannelAutoLaunchEnable, func(context.Context, ipc.Empty) (ipc.Result, error) {
		services.record("auto-launch:enable")
		if services.denyLaunch {
			return ipc.Result{Error: "login items denied"}, nil
		}
		return ipc.Result{Success: true}, nil
	})
	ipc.Serve(bus, ipc.ChannelAutoLaunchDisable, func(context.Context, ipc.Empty) (ipc.Result, error) {
		services.record("auto-launch:disable")
		return ipc.Result{Success: true}, nil
	})
}

func newBackend(t *testing.T, services *fakeServices) *Backend {
	t.Helper()
	if services.values == nil {
		services.values = make(map[string]go_json.RawMessage)
	}
	bus := ipc.NewBus(nil, ipc.Config{})
	services.register(bus)
	return NewBackend(bus, nil)
}

func TestLoadReadsEverySource(t *testing.T) {
	t.Parallel()

	services := &fakeServices{
		values: map[string]go_json.RawMessage{
			storage.KeyTimerSettings: go_json.RawMessage(`{"workDuration":30,"breakDuration":25,"longBreakDuration":5,"longBreakInterval":4}`),
			storage.KeyTheme:         go_json.RawMessage(`"dark"`),
		},
		smartEnabled: false,
		threshold:    9,
		autoLaunch:   true,
	}
	backend := newBackend(t, services)

	got := backend.Load(context.Background())
	want := Settings{
		Timer:               model.TimerSettings{WorkDuration: 30, BreakDuration: 25, LongBreakDuration: 5, LongBreakInterval: 4},
		SmartPauseEnabled:   false,
		SmartPauseThreshold: 9,
		StartOnLogin:        true,
		Theme:               ThemeDark,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	services := &fakeServices{smartEnabled: true, threshold: 5}
	backend := newBackend(t, services)

	got := backend.Load(context.Background())
	if diff := cmp.Diff(DefaultSettings(), got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveSendsOnlyChanges(t *testing.T) {
	t.Parallel()

	services := &fakeServices{}
	backend := newBackend(t, services)

	previous := DefaultSettings()
	next := previous
	next.Timer.WorkDuration = 25
	next.SmartPauseThreshold = 8

	if err := backend.Save(context.Background(), previous, next); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	want := []string{"store-set:" + storage.KeyTimerSettings, "smart-pause:set-threshold"}
	if diff := cmp.Diff(want, services.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	var stored model.TimerSettings
	if err := go_json.Unmarshal(services.values[storage.KeyTimerSettings], &stored); err != nil {
		t.Fatalf("decode stored timer settings: %v", err)
	}
	if diff := cmp.Diff(next.Timer, stored); diff != "" {
		t.Errorf("stored timer settings mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveReportsAutoLaunchFailure(t *testing.T) {
	t.Parallel()

	services := &fakeServices{denyLaunch: true}
	backend := newBackend(t, services)

	next := DefaultSettings()
	next.StartOnLogin = true
	err := backend.Save(context.Background(), DefaultSettings(), next)
	if err == nil || !strings.Contains(err.Error(), "login items denied") {
		t.Fatalf("Save() error = %v, want auto-launch failure", err)
	}
}

func TestSaveRejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	services := &fakeServices{}
	backend := newBackend(t, services)

	next := DefaultSettings()
	next.Timer.BreakDuration = 0
	if err := backend.Save(context.Background(), DefaultSettings(), next); err == nil {
		t.Fatal("Save() accepted invalid settings")
	}
	if len(services.calls) != 0 {
		t.Errorf("calls = %v, want none", services.calls)
	}
}
