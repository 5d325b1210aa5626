package timekeeper

import (
	"sync"
	"testing"
	"time"

	"breakmate/internal/core/model"
	"breakmate/internal/ipc"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type sentMessage struct {
	Channel ipc.Channel
	Payload any
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (notifier *fakeNotifier) Send(channel ipc.Channel, payload any) {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.sent = append(notifier.sent, sentMessage{Channel: channel, Payload: payload})
}

func (notifier *fakeNotifier) messages() []sentMessage {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	return append([]sentMessage(nil), notifier.sent...)
}

var testSettings = model.TimerSettings{WorkDuration: 20, BreakDuration: 20, LongBreakDuration: 5, LongBreakInterval: 4}

func newTestKeeper(t *testing.T) (*TimeKeeper, fakeClock, *fakeNotifier) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	keeper := New(testSettings, nil, Config{Clock: clock})
	notifier := &fakeNotifier{}
	keeper.SetNotifier(notifier)
	t.Cleanup(keeper.Stop)
	return keeper, clock, notifier
}

func eventually(t *testing.T, what string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewUsesWorkDuration(t *testing.T) {
	t.Parallel()

	keeper, _, _ := newTestKeeper(t)
	want := model.TimerState{TimeRemaining: 1200}
	if diff := cmp.Diff(want, keeper.State()); diff != "" {
		t.Errorf("initial state mismatch (-want +got):\n%s", diff)
	}
}

func TestNewFallsBackToDefaultsOnInvalidSettings(t *testing.T) {
	t.Parallel()

	keeper := New(model.TimerSettings{}, nil, Config{Clock: clockwork.NewFakeClock()})
	defer keeper.Stop()
	if diff := cmp.Diff(model.DefaultTimerSettings(), keeper.Settings()); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkPhaseCompletesIntoBreak(t *testing.T) {
	t.Parallel()

	keeper, clock, notifier := newTestKeeper(t)
	keeper.Start()
	clock.Advance(1200 * time.Second)

	eventually(t, "break phase", func() bool { return keeper.State().IsOnBreak })

	want := model.TimerState{IsRunning: false, IsOnBreak: true, TimeRemaining: 20, CycleCount: 1}
	if diff := cmp.Diff(want, keeper.State()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	wantSent := []sentMessage{{Channel: ipc.ChannelTimerComplete, Payload: ipc.TimerComplete{IsOnBreak: true}}}
	if diff := cmp.Diff(wantSent, notifier.messages()); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestCompletionFiresExactlyOnceUnderJitter(t *testing.T) {
	t.Parallel()

	keeper, clock, notifier := newTestKeeper(t)
	keeper.Start()

	for i := 0; i < 30; i++ {
		clock.Advance(47 * time.Second)
		time.Sleep(time.Millisecond)
	}
	eventually(t, "break phase", func() bool { return keeper.State().IsOnBreak })
	time.Sleep(10 * time.Millisecond)

	if got := len(notifier.messages()); got != 1 {
		t.Errorf("phase notifications = %d, want 1", got)
	}
	if got := keeper.State().CycleCount; got != 1 {
		t.Errorf("CycleCount = %d, want 1", got)
	}
}

func TestCountdownIsWallClockDerived(t *testing.T) {
	t.Parallel()

	keeper, clock, _ := newTestKeeper(t)
	keeper.Start()
	clock.Advance(90*time.Second + 500*time.Millisecond)

	eventually(t, "remaining update", func() bool { return keeper.State().TimeRemaining == 1110 })
}

func TestStartTwiceKeepsSingleCountdown(t *testing.T) {
	t.Parallel()

	keeper, clock, _ := newTestKeeper(t)
	keeper.Start()
	keeper.mu.Lock()
	ticker := keeper.ticker
	startedAt := keeper.startedAt
	keeper.mu.Unlock()

	clock.Advance(30 * time.Second)
	keeper.Start()

	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.ticker != ticker {
		t.Error("second Start replaced the ticker")
	}
	if !keeper.startedAt.Equal(startedAt) {
		t.Errorf("startedAt = %v, want %v", keeper.startedAt, startedAt)
	}
	if keeper.duration != 1200 {
		t.Errorf("duration = %d, want 1200", keeper.duration)
	}
}

func TestPauseKeepsRemaining(t *testing.T) {
	t.Parallel()

	keeper, clock, _ := newTestKeeper(t)
	keeper.Start()
	clock.Advance(200 * time.Second)
	eventually(t, "remaining update", func() bool { return keeper.State().TimeRemaining == 1000 })

	keeper.Pause()
	clock.Advance(time.Hour)
	time.Sleep(5 * time.Millisecond)

	state := keeper.State()
	if state.IsRunning || state.TimeRemaining != 1000 {
		t.Errorf("state after pause = %+v", state)
	}

	keeper.Start()
	clock.Advance(100 * time.Second)
	eventually(t, "resumed countdown", func() bool { return keeper.State().TimeRemaining == 900 })
}

func TestReset(t *testing.T) {
	t.Parallel()

	keeper, clock, _ := newTestKeeper(t)
	keeper.Start()
	clock.Advance(300 * time.Second)
	eventually(t, "remaining update", func() bool { return keeper.State().TimeRemaining == 900 })

	keeper.Reset()
	want := model.TimerState{TimeRemaining: 1200}
	if diff := cmp.Diff(want, keeper.State()); diff != "" {
		t.Errorf("state after reset mismatch (-want +got):\n%s", diff)
	}
}

func TestBreakCountdownCompletesIntoWorkAndRestarts(t *testing.T) {
	t.Parallel()

	keeper, clock, notifier := newTestKeeper(t)
	keeper.Start()
	clock.Advance(1200 * time.Second)
	eventually(t, "break phase", func() bool { return keeper.State().IsOnBreak })

	keeper.Start()
	clock.Advance(20 * time.Second)
	eventually(t, "work phase", func() bool { return !keeper.State().IsOnBreak })

	state := keeper.State()
	if state.TotalBreaksTaken != 1 || state.TimeRemaining != 1200 || state.IsRunning {
		t.Errorf("state after break = %+v", state)
	}

	clock.Advance(500 * time.Millisecond)
	eventually(t, "auto restart", func() bool { return keeper.State().IsRunning })

	messages := notifier.messages()
	if len(messages) != 2 || messages[1].Payload != (ipc.TimerComplete{IsOnBreak: false}) {
		t.Errorf("notifications = %+v", messages)
	}
}

func TestBreakTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		apply         func(*TimeKeeper)
		wantRemaining int
	}{
		{name: "skip", apply: (*TimeKeeper).SkipBreak, wantRemaining: 1200},
		{name: "snooze", apply: (*TimeKeeper).SnoozeBreak, wantRemaining: 300},
		{name: "complete", apply: (*TimeKeeper).CompleteBreak, wantRemaining: 1200},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			keeper, clock, _ := newTestKeeper(t)
			keeper.Start()
			clock.Advance(1200 * time.Second)
			eventually(t, "break phase", func() bool { return keeper.State().IsOnBreak })

			tt.apply(keeper)
			want := model.TimerState{TimeRemaining: tt.wantRemaining, CycleCount: 1, TotalBreaksTaken: 1}
			if diff := cmp.Diff(want, keeper.State()); diff != "" {
				t.Errorf("state mismatch (-want +got):\n%s", diff)
			}

			clock.Advance(500 * time.Millisecond)
			eventually(t, "auto restart", func() bool { return keeper.State().IsRunning })
		})
	}
}

func TestSkipDuringRunningWorkStopsCountdown(t *testing.T) {
	t.Parallel()

	keeper, clock, _ := newTestKeeper(t)
	keeper.Start()
	clock.Advance(600 * time.Second)

	keeper.CompleteBreak()
	state := keeper.State()
	if state.IsRunning || state.TimeRemaining != 1200 {
		t.Fatalf("state after complete = %+v", state)
	}
	keeper.mu.Lock()
	hasTicker := keeper.ticker != nil
	keeper.mu.Unlock()
	if hasTicker {
		t.Error("previous countdown still scheduled")
	}
}

func TestResetDueToSystemResume(t *testing.T) {
	t.Parallel()

	keeper, clock, _ := newTestKeeper(t)
	events := keeper.Subscribe(16)
	keeper.Start()
	clock.Advance(900 * time.Second)
	eventually(t, "remaining update", func() bool { return keeper.State().TimeRemaining == 300 })

	keeper.ResetDueToSystemResume()
	state := keeper.State()
	if state.IsRunning || state.IsOnBreak || state.TimeRemaining != 1200 {
		t.Fatalf("state after resume reset = %+v", state)
	}

	clock.Advance(500 * time.Millisecond)
	eventually(t, "restart", func() bool { return keeper.State().IsRunning })

	sawResume := false
	for len(events) > 0 {
		if event := <-events; event.Type == EventSystemResume {
			sawResume = true
		}
	}
	if !sawResume {
		t.Error("no system_resume event emitted")
	}
}

func TestUpdateSettings(t *testing.T) {
	t.Parallel()

	keeper, _, _ := newTestKeeper(t)
	if err := keeper.UpdateSettings(model.TimerSettings{WorkDuration: 0}); err == nil {
		t.Fatal("UpdateSettings() accepted invalid settings")
	}
	updated := model.TimerSettings{WorkDuration: 25, BreakDuration: 15, LongBreakDuration: 5, LongBreakInterval: 4}
	if err := keeper.UpdateSettings(updated); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if got := keeper.State().TimeRemaining; got != 1500 {
		t.Errorf("TimeRemaining = %d, want 1500", got)
	}
}

func TestStopClosesSubscribers(t *testing.T) {
	t.Parallel()

	keeper, _, _ := newTestKeeper(t)
	events := keeper.Subscribe(1)
	keeper.Stop()
	keeper.Stop()

	for range events {
	}
	keeper.Start()
	if keeper.State().IsRunning {
		t.Error("Start after Stop must be ignored")
	}
}
