package ipc

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"breakmate/internal/storage"

	go_json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

func runBus(t *testing.T, bus *Bus) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestChannelWhitelist(t *testing.T) {
	t.Parallel()

	tests := []struct {
		channel Channel
		event   bool
		request bool
	}{
		{channel: ChannelTimerComplete, event: true},
		{channel: ChannelBreakTimerUpdate, event: true},
		{channel: ChannelBreakSnoozed, event: true},
		{channel: ChannelStoreGet, request: true},
		{channel: ChannelBreakTimerRemaining, request: true},
		{channel: "shell:exec"},
		{channel: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.channel), func(t *testing.T) {
			t.Parallel()
			if got := IsEvent(tt.channel); got != tt.event {
				t.Errorf("IsEvent(%q) = %v, want %v", tt.channel, got, tt.event)
			}
			if got := IsRequest(tt.channel); got != tt.request {
				t.Errorf("IsRequest(%q) = %v, want %v", tt.channel, got, tt.request)
			}
		})
	}
}

func TestNewMessageRejectsUnknownChannel(t *testing.T) {
	t.Parallel()

	if _, err := NewMessage("fullscreen:check", Empty{}); !errors.Is(err, ErrChannelNotAllowed) {
		t.Fatalf("NewMessage() error = %v, want ErrChannelNotAllowed", err)
	}
}

func TestSendDeliversInOrder(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil, Config{})
	received := make(chan int, 3)
	Listen(bus, ChannelBreakTimerUpdate, func(_ context.Context, update TimerUpdate) {
		received <- update.Remaining
	})
	runBus(t, bus)

	for _, remaining := range []int{3, 2, 1} {
		bus.Send(ChannelBreakTimerUpdate, TimerUpdate{Remaining: remaining})
	}

	var got []int
	for i := 0; i < 3; i++ {
		select {
		case value := <-received:
			got = append(got, value)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %v", got)
		}
	}
	if diff := cmp.Diff([]int{3, 2, 1}, got); diff != "" {
		t.Errorf("delivery order mismatch (-want +got):\n%s", diff)
	}
}

func TestSendIgnoresUnknownChannel(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil, Config{})
	var mu sync.Mutex
	calls := 0
	bus.On("system:shutdown", func(context.Context, Message) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	received := make(chan struct{}, 1)
	bus.On(ChannelBreakSkip, func(context.Context, Message) {
		received <- struct{}{}
	})
	runBus(t, bus)

	bus.Send("system:shutdown", Empty{})
	bus.Send(ChannelBreakSkip, Empty{})

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("whitelisted message was not delivered")
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("unknown channel listener called %d times, want 0", calls)
	}
}

func TestListenerPanicDoesNotStopDispatch(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil, Config{})
	received := make(chan struct{}, 1)
	bus.On(ChannelBreakSnooze, func(context.Context, Message) {
		panic("boom")
	})
	bus.On(ChannelBreakSkip, func(context.Context, Message) {
		received <- struct{}{}
	})
	runBus(t, bus)

	bus.Send(ChannelBreakSnooze, Empty{})
	bus.Send(ChannelBreakSkip, Empty{})

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("dispatch stopped after listener panic")
	}
}

func TestCallRoundTrip(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil, Config{})
	Serve(bus, ChannelBreakTimerStart, func(_ context.Context, request StartBreakTimer) (Empty, error) {
		if request.Duration != 20 {
			t.Errorf("Duration = %d, want 20", request.Duration)
		}
		return Empty{}, nil
	})
	Serve(bus, ChannelBreakTimerRemaining, func(context.Context, Empty) (Remaining, error) {
		return Remaining{Remaining: 17}, nil
	})

	client := NewBreakTimerClient(bus)
	if err := client.Start(context.Background(), 20); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	remaining, err := client.Remaining(context.Background())
	if err != nil {
		t.Fatalf("Remaining() error = %v", err)
	}
	if remaining != 17 {
		t.Errorf("Remaining() = %d, want 17", remaining)
	}
}

func TestCallErrors(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil, Config{CallTimeout: 20 * time.Millisecond})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	Serve(bus, ChannelBreakTimerIsActive, func(context.Context, Empty) (Active, error) {
		<-release
		return Active{Active: true}, nil
	})
	handlerErr := errors.New("store closed")
	Serve(bus, ChannelStoreHas, func(context.Context, StoreKey) (Presence, error) {
		return Presence{}, handlerErr
	})

	tests := []struct {
		name    string
		call    func() error
		wantErr error
	}{
		{
			name: "timeout",
			call: func() error {
				_, err := NewBreakTimerClient(bus).IsActive(context.Background())
				return err
			},
			wantErr: ErrTimeout,
		},
		{
			name: "no handler",
			call: func() error {
				return NewBreakTimerClient(bus).Stop(context.Background())
			},
			wantErr: ErrNoHandler,
		},
		{
			name: "not a request channel",
			call: func() error {
				_, err := bus.Call(context.Background(), ChannelBreakSkip, Empty{})
				return err
			},
			wantErr: ErrChannelNotAllowed,
		},
		{
			name: "handler error",
			call: func() error {
				_, err := NewStoreClient(bus).Has(context.Background(), "theme")
				return err
			},
			wantErr: handlerErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStoreClientNotFound(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil, Config{})
	Serve(bus, ChannelStoreGet, func(_ context.Context, key StoreKey) (StoreEntry, error) {
		if key.Key == "theme" {
			return StoreEntry{Key: key.Key, Value: []byte(`"dark"`), Found: true}, nil
		}
		return StoreEntry{Key: key.Key}, nil
	})

	client := NewStoreClient(bus)
	var theme string
	if err := client.Get(context.Background(), "theme", &theme); err != nil {
		t.Fatalf("Get(theme) error = %v", err)
	}
	if theme != "dark" {
		t.Errorf("theme = %q, want dark", theme)
	}
	var missing int
	if err := client.Get(context.Background(), "missing", &missing); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCallLogsRequestID(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&output, &slog.HandlerOptions{Level: slog.LevelDebug}))
	bus := NewBus(logger, Config{CallTimeout: 20 * time.Millisecond})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	Serve(bus, ChannelBreakTimerIsActive, func(context.Context, Empty) (Active, error) {
		<-release
		return Active{}, nil
	})
	Serve(bus, ChannelStoreHas, func(context.Context, StoreKey) (Presence, error) {
		return Presence{}, errors.New("store closed")
	})

	if _, err := NewBreakTimerClient(bus).IsActive(context.Background()); !errors.Is(err, ErrTimeout) {
		t.Fatalf("IsActive() error = %v, want ErrTimeout", err)
	}
	if _, err := NewStoreClient(bus).Has(context.Background(), "theme"); err == nil {
		t.Fatal("Has() error = nil, want handler error")
	}

	var messages []string
	for _, line := range bytes.Split(bytes.TrimSpace(output.Bytes()), []byte("\n")) {
		var record map[string]any
		if err := go_json.Unmarshal(line, &record); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if id, _ := record["request_id"].(string); id == "" {
			t.Errorf("log record %q has no request_id", record["msg"])
		}
		messages = append(messages, record["msg"].(string))
	}
	if diff := cmp.Diff([]string{"request timed out", "request failed"}, messages); diff != "" {
		t.Errorf("logged messages mismatch (-want +got):\n%s", diff)
	}
}
