package platform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPortFromNameIsStableAndInRange(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"BreakMate", "breakmate-dev", ""} {
		first := portFromName(name)
		if first < 20000 || first > 39999 {
			t.Errorf("portFromName(%q) = %d, out of range", name, first)
		}
		if second := portFromName(name); second != first {
			t.Errorf("portFromName(%q) not stable: %d then %d", name, first, second)
		}
	}
}

func TestSecondInstanceActivatesFirst(t *testing.T) {
	t.Parallel()

	appName := "breakmate-test-" + uuid.NewString()
	guard, err := AcquireSingleInstance(appName)
	if err != nil {
		t.Skipf("cannot bind single instance port: %v", err)
	}
	t.Cleanup(func() { _ = guard.Release() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	activated := make(chan struct{}, 1)
	served := make(chan error, 1)
	go func() {
		served <- guard.Serve(ctx, func() { activated <- struct{}{} })
	}()

	if _, err := AcquireSingleInstance(appName); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second AcquireSingleInstance() error = %v, want ErrAlreadyRunning", err)
	}

	select {
	case <-activated:
	case <-time.After(2 * time.Second):
		t.Fatal("running instance was not activated")
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestNilGuardIsSafe(t *testing.T) {
	t.Parallel()

	var guard *InstanceGuard
	if err := guard.Release(); err != nil {
		t.Errorf("Release() error = %v", err)
	}
	if got := guard.Address(); got != "" {
		t.Errorf("Address() = %q, want empty", got)
	}
}
