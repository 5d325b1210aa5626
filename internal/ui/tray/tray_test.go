package tray

import (
	"testing"

	"breakmate/internal/core/model"
)

func TestStatusText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state model.TimerState
		want  string
	}{
		{name: "running", state: model.TimerState{IsRunning: true, TimeRemaining: 754}, want: "Next break in 12:34"},
		{name: "paused", state: model.TimerState{TimeRemaining: 1200}, want: "Paused (20:00 left)"},
		{name: "on break", state: model.TimerState{IsRunning: true, IsOnBreak: true, TimeRemaining: 9}, want: "On break (00:09)"},
		{name: "away", state: model.TimerState{IsSystemLocked: true, IsRunning: true, TimeRemaining: 60}, want: "Away"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StatusText(tt.state); got != tt.want {
				t.Errorf("StatusText() = %q, want %q", got, tt.want)
			}
		})
	}
}
