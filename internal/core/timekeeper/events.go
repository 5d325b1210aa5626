package timekeeper

import (
	"time"

	"breakmate/internal/core/model"
)

// Phase represents the current TimeKeeper phase.
type Phase string

const (
	PhaseWork  Phase = "work"
	PhaseBreak Phase = "break"
)

// EventType defines the type of TimeKeeper event.
type EventType string

const (
	EventStateChange   EventType = "state_change"
	EventProgress      EventType = "progress"
	EventPhaseComplete EventType = "phase_complete"
	EventSystemResume  EventType = "system_resume"
)

// Event represents a TimeKeeper update for observers.
type Event struct {
	Type      EventType
	Phase     Phase
	State     model.TimerState
	Remaining time.Duration
	Progress  float64
	At        time.Time
}
