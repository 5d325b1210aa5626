package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSettings indicates a timer setting that is not a positive integer.
var ErrInvalidSettings = errors.New("invalid timer settings")

// TimerSettings holds the user-configured durations.
// LongBreakDuration and LongBreakInterval are persisted but not consulted by phase transitions.
type TimerSettings struct {
	WorkDuration      int `yaml:"workDuration" json:"workDuration"`           // minutes
	BreakDuration     int `yaml:"breakDuration" json:"breakDuration"`         // seconds
	LongBreakDuration int `yaml:"longBreakDuration" json:"longBreakDuration"` // minutes
	LongBreakInterval int `yaml:"longBreakInterval" json:"longBreakInterval"` // cycles
}

// DefaultTimerSettings returns the 20-20-20 rule defaults.
func DefaultTimerSettings() TimerSettings {
	return TimerSettings{
		WorkDuration:      20,
		BreakDuration:     20,
		LongBreakDuration: 5,
		LongBreakInterval: 4,
	}
}

// Validate reports whether every field is a positive integer.
func (settings TimerSettings) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"workDuration", settings.WorkDuration},
		{"breakDuration", settings.BreakDuration},
		{"longBreakDuration", settings.LongBreakDuration},
		{"longBreakInterval", settings.LongBreakInterval},
	}
	for _, field := range fields {
		if field.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidSettings, field.name, field.value)
		}
	}
	return nil
}

// WorkSeconds returns the work phase length in seconds.
func (settings TimerSettings) WorkSeconds() int {
	return settings.WorkDuration * 60
}

// PhaseSeconds returns the full length of the given phase in seconds.
func (settings TimerSettings) PhaseSeconds(onBreak bool) int {
	if onBreak {
		return settings.BreakDuration
	}
	return settings.WorkSeconds()
}

// TimerState is the in-memory countdown state owned by the timekeeper.
type TimerState struct {
	IsRunning        bool `json:"isRunning"`
	IsOnBreak        bool `json:"isOnBreak"`
	TimeRemaining    int  `json:"timeRemaining"` // seconds
	CycleCount       int  `json:"cycleCount"`
	TotalBreaksTaken int  `json:"totalBreaksTaken"`
	IsSystemLocked   bool `json:"isSystemLocked"`
}

// NewTimerState returns the process-start state for the given settings.
func NewTimerState(settings TimerSettings) TimerState {
	return TimerState{TimeRemaining: settings.WorkSeconds()}
}

// BreakBroadcastState tracks how long the break overlay has been visible.
type BreakBroadcastState struct {
	IsActive             bool
	CurrentBreakDuration int // seconds
	BreakStartTime       time.Time
}

// Remaining derives the remaining break seconds from the wall clock.
func (state BreakBroadcastState) Remaining(now time.Time) int {
	if !state.IsActive || state.BreakStartTime.IsZero() {
		return state.CurrentBreakDuration
	}
	return RemainingSeconds(state.CurrentBreakDuration, state.BreakStartTime, now)
}

// RemainingSeconds returns max(0, duration - whole seconds elapsed since start).
func RemainingSeconds(duration int, start, now time.Time) int {
	elapsed := int(now.Sub(start) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	return max(0, duration-elapsed)
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
