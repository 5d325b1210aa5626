package preferences

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"breakmate/internal/core/model"
	"breakmate/internal/ui/theme"
)

// Theme names accepted by the theme switcher.
const (
	ThemeSystem = theme.System
	ThemeLight  = theme.Light
	ThemeDark   = theme.Dark
)

// Themes lists the selectable themes in menu order.
var Themes = []string{ThemeSystem, ThemeLight, ThemeDark}

var errInvalidForm = errors.New("invalid preferences")

// Settings defines editable user preferences.
type Settings struct {
	Timer               model.TimerSettings
	SmartPauseEnabled   bool
	SmartPauseThreshold int // minutes
	StartOnLogin        bool
	Theme               string
}

// DefaultSettings returns default settings for BreakMate.
func DefaultSettings() Settings {
	return Settings{
		Timer:               model.DefaultTimerSettings(),
		SmartPauseEnabled:   true,
		SmartPauseThreshold: 5,
		StartOnLogin:        false,
		Theme:               ThemeSystem,
	}
}

// Validate rejects settings that cannot be persisted.
func (settings Settings) Validate() error {
	if err := settings.Timer.Validate(); err != nil {
		return err
	}
	if settings.SmartPauseThreshold <= 0 {
		return fmt.Errorf("%w: smart pause threshold must be positive, got %d", errInvalidForm, settings.SmartPauseThreshold)
	}
	if !IsTheme(settings.Theme) {
		return fmt.Errorf("%w: unknown theme %q", errInvalidForm, settings.Theme)
	}
	return nil
}

// IsTheme reports whether name is a selectable theme.
func IsTheme(name string) bool {
	for _, candidate := range Themes {
		if candidate == name {
			return true
		}
	}
	return false
}

// Form holds the raw text of the numeric fields.
type Form struct {
	WorkMinutes         string
	BreakSeconds        string
	LongBreakMinutes    string
	LongBreakInterval   string
	SmartPauseThreshold string
}

// FormFromSettings renders settings into form text.
func FormFromSettings(settings Settings) Form {
	return Form{
		WorkMinutes:         strconv.Itoa(settings.Timer.WorkDuration),
		BreakSeconds:        strconv.Itoa(settings.Timer.BreakDuration),
		LongBreakMinutes:    strconv.Itoa(settings.Timer.LongBreakDuration),
		LongBreakInterval:   strconv.Itoa(settings.Timer.LongBreakInterval),
		SmartPauseThreshold: strconv.Itoa(settings.SmartPauseThreshold),
	}
}

// Apply parses form into a copy of base. Every field must be a positive integer.
func (form Form) Apply(base Settings) (Settings, error) {
	fields := []struct {
		label  string
		value  string
		target *int
	}{
		{"work interval", form.WorkMinutes, &base.Timer.WorkDuration},
		{"break duration", form.BreakSeconds, &base.Timer.BreakDuration},
		{"long break duration", form.LongBreakMinutes, &base.Timer.LongBreakDuration},
		{"long break interval", form.LongBreakInterval, &base.Timer.LongBreakInterval},
		{"smart pause threshold", form.SmartPauseThreshold, &base.SmartPauseThreshold},
	}
	for _, field := range fields {
		parsed, ok := parsePositiveInt(field.value)
		if !ok {
			return base, fmt.Errorf("%w: %s must be a positive whole number", errInvalidForm, field.label)
		}
		*field.target = parsed
	}
	return base, base.Validate()
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
