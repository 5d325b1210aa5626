package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"breakmate/internal/core/model"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "breakmate-settings.yaml"

// Keys of the settings document.
const (
	KeyTheme                = "theme"
	KeyBreakInterval        = "breakInterval"
	KeyBreakDuration        = "breakDuration"
	KeyAutoLaunchConfigured = "autoLaunchConfigured"
	KeyAutoLaunchEnabled    = "autoLaunchEnabled"
	KeyTimerSettings        = "timerSettings"
	KeySmartPauseEnabled    = "smartPauseEnabled"
	KeySmartPauseThreshold  = "smartPauseThreshold"
)

// ErrNotFound indicates a key with neither a stored nor a default value.
var ErrNotFound = errors.New("settings key not found")

// Store is a flat key-value settings document persisted as YAML.
type Store struct {
	mu       sync.Mutex
	path     string
	data     map[string]any
	defaults map[string]any
}

// Defaults returns the values reported for keys that were never written.
func Defaults() map[string]any {
	timer := model.DefaultTimerSettings()
	return map[string]any{
		KeyTheme:                "system",
		KeyBreakInterval:        20,
		KeyBreakDuration:        20,
		KeyAutoLaunchConfigured: false,
		KeyAutoLaunchEnabled:    false,
		KeySmartPauseEnabled:    true,
		KeySmartPauseThreshold:  5,
		KeyTimerSettings: map[string]any{
			"workDuration":      timer.WorkDuration,
			"breakDuration":     timer.BreakDuration,
			"longBreakDuration": timer.LongBreakDuration,
			"longBreakInterval": timer.LongBreakInterval,
		},
	}
}

// Open loads the settings document of appName from the user config directory.
func Open(configDir, appName string) (*Store, error) {
	return OpenFile(filepath.Join(configDir, appName, settingsFileName))
}

// OpenFile loads the settings document at path.
// If the file does not exist, an empty document backed by defaults is returned.
func OpenFile(path string) (*Store, error) {
	store := &Store{
		path:     path,
		data:     make(map[string]any),
		defaults: Defaults(),
	}

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	if err := yaml.Unmarshal(rawData, &store.data); err != nil {
		return nil, fmt.Errorf("parse settings yaml: %w", err)
	}
	if store.data == nil {
		store.data = make(map[string]any)
	}
	return store, nil
}

// Path returns the location of the settings document.
func (store *Store) Path() string {
	return store.path
}

// Value returns the raw value stored under key, falling back to its default.
func (store *Store) Value(key string) (any, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.valueLocked(key)
}

// Get decodes the value stored under key into out.
func (store *Store) Get(key string, out any) error {
	value, ok := store.Value(key)
	if !ok {
		return fmt.Errorf("get %s: %w", key, ErrNotFound)
	}
	encoded, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := yaml.Unmarshal(encoded, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Set stores value under key and writes the document.
func (store *Store) Set(key string, value any) error {
	normalized, err := normalize(value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	previous, existed := store.data[key]
	store.data[key] = normalized
	if err := store.saveLocked(); err != nil {
		if existed {
			store.data[key] = previous
		} else {
			delete(store.data, key)
		}
		return err
	}
	return nil
}

// Delete removes key and writes the document.
func (store *Store) Delete(key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.data[key]; !ok {
		return nil
	}
	previous := store.data[key]
	delete(store.data, key)
	if err := store.saveLocked(); err != nil {
		store.data[key] = previous
		return err
	}
	return nil
}

// Has reports whether key has a stored or default value.
func (store *Store) Has(key string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	_, ok := store.valueLocked(key)
	return ok
}

// HasStored reports whether key was written, ignoring defaults.
func (store *Store) HasStored(key string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	_, ok := store.data[key]
	return ok
}

// TimerSettings returns the persisted timer settings, or defaults when missing or invalid.
func (store *Store) TimerSettings() (model.TimerSettings, error) {
	var settings model.TimerSettings
	if err := store.Get(KeyTimerSettings, &settings); err != nil {
		return model.DefaultTimerSettings(), err
	}
	if err := settings.Validate(); err != nil {
		return model.DefaultTimerSettings(), err
	}
	return settings, nil
}

// SaveTimerSettings validates and persists settings.
func (store *Store) SaveTimerSettings(settings model.TimerSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return store.Set(KeyTimerSettings, settings)
}

// Bool returns the boolean stored under key, or fallback.
func (store *Store) Bool(key string, fallback bool) bool {
	var value bool
	if err := store.Get(key, &value); err != nil {
		return fallback
	}
	return value
}

// Int returns the integer stored under key, or fallback.
func (store *Store) Int(key string, fallback int) int {
	var value int
	if err := store.Get(key, &value); err != nil {
		return fallback
	}
	return value
}

// String returns the string stored under key, or fallback.
func (store *Store) String(key string, fallback string) string {
	var value string
	if err := store.Get(key, &value); err != nil {
		return fallback
	}
	return value
}

func (store *Store) valueLocked(key string) (any, bool) {
	if value, ok := store.data[key]; ok {
		return value, true
	}
	value, ok := store.defaults[key]
	return value, ok
}

func (store *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(store.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := yaml.Marshal(store.data)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	tmpPath := store.path + ".tmp"
	if err := os.WriteFile(tmpPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := os.Rename(tmpPath, store.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

// normalize converts value into the generic shape yaml produces when reading the file back.
func normalize(value any) (any, error) {
	encoded, err := yaml.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	var generic any
	if err := yaml.Unmarshal(encoded, &generic); err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return generic, nil
}
