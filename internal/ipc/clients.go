package ipc

import (
	"context"
	"fmt"

	"breakmate/internal/storage"

	go_json "github.com/goccy/go-json"
)

// BreakTimerClient queries the break timer living in the controller context.
type BreakTimerClient struct {
	bus *Bus
}

// NewBreakTimerClient creates a client bound to bus.
func NewBreakTimerClient(bus *Bus) *BreakTimerClient {
	return &BreakTimerClient{bus: bus}
}

// Start begins a break countdown of seconds.
func (client *BreakTimerClient) Start(ctx context.Context, seconds int) error {
	_, err := Call[StartBreakTimer, Empty](ctx, client.bus, ChannelBreakTimerStart, StartBreakTimer{Duration: seconds})
	return err
}

// Stop cancels the active break countdown.
func (client *BreakTimerClient) Stop(ctx context.Context) error {
	_, err := Call[Empty, Empty](ctx, client.bus, ChannelBreakTimerStop, Empty{})
	return err
}

// Remaining returns the remaining break seconds.
func (client *BreakTimerClient) Remaining(ctx context.Context) (int, error) {
	response, err := Call[Empty, Remaining](ctx, client.bus, ChannelBreakTimerRemaining, Empty{})
	return response.Remaining, err
}

// IsActive reports whether a break countdown is active.
func (client *BreakTimerClient) IsActive(ctx context.Context) (bool, error) {
	response, err := Call[Empty, Active](ctx, client.bus, ChannelBreakTimerIsActive, Empty{})
	return response.Active, err
}

// ControllerClient signals the timekeeper from the overlay context.
type ControllerClient struct {
	bus *Bus
}

// NewControllerClient creates a client bound to bus.
func NewControllerClient(bus *Bus) *ControllerClient {
	return &ControllerClient{bus: bus}
}

// CompleteBreak asks the timekeeper to start the next work phase.
func (client *ControllerClient) CompleteBreak(ctx context.Context) error {
	_, err := Call[Empty, Empty](ctx, client.bus, ChannelTimerCompleteBreak, Empty{})
	return err
}

// BreakSkipped notifies the timekeeper that the user skipped the break.
func (client *ControllerClient) BreakSkipped(context.Context) error {
	client.bus.Send(ChannelBreakSkipped, Empty{})
	return nil
}

// BreakSnoozed notifies the timekeeper that the user snoozed the break.
func (client *ControllerClient) BreakSnoozed(context.Context) error {
	client.bus.Send(ChannelBreakSnoozed, Empty{})
	return nil
}

// StoreClient reads and writes settings through the store channels.
type StoreClient struct {
	bus *Bus
}

// NewStoreClient creates a client bound to bus.
func NewStoreClient(bus *Bus) *StoreClient {
	return &StoreClient{bus: bus}
}

// Get decodes the value stored under key into out.
func (client *StoreClient) Get(ctx context.Context, key string, out any) error {
	entry, err := Call[StoreKey, StoreEntry](ctx, client.bus, ChannelStoreGet, StoreKey{Key: key})
	if err != nil {
		return err
	}
	if !entry.Found {
		return fmt.Errorf("get %s: %w", key, storage.ErrNotFound)
	}
	if err := go_json.Unmarshal(entry.Value, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Set stores value under key.
func (client *StoreClient) Set(ctx context.Context, key string, value any) error {
	encoded, err := go_json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = Call[StoreEntry, Empty](ctx, client.bus, ChannelStoreSet, StoreEntry{Key: key, Value: encoded, Found: true})
	return err
}

// Delete removes key.
func (client *StoreClient) Delete(ctx context.Context, key string) error {
	_, err := Call[StoreKey, Empty](ctx, client.bus, ChannelStoreDelete, StoreKey{Key: key})
	return err
}

// Has reports whether key holds a value.
func (client *StoreClient) Has(ctx context.Context, key string) (bool, error) {
	presence, err := Call[StoreKey, Presence](ctx, client.bus, ChannelStoreHas, StoreKey{Key: key})
	return presence.Has, err
}

// AutoLaunchClient toggles start-on-login from the settings window.
type AutoLaunchClient struct {
	bus *Bus
}

// NewAutoLaunchClient creates a client bound to bus.
func NewAutoLaunchClient(bus *Bus) *AutoLaunchClient {
	return &AutoLaunchClient{bus: bus}
}

// SetEnabled enables or disables start-on-login and reports the outcome.
func (client *AutoLaunchClient) SetEnabled(ctx context.Context, enabled bool) Result {
	channel := ChannelAutoLaunchDisable
	if enabled {
		channel = ChannelAutoLaunchEnable
	}
	result, err := Call[Empty, Result](ctx, client.bus, channel, Empty{})
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	return result
}

// IsEnabled reports whether start-on-login is enabled.
func (client *AutoLaunchClient) IsEnabled(ctx context.Context) (bool, error) {
	response, err := Call[Empty, Enabled](ctx, client.bus, ChannelAutoLaunchIsEnabled, Empty{})
	return response.Enabled, err
}

// SmartPauseClient reads and writes smart pause preferences.
type SmartPauseClient struct {
	bus *Bus
}

// NewSmartPauseClient creates a client bound to bus.
func NewSmartPauseClient(bus *Bus) *SmartPauseClient {
	return &SmartPauseClient{bus: bus}
}

// IsEnabled reports whether smart pause is enabled.
func (client *SmartPauseClient) IsEnabled(ctx context.Context) (bool, error) {
	response, err := Call[Empty, Enabled](ctx, client.bus, ChannelSmartPauseIsEnabled, Empty{})
	return response.Enabled, err
}

// SetEnabled toggles smart pause.
func (client *SmartPauseClient) SetEnabled(ctx context.Context, enabled bool) Result {
	result, err := Call[Enabled, Result](ctx, client.bus, ChannelSmartPauseSetEnabled, Enabled{Enabled: enabled})
	if err != nil {
		return Result{Error: err.Error()}
	}
	return result
}

// Threshold returns the idle threshold in minutes.
func (client *SmartPauseClient) Threshold(ctx context.Context) (int, error) {
	response, err := Call[Empty, Threshold](ctx, client.bus, ChannelSmartPauseThreshold, Empty{})
	return response.Minutes, err
}

// SetThreshold updates the idle threshold in minutes.
func (client *SmartPauseClient) SetThreshold(ctx context.Context, minutes int) Result {
	result, err := Call[Threshold, Result](ctx, client.bus, ChannelSmartPauseSetThreshold, Threshold{Minutes: minutes})
	if err != nil {
		return Result{Error: err.Error()}
	}
	return result
}
