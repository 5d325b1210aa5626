package ipc

// Channel names a message route between execution contexts.
type Channel string

// Event channels carry fire-and-forget notifications.
const (
	ChannelTimerComplete    Channel = "timer:complete"
	ChannelBreakSkip        Channel = "break:skip"
	ChannelBreakSnooze      Channel = "break:snooze"
	ChannelBreakStart       Channel = "break:start"
	ChannelBreakTimerUpdate Channel = "break:timer-update"
	ChannelBreakSkipped     Channel = "break:skipped"
	ChannelBreakSnoozed     Channel = "break:snoozed"
	ChannelSystemLocked     Channel = "system:locked"
	ChannelSystemUnlocked   Channel = "system:unlocked"
	ChannelSmartPauseReset  Channel = "smart-pause:reset-timer"
)

// Request channels carry request/response queries.
const (
	ChannelStoreGet               Channel = "store-get"
	ChannelStoreSet               Channel = "store-set"
	ChannelStoreDelete            Channel = "store-delete"
	ChannelStoreHas               Channel = "store-has"
	ChannelAutoLaunchEnable       Channel = "auto-launch:enable"
	ChannelAutoLaunchDisable      Channel = "auto-launch:disable"
	ChannelAutoLaunchIsEnabled    Channel = "auto-launch:is-enabled"
	ChannelBreakTimerRemaining    Channel = "break-timer:get-remaining"
	ChannelBreakTimerIsActive     Channel = "break-timer:is-active"
	ChannelBreakTimerStart        Channel = "break-timer:start"
	ChannelBreakTimerStop         Channel = "break-timer:stop"
	ChannelTimerCompleteBreak     Channel = "timer:complete-break"
	ChannelSmartPauseIsEnabled    Channel = "smart-pause:is-enabled"
	ChannelSmartPauseSetEnabled   Channel = "smart-pause:set-enabled"
	ChannelSmartPauseThreshold    Channel = "smart-pause:get-threshold"
	ChannelSmartPauseSetThreshold Channel = "smart-pause:set-threshold"
)

type kind int

const (
	kindEvent kind = iota + 1
	kindRequest
)

var registry = map[Channel]kind{
	ChannelTimerComplete:    kindEvent,
	ChannelBreakSkip:        kindEvent,
	ChannelBreakSnooze:      kindEvent,
	ChannelBreakStart:       kindEvent,
	ChannelBreakTimerUpdate: kindEvent,
	ChannelBreakSkipped:     kindEvent,
	ChannelBreakSnoozed:     kindEvent,
	ChannelSystemLocked:     kindEvent,
	ChannelSystemUnlocked:   kindEvent,
	ChannelSmartPauseReset:  kindEvent,

	ChannelStoreGet:               kindRequest,
	ChannelStoreSet:               kindRequest,
	ChannelStoreDelete:            kindRequest,
	ChannelStoreHas:               kindRequest,
	ChannelAutoLaunchEnable:       kindRequest,
	ChannelAutoLaunchDisable:      kindRequest,
	ChannelAutoLaunchIsEnabled:    kindRequest,
	ChannelBreakTimerRemaining:    kindRequest,
	ChannelBreakTimerIsActive:     kindRequest,
	ChannelBreakTimerStart:        kindRequest,
	ChannelBreakTimerStop:         kindRequest,
	ChannelTimerCompleteBreak:     kindRequest,
	ChannelSmartPauseIsEnabled:    kindRequest,
	ChannelSmartPauseSetEnabled:   kindRequest,
	ChannelSmartPauseThreshold:    kindRequest,
	ChannelSmartPauseSetThreshold: kindRequest,
}

// IsEvent reports whether channel is a whitelisted notification channel.
func IsEvent(channel Channel) bool {
	return registry[channel] == kindEvent
}

// IsRequest reports whether channel is a whitelisted request channel.
func IsRequest(channel Channel) bool {
	return registry[channel] == kindRequest
}
