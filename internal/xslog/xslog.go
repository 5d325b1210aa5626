package xslog

import (
	"log/slog"
	"time"

	"breakmate/internal/core/model"
)

const (
	keyError = "error"
)

func Error(err error) slog.Attr {
	return slog.String(keyError, err.Error())
}

func ErrorAny(err any) slog.Attr {
	return slog.Any(keyError, err)
}

func Component(name string) slog.Attr {
	const componentKey = "component"
	return slog.String(componentKey, name)
}

func Channel(channel string) slog.Attr {
	const channelKey = "channel"
	return slog.String(channelKey, channel)
}

func RequestID(requestID string) slog.Attr {
	const requestIDKey = "request_id"
	return slog.String(requestIDKey, requestID)
}

func Remaining(seconds int) slog.Attr {
	const remainingKey = "remaining_seconds"
	return slog.Int(remainingKey, seconds)
}

func Duration(duration time.Duration) slog.Attr {
	const durationKey = "duration"
	return slog.Duration(durationKey, duration)
}

func Seconds(seconds int) slog.Attr {
	const secondsKey = "seconds"
	return slog.Int(secondsKey, seconds)
}

func Count(count int) slog.Attr {
	const countKey = "count"
	return slog.Int(countKey, count)
}

func OnBreak(onBreak bool) slog.Attr {
	const onBreakKey = "on_break"
	return slog.Bool(onBreakKey, onBreak)
}

func Reason(reason string) slog.Attr {
	const reasonKey = "reason"
	return slog.String(reasonKey, reason)
}

func Window(id string) slog.Attr {
	const windowKey = "window_id"
	return slog.String(windowKey, id)
}

func Display(display model.Display) slog.Attr {
	const displayKey = "display"
	return slog.Group(displayKey,
		slog.String("id", display.ID),
		slog.String("name", display.Name),
		slog.String("bounds", display.Bounds.String()),
	)
}

func Key(key string) slog.Attr {
	const keyKey = "key"
	return slog.String(keyKey, key)
}

func Path(path string) slog.Attr {
	const pathKey = "path"
	return slog.String(pathKey, path)
}
