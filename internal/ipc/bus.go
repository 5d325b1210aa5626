package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"breakmate/internal/xslog"

	"github.com/google/uuid"
)

// Listener receives a fire-and-forget message.
type Listener func(ctx context.Context, msg Message)

// Handler answers a request with an encoded response payload.
type Handler func(ctx context.Context, msg Message) ([]byte, error)

// Config contains runtime options for Bus.
type Config struct {
	QueueSize   int
	CallTimeout time.Duration
}

// Bus routes messages between the controller context and the overlay context.
// Events are delivered in order by Run; requests run on their own goroutine.
type Bus struct {
	logger    *slog.Logger
	options   Config
	mu        sync.RWMutex
	listeners map[Channel][]Listener
	handlers  map[Channel]Handler
	queue     chan Message
}

// NewBus creates a Bus. Run must be called for events to be delivered.
func NewBus(logger *slog.Logger, options Config) *Bus {
	if options.QueueSize <= 0 {
		options.QueueSize = 256
	}
	if options.CallTimeout <= 0 {
		options.CallTimeout = 2 * time.Second
	}
	return &Bus{
		logger:    xslog.OrDiscard(logger).With(xslog.Component("ipc")),
		options:   options,
		listeners: make(map[Channel][]Listener),
		handlers:  make(map[Channel]Handler),
		queue:     make(chan Message, options.QueueSize),
	}
}

// On registers a listener for an event channel. Unknown channels are ignored.
func (bus *Bus) On(channel Channel, listener Listener) {
	if !IsEvent(channel) {
		bus.logger.Debug("rejected listener", xslog.Channel(string(channel)))
		return
	}
	bus.mu.Lock()
	bus.listeners[channel] = append(bus.listeners[channel], listener)
	bus.mu.Unlock()
}

// Handle registers the handler for a request channel, replacing any previous one.
func (bus *Bus) Handle(channel Channel, handler Handler) {
	if !IsRequest(channel) {
		bus.logger.Debug("rejected handler", xslog.Channel(string(channel)))
		return
	}
	bus.mu.Lock()
	bus.handlers[channel] = handler
	bus.mu.Unlock()
}

// Send queues a notification. Unknown channels are silently dropped.
func (bus *Bus) Send(channel Channel, payload any) {
	if !IsEvent(channel) {
		bus.logger.Debug("rejected send", xslog.Channel(string(channel)))
		return
	}
	msg, err := NewMessage(channel, payload)
	if err != nil {
		bus.logger.Error("failed to encode message", xslog.Channel(string(channel)), xslog.Error(err))
		return
	}
	select {
	case bus.queue <- msg:
	default:
		bus.logger.Warn("message queue full, dropping", xslog.Channel(string(channel)))
	}
}

// Call sends a request and waits for its response payload.
func (bus *Bus) Call(ctx context.Context, channel Channel, request any) (Message, error) {
	if !IsRequest(channel) {
		return Message{}, fmt.Errorf("call %s: %w", channel, ErrChannelNotAllowed)
	}
	bus.mu.RLock()
	handler, ok := bus.handlers[channel]
	bus.mu.RUnlock()
	if !ok {
		return Message{}, fmt.Errorf("call %s: %w", channel, ErrNoHandler)
	}

	msg, err := NewMessage(channel, request)
	if err != nil {
		return Message{}, fmt.Errorf("call %s: %w", channel, err)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, bus.options.CallTimeout)
		defer cancel()
	}

	type reply struct {
		payload []byte
		err     error
	}
	requestID := uuid.NewString()
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				bus.logger.Error("request handler panicked",
					xslog.Channel(string(channel)), xslog.RequestID(requestID), xslog.ErrorAny(recovered))
				done <- reply{err: fmt.Errorf("handler panicked: %v", recovered)}
			}
		}()
		payload, err := handler(ctx, msg)
		done <- reply{payload: payload, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			bus.logger.Warn("request timed out", xslog.Channel(string(channel)), xslog.RequestID(requestID))
			return Message{}, fmt.Errorf("call %s: %w", channel, ErrTimeout)
		}
		return Message{}, fmt.Errorf("call %s: %w", channel, ctx.Err())
	case result := <-done:
		if result.err != nil {
			bus.logger.Debug("request failed",
				xslog.Channel(string(channel)), xslog.RequestID(requestID), xslog.Error(result.err))
			return Message{}, fmt.Errorf("call %s: %w", channel, result.err)
		}
		return Message{Channel: channel, Payload: result.payload}, nil
	}
}

// Run delivers queued notifications until ctx is cancelled.
func (bus *Bus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-bus.queue:
			bus.dispatch(ctx, msg)
		}
	}
}

func (bus *Bus) dispatch(ctx context.Context, msg Message) {
	bus.mu.RLock()
	listeners := append([]Listener(nil), bus.listeners[msg.Channel]...)
	bus.mu.RUnlock()

	for _, listener := range listeners {
		bus.deliver(ctx, listener, msg)
	}
}

func (bus *Bus) deliver(ctx context.Context, listener Listener, msg Message) {
	defer func() {
		if recovered := recover(); recovered != nil {
			bus.logger.Error("listener panicked", xslog.Channel(string(msg.Channel)), xslog.ErrorAny(recovered))
		}
	}()
	listener(ctx, msg)
}

// Listen registers a listener that receives a decoded payload.
func Listen[T any](bus *Bus, channel Channel, fn func(context.Context, T)) {
	bus.On(channel, func(ctx context.Context, msg Message) {
		var payload T
		if err := msg.Decode(&payload); err != nil {
			bus.logger.Error("dropping undecodable message", xslog.Channel(string(channel)), xslog.Error(err))
			return
		}
		fn(ctx, payload)
	})
}

// Serve registers a typed request handler.
func Serve[Req, Resp any](bus *Bus, channel Channel, fn func(context.Context, Req) (Resp, error)) {
	bus.Handle(channel, func(ctx context.Context, msg Message) ([]byte, error) {
		var request Req
		if err := msg.Decode(&request); err != nil {
			return nil, err
		}
		response, err := fn(ctx, request)
		if err != nil {
			return nil, err
		}
		encoded, err := NewMessage(channel, response)
		if err != nil {
			return nil, err
		}
		return encoded.Payload, nil
	})
}

// Call performs a typed request.
func Call[Req, Resp any](ctx context.Context, bus *Bus, channel Channel, request Req) (Resp, error) {
	var response Resp
	msg, err := bus.Call(ctx, channel, request)
	if err != nil {
		return response, err
	}
	if err := msg.Decode(&response); err != nil {
		return response, fmt.Errorf("call %s: %w", channel, err)
	}
	return response, nil
}
