package animation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Range defines a duration range with random sampling.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Random returns a random duration within the range.
func (value Range) Random(rng *rand.Rand) time.Duration {
	if value.Max <= value.Min {
		return value.Min
	}
	delta := value.Max - value.Min
	return value.Min + time.Duration(rng.Int63n(int64(delta)))
}

// Config contains blink timing values.
type Config struct {
	BlinkClosedDuration Range
	BlinkOpenDuration   Range
	BlinkInterval       Range
	DoubleBlinkChance   float64
	DoubleBlinkGap      Range
}

// Engine drives the blink loop and hands every frame to render.
type Engine struct {
	mu     sync.Mutex
	config Config
	clock  clockwork.Clock
	render func(Frame)
	cancel context.CancelFunc
	rng    *rand.Rand
}

// New creates a new animation engine. A nil clock uses wall time.
func New(config Config, clock clockwork.Clock, render func(Frame)) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		config: config,
		clock:  clock,
		render: render,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start begins blinking until ctx is done or Stop is called. A running loop is replaced.
func (engine *Engine) Start(ctx context.Context) {
	engine.mu.Lock()
	if engine.cancel != nil {
		engine.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	engine.cancel = cancel
	engine.mu.Unlock()

	go engine.run(runCtx)
}

// Stop terminates any active animation.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.cancel != nil {
		engine.cancel()
		engine.cancel = nil
	}
}

func (engine *Engine) run(ctx context.Context) {
	engine.show(ctx, FrameOpen)
	for {
		if !engine.sleep(ctx, engine.config.BlinkInterval) {
			return
		}
		if !engine.blink(ctx) {
			return
		}
		if engine.chance() <= engine.config.DoubleBlinkChance {
			if !engine.sleep(ctx, engine.config.DoubleBlinkGap) {
				return
			}
			if !engine.blink(ctx) {
				return
			}
		}
	}
}

func (engine *Engine) blink(ctx context.Context) bool {
	engine.show(ctx, FrameClosed)
	if !engine.sleep(ctx, engine.config.BlinkClosedDuration) {
		return false
	}
	engine.show(ctx, FrameOpen)
	return engine.sleep(ctx, engine.config.BlinkOpenDuration)
}

func (engine *Engine) show(ctx context.Context, frame Frame) {
	if ctx.Err() != nil || engine.render == nil {
		return
	}
	engine.render(frame)
}

func (engine *Engine) chance() float64 {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.rng.Float64()
}

func (engine *Engine) sleep(ctx context.Context, value Range) bool {
	engine.mu.Lock()
	duration := value.Random(engine.rng)
	engine.mu.Unlock()

	select {
	case <-ctx.Done():
		return false
	case <-engine.clock.After(duration):
		return true
	}
}
