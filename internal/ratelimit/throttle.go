package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Sleeper suspends the caller for d or until ctx is done
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// TimerSleeper sleeps on a real timer
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Throttle pauses for a fixed duration before every call whose 0-based
// index is a multiple of every. Provider limits are per API key, so one
// Throttle is shared by every call a run makes against a provider.
type Throttle struct {
	every   int
	pause   time.Duration
	sleeper Sleeper
	onPause func()

	mu    sync.Mutex
	calls int
}

// Option configures a Throttle
type Option func(*Throttle)

// WithSleeper replaces the real timer, mostly for tests
func WithSleeper(s Sleeper) Option {
	return func(t *Throttle) { t.sleeper = s }
}

// WithPauseHook registers a callback invoked after every completed pause
func WithPauseHook(fn func()) Option {
	return func(t *Throttle) { t.onPause = fn }
}

// New creates a throttle. every <= 0 disables pausing.
func New(every int, pause time.Duration, opts ...Option) *Throttle {
	t := &Throttle{
		every:   every,
		pause:   pause,
		sleeper: TimerSleeper{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Unlimited returns a throttle that never pauses.
func Unlimited() *Throttle {
	return New(0, 0)
}

// Wait is called right before a provider call. It pauses when the call
// index is due, then advances the index whether or not the call succeeds.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	idx := t.calls
	t.calls++
	t.mu.Unlock()

	if t.every <= 0 || idx%t.every != 0 {
		return ctx.Err()
	}

	if err := t.sleeper.Sleep(ctx, t.pause); err != nil {
		return err
	}
	if t.onPause != nil {
		t.onPause()
	}
	return nil
}

// Calls returns how many calls have been admitted so far.
func (t *Throttle) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
