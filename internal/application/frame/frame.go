// Package frame provides the tick sources that cooperative waits suspend on.
//
// A tick is one scheduler frame. In the windowed game the Clock is advanced
// once per ebiten Update; headless runs and tests use a Stepper, which
// advances itself every time a waiter asks for the next frame.
package frame

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Ticker suspends the caller until the next frame.
// Next returns ctx.Err() if the context ends first.
type Ticker interface {
	Next(ctx context.Context) error
}

// Clock is a broadcast frame counter advanced by its owner.
// Every goroutine blocked in Next wakes on the following Advance.
type Clock struct {
	mu    sync.Mutex
	frame uint64
	tick  chan struct{}
	steps []func()
}

// NewClock creates a clock. steps run, in order, at the start of each Advance
// before waiters are released.
func NewClock(steps ...func()) *Clock {
	return &Clock{
		tick:  make(chan struct{}),
		steps: steps,
	}
}

// Advance moves the clock one frame forward and wakes all waiters
func (c *Clock) Advance() {
	for _, step := range c.steps {
		step()
	}

	c.mu.Lock()
	c.frame++
	close(c.tick)
	c.tick = make(chan struct{})
	c.mu.Unlock()
}

// Frame returns the number of frames advanced so far
func (c *Clock) Frame() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Next blocks until the next Advance or until ctx is done
func (c *Clock) Next(ctx context.Context) error {
	c.mu.Lock()
	tick := c.tick
	c.mu.Unlock()

	select {
	case <-tick:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run advances the clock every interval until ctx is done.
// Used when no game loop owns the clock.
func (c *Clock) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Advance()
		case <-ctx.Done():
			return
		}
	}
}

// Stepper is a self-driven ticker: each Next runs the step funcs and counts
// one frame without waiting on wall time.
type Stepper struct {
	mu    sync.Mutex
	frame uint64
	steps []func()
}

// NewStepper creates a stepper running steps on every frame
func NewStepper(steps ...func()) *Stepper {
	return &Stepper{steps: steps}
}

// Next advances one frame, then yields the processor
func (s *Stepper) Next(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, step := range s.steps {
		step()
	}
	s.mu.Lock()
	s.frame++
	s.mu.Unlock()

	runtime.Gosched()
	return nil
}

// Frame returns the number of frames stepped so far
func (s *Stepper) Frame() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}
