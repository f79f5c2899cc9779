// Package loop provides the frame scheduler: a fixed-rate Input → Update → Draw
// cycle with explicit start, stop and single-step control.
package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFPS is the target frame rate when none is given.
const DefaultFPS = 60

// ErrStop can be returned by a TickFunc to end the loop cleanly.
var ErrStop = errors.New("loop: stop requested")

// TickFunc runs one frame.
type TickFunc func() error

// Loop calls a TickFunc at a fixed target rate until stopped.
type Loop struct {
	frameTime time.Duration
	tick      TickFunc
	meter     *Meter
	frames    atomic.Uint64

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a loop running tick at fps frames per second.
func New(fps int, tick TickFunc) *Loop {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Loop{
		frameTime: time.Second / time.Duration(fps),
		tick:      tick,
		meter:     NewMeter(),
		stopCh:    make(chan struct{}),
	}
}

// FrameTime returns the target duration of one frame.
func (l *Loop) FrameTime() time.Duration {
	return l.frameTime
}

// Meter returns the frame rate meter fed by this loop.
func (l *Loop) Meter() *Meter {
	return l.meter
}

// Frames returns the number of ticks run so far.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

// Step runs exactly one tick, without any frame pacing.
func (l *Loop) Step() error {
	start := time.Now()
	err := l.tick()
	l.meter.Record(start, time.Now())
	l.frames.Add(1)
	return err
}

// Stop ends Run after the current tick. Safe to call from any goroutine,
// more than once, and before Run.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Run ticks until Stop is called, the tick returns ErrStop (both return nil),
// the tick fails (its error is returned) or ctx is done (ctx.Err()).
func (l *Loop) Run(ctx context.Context) error {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stopCh:
			return nil
		default:
		}

		frameStart := time.Now()
		if err := l.Step(); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}

		// ===== FRAME TIMING =====
		elapsed := time.Since(frameStart)
		if elapsed >= l.frameTime {
			continue
		}
		if timer == nil {
			timer = time.NewTimer(l.frameTime - elapsed)
		} else {
			timer.Reset(l.frameTime - elapsed)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stopCh:
			return nil
		case <-timer.C:
		}
	}
}
