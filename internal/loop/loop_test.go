package loop

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStepRunsOneTick(t *testing.T) {
	calls := 0
	l := New(60, func() error {
		calls++
		return nil
	})
	for i := 0; i < 3; i++ {
		if err := l.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 3 || l.Frames() != 3 {
		t.Errorf("calls=%d frames=%d, want 3", calls, l.Frames())
	}
}

func TestNewDefaultsFPS(t *testing.T) {
	l := New(0, func() error { return nil })
	if l.FrameTime() != time.Second/DefaultFPS {
		t.Errorf("frame time = %v", l.FrameTime())
	}
}

func TestRunStopsOnErrStop(t *testing.T) {
	calls := 0
	l := New(1000, func() error {
		calls++
		if calls == 5 {
			return ErrStop
		}
		return nil
	})
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
	if calls != 5 {
		t.Errorf("calls = %d, want 5", calls)
	}
}

func TestRunReturnsTickError(t *testing.T) {
	boom := errors.New("boom")
	l := New(1000, func() error { return boom })
	if err := l.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Run = %v, want %v", err, boom)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := New(100, func() error { return nil })

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if l.Frames() == 0 {
		t.Error("no frames ran before cancel")
	}
}

func TestStopFromAnotherGoroutine(t *testing.T) {
	l := New(100, func() error { return nil })
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	l.Stop()
	l.Stop() // Idempotent

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestStopBeforeRun(t *testing.T) {
	calls := 0
	l := New(60, func() error {
		calls++
		return nil
	})
	l.Stop()
	if err := l.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("ticked %d times after Stop", calls)
	}
}

func TestRunPacesFrames(t *testing.T) {
	l := New(50, func() error { return nil }) // 20ms per frame
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = l.Run(ctx)

	// Roughly 10 frames; allow generous slack for slow machines.
	if n := l.Frames(); n < 3 || n > 15 {
		t.Errorf("frames in 200ms at 50 FPS = %d", n)
	}
}
