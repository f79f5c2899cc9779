package loop

import (
	"testing"
	"time"
)

func TestMeterFPS(t *testing.T) {
	m := NewMeter()
	base := time.Unix(0, 0)
	frame := 16 * time.Millisecond

	for i := 0; i < 62; i++ {
		start := base.Add(time.Duration(i) * frame)
		m.Record(start, start.Add(2*time.Millisecond))
	}
	// 62 frames end at 61*16+2 = 978ms: window not complete yet.
	if m.FPS() != 0 {
		t.Fatalf("FPS before a full window = %v", m.FPS())
	}

	start := base.Add(62 * frame)
	m.Record(start, start.Add(8*time.Millisecond)) // ends at 1000ms
	if got := m.FPS(); got < 62 || got > 64 {
		t.Errorf("FPS = %v, want about 63", got)
	}
	if m.FrameTime() != 8*time.Millisecond {
		t.Errorf("frame time = %v, want 8ms", m.FrameTime())
	}
}

func TestMeterString(t *testing.T) {
	m := NewMeter()
	base := time.Unix(0, 0)
	m.Record(base, base.Add(1500*time.Microsecond))
	if got := m.String(); got != "0 FPS (1.5ms)" {
		t.Errorf("String() = %q", got)
	}
}
