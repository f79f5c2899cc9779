package loop

import (
	"fmt"
	"time"
)

// meterWindow is how often the FPS figure is refreshed.
const meterWindow = time.Second

// Meter measures frame rate and frame duration for an on-screen readout.
// It is not safe for concurrent use.
type Meter struct {
	windowStart time.Time
	frames      int
	fps         float64
	frameTime   time.Duration
}

// NewMeter creates an empty meter.
func NewMeter() *Meter {
	return &Meter{}
}

// Record accounts for one frame that ran from start to end.
func (m *Meter) Record(start, end time.Time) {
	m.frameTime = end.Sub(start)
	if m.windowStart.IsZero() {
		m.windowStart = start
	}
	m.frames++

	if elapsed := end.Sub(m.windowStart); elapsed >= meterWindow {
		m.fps = float64(m.frames) / elapsed.Seconds()
		m.frames = 0
		m.windowStart = end
	}
}

// FPS returns the frame rate over the last complete window.
func (m *Meter) FPS() float64 {
	return m.fps
}

// FrameTime returns the duration of the most recent frame.
func (m *Meter) FrameTime() time.Duration {
	return m.frameTime
}

// String formats the readout, e.g. "60 FPS (1.2ms)".
func (m *Meter) String() string {
	return fmt.Sprintf("%.0f FPS (%.1fms)", m.fps, float64(m.frameTime.Microseconds())/1000)
}
