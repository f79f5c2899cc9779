package session

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/tomz197/nebula/internal/input"
	"github.com/tomz197/nebula/internal/loop"
	"github.com/tomz197/nebula/internal/nebula"
)

// fixedSize returns a TermSizeFunc reporting *cols x *rows.
func fixedSize(cols, rows *int) func() (int, int, error) {
	return func() (int, int, error) { return *cols, *rows, nil }
}

// newTestSession creates a session whose input never delivers bytes.
func newTestSession(t *testing.T, cols, rows *int) (*Session, *bytes.Buffer) {
	t.Helper()
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	var out bytes.Buffer
	s := New(bufio.NewReader(pr), &out, Options{
		TermSizeFunc: fixedSize(cols, rows),
		Seed:         7,
	})
	return s, &out
}

func TestNewMapsTerminalToWindow(t *testing.T) {
	cols, rows := 100, 40
	s, _ := newTestSession(t, &cols, &rows)

	w := s.World()
	if w.Window != (nebula.Window{Width: 800, Height: 640}) {
		t.Errorf("window = %+v, want 800x640", w.Window)
	}
	// 0.7 * 800 = 560 px wide, 311.1 px tall, centered.
	want := cellLayout{cols: 70, rows: 19, offsetCol: 15, offsetRow: 10}
	if s.layout != want {
		t.Errorf("layout = %+v, want %+v", s.layout, want)
	}
	if s.canvas.TerminalWidth() != 70 || s.canvas.TerminalHeight() != 19 {
		t.Errorf("canvas = %dx%d", s.canvas.TerminalWidth(), s.canvas.TerminalHeight())
	}
}

func TestNewFallsBackOnSizeError(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	s := New(bufio.NewReader(pr), io.Discard, Options{
		TermSizeFunc: func() (int, int, error) { return 0, 0, errors.New("no tty") },
		Seed:         1,
	})
	if s.World().Window != (nebula.Window{Width: 640, Height: 384}) {
		t.Errorf("window = %+v, want 80x24 cells", s.World().Window)
	}
}

func TestStepDrawsFrame(t *testing.T) {
	cols, rows := 100, 40
	s, out := newTestSession(t, &cols, &rows)

	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.Contains(got, "▀") {
		t.Error("frame has no half-block cells")
	}
	if !strings.Contains(got, "FPS") {
		t.Error("frame has no FPS readout")
	}
	if s.World().Frame != 1 {
		t.Errorf("world frame = %d, want 1", s.World().Frame)
	}
	if s.World().VerticesDirty {
		t.Error("vertices still dirty after draw")
	}
}

func TestStepOnlySendsChanges(t *testing.T) {
	cols, rows := 60, 30
	s, out := newTestSession(t, &cols, &rows)

	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	first := out.Len()
	out.Reset()
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if out.Len() >= first {
		t.Errorf("second frame %d bytes, first %d; want a smaller diff", out.Len(), first)
	}
}

func TestHandleInputQuitAndEOF(t *testing.T) {
	cols, rows := 80, 24
	s, _ := newTestSession(t, &cols, &rows)

	tests := []struct {
		name string
		in   input.Input
	}{
		{"quit key", input.Parse([]byte("q"))},
		{"ctrl-c", input.Parse([]byte{0x03})},
		{"end of input", input.Input{EOF: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.HandleInput(tt.in); !errors.Is(err, loop.ErrStop) {
				t.Errorf("err = %v, want ErrStop", err)
			}
		})
	}
}

func TestHandleInputPointerMove(t *testing.T) {
	cols, rows := 100, 40
	s, _ := newTestSession(t, &cols, &rows)

	// Cell (1,1) centers at host pixel (4,8); window center is (400,320).
	if err := s.HandleInput(input.Parse([]byte("\x1b[<35;1;1M"))); err != nil {
		t.Fatal(err)
	}
	p := s.World().Pointer
	if p.X != -396 || p.Y != -312 {
		t.Errorf("pointer = %+v, want (-396,-312)", p)
	}
}

func TestHandleInputClickBursts(t *testing.T) {
	cols, rows := 100, 40
	s, _ := newTestSession(t, &cols, &rows)
	for range 30 {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}

	// Center of the terminal is inside the container.
	if err := s.HandleInput(input.Parse([]byte("\x1b[<0;50;20M"))); err != nil {
		t.Fatal(err)
	}
	for i, st := range s.World().Stars {
		if st.Pos != (mgl64.Vec3{}) {
			t.Fatalf("star %d at %v after click, want origin", i, st.Pos)
		}
	}
}

func TestHandleInputClickOutsideContainer(t *testing.T) {
	cols, rows := 100, 40
	s, _ := newTestSession(t, &cols, &rows)
	for range 30 {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.HandleInput(input.Parse([]byte("\x1b[<0;1;1M"))); err != nil {
		t.Fatal(err)
	}
	moved := 0
	for _, st := range s.World().Stars {
		if st.Pos != (mgl64.Vec3{}) {
			moved++
		}
	}
	if moved == 0 {
		t.Error("click in the letterbox burst the stars")
	}
}

func TestHandleInputWheelAndZoomKeys(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want float64
	}{
		{"wheel up", "\x1b[<64;5;5M", 0.9},
		{"wheel down", "\x1b[<65;5;5M", 0.5},
		{"plus key", "+", 0.9},
		{"minus twice", "--", 0.3},
		{"minus clamps", "----", 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, rows := 100, 40
			s, _ := newTestSession(t, &cols, &rows)
			if err := s.HandleInput(input.Parse([]byte(tt.seq))); err != nil {
				t.Fatal(err)
			}
			if got := s.World().SizeFactor; mgl64.Abs(got-tt.want) > 1e-9 {
				t.Errorf("size factor = %v, want %v", got, tt.want)
			}
			wantCols := int(s.World().Viewport.Width/CellWidth + 0.5)
			if s.layout.cols != wantCols {
				t.Errorf("layout cols = %d, want %d", s.layout.cols, wantCols)
			}
		})
	}
}

func TestStepPicksUpResize(t *testing.T) {
	cols, rows := 100, 40
	s, out := newTestSession(t, &cols, &rows)
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}

	cols, rows = 120, 50
	out.Reset()
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if s.World().Window != (nebula.Window{Width: 960, Height: 800}) {
		t.Errorf("window = %+v after resize", s.World().Window)
	}
	if !strings.Contains(out.String(), "\033[2J") {
		t.Error("resize did not clear the terminal")
	}
}

func TestRunRestoresTerminal(t *testing.T) {
	cols, rows := 40, 20
	var out bytes.Buffer
	s := New(bufio.NewReader(strings.NewReader("q")), &out, Options{
		TermSizeFunc: fixedSize(&cols, &rows),
		Seed:         3,
		FPS:          1000,
	})

	done := make(chan error, 1)
	go func() { done <- s.Run(t.Context()) }()

	if err := <-done; err != nil {
		t.Fatalf("Run = %v", err)
	}
	got := out.String()
	for _, seq := range []string{"\033[?25l", "\033[?1003h", "\033[?1003l", "\033[?25h"} {
		if !strings.Contains(got, seq) {
			t.Errorf("output missing %q", seq)
		}
	}
	if !strings.HasSuffix(got, "\033[?25h") {
		t.Error("cursor not shown last")
	}
}

func TestWideTerminalCropsContainer(t *testing.T) {
	cols, rows := 400, 40
	s, _ := newTestSession(t, &cols, &rows)

	v := s.World().Viewport
	if v.Height <= s.World().Window.Height {
		t.Fatalf("container %v not taller than window %v", v.Height, s.World().Window.Height)
	}
	if s.layout.rows != rows || s.layout.offsetRow != 0 {
		t.Fatalf("layout = %+v, want all %d rows from the top", s.layout, rows)
	}

	// Ten rows below the container center must stay ten rows below the
	// terminal center: one cell is still CellHeight host pixels.
	white := colorful.Color{R: 1, G: 1, B: 1}
	s.canvas.Clear()
	s.canvas.DrawGlow(v.Width/2, v.Height/2+10*CellHeight, 2*CellHeight, white, 1)

	col := int((v.Left+v.Width/2)/CellWidth) - s.layout.offsetCol
	if got := s.canvas.At(col, 2*(rows/2+10)); got == (colorful.Color{}) {
		t.Error("sprite not at its unscaled position; container squashed instead of cropped")
	}
	if got := s.canvas.At(col, 2*(rows/2)); got != (colorful.Color{}) {
		t.Errorf("terminal center lit %v; sprite drawn too high", got)
	}
}

func TestRunReleasesInputReader(t *testing.T) {
	// Motion reports keep arriving after the quit key, more than the input
	// channel buffers.
	data := "q" + strings.Repeat("\x1b[<35;10;5M", 200)
	before := runtime.NumGoroutine()

	cols, rows := 40, 20
	s := New(bufio.NewReader(strings.NewReader(data)), io.Discard, Options{
		TermSizeFunc: fixedSize(&cols, &rows),
		Seed:         5,
		FPS:          1000,
	})
	if err := s.Run(t.Context()); err != nil {
		t.Fatalf("Run = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before {
		if time.Now().After(deadline) {
			buf := make([]byte, 1<<16)
			n := runtime.Stack(buf, true)
			t.Fatalf("goroutines = %d, want <= %d after Run:\n%s", runtime.NumGoroutine(), before, buf[:n])
		}
		time.Sleep(10 * time.Millisecond)
	}
}
