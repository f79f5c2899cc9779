// Package session runs one nebula instance on one terminal: it reads input,
// steps the world and draws it every frame.
package session

import (
	"bufio"
	"context"
	"errors"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/tomz197/nebula/internal/draw"
	"github.com/tomz197/nebula/internal/input"
	"github.com/tomz197/nebula/internal/loop"
	"github.com/tomz197/nebula/internal/nebula"
	"github.com/tomz197/nebula/internal/scene"
)

// Terminal cells map to host pixels at this size, so the world's pixel-based
// constants (wheel, camera easing) keep their feel.
const (
	CellWidth  = 8
	CellHeight = 16
)

// Rendering
const (
	starIntensity = 0.8
	maxGlowShare  = 0.25 // Largest sprite radius as a share of viewport height
)

// Options configures a session. Zero values take the defaults.
type Options struct {
	TermSizeFunc draw.TermSizeFunc
	Profile      termenv.Profile // Color profile of the terminal; 0 is TrueColor
	Seed         uint64
	FPS          int
	Logger       *log.Logger
}

// Session handles rendering and input for a single terminal.
type Session struct {
	world        *nebula.World
	frame        scene.Frame
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates frame output for chunked writes
	writer       io.Writer
	inputStream  *input.Stream
	termSizeFunc draw.TermSizeFunc
	loop         *loop.Loop
	logger       *log.Logger

	termWidth  int
	termHeight int
	layout     cellLayout
}

// cellLayout is the viewport container in terminal cells.
type cellLayout struct {
	cols, rows           int
	offsetCol, offsetRow int
}

// New creates a session reading from r and drawing to w.
func New(r *bufio.Reader, w io.Writer, opts Options) *Session {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	termWidth, termHeight, err := termSizeFunc()
	if err != nil || termWidth <= 0 || termHeight <= 0 {
		termWidth, termHeight = 80, 24
	}

	s := &Session{
		world: nebula.New(nebula.Options{
			Seed:   opts.Seed,
			Window: windowFor(termWidth, termHeight),
		}),
		canvas:       draw.NewCanvas(0, 0),
		chunkWriter:  draw.NewChunkWriter(w, 0, 0),
		writer:       w,
		inputStream:  input.StartStream(r),
		termSizeFunc: termSizeFunc,
		logger:       logger,
		termWidth:    termWidth,
		termHeight:   termHeight,
	}
	s.canvas.SetProfile(opts.Profile)
	s.loop = loop.New(opts.FPS, s.tick)
	s.applyLayout()
	return s
}

// World returns the simulated world.
func (s *Session) World() *nebula.World {
	return s.world
}

// Meter returns the frame rate meter.
func (s *Session) Meter() *loop.Meter {
	return s.loop.Meter()
}

// Run prepares the terminal and runs frames until quit, end of input, Stop
// or ctx cancellation. The terminal is restored on return.
func (s *Session) Run(ctx context.Context) error {
	draw.HideCursor(s.writer)
	draw.EnableMouse(s.writer)
	draw.ClearScreen(s.writer)
	defer func() {
		s.inputStream.Close()
		draw.DisableMouse(s.writer)
		draw.ClearScreen(s.writer)
		draw.ShowCursor(s.writer)
	}()

	s.logger.Info("session started", "cols", s.termWidth, "rows", s.termHeight)
	err := s.loop.Run(ctx)
	s.logger.Info("session ended", "frames", s.loop.Frames())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Step runs exactly one frame. Returns loop.ErrStop when the user quit.
func (s *Session) Step() error {
	return s.loop.Step()
}

// Stop ends Run after the current frame.
func (s *Session) Stop() {
	s.loop.Stop()
}

// tick is one Input → Update → Draw cycle.
func (s *Session) tick() error {
	// ===== INPUT PHASE =====
	if err := s.HandleInput(input.ReadInput(s.inputStream)); err != nil {
		return err
	}

	// ===== UPDATE PHASE =====
	s.updateScreen()
	s.world.Step()

	// ===== DRAW PHASE =====
	return s.drawFrame()
}

// HandleInput applies one frame's input to the world. Returns loop.ErrStop
// on quit or end of input.
func (s *Session) HandleInput(in input.Input) error {
	if in.Quit || in.EOF {
		return loop.ErrStop
	}

	relayout := false
	for _, ev := range in.Mouse {
		x, y := cellCenter(ev.Col, ev.Row)
		s.world.PointerMove(x, y)

		switch ev.Kind {
		case input.MousePress:
			if ev.Button == input.ButtonLeft && s.world.Click(x, y) {
				s.logger.Debug("burst", "col", ev.Col, "row", ev.Row)
			}
		case input.MouseWheel:
			s.world.Wheel(ev.Delta)
			relayout = true
		}
	}

	if in.Burst {
		s.world.Burst()
	}
	if in.Zoom != 0 {
		s.world.Wheel(in.Zoom)
		relayout = true
	}
	if relayout {
		s.logger.Debug("size factor changed", "factor", s.world.SizeFactor)
		s.applyLayout()
	}
	return nil
}

// updateScreen picks up terminal resizes.
func (s *Session) updateScreen() {
	termWidth, termHeight, err := s.termSizeFunc()
	if err != nil || termWidth <= 0 || termHeight <= 0 {
		return
	}
	if termWidth == s.termWidth && termHeight == s.termHeight {
		return
	}

	s.termWidth, s.termHeight = termWidth, termHeight
	win := windowFor(termWidth, termHeight)
	s.world.Resize(win.Width, win.Height)
	s.logger.Debug("terminal resized", "cols", termWidth, "rows", termHeight)
	s.applyLayout()
}

// applyLayout maps the world's viewport container onto terminal cells.
// A container taller than the terminal (very wide windows) overflows and is
// cropped, keeping one cell at CellWidth x CellHeight host pixels.
// On changes, clears the terminal to remove residual cells outside the new
// container.
func (s *Session) applyLayout() {
	v := s.world.Viewport
	l := cellLayout{
		cols:      clampInt(int(math.Round(v.Width/CellWidth)), 1, s.termWidth),
		rows:      clampInt(int(math.Round(v.Height/CellHeight)), 1, s.termHeight),
		offsetCol: max(int(math.Round(v.Left/CellWidth)), 0),
		offsetRow: max(int(math.Round(v.Top/CellHeight)), 0),
	}

	if l != s.layout {
		draw.ClearScreen(s.chunkWriter)
		s.canvas.ForceRedraw()
		s.layout = l
	}

	s.canvas.Resize(l.cols, l.rows)
	s.canvas.SetLogicalSize(float64(l.cols*CellWidth), float64(l.rows*CellHeight))
	s.canvas.SetOffset(l.offsetCol, l.offsetRow)
	// Viewport coordinate of the canvas top-left cell.
	s.canvas.SetOrigin(float64(l.offsetCol*CellWidth)-v.Left, float64(l.offsetRow*CellHeight)-v.Top)
}

// drawFrame draws the current frame and flushes it.
func (s *Session) drawFrame() error {
	v := s.world.Viewport
	s.canvas.Clear()
	s.frame.Build(s.world, v.Width, v.Height)

	for i := range s.frame.Beams {
		b := &s.frame.Beams[i]
		s.canvas.FillPolygon(b.Points, b.Color, b.Alpha)
	}
	maxRadius := v.Height * maxGlowShare
	for _, sp := range s.frame.Sprites {
		s.canvas.DrawGlow(sp.X, sp.Y, min(sp.Radius, maxRadius), sp.Color, starIntensity)
	}
	s.world.MarkClean()

	if err := s.canvas.Render(s.chunkWriter); err != nil {
		return err
	}
	s.drawStats()
	return s.chunkWriter.Flush()
}

// drawStats draws the frame rate readout in the top-left corner.
func (s *Session) drawStats() {
	readout := s.loop.Meter().String()
	s.chunkWriter.WriteAt(1, 1, "\033[0m"+readout+"  ")
}

// windowFor converts a terminal size to host pixels.
func windowFor(cols, rows int) nebula.Window {
	return nebula.Window{
		Width:  float64(cols * CellWidth),
		Height: float64(rows * CellHeight),
	}
}

// cellCenter converts a 1-based terminal cell to the host pixel at its center.
func cellCenter(col, row int) (float64, float64) {
	return float64((col-1)*CellWidth + CellWidth/2), float64((row-1)*CellHeight + CellHeight/2)
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
