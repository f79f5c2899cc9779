// Package input reads terminal input: SGR mouse reports (motion, buttons,
// wheel) and a handful of keys.
package input

import (
	"bufio"
	"strconv"
	"sync"
)

// maxPending bounds an unterminated escape sequence carried between reads.
const maxPending = 32

// MouseKind identifies a mouse report.
type MouseKind int

const (
	MouseMove    MouseKind = iota // Pointer moved, with or without a button held
	MousePress                    // Button went down
	MouseRelease                  // Button went up
	MouseWheel                    // Wheel notch; see Delta
)

// Mouse buttons as encoded in SGR reports.
const (
	ButtonLeft  = 0
	ButtonRight = 2
)

// MouseEvent is one decoded mouse report. Col and Row are 1-based terminal cells.
type MouseEvent struct {
	Kind   MouseKind
	Col    int
	Row    int
	Button int
	Delta  float64 // +1 wheel up, -1 wheel down
}

// Input represents the current frame's input.
type Input struct {
	Quit    bool
	Burst   bool
	Zoom    float64 // Keyboard wheel equivalent, in notches
	Mouse   []MouseEvent
	EOF     bool // The underlying reader is done
	Pressed []byte
}

// Stream delivers input bytes via a channel.
type Stream struct {
	ch      chan byte
	pending []byte
	closed  bool

	done      chan struct{}
	closeOnce sync.Once
	exited    chan struct{} // Closed when the reader goroutine returns
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{
		ch:     make(chan byte, 256),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go func() {
		defer close(s.exited)
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			select {
			case s.ch <- b:
			case <-s.done:
				return
			}
		}
	}()
	return s
}

// Close stops delivering bytes. The reader goroutine returns once its
// pending read completes, even if nobody drains the stream anymore.
func (s *Stream) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// ReadInput drains all available bytes from the stream (non-blocking) and
// decodes them. An escape sequence split across reads is completed on a
// later call.
func ReadInput(s *Stream) Input {
	buf := s.pending
	s.pending = nil

	// Drain all available bytes
drain:
	for !s.closed {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	in := Parse(buf)
	if n := len(in.Pressed); n < len(buf) && !s.closed {
		s.pending = append(s.pending, buf[n:]...)
	}
	in.EOF = s.closed
	return in
}

// Parse decodes a byte sequence. Pressed holds the bytes consumed; a
// trailing incomplete escape sequence is left unconsumed.
func Parse(buf []byte) Input {
	var in Input
	i := 0
	for i < len(buf) {
		b := buf[i]
		if b != '\x1b' {
			applyKey(&in, b)
			i++
			continue
		}

		n, ev, complete := parseEscape(buf[i:])
		if !complete {
			if len(buf)-i > maxPending {
				// Garbage; drop the escape byte and move on
				i++
				continue
			}
			break
		}
		if ev != nil {
			in.Mouse = append(in.Mouse, *ev)
		}
		i += n
	}
	in.Pressed = buf[:i]
	return in
}

// parseEscape decodes one escape sequence at the start of seq. It returns the
// length consumed, a mouse event for SGR mouse reports, and false if seq ends
// before the sequence does.
func parseEscape(seq []byte) (int, *MouseEvent, bool) {
	if len(seq) < 2 {
		return 0, nil, false
	}
	if seq[1] != '[' {
		// Alt+key or a lone escape
		return 1, nil, true
	}
	if len(seq) < 3 {
		return 0, nil, false
	}
	if seq[2] == '<' {
		return parseSGRMouse(seq)
	}

	// Other CSI sequence (arrows, function keys): skip to its final byte
	for j := 2; j < len(seq); j++ {
		if seq[j] >= 0x40 && seq[j] <= 0x7e {
			return j + 1, nil, true
		}
	}
	return 0, nil, false
}

// parseSGRMouse decodes ESC [ < Cb ; Cx ; Cy (M|m).
func parseSGRMouse(seq []byte) (int, *MouseEvent, bool) {
	var params [3]int
	p := 0
	start := 3
	for j := 3; j < len(seq); j++ {
		c := seq[j]
		switch {
		case c >= '0' && c <= '9':
			continue
		case c == ';' || c == 'M' || c == 'm':
			if p < len(params) {
				v, err := strconv.Atoi(string(seq[start:j]))
				if err != nil {
					return j + 1, nil, true
				}
				params[p] = v
			}
			p++
			start = j + 1
			if c == ';' {
				continue
			}
			if p != len(params) {
				return j + 1, nil, true
			}
			return j + 1, decodeMouse(params[0], params[1], params[2], c == 'M'), true
		default:
			// Malformed; consume through this byte
			return j + 1, nil, true
		}
	}
	return 0, nil, false
}

func decodeMouse(cb, col, row int, press bool) *MouseEvent {
	ev := &MouseEvent{Col: col, Row: row, Button: cb & 3}
	switch {
	case cb&64 != 0:
		ev.Kind = MouseWheel
		ev.Delta = 1
		if cb&1 != 0 {
			ev.Delta = -1
		}
	case cb&32 != 0:
		ev.Kind = MouseMove
	case press:
		ev.Kind = MousePress
	default:
		ev.Kind = MouseRelease
	}
	return ev
}

// applyKey updates the input for a single key byte.
func applyKey(in *Input, b byte) {
	switch b {
	case 'q', 'Q', '\x03':
		in.Quit = true
	case ' ':
		in.Burst = true
	case '+', '=':
		in.Zoom++
	case '-', '_':
		in.Zoom--
	}
}
