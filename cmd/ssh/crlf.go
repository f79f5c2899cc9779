package main

import (
	"bytes"
	"io"
)

// crlfWriter translates bare "\n" to "\r\n". Plain text written to an SSH PTY
// is not post-processed, so lines would otherwise staircase.
type crlfWriter struct {
	w    io.Writer
	last byte
}

func newCRLFWriter(w io.Writer) *crlfWriter {
	return &crlfWriter{w: w}
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	var buf bytes.Buffer
	buf.Grow(len(p) + bytes.Count(p, []byte{'\n'}))
	prev := c.last
	for _, b := range p {
		if b == '\n' && prev != '\r' {
			buf.WriteByte('\r')
		}
		buf.WriteByte(b)
		prev = b
	}
	if _, err := c.w.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	if len(p) > 0 {
		c.last = p[len(p)-1]
	}
	return len(p), nil
}
