// Package gate decides whether the output can show the nebula at all and,
// when it cannot, writes a fallback notice instead.
package gate

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Reasons a terminal is not supported.
var (
	ErrNotTerminal  = errors.New("output is not a terminal")
	ErrDumbTerminal = errors.New("terminal type is dumb")
	ErrNoColor      = errors.New("terminal does not support color")
)

// Capabilities describes the output the nebula would draw to.
type Capabilities struct {
	TTY     bool
	Term    string
	Profile termenv.Profile
	Forced  bool // Profile was chosen by the user, not detected
}

// Err returns the first missing capability, or nil. A forced Ascii profile
// is accepted: the canvas then draws brightness with shade characters.
func (c Capabilities) Err() error {
	switch {
	case !c.TTY:
		return ErrNotTerminal
	case c.Term == "dumb":
		return ErrDumbTerminal
	case c.Profile == termenv.Ascii && !c.Forced:
		return ErrNoColor
	}
	return nil
}

// Supported reports whether the nebula can run on this output.
func (c Capabilities) Supported() bool {
	return c.Err() == nil
}

type options struct {
	env     termenv.Environ
	tty     *bool
	profile *termenv.Profile
}

// Option customizes Detect.
type Option func(*options)

// WithEnvironment reads TERM, COLORTERM and friends from env instead of the
// process environment (e.g. an SSH session's).
func WithEnvironment(env termenv.Environ) Option {
	return func(o *options) { o.env = env }
}

// WithTTY overrides the TTY check, for outputs that are not files but are
// known to be terminals (an SSH PTY).
func WithTTY(tty bool) Option {
	return func(o *options) { o.tty = &tty }
}

// WithProfile forces a color profile instead of detecting one.
func WithProfile(p termenv.Profile) Option {
	return func(o *options) { o.profile = &p }
}

// Detect inspects out and its environment.
func Detect(out io.Writer, opts ...Option) Capabilities {
	o := options{env: processEnviron{}}
	for _, opt := range opts {
		opt(&o)
	}

	tty := IsTerminal(out)
	if o.tty != nil {
		tty = *o.tty
	}
	caps := Capabilities{
		TTY:     tty,
		Term:    o.env.Getenv("TERM"),
		Profile: termenv.Ascii,
	}

	switch {
	case o.profile != nil:
		caps.Profile = *o.profile
		caps.Forced = true
	case tty:
		output := termenv.NewOutput(out, termenv.WithEnvironment(o.env), termenv.WithTTY(true))
		caps.Profile = output.EnvColorProfile()
	}
	return caps
}

// IsTerminal reports whether v is a file attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ParseProfile maps a color mode name to a profile. ok is false for "auto"
// and unknown names.
func ParseProfile(name string) (termenv.Profile, bool) {
	switch strings.ToLower(name) {
	case "truecolor", "true", "24bit":
		return termenv.TrueColor, true
	case "256", "ansi256":
		return termenv.ANSI256, true
	case "16", "ansi":
		return termenv.ANSI, true
	case "none", "ascii":
		return termenv.Ascii, true
	}
	return termenv.Ascii, false
}

// processEnviron is the process environment as a termenv.Environ.
type processEnviron struct{}

func (processEnviron) Environ() []string        { return os.Environ() }
func (processEnviron) Getenv(key string) string { return os.Getenv(key) }

// Environ adapts a KEY=VALUE list (such as an SSH session's) to termenv.Environ.
type Environ []string

// Environ returns the list.
func (e Environ) Environ() []string {
	return e
}

// Getenv returns the last value set for key.
func (e Environ) Getenv(key string) string {
	prefix := key + "="
	for i := len(e) - 1; i >= 0; i-- {
		if v, ok := strings.CutPrefix(e[i], prefix); ok {
			return v
		}
	}
	return ""
}
