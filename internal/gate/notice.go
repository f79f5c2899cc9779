package gate

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// DefaultID identifies the fallback notice when the caller gives none.
const DefaultID = "oldie"

// Link is a named URL in the notice.
type Link struct {
	Name string
	URL  string
}

// Notice is the fallback message shown instead of the nebula.
type Notice struct {
	ID       string
	Lines    []string
	Links    []Link
	Rendered string // Exactly what was written to the parent
}

// MessageOptions places the notice. Zero values take the defaults.
type MessageOptions struct {
	Parent     io.Writer // Defaults to os.Stdout
	ID         string    // Defaults to DefaultID
	Width      int       // Center within this many columns when > 0
	Reason     error     // Optional detail line, usually Capabilities.Err()
	Hyperlinks bool      // Emit OSC 8 hyperlinks for link names
}

var noticeLinks = []Link{
	{Name: "kitty", URL: "https://sw.kovidgoyal.net/kitty/"},
	{Name: "WezTerm", URL: "https://wezfurlong.org/wezterm/"},
	{Name: "iTerm2", URL: "https://iterm2.com/"},
	{Name: "Windows Terminal", URL: "https://aka.ms/terminal"},
}

// AddMessage builds the fallback notice, writes it to the parent and returns it.
func AddMessage(opts MessageOptions) (*Notice, error) {
	parent := opts.Parent
	if parent == nil {
		parent = os.Stdout
	}
	id := opts.ID
	if id == "" {
		id = DefaultID
	}

	n := &Notice{
		ID: id,
		Lines: []string{
			"Sorry, your terminal can't draw the nebula.",
			"It needs an interactive terminal with color support",
			"(TERM=xterm-256color or COLORTERM=truecolor).",
		},
		Links: noticeLinks,
	}
	if opts.Reason != nil {
		n.Lines = append(n.Lines, "", "Reason: "+opts.Reason.Error())
	}

	var body strings.Builder
	body.WriteString(strings.Join(n.Lines, "\n"))
	body.WriteString("\n\nPlease try with\n")
	for i, l := range n.Links {
		name := l.Name
		if opts.Hyperlinks {
			name = termenv.Hyperlink(l.URL, l.Name)
		}
		sep := " /"
		if i == len(n.Links)-1 {
			sep = ""
		}
		fmt.Fprintf(&body, "%s <%s>%s\n", name, l.URL, sep)
	}

	r := lipgloss.NewRenderer(parent)
	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 2).
		Align(lipgloss.Center).
		Render(strings.TrimRight(body.String(), "\n"))
	if opts.Width > 0 {
		box = lipgloss.PlaceHorizontal(opts.Width, lipgloss.Center, box)
	}
	n.Rendered = box + "\n"

	if _, err := io.WriteString(parent, n.Rendered); err != nil {
		return n, fmt.Errorf("write fallback notice %q: %w", id, err)
	}
	return n, nil
}
