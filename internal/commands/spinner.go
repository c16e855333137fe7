package commands

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// spinner is the stderr progress indicator for one-shot commands. It
// owns the line it draws on; nothing else may write to stderr while it
// runs.
type spinner struct {
	message  string
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerTints cycles the glyph color.
var spinnerTints = []lipgloss.Color{
	lipgloss.Color("#7aa2f7"),
	lipgloss.Color("#bb9af7"),
	lipgloss.Color("#7dcfff"),
}

func newSpinner(message string) *spinner {
	return &spinner{
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	go s.run()
}

func (s *spinner) run() {
	defer close(s.done)

	ticker := time.NewTicker(90 * time.Millisecond)
	defer ticker.Stop()

	// Hide the cursor while animating
	fmt.Fprint(os.Stderr, "\033[?25l")

	for frame := 0; ; frame++ {
		select {
		case <-s.stop:
			fmt.Fprint(os.Stderr, "\r\033[K\033[?25h")
			return
		case <-ticker.C:
			fmt.Fprintf(os.Stderr, "\r\033[K%s", s.line(frame))
		}
	}
}

// line composes one animation frame: tinted glyph, message, walking
// ellipsis.
func (s *spinner) line(frame int) string {
	glyph := lipgloss.NewStyle().
		Foreground(spinnerTints[frame%len(spinnerTints)]).
		Bold(true).
		Render(spinnerFrames[frame%len(spinnerFrames)])
	dots := strings.Repeat(".", frame/4%4)
	return fmt.Sprintf("%s %s%s", glyph, textStyle.Render(s.message), dots)
}

// halt stops the animation and waits for the line to be cleared. Safe
// to call more than once.
func (s *spinner) halt() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// succeed replaces the spinner with a checkmark line.
func (s *spinner) succeed(message string) {
	s.halt()
	check := successStyle.Bold(true).Render("✓")
	fmt.Fprintf(os.Stderr, "%s %s\n", check, successStyle.Render(message))
}

// fail clears the spinner; the caller prints the error itself.
func (s *spinner) fail() {
	s.halt()
}
