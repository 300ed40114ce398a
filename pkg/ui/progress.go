package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// StatusTracker draws the "Searching: ..." line, one dot per page request
type StatusTracker struct {
	mu         sync.Mutex
	out        io.Writer
	quiet      bool
	labelStyle lipgloss.Style
	dotStyle   lipgloss.Style

	attempts  int
	startTime time.Time
}

func newStatusTracker(out io.Writer, quiet bool, labelStyle, dotStyle lipgloss.Style) *StatusTracker {
	return &StatusTracker{
		out:        out,
		quiet:      quiet,
		labelStyle: labelStyle,
		dotStyle:   dotStyle,
		startTime:  time.Now(),
	}
}

// Tick records one request attempt
func (st *StatusTracker) Tick() {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.attempts++
	if st.quiet {
		return
	}
	if st.attempts == 1 {
		fmt.Fprint(st.out, st.labelStyle.Render("Searching:")+" ")
	}
	fmt.Fprint(st.out, st.dotStyle.Render("."))
}

// Finish ends the progress line
func (st *StatusTracker) Finish() {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.quiet || st.attempts == 0 {
		return
	}
	fmt.Fprintln(st.out)
}

// GetAttempts returns the number of ticks so far
func (st *StatusTracker) GetAttempts() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.attempts
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.startTime)
}
