package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes the user-facing lines of a run. Styles are resolved against
// the destination, so output to a pipe or file carries no escape codes.
type Printer struct {
	out      io.Writer
	quiet    bool
	renderer *lipgloss.Renderer

	infoStyle    lipgloss.Style
	labelStyle   lipgloss.Style
	successStyle lipgloss.Style
	warningStyle lipgloss.Style
	errorStyle   lipgloss.Style
	dimStyle     lipgloss.Style
}

// NewPrinter creates a printer for out. In quiet mode only the summary and
// errors are written.
func NewPrinter(out io.Writer, quiet bool) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:          out,
		quiet:        quiet,
		renderer:     r,
		infoStyle:    r.NewStyle().Foreground(lipgloss.Color("6")),
		labelStyle:   r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		successStyle: r.NewStyle().Foreground(lipgloss.Color("2")),
		warningStyle: r.NewStyle().Foreground(lipgloss.Color("3")),
		errorStyle:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		dimStyle:     r.NewStyle().Faint(true),
	}
}

// Writer returns the destination of the printer
func (p *Printer) Writer() io.Writer {
	return p.out
}

func (p *Printer) println(style lipgloss.Style, msg string) {
	fmt.Fprintln(p.out, style.Render(msg))
}

// PrintInfo prints an informational line
func (p *Printer) PrintInfo(msg string) {
	if p.quiet {
		return
	}
	p.println(p.infoStyle, msg)
}

// PrintSuccess prints a success line
func (p *Printer) PrintSuccess(msg string) {
	if p.quiet {
		return
	}
	p.println(p.successStyle, msg)
}

// PrintWarning prints a warning line
func (p *Printer) PrintWarning(msg string) {
	if p.quiet {
		return
	}
	p.println(p.warningStyle, msg)
}

// PrintError prints an error line, also in quiet mode
func (p *Printer) PrintError(msg string, err error) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	p.println(p.errorStyle, msg)
}

// PrintHeader announces whose timeline is being fetched
func (p *Printer) PrintHeader(screenName string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.labelStyle.Render("Fetching tweets for"), p.warningStyle.Render("@"+screenName))
}

// PrintExisting reports what the previous run left behind
func (p *Printer) PrintExisting(count int) {
	if count > 0 {
		p.PrintSuccess(fmt.Sprintf("✓ Found existing file with %d %s.", count, Plural(count, "tweet", "tweets")))
		return
	}
	p.PrintInfo("No existing file found, fetching all tweets.")
}

// PrintDone prints the closing summary line
func (p *Printer) PrintDone(summary string) {
	p.println(p.successStyle, "Done. "+summary)
}

// NewProgress returns a tracker that writes to the same destination
func (p *Printer) NewProgress() *StatusTracker {
	return newStatusTracker(p.out, p.quiet, p.labelStyle, p.dimStyle)
}

// Plural picks the word form for n
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
