package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)
)

// Printer writes the human-readable report. Findings and the verdict go to
// Out; the stats block goes to ErrOut so piped output stays clean.
type Printer struct {
	Out     io.Writer
	ErrOut  io.Writer
	Verbose bool
	Color   bool
}

func (p *Printer) Messages(msgs []Message) {
	for _, m := range msgs {
		text := m.Display(p.Verbose)
		if p.Color {
			style := noteStyle
			if m.Error {
				style = errorStyle
			}
			text = style.Render(text)
		}
		fmt.Fprintln(p.Out, text)
	}
}

// Verdict prints the closing line.
func (p *Printer) Verdict(problems bool) {
	text := "All OK!"
	style := successStyle
	if problems {
		text = "Oh no, found some problems!"
		style = errorStyle
	}
	if p.Color {
		text = style.Render(text)
	}
	fmt.Fprintln(p.Out, text)
}

// Stats prints the verbose summary block, followed by a blank line.
func (p *Printer) Stats(s Stats) {
	fmt.Fprintln(p.ErrOut, s)
}
