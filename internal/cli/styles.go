package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

func (r *runner) ok(msg string) {
	fmt.Fprintln(r.env.Out, successStyle.Render("✔ "+msg))
}

func (r *runner) fail(msg string) {
	fmt.Fprintln(r.env.Err, errorStyle.Render("✖ "+msg))
}

func (r *runner) println(a ...any) {
	fmt.Fprintln(r.env.Out, a...)
}

func muted(w io.Writer, msg string) {
	fmt.Fprintln(w, mutedStyle.Render(msg))
}
