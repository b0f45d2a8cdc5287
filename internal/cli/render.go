package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"

	"github.com/OpenGG/claude-switch/internal/ccs/credentials"
)

const (
	markOK     = "✓"
	markInfo   = "ℹ"
	markWarn   = "⚠"
	markActive = "●"
)

// view writes styled output. Styles resolve their colors at render time, so
// disabling color after construction still takes effect.
type view struct {
	out      io.Writer
	renderer *lipgloss.Renderer

	ok      lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
	name    lipgloss.Style
	current lipgloss.Style
	dim     lipgloss.Style
	title   lipgloss.Style
	alert   lipgloss.Style
}

func newView(out io.Writer) *view {
	r := lipgloss.NewRenderer(out)
	return &view{
		out:      out,
		renderer: r,
		ok:       r.NewStyle().Foreground(lipgloss.Color("2")),
		info:     r.NewStyle().Foreground(lipgloss.Color("4")),
		warn:     r.NewStyle().Foreground(lipgloss.Color("3")),
		bad:      r.NewStyle().Foreground(lipgloss.Color("1")),
		name:     r.NewStyle().Foreground(lipgloss.Color("6")),
		current:  r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		dim:      r.NewStyle().Faint(true),
		title:    r.NewStyle().Bold(true),
		alert:    r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
	}
}

func (v *view) disableColor() {
	v.renderer.SetColorProfile(termenv.Ascii)
}

func (v *view) println(a ...any) {
	fmt.Fprintln(v.out, a...)
}

func (v *view) printf(format string, a ...any) {
	fmt.Fprintf(v.out, format, a...)
}

func (v *view) rule(width int) {
	v.println(strings.Repeat("─", width))
}

// field prints an indented "Label: value" line.
func (v *view) field(label, value string) {
	v.printf("  %s %s\n", v.dim.Render(label+":"), value)
}

func (v *view) success(format string, a ...any) {
	v.printf("%s %s\n", v.ok.Render(markOK), fmt.Sprintf(format, a...))
}

func (v *view) restartHint() {
	v.println()
	v.println(v.alert.Render(markWarn + "  Restart Claude Code to apply changes"))
	v.println()
}

func (v *view) status(s credentials.TokenStatus) string {
	switch s.Kind {
	case credentials.StatusValid:
		return v.ok.Render(s.String())
	case credentials.StatusWarning:
		return v.warn.Render(s.String())
	default:
		return v.bad.Render(s.String())
	}
}

// pad right-fills s to width display cells, ignoring escape sequences.
func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// lastUsed renders a millisecond timestamp relative to now, e.g. "3 days ago".
func lastUsed(ms int64, now time.Time) string {
	if ms <= 0 {
		return "never"
	}
	return humanize.RelTime(time.UnixMilli(ms), now, "ago", "from now")
}
