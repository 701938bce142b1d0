package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cyberdeck-app/cyberdeck/internal/board"
)

const chartWidth = 30

var barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))

// progressBar renders pct (0-100) as a fixed-width bar followed by the figure.
func progressBar(pct, width int) string {
	pct = min(max(pct, 0), 100) //nolint:mnd // percent bounds
	filled := pct * width / 100 //nolint:mnd // percent
	return barStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %3d%%", pct)
}

// hbar renders count scaled against peak.
func hbar(count, peak int, style lipgloss.Style) string {
	if peak == 0 || count == 0 {
		return ""
	}
	n := max(count*chartWidth/peak, 1)
	return style.Render(strings.Repeat("█", n))
}

// AnalyticsTable renders the status, priority and per-gig charts as
// horizontal bars.
func AnalyticsTable(w io.Writer, a board.Analytics) {
	fmt.Fprintln(w, titleStyle.Render("Analytics"))

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Jobs by status"))
	peak := 0
	for _, s := range a.Statuses {
		peak = max(peak, s.Count)
	}
	if len(a.Statuses) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  No jobs"))
	}
	for _, s := range a.Statuses {
		style, ok := statusStyles[s.Status]
		if !ok {
			style = barStyle
		}
		fmt.Fprintf(w, "  %s %4d %s\n", padRight(styledValue(s.Status, statusStyles), 13), s.Count, hbar(s.Count, peak, style)) //nolint:mnd // label width
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Jobs by priority"))
	peak = 0
	for _, p := range a.Priorities {
		peak = max(peak, p.Count)
	}
	for _, p := range a.Priorities {
		style, ok := priorityStyles[p.Priority]
		if !ok {
			style = barStyle
		}
		fmt.Fprintf(w, "  %s %4d %s\n", padRight(styledValue(p.Priority, priorityStyles), 13), p.Count, hbar(p.Count, peak, style)) //nolint:mnd // label width
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Jobs per gig"))
	if len(a.Gigs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  No gigs"))
		return
	}
	peak = 0
	for _, g := range a.Gigs {
		peak = max(peak, g.Jobs)
	}
	for _, g := range a.Gigs {
		fmt.Fprintf(w, "  %s %4d %s\n", padRight(g.Label, 24), g.Jobs, hbar(g.Jobs, peak, barStyle)) //nolint:mnd // label width
	}
}
