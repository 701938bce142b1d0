package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/cyberdeck-app/cyberdeck/internal/board"
	"github.com/cyberdeck-app/cyberdeck/internal/date"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/tracker"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dueSoonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))

	// Status colors aligned with the board column palette. Gig and job
	// statuses share the map; "completed" is common to both.
	statusStyles = map[string]lipgloss.Style{
		"todo":        lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		"in-progress": lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		"blocked":     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		"completed":   lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		"active":      lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		"on-hold":     lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}

	priorityStyles = map[string]lipgloss.Style{
		"critical": lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		"high":     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		"medium":   lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		"low":      lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}
)

// DisableColor strips all styling from table output.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
	colorDisabled = true
	headerStyle = lipgloss.NewStyle()
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle = lipgloss.NewStyle()
	overdueStyle = lipgloss.NewStyle()
	dueSoonStyle = lipgloss.NewStyle()
	timeStyle = lipgloss.NewStyle()
	doneStyle = lipgloss.NewStyle()
	barStyle = lipgloss.NewStyle()
	statusStyles = map[string]lipgloss.Style{}
	priorityStyles = map[string]lipgloss.Style{}
}

// Deadlines decides how deadline cells are highlighted.
type Deadlines struct {
	Now         time.Time
	DueSoonDays int
}

func (d Deadlines) render(dl *date.Date, completed bool) string {
	if dl == nil {
		return dimStyle.Render("--")
	}
	s := dl.Display()
	switch {
	case completed:
		return s
	case date.OverdueAt(dl, d.Now):
		return overdueStyle.Render(s + " (overdue)")
	case date.DueSoonAt(dl, d.Now, d.DueSoonDays):
		return dueSoonStyle.Render(s)
	}
	return s
}

// GigTable renders gigs with their job count and progress.
func GigTable(w io.Writer, gigs []gig.Gig, jobs []job.Job, dl Deadlines) {
	if len(gigs) == 0 {
		fmt.Fprintln(os.Stderr, "No gigs found.")
		return
	}

	const pad = 2
	idW, statusW, titleW := 4, 8, 7
	for _, g := range gigs {
		idW = max(idW, len(g.ID)+pad)
		statusW = max(statusW, len(g.Status)+pad)
		titleW = max(titleW, min(utf8.RuneCountInString(g.Title)+pad, maxTitleW))
	}
	const jobsW, progressW = 6, 16

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %s",
		idW, "ID", statusW, "STATUS", titleW, "TITLE", jobsW, "JOBS", progressW, "PROGRESS", "DEADLINE")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, g := range gigs {
		gj := board.JobsOf(jobs, g.ID)
		row := fmt.Sprintf("%-*s %s %s %-*d %s %s",
			idW, g.ID,
			padRight(styledValue(g.Status, statusStyles), statusW),
			padRight(fit(g.Title, titleW-pad), titleW),
			jobsW, len(gj),
			padRight(progressBar(board.Progress(gj), 10), progressW), //nolint:mnd // bar width
			dl.render(g.Deadline, g.Status == gig.StatusCompleted))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// GigDetail renders a single gig together with its jobs.
func GigDetail(w io.Writer, g gig.Gig, jobs []job.Job, dl Deadlines) {
	fmt.Fprintln(w, titleStyle.Render(g.Title))
	fmt.Fprintln(w, strings.Repeat("─", lipgloss.Width(g.Title)))

	printField(w, "ID", g.ID)
	printField(w, "Status", styledValue(g.Status, statusStyles))
	printField(w, "Deadline", dl.render(g.Deadline, g.Status == gig.StatusCompleted))
	printField(w, "Progress", progressBar(board.Progress(jobs), 20)) //nolint:mnd // bar width
	printField(w, "Time", FormatDuration(board.TotalTimeTracked(jobs)))
	printField(w, "Created", date.FormatDateTime(g.CreatedAt))
	printField(w, "Updated", date.FormatDateTime(g.UpdatedAt))

	if g.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, Markdown(g.Description))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Jobs (%d)", len(jobs))))
	if len(jobs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  No jobs yet."))
		return
	}
	for _, j := range jobs {
		fmt.Fprintf(w, "  %s %s %s\n",
			padRight(styledValue(j.Status, statusStyles), 13), //nolint:mnd // longest status + pad
			j.Title, dimStyle.Render(j.ID))
	}
}

// JobTable renders a list of jobs. gigTitles maps gig ids to titles.
func JobTable(w io.Writer, jobs []job.Job, gigTitles map[string]string, dl Deadlines) {
	if len(jobs) == 0 {
		fmt.Fprintln(os.Stderr, "No jobs found.")
		return
	}

	const pad = 2
	idW, statusW, prioW, titleW, gigW := 4, 8, 10, 7, 5
	for _, j := range jobs {
		idW = max(idW, len(j.ID)+pad)
		statusW = max(statusW, len(j.Status)+pad)
		prioW = max(prioW, len(j.Priority)+pad)
		titleW = max(titleW, min(utf8.RuneCountInString(j.Title)+pad, maxTitleW))
		gigW = max(gigW, min(utf8.RuneCountInString(gigTitles[j.GigID])+pad, maxGigW))
	}
	const timeW, tasksW = 10, 7

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %-*s %-*s %s",
		idW, "ID", statusW, "STATUS", prioW, "PRIORITY", titleW, "TITLE",
		gigW, "GIG", timeW, "TIME", tasksW, "TASKS", "DEADLINE")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, j := range jobs {
		tasks := dimStyle.Render("--")
		if len(j.Subtasks) > 0 {
			tasks = strconv.Itoa(j.CompletedSubtasks()) + "/" + strconv.Itoa(len(j.Subtasks))
		}
		row := fmt.Sprintf("%-*s %s %s %s %s %s %s %s",
			idW, j.ID,
			padRight(styledValue(j.Status, statusStyles), statusW),
			padRight(styledValue(j.Priority, priorityStyles), prioW),
			padRight(fit(j.Title, titleW-pad), titleW),
			padRight(stringOrDash(fit(gigTitles[j.GigID], gigW-pad)), gigW),
			padRight(FormatDuration(j.TimeTracked), timeW),
			padRight(tasks, tasksW),
			dl.render(j.Deadline, j.IsCompleted()))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// JobDetail renders a single job with its subtasks and attachments.
func JobDetail(w io.Writer, j job.Job, gigTitle string, dl Deadlines) {
	fmt.Fprintln(w, titleStyle.Render(j.Title))
	fmt.Fprintln(w, strings.Repeat("─", lipgloss.Width(j.Title)))

	printField(w, "ID", j.ID)
	printField(w, "Gig", stringOrDash(gigTitle))
	printField(w, "Status", styledValue(j.Status, statusStyles))
	printField(w, "Priority", styledValue(j.Priority, priorityStyles))
	printField(w, "Deadline", dl.render(j.Deadline, j.IsCompleted()))
	printField(w, "Time", timeStyle.Render(FormatDuration(j.TimeTracked)))
	printField(w, "Created", date.FormatDateTime(j.CreatedAt))
	printField(w, "Updated", date.FormatDateTime(j.UpdatedAt))

	if j.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, Markdown(j.Description))
	}

	if len(j.Subtasks) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Subtasks (%d/%d)", j.CompletedSubtasks(), len(j.Subtasks))))
		for _, s := range j.Subtasks {
			box := "[ ]"
			text := s.Text
			if s.Completed {
				box = doneStyle.Render("[x]")
				text = dimStyle.Render(text)
			}
			fmt.Fprintf(w, "  %s %s %s\n", box, text, dimStyle.Render(s.ID))
		}
	}

	if len(j.Attachments) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Attachments (%d)", len(j.Attachments))))
		for _, a := range j.Attachments {
			fmt.Fprintf(w, "  %s  %s %s\n", a.Name, a.URL, dimStyle.Render(a.ID))
		}
	}

	if j.Notes != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Notes"))
		fmt.Fprint(w, Markdown(j.Notes))
	}
}

// DashboardTable renders the overview screen.
func DashboardTable(w io.Writer, d board.Dashboard, gigTitles map[string]string, dl Deadlines) {
	t := d.Totals
	fmt.Fprintln(w, titleStyle.Render("Dashboard"))
	fmt.Fprintln(w)
	printField(w, "Gigs", fmt.Sprintf("%d (%d active)", t.Gigs, t.ActiveGigs))
	printField(w, "Jobs", fmt.Sprintf("%d (%d in progress, %d blocked)", t.Jobs, t.InProgress, t.Blocked))
	printField(w, "Completed", fmt.Sprintf("%d  %s", t.Completed, progressBar(t.CompletionRate, 20))) //nolint:mnd // bar width
	printField(w, "Time", timeStyle.Render(FormatDuration(t.TimeTracked)))

	jobSection(w, "Overdue", d.Overdue, gigTitles, dl)
	jobSection(w, "Upcoming", d.Upcoming, gigTitles, dl)
	jobSection(w, "Recent", d.Recent, gigTitles, dl)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Active gigs"))
	if len(d.ActiveGigs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  None"))
		return
	}
	for _, g := range d.ActiveGigs {
		const gigColW = 26
		fmt.Fprintf(w, "  %s %s %s\n",
			padRight(board.Label(g.Title, gigColW-4), gigColW), //nolint:mnd // room for ellipsis
			progressBar(g.Progress, 10),                        //nolint:mnd // bar width
			dimStyle.Render(fmt.Sprintf("%d jobs", g.JobCount)))
	}
}

func jobSection(w io.Writer, title string, jobs []job.Job, gigTitles map[string]string, dl Deadlines) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%d)", title, len(jobs))))
	if len(jobs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  None"))
		return
	}
	for _, j := range jobs {
		line := "  " + j.Title
		if gt := gigTitles[j.GigID]; gt != "" {
			line += dimStyle.Render(" · " + gt)
		}
		if j.Deadline != nil {
			line += "  " + dl.render(j.Deadline, j.IsCompleted())
		}
		fmt.Fprintln(w, line)
	}
}

// GroupedTable renders jobs grouped by gig, status or priority.
func GroupedTable(w io.Writer, gs board.GroupedSummary) {
	if len(gs.Groups) == 0 {
		fmt.Fprintln(os.Stderr, "No jobs found.")
		return
	}

	for i, g := range gs.Groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := fmt.Sprintf("%s (%d jobs, %d%%)", g.Label, g.Total, g.Progress)
		fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(title))

		for _, ss := range g.Statuses {
			if ss.Count == 0 {
				continue
			}
			const groupStatusW = 16
			fmt.Fprintf(w, "  %s %d\n",
				padRight(styledValue(ss.Status, statusStyles), groupStatusW), ss.Count)
		}
	}
}

// LogTable renders activity log entries, newest first.
func LogTable(w io.Writer, entries []board.LogEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No activity yet.")
		return
	}
	const whenW, actionW, kindW = 16, 10, 5
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s %-*s %-*s %s", whenW, "WHEN", actionW, "ACTION", kindW, "KIND", "DETAIL")))
	for _, e := range entries {
		fmt.Fprintf(w, "%s %-*s %-*s %s\n",
			padRight(dimStyle.Render(date.FormatRelative(e.Timestamp, now)), whenW),
			actionW, e.Action, kindW, e.Kind, e.Detail)
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-10s %s\n", label+":", value)
}

// FormatDuration renders tracked seconds as H:MM:SS.
func FormatDuration(seconds int64) string {
	return tracker.FormatDuration(seconds)
}

// Column caps for titles in list tables.
const (
	maxTitleW = 42
	maxGigW   = 24
)

// fit returns s when it has at most width runes, otherwise its first
// width-3 runes followed by "...".
func fit(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	return board.Label(s, max(width-len("..."), 0))
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func stringOrDash(s string) string {
	if s == "" {
		return dimStyle.Render("--")
	}
	return s
}

// styledValue renders s using a matching style from the map, or returns s unchanged.
func styledValue(s string, styles map[string]lipgloss.Style) string {
	if st, ok := styles[s]; ok {
		return st.Render(s)
	}
	return s
}
