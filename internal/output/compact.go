package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cyberdeck-app/cyberdeck/internal/board"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
)

// GigCompact renders gigs one per line.
func GigCompact(w io.Writer, gigs []gig.Gig, jobs []job.Job) {
	if len(gigs) == 0 {
		fmt.Fprintln(os.Stderr, "No gigs found.")
		return
	}
	for _, g := range gigs {
		gj := board.JobsOf(jobs, g.ID)
		line := g.ID + " [" + g.Status + "] " + g.Title +
			" (" + strconv.Itoa(len(gj)) + " jobs, " + strconv.Itoa(board.Progress(gj)) + "%)"
		if g.Deadline != nil {
			line += " due:" + g.Deadline.String()
		}
		fmt.Fprintln(w, line)
	}
}

// JobCompact renders jobs one per line.
func JobCompact(w io.Writer, jobs []job.Job, gigTitles map[string]string) {
	if len(jobs) == 0 {
		fmt.Fprintln(os.Stderr, "No jobs found.")
		return
	}
	for _, j := range jobs {
		fmt.Fprintln(w, formatJobLine(j, gigTitles[j.GigID]))
	}
}

// JobDetailCompact renders a single job with its checklist in compact format.
func JobDetailCompact(w io.Writer, j job.Job, gigTitle string) {
	fmt.Fprintln(w, formatJobLine(j, gigTitle))
	fmt.Fprintln(w, "  created:"+j.CreatedAt.Format("2006-01-02")+
		" updated:"+j.UpdatedAt.Format("2006-01-02"))
	for _, s := range j.Subtasks {
		box := "[ ]"
		if s.Completed {
			box = "[x]"
		}
		fmt.Fprintln(w, "  "+box+" "+s.Text+" ("+s.ID+")")
	}
	for _, a := range j.Attachments {
		fmt.Fprintln(w, "  @ "+a.Name+" "+a.URL+" ("+a.ID+")")
	}
	if j.Notes != "" {
		for _, line := range strings.Split(j.Notes, "\n") {
			fmt.Fprintln(w, "  "+line)
		}
	}
}

// DashboardCompact renders the dashboard totals and lists in compact format.
func DashboardCompact(w io.Writer, d board.Dashboard) {
	t := d.Totals
	fmt.Fprintf(w, "gigs=%d active=%d jobs=%d completed=%d in-progress=%d blocked=%d rate=%d%% time=%s\n",
		t.Gigs, t.ActiveGigs, t.Jobs, t.Completed, t.InProgress, t.Blocked, t.CompletionRate, FormatDuration(t.TimeTracked))
	for _, sec := range []struct {
		name string
		jobs []job.Job
	}{{"overdue", d.Overdue}, {"upcoming", d.Upcoming}, {"recent", d.Recent}} {
		for _, j := range sec.jobs {
			line := "  " + sec.name + ": " + j.Title
			if j.Deadline != nil {
				line += " due:" + j.Deadline.String()
			}
			fmt.Fprintln(w, line)
		}
	}
}

// AnalyticsCompact renders chart data as key=value pairs.
func AnalyticsCompact(w io.Writer, a board.Analytics) {
	parts := make([]string, 0, len(a.Statuses))
	for _, s := range a.Statuses {
		parts = append(parts, s.Status+"="+strconv.Itoa(s.Count))
	}
	fmt.Fprintln(w, "Status: "+strings.Join(parts, " "))

	parts = parts[:0]
	for _, p := range a.Priorities {
		parts = append(parts, p.Priority+"="+strconv.Itoa(p.Count))
	}
	fmt.Fprintln(w, "Priority: "+strings.Join(parts, " "))

	for _, g := range a.Gigs {
		fmt.Fprintln(w, "  "+g.Label+": "+strconv.Itoa(g.Jobs))
	}
}

// GroupedCompact renders a grouped summary one group per line.
func GroupedCompact(w io.Writer, gs board.GroupedSummary) {
	for _, g := range gs.Groups {
		parts := make([]string, 0, len(g.Statuses))
		for _, s := range g.Statuses {
			if s.Count > 0 {
				parts = append(parts, s.Status+"="+strconv.Itoa(s.Count))
			}
		}
		fmt.Fprintf(w, "%s (%d, %d%%) %s\n", g.Label, g.Total, g.Progress, strings.Join(parts, " "))
	}
}

// formatJobLine builds the one-line representation of a job.
func formatJobLine(j job.Job, gigTitle string) string {
	line := j.ID + " [" + j.Status + "/" + j.Priority + "] " + j.Title
	if gigTitle != "" {
		line += " @" + gigTitle
	}
	if len(j.Subtasks) > 0 {
		line += " (" + strconv.Itoa(j.CompletedSubtasks()) + "/" + strconv.Itoa(len(j.Subtasks)) + ")"
	}
	if j.TimeTracked > 0 {
		line += " time:" + FormatDuration(j.TimeTracked)
	}
	if j.Deadline != nil {
		line += " due:" + j.Deadline.String()
	}
	return line
}
