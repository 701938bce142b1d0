package board

import (
	"sort"
	"time"

	"github.com/cyberdeck-app/cyberdeck/internal/date"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
)

const (
	upcomingLimit   = 5
	recentLimit     = 5
	activeGigsLimit = 4
	topGigsLimit    = 5
	gigLabelRunes   = 20
)

// Totals are the headline counters of the dashboard.
type Totals struct {
	Gigs           int   `json:"gigs"`
	ActiveGigs     int   `json:"activeGigs"`
	Jobs           int   `json:"jobs"`
	Completed      int   `json:"completed"`
	InProgress     int   `json:"inProgress"`
	Blocked        int   `json:"blocked"`
	CompletionRate int   `json:"completionRate"`
	TimeTracked    int64 `json:"timeTracked"`
}

// GigProgress is a gig with its derived progress.
type GigProgress struct {
	gig.Gig
	Progress int `json:"progress"`
	JobCount int `json:"jobCount"`
}

// Dashboard is the overview screen's data.
type Dashboard struct {
	Totals     Totals        `json:"totals"`
	Overdue    []job.Job     `json:"overdue"`
	Upcoming   []job.Job     `json:"upcoming"`
	Recent     []job.Job     `json:"recent"`
	ActiveGigs []GigProgress `json:"activeGigs"`
}

// OverdueJobs returns unfinished jobs whose deadline day has passed.
func OverdueJobs(jobs []job.Job, now time.Time) []job.Job {
	var out []job.Job
	for _, j := range jobs {
		if j.Deadline != nil && !j.IsCompleted() && date.OverdueAt(j.Deadline, now) {
			out = append(out, j)
		}
	}
	return out
}

// UpcomingJobs returns unfinished jobs due within days, earliest first,
// at most limit of them (limit <= 0 means all).
func UpcomingJobs(jobs []job.Job, now time.Time, days, limit int) []job.Job {
	var out []job.Job
	for _, j := range jobs {
		if j.Deadline == nil || j.IsCompleted() {
			continue
		}
		if date.DueSoonAt(j.Deadline, now, days) && !date.OverdueAt(j.Deadline, now) {
			out = append(out, j)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Deadline.Before(out[b].Deadline.Time)
	})
	return truncate(out, limit)
}

// RecentJobs returns the most recently updated jobs.
func RecentJobs(jobs []job.Job, limit int) []job.Job {
	out := append([]job.Job(nil), jobs...)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].UpdatedAt.After(out[b].UpdatedAt)
	})
	return truncate(out, limit)
}

// Summarize builds the dashboard. dueSoonDays is the look-ahead window for
// the upcoming list.
func Summarize(gigs []gig.Gig, jobs []job.Job, now time.Time, dueSoonDays int) Dashboard {
	statuses := HistogramMap(StatusHistogram(jobs))

	d := Dashboard{
		Totals: Totals{
			Gigs:           len(gigs),
			Jobs:           len(jobs),
			Completed:      statuses[job.StatusCompleted],
			InProgress:     statuses[job.StatusInProgress],
			Blocked:        statuses[job.StatusBlocked],
			CompletionRate: CompletionRate(jobs),
			TimeTracked:    TotalTimeTracked(jobs),
		},
		Overdue:  OverdueJobs(jobs, now),
		Upcoming: UpcomingJobs(jobs, now, dueSoonDays, upcomingLimit),
		Recent:   RecentJobs(jobs, recentLimit),
	}
	for _, g := range gigs {
		if g.Status != gig.StatusActive {
			continue
		}
		d.Totals.ActiveGigs++
		if len(d.ActiveGigs) < activeGigsLimit {
			own := JobsOf(jobs, g.ID)
			d.ActiveGigs = append(d.ActiveGigs, GigProgress{Gig: g, Progress: Progress(own), JobCount: len(own)})
		}
	}
	return d
}

// GigJobCount is one bar of the jobs-per-gig chart.
type GigJobCount struct {
	GigID string `json:"gigId"`
	Label string `json:"label"`
	Jobs  int    `json:"jobs"`
}

// Analytics is the chart screen's data.
type Analytics struct {
	Statuses   []StatusCount   `json:"statuses"`
	Priorities []PriorityCount `json:"priorities"`
	Gigs       []GigJobCount   `json:"gigs"`
}

// Analyze builds the chart data. The status distribution omits empty
// buckets; the priority distribution keeps all four levels; the gig chart
// covers the first five gigs in list order.
func Analyze(gigs []gig.Gig, jobs []job.Job) Analytics {
	a := Analytics{Priorities: PriorityHistogram(jobs)}
	for _, s := range StatusHistogram(jobs) {
		if s.Count > 0 {
			a.Statuses = append(a.Statuses, s)
		}
	}
	counts := CountBy(jobs, func(j job.Job) string { return j.GigID })
	for _, g := range truncate(gigs, topGigsLimit) {
		a.Gigs = append(a.Gigs, GigJobCount{GigID: g.ID, Label: Label(g.Title, gigLabelRunes), Jobs: counts[g.ID]})
	}
	return a
}

// Label shortens s to n runes, appending "..." when cut.
func Label(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
