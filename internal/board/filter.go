package board

import (
	"slices"
	"strings"
	"time"

	"github.com/cyberdeck-app/cyberdeck/internal/date"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
)

// JobFilter defines which jobs to include. Empty fields match everything.
type JobFilter struct {
	Statuses   []string
	Priorities []string
	GigID      string
	Search     string // case-insensitive substring match across title, description and notes
	Overdue    bool
	DueSoon    int // only jobs due within this many days
	Now        time.Time
}

// FilterJobs returns jobs matching all criteria (AND logic).
func FilterJobs(jobs []job.Job, f JobFilter) []job.Job {
	if f.Now.IsZero() {
		f.Now = time.Now()
	}
	var out []job.Job
	for _, j := range jobs {
		if matchesJob(j, f) {
			out = append(out, j)
		}
	}
	return out
}

func matchesJob(j job.Job, f JobFilter) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, j.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, j.Priority) {
		return false
	}
	if f.GigID != "" && j.GigID != f.GigID {
		return false
	}
	if f.Search != "" && !matchesSearch(f.Search, j.Title, j.Description, j.Notes) {
		return false
	}
	if f.Overdue && (j.IsCompleted() || !date.OverdueAt(j.Deadline, f.Now)) {
		return false
	}
	if f.DueSoon > 0 && (j.IsCompleted() || !date.DueSoonAt(j.Deadline, f.Now, f.DueSoon)) {
		return false
	}
	return true
}

// GigFilter defines which gigs to include.
type GigFilter struct {
	Statuses []string
	Search   string
}

// FilterGigs returns gigs matching all criteria.
func FilterGigs(gigs []gig.Gig, f GigFilter) []gig.Gig {
	var out []gig.Gig
	for _, g := range gigs {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, g.Status) {
			continue
		}
		if f.Search != "" && !matchesSearch(f.Search, g.Title, g.Description) {
			continue
		}
		out = append(out, g)
	}
	return out
}

func matchesSearch(query string, fields ...string) bool {
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
