package board

import (
	"slices"
	"sort"
	"strings"

	"github.com/cyberdeck-app/cyberdeck/internal/date"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
)

// Sort fields.
const (
	SortRecent   = "recent"
	SortUpdated  = "updated"
	SortTitle    = "title"
	SortDeadline = "deadline"
	SortPriority = "priority"
	SortStatus   = "status"
)

// JobSortFields and GigSortFields list the accepted --sort values.
var (
	JobSortFields = []string{SortRecent, SortUpdated, SortTitle, SortDeadline, SortPriority, SortStatus}
	GigSortFields = []string{SortRecent, SortUpdated, SortTitle, SortDeadline, SortStatus}
)

// SortJobs orders jobs in place. recent is newest created first, deadline
// puts undated jobs last, priority puts critical first.
func SortJobs(jobs []job.Job, field string, reverse bool) {
	sort.SliceStable(jobs, func(i, j int) bool {
		if reverse {
			return compareJobs(jobs[j], jobs[i], field)
		}
		return compareJobs(jobs[i], jobs[j], field)
	})
}

func compareJobs(a, b job.Job, field string) bool {
	switch field {
	case SortTitle:
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	case SortDeadline:
		return compareDeadline(a.Deadline, b.Deadline)
	case SortPriority:
		return slices.Index(job.Priorities, a.Priority) > slices.Index(job.Priorities, b.Priority)
	case SortStatus:
		return slices.Index(job.Statuses, a.Status) < slices.Index(job.Statuses, b.Status)
	case SortUpdated:
		return a.UpdatedAt.After(b.UpdatedAt)
	default:
		return a.CreatedAt.After(b.CreatedAt)
	}
}

// SortGigs orders gigs in place.
func SortGigs(gigs []gig.Gig, field string, reverse bool) {
	sort.SliceStable(gigs, func(i, j int) bool {
		if reverse {
			return compareGigs(gigs[j], gigs[i], field)
		}
		return compareGigs(gigs[i], gigs[j], field)
	})
}

func compareGigs(a, b gig.Gig, field string) bool {
	switch field {
	case SortTitle:
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	case SortDeadline:
		return compareDeadline(a.Deadline, b.Deadline)
	case SortStatus:
		return slices.Index(gig.Statuses, a.Status) < slices.Index(gig.Statuses, b.Status)
	case SortUpdated:
		return a.UpdatedAt.After(b.UpdatedAt)
	default:
		return a.CreatedAt.After(b.CreatedAt)
	}
}

func compareDeadline(a, b *date.Date) bool {
	if a == nil {
		return false // nil sorts last
	}
	if b == nil {
		return true
	}
	return a.Before(b.Time)
}
