// Package board derives dashboard and analytics figures from gig and job
// collections. Everything here is a pure function of its inputs and is
// recomputed on every call.
package board

import (
	"math"

	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
)

// StatusCount holds a count for one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// PriorityCount holds a count for one priority level.
type PriorityCount struct {
	Priority string `json:"priority"`
	Count    int    `json:"count"`
}

// Progress returns the share of completed jobs as a whole percentage in
// [0,100]; 0 when there are no jobs.
func Progress(jobs []job.Job) int {
	if len(jobs) == 0 {
		return 0
	}
	completed := 0
	for _, j := range jobs {
		if j.IsCompleted() {
			completed++
		}
	}
	return int(math.Round(100 * float64(completed) / float64(len(jobs))))
}

// CompletionRate is Progress over an arbitrary job collection.
func CompletionRate(jobs []job.Job) int { return Progress(jobs) }

// TotalTimeTracked sums tracked seconds. Negative values count as zero.
func TotalTimeTracked(jobs []job.Job) int64 {
	var total int64
	for _, j := range jobs {
		if j.TimeTracked > 0 {
			total += j.TimeTracked
		}
	}
	return total
}

// StatusHistogram counts jobs per status over the fixed enumeration,
// zero-filled, in enumeration order. Unknown statuses are ignored.
func StatusHistogram(jobs []job.Job) []StatusCount {
	return histogram(job.Statuses, jobs, func(j job.Job) string { return j.Status })
}

// GigStatusHistogram counts gigs per status, zero-filled.
func GigStatusHistogram(gigs []gig.Gig) []StatusCount {
	return histogram(gig.Statuses, gigs, func(g gig.Gig) string { return g.Status })
}

// PriorityHistogram counts jobs per priority, zero-filled, low to critical.
func PriorityHistogram(jobs []job.Job) []PriorityCount {
	counts := CountBy(jobs, func(j job.Job) string { return j.Priority })
	out := make([]PriorityCount, 0, len(job.Priorities))
	for _, p := range job.Priorities {
		out = append(out, PriorityCount{Priority: p, Count: counts[p]})
	}
	return out
}

// HistogramMap flattens a status histogram for lookups.
func HistogramMap(h []StatusCount) map[string]int {
	m := make(map[string]int, len(h))
	for _, c := range h {
		m[c.Status] = c.Count
	}
	return m
}

// CountBy counts items by key.
func CountBy[T any](items []T, key func(T) string) map[string]int {
	counts := make(map[string]int)
	for _, it := range items {
		counts[key(it)]++
	}
	return counts
}

func histogram[T any](enum []string, items []T, key func(T) string) []StatusCount {
	counts := CountBy(items, key)
	out := make([]StatusCount, 0, len(enum))
	for _, s := range enum {
		out = append(out, StatusCount{Status: s, Count: counts[s]})
	}
	return out
}

// JobsOf returns the jobs belonging to gigID, preserving order.
func JobsOf(jobs []job.Job, gigID string) []job.Job {
	var out []job.Job
	for _, j := range jobs {
		if j.GigID == gigID {
			out = append(out, j)
		}
	}
	return out
}
