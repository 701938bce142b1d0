package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberdeck-app/cyberdeck/internal/date"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
)

var now = time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC)

func due(days int) *date.Date {
	d := date.Of(now).AddDays(days)
	return &d
}

func mkJob(id, gigID, status string) job.Job {
	return job.Job{
		ID:        id,
		GigID:     gigID,
		Title:     "job " + id,
		Status:    status,
		Priority:  job.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestProgressFollowsCompletion(t *testing.T) {
	jobs := []job.Job{mkJob("j1", "g1", job.StatusTodo)}
	assert.Equal(t, 0, Progress(jobs))

	jobs[0].Status = job.StatusCompleted
	assert.Equal(t, 100, Progress(jobs))

	assert.Equal(t, 0, Progress(nil))
}

func TestProgressRounds(t *testing.T) {
	jobs := []job.Job{
		mkJob("a", "g", job.StatusCompleted),
		mkJob("b", "g", job.StatusTodo),
		mkJob("c", "g", job.StatusTodo),
	}
	assert.Equal(t, 33, Progress(jobs))

	jobs[1].Status = job.StatusCompleted
	assert.Equal(t, 67, Progress(jobs))
}

func TestStatusHistogramZeroFilled(t *testing.T) {
	jobs := []job.Job{
		mkJob("a", "g", job.StatusTodo),
		mkJob("b", "g", job.StatusInProgress),
		mkJob("c", "g", job.StatusCompleted),
	}
	h := HistogramMap(StatusHistogram(jobs))
	assert.Equal(t, map[string]int{
		job.StatusTodo:       1,
		job.StatusInProgress: 1,
		job.StatusBlocked:    0,
		job.StatusCompleted:  1,
	}, h)
	assert.Equal(t, 67, CompletionRate(append(jobs, mkJob("d", "g", job.StatusCompleted))[1:]))
}

func TestTotalTimeTrackedIgnoresNegative(t *testing.T) {
	a := mkJob("a", "g", job.StatusTodo)
	a.TimeTracked = 90
	b := mkJob("b", "g", job.StatusTodo)
	b.TimeTracked = -5
	assert.Equal(t, int64(90), TotalTimeTracked([]job.Job{a, b}))
}

func TestUpcomingExcludesOverdueAndCompleted(t *testing.T) {
	late := mkJob("late", "g", job.StatusTodo)
	late.Deadline = due(-1)
	soon := mkJob("soon", "g", job.StatusTodo)
	soon.Deadline = due(2)
	sooner := mkJob("sooner", "g", job.StatusTodo)
	sooner.Deadline = due(1)
	done := mkJob("done", "g", job.StatusCompleted)
	done.Deadline = due(1)
	far := mkJob("far", "g", job.StatusTodo)
	far.Deadline = due(30)

	jobs := []job.Job{late, soon, sooner, done, far}

	upcoming := UpcomingJobs(jobs, now, date.DefaultDueSoonDays, 5)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "sooner", upcoming[0].ID)
	assert.Equal(t, "soon", upcoming[1].ID)

	overdue := OverdueJobs(jobs, now)
	require.Len(t, overdue, 1)
	assert.Equal(t, "late", overdue[0].ID)
}

func TestSummarize(t *testing.T) {
	gigs := []gig.Gig{
		{ID: "g1", Title: "Launch", Status: gig.StatusActive},
		{ID: "g2", Title: "Paused", Status: gig.StatusOnHold},
	}
	a := mkJob("a", "g1", job.StatusCompleted)
	a.TimeTracked = 60
	b := mkJob("b", "g1", job.StatusBlocked)
	b.UpdatedAt = now.Add(time.Hour)
	jobs := []job.Job{a, b, mkJob("c", "g2", job.StatusInProgress)}

	d := Summarize(gigs, jobs, now, 3)
	assert.Equal(t, Totals{
		Gigs:           2,
		ActiveGigs:     1,
		Jobs:           3,
		Completed:      1,
		InProgress:     1,
		Blocked:        1,
		CompletionRate: 33,
		TimeTracked:    60,
	}, d.Totals)
	require.Len(t, d.ActiveGigs, 1)
	assert.Equal(t, 50, d.ActiveGigs[0].Progress)
	assert.Equal(t, 2, d.ActiveGigs[0].JobCount)
	require.NotEmpty(t, d.Recent)
	assert.Equal(t, "b", d.Recent[0].ID)
}

func TestAnalyze(t *testing.T) {
	var gigs []gig.Gig
	for _, id := range []string{"g1", "g2", "g3", "g4", "g5", "g6"} {
		gigs = append(gigs, gig.Gig{ID: id, Title: "Gig " + id})
	}
	gigs[0].Title = "A very long gig title indeed"

	jobs := []job.Job{
		mkJob("a", "g1", job.StatusTodo),
		mkJob("b", "g1", job.StatusCompleted),
		mkJob("c", "g6", job.StatusTodo),
	}
	jobs[1].Priority = job.PriorityCritical

	a := Analyze(gigs, jobs)
	assert.Equal(t, []StatusCount{
		{Status: job.StatusTodo, Count: 2},
		{Status: job.StatusCompleted, Count: 1},
	}, a.Statuses)
	require.Len(t, a.Priorities, 4)
	assert.Equal(t, PriorityCount{Priority: job.PriorityCritical, Count: 1}, a.Priorities[3])
	assert.Equal(t, PriorityCount{Priority: job.PriorityLow, Count: 0}, a.Priorities[0])

	require.Len(t, a.Gigs, 5)
	assert.Equal(t, "A very long gig titl...", a.Gigs[0].Label)
	assert.Equal(t, 2, a.Gigs[0].Jobs)
	assert.Equal(t, 0, a.Gigs[1].Jobs)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "short", Label("short", 20))
	assert.Equal(t, "abc...", Label("abcdef", 3))
	assert.Equal(t, "żół...", Label("żółwie", 3))
}

func TestFilterJobs(t *testing.T) {
	a := mkJob("a", "g1", job.StatusTodo)
	a.Title = "Write landing copy"
	b := mkJob("b", "g2", job.StatusBlocked)
	b.Notes = "waiting on COPY review"
	b.Priority = job.PriorityHigh
	c := mkJob("c", "g1", job.StatusCompleted)
	c.Deadline = due(-2)
	d := mkJob("d", "g1", job.StatusTodo)
	d.Deadline = due(-2)
	jobs := []job.Job{a, b, c, d}

	ids := func(js []job.Job) []string {
		var out []string
		for _, j := range js {
			out = append(out, j.ID)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b"}, ids(FilterJobs(jobs, JobFilter{Search: "copy"})))
	assert.Equal(t, []string{"a", "c", "d"}, ids(FilterJobs(jobs, JobFilter{GigID: "g1"})))
	assert.Equal(t, []string{"b"}, ids(FilterJobs(jobs, JobFilter{Priorities: []string{job.PriorityHigh}})))
	assert.Equal(t, []string{"d"}, ids(FilterJobs(jobs, JobFilter{Overdue: true, Now: now})))
	assert.Equal(t, []string{"a", "d"}, ids(FilterJobs(jobs, JobFilter{Statuses: []string{job.StatusTodo}})))
}

func TestFilterGigs(t *testing.T) {
	gigs := []gig.Gig{
		{ID: "g1", Title: "Launch", Status: gig.StatusActive},
		{ID: "g2", Title: "Archive", Description: "launch leftovers", Status: gig.StatusCompleted},
	}
	assert.Len(t, FilterGigs(gigs, GigFilter{Search: "LAUNCH"}), 2)
	got := FilterGigs(gigs, GigFilter{Statuses: []string{gig.StatusCompleted}})
	require.Len(t, got, 1)
	assert.Equal(t, "g2", got[0].ID)
}

func TestSortJobs(t *testing.T) {
	a := mkJob("a", "g", job.StatusTodo)
	a.Title = "beta"
	a.Priority = job.PriorityLow
	a.Deadline = due(5)
	b := mkJob("b", "g", job.StatusCompleted)
	b.Title = "Alpha"
	b.Priority = job.PriorityCritical
	c := mkJob("c", "g", job.StatusBlocked)
	c.Title = "gamma"
	c.Deadline = due(1)

	order := func(field string, reverse bool) []string {
		jobs := []job.Job{a, b, c}
		SortJobs(jobs, field, reverse)
		return []string{jobs[0].ID, jobs[1].ID, jobs[2].ID}
	}

	assert.Equal(t, []string{"b", "a", "c"}, order(SortTitle, false))
	assert.Equal(t, []string{"c", "a", "b"}, order(SortTitle, true))
	assert.Equal(t, []string{"c", "a", "b"}, order(SortDeadline, false))
	assert.Equal(t, []string{"b", "c", "a"}, order(SortPriority, false))
	assert.Equal(t, []string{"a", "c", "b"}, order(SortStatus, false))
}

func TestGroupBy(t *testing.T) {
	gigs := []gig.Gig{{ID: "g1", Title: "Launch"}, {ID: "g2", Title: "Docs"}}
	jobs := []job.Job{
		mkJob("a", "g2", job.StatusTodo),
		mkJob("b", "g1", job.StatusCompleted),
		mkJob("c", "gone", job.StatusTodo),
		mkJob("d", "g1", job.StatusTodo),
	}

	byGig := GroupBy(jobs, gigs, "gig")
	require.Len(t, byGig.Groups, 3)
	assert.Equal(t, "Launch", byGig.Groups[0].Label)
	assert.Equal(t, 2, byGig.Groups[0].Total)
	assert.Equal(t, 50, byGig.Groups[0].Progress)
	assert.Equal(t, "Docs", byGig.Groups[1].Label)
	assert.Equal(t, noGig, byGig.Groups[2].Key)

	byStatus := GroupBy(jobs, gigs, "status")
	require.Len(t, byStatus.Groups, 2)
	assert.Equal(t, job.StatusTodo, byStatus.Groups[0].Key)
	assert.Equal(t, 3, byStatus.Groups[0].Total)
}

func TestActivityLog(t *testing.T) {
	dir := t.TempDir()

	entries, err := ReadLog(dir, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	LogMutation(dir, "create", "gig", "g1", "Launch")
	LogMutation(dir, "delete", "job", "j1", "Write copy")

	entries, err = ReadLog(dir, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "delete", entries[0].Action)
	assert.Equal(t, "job", entries[0].Kind)
	assert.Equal(t, "g1", entries[1].ID)

	entries, err = ReadLog(dir, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
