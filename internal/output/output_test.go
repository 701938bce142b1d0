package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cyberdeck-app/cyberdeck/internal/board"
	"github.com/cyberdeck-app/cyberdeck/internal/date"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
)

func init() { DisableColor() }

func TestDetect(t *testing.T) {
	t.Setenv(EnvOutput, "")
	assert.Equal(t, FormatTable, Detect(false, false, false))
	assert.Equal(t, FormatJSON, Detect(true, true, true))
	assert.Equal(t, FormatCompact, Detect(false, true, true))

	t.Setenv(EnvOutput, "json")
	assert.Equal(t, FormatJSON, Detect(false, false, false))
	assert.Equal(t, FormatTable, Detect(false, true, false))

	t.Setenv(EnvOutput, "oneline")
	assert.Equal(t, FormatCompact, Detect(false, false, false))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░  50%", progressBar(50, 10))
	assert.Equal(t, "░░░░░░░░░░   0%", progressBar(-5, 10))
	assert.Equal(t, "██████████ 100%", progressBar(140, 10))
}

func TestJobCompact(t *testing.T) {
	deadline := date.New(2025, time.July, 1)
	jobs := []job.Job{{
		ID: "j1", GigID: "g1", Title: "Write copy", Status: job.StatusTodo, Priority: job.PriorityHigh,
		TimeTracked: 3725, Deadline: &deadline,
		Subtasks: []job.Subtask{{ID: "s1", Text: "Outline", Completed: true}, {ID: "s2", Text: "Draft"}},
	}}
	var buf bytes.Buffer
	JobCompact(&buf, jobs, map[string]string{"g1": "Launch"})
	assert.Equal(t, "j1 [todo/high] Write copy @Launch (1/2) time:1:02:05 due:2025-07-01\n", buf.String())
}

func TestGigTableShowsProgress(t *testing.T) {
	gigs := []gig.Gig{{ID: "g1", Title: "Launch", Status: gig.StatusActive}}
	jobs := []job.Job{
		{ID: "j1", GigID: "g1", Status: job.StatusCompleted},
		{ID: "j2", GigID: "g1", Status: job.StatusTodo},
	}
	var buf bytes.Buffer
	GigTable(&buf, gigs, jobs, Deadlines{Now: time.Now(), DueSoonDays: 3})
	assert.Contains(t, buf.String(), "Launch")
	assert.Contains(t, buf.String(), " 50%")
}

func TestTablesKeepTitlesThatFit(t *testing.T) {
	dl := Deadlines{Now: time.Now(), DueSoonDays: 3}
	gigs := []gig.Gig{{ID: "g1", Title: "Website relaunch", Status: gig.StatusActive}}
	jobs := []job.Job{{ID: "j1", GigID: "g1", Title: "Write copy", Status: job.StatusTodo, Priority: job.PriorityHigh}}

	var buf bytes.Buffer
	GigTable(&buf, gigs, jobs, dl)
	assert.Contains(t, buf.String(), "Website relaunch")
	assert.NotContains(t, buf.String(), "...")

	buf.Reset()
	JobTable(&buf, jobs, map[string]string{"g1": "Website relaunch"}, dl)
	assert.Contains(t, buf.String(), "Write copy")
	assert.Contains(t, buf.String(), "Website relaunch")
	assert.NotContains(t, buf.String(), "...")
}

func TestTablesCutLongTitles(t *testing.T) {
	long := strings.Repeat("x", 60)
	var buf bytes.Buffer
	JobTable(&buf, []job.Job{{ID: "j1", GigID: "g1", Title: long, Status: job.StatusTodo, Priority: job.PriorityLow}},
		map[string]string{"g1": strings.Repeat("y", 30)}, Deadlines{Now: time.Now(), DueSoonDays: 3})
	out := buf.String()
	assert.Contains(t, out, strings.Repeat("x", maxTitleW-5)+"...")
	assert.NotContains(t, out, strings.Repeat("x", maxTitleW-4))
	assert.Contains(t, out, strings.Repeat("y", maxGigW-5)+"...")
}

func TestFit(t *testing.T) {
	assert.Equal(t, "Launch", fit("Launch", 6))
	assert.Equal(t, "Lau...", fit("Launch!", 6))
	assert.Equal(t, "Über", fit("Über", 4))
}

func TestJobDetailIncludesChecklist(t *testing.T) {
	j := job.Job{
		ID: "j1", Title: "Write copy", Status: job.StatusBlocked, Priority: job.PriorityLow,
		Subtasks:    []job.Subtask{{ID: "s1", Text: "Outline", Completed: true}},
		Attachments: []job.Attachment{{ID: "a1", Name: "Brief", URL: "https://example.com/brief"}},
	}
	var buf bytes.Buffer
	JobDetail(&buf, j, "Launch", Deadlines{Now: time.Now(), DueSoonDays: 3})
	out := buf.String()
	assert.Contains(t, out, "Subtasks (1/1)")
	assert.Contains(t, out, "[x] Outline")
	assert.Contains(t, out, "https://example.com/brief")
	assert.Contains(t, out, "0:00:00")
}

func TestDeadlineHighlighting(t *testing.T) {
	now := time.Date(2025, time.June, 3, 12, 0, 0, 0, time.UTC)
	past := date.New(2025, time.June, 1)
	dl := Deadlines{Now: now, DueSoonDays: 3}
	assert.Contains(t, dl.render(&past, false), "(overdue)")
	assert.NotContains(t, dl.render(&past, true), "(overdue)")
	assert.Equal(t, "--", dl.render(nil, false))
}

func TestAnalyticsTable(t *testing.T) {
	a := board.Analytics{
		Statuses:   []board.StatusCount{{Status: "todo", Count: 2}},
		Priorities: []board.PriorityCount{{Priority: "low", Count: 0}, {Priority: "high", Count: 2}},
		Gigs:       []board.GigJobCount{{GigID: "g1", Label: "Launch", Jobs: 2}},
	}
	var buf bytes.Buffer
	AnalyticsTable(&buf, a)
	assert.Contains(t, buf.String(), "Jobs per gig")
	assert.Contains(t, buf.String(), "Launch")
}

func TestJSONError(t *testing.T) {
	var buf bytes.Buffer
	JSONError(&buf, "JOB_NOT_FOUND", "job a1b2 not found", map[string]any{"id": "a1b2"})
	out := buf.String()
	assert.Contains(t, out, `"code": "JOB_NOT_FOUND"`)
	assert.Contains(t, out, `"error": "job a1b2 not found"`)
	assert.Contains(t, out, `"id": "a1b2"`)

	buf.Reset()
	JSONError(&buf, "INTERNAL_ERROR", "boom", nil)
	assert.NotContains(t, buf.String(), "details")
}
