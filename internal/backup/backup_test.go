package backup

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberdeck-app/cyberdeck/internal/date"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/logging"
	"github.com/cyberdeck-app/cyberdeck/internal/store"
	"github.com/cyberdeck-app/cyberdeck/internal/store/local"
)

var now = time.Date(2025, time.June, 3, 14, 30, 0, 0, time.UTC)

func newDeck(t *testing.T) *store.Deck {
	t.Helper()
	s, err := local.Open(t.TempDir(), logging.Discard())
	require.NoError(t, err)
	return store.NewDeck(s, store.WithLogger(logging.Discard()))
}

func sample() Document {
	deadline := date.New(2025, time.July, 1)
	return Export(
		[]gig.Gig{{ID: "old-g1", Title: "Launch", Status: gig.StatusActive, Deadline: &deadline}},
		[]job.Job{
			{
				ID: "old-j1", GigID: "old-g1", Title: "Write copy",
				Status: job.StatusInProgress, Priority: job.PriorityHigh, TimeTracked: 125,
				Subtasks:    []job.Subtask{{ID: "s1", Text: "Outline", Completed: true}},
				Attachments: []job.Attachment{{ID: "a1", Name: "Brief", URL: "https://example.com/brief"}},
			},
			{ID: "old-j2", GigID: "missing", Title: "Orphan", Status: job.StatusTodo, Priority: job.PriorityLow},
		},
		now,
	)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "cyberdeck-backup-2025-06-03.json", FileName(now))
}

func TestWriteThenParse(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample()))
	assert.Contains(t, buf.String(), `"version": "1.0"`)
	assert.Contains(t, buf.String(), `"gigId": "old-g1"`)

	doc, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, Version, doc.Version)
	require.Len(t, doc.Gigs, 1)
	require.Len(t, doc.Jobs, 2)
	assert.Equal(t, "2025-07-01", doc.Gigs[0].Deadline.String())
	assert.Equal(t, int64(125), doc.Jobs[0].TimeTracked)
}

func TestExportEmptyCollections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Export(nil, nil, now)))
	assert.Contains(t, buf.String(), `"gigs": []`)

	doc, err := Parse(&buf)
	require.NoError(t, err)
	assert.Empty(t, doc.Gigs)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]struct {
		input  string
		reason string
	}{
		"syntax":        {input: `{"gigs": [`, reason: "unexpected end"},
		"missing jobs":  {input: `{"gigs": []}`, reason: "jobs"},
		"wrong type":    {input: `{"gigs": {}, "jobs": []}`, reason: "gigs"},
		"job lacks gig": {input: `{"gigs": [], "jobs": [{"title": "x"}]}`, reason: "gigId"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Reason, tc.reason)
			assert.True(t, strings.HasPrefix(err.Error(), "failed to parse backup file: "))
		})
	}
}

func TestApplyRemapsIDs(t *testing.T) {
	ctx := context.Background()
	deck := newDeck(t)

	res, err := Apply(ctx, deck, sample())
	require.NoError(t, err)
	assert.Equal(t, Result{Gigs: 1, Jobs: 1, Skipped: 1}, res)

	gigs := deck.ListGigs()
	require.Len(t, gigs, 1)
	assert.NotEqual(t, "old-g1", gigs[0].ID)
	assert.Equal(t, "2025-07-01", gigs[0].Deadline.String())

	jobs := deck.ListJobs()
	require.Len(t, jobs, 1)
	j := jobs[0]
	assert.NotEqual(t, "old-j1", j.ID)
	assert.Equal(t, gigs[0].ID, j.GigID)
	assert.Equal(t, int64(125), j.TimeTracked)
	assert.Equal(t, job.StatusInProgress, j.Status)
	require.Len(t, j.Subtasks, 1)
	assert.True(t, j.Subtasks[0].Completed)
	require.Len(t, j.Attachments, 1)
	assert.Equal(t, "a1", j.Attachments[0].ID)
}

func TestApplyKeepsOrder(t *testing.T) {
	ctx := context.Background()
	src := newDeck(t)
	for _, title := range []string{"First", "Second", "Third"} {
		_, err := src.CreateGig(ctx, gig.Draft{Title: title})
		require.NoError(t, err)
	}

	dst := newDeck(t)
	_, err := Apply(ctx, dst, Export(src.ListGigs(), src.ListJobs(), now))
	require.NoError(t, err)

	gigs := dst.ListGigs()
	require.Len(t, gigs, 3)
	assert.Equal(t, "Third", gigs[0].Title)
	assert.Equal(t, "First", gigs[2].Title)
}

func TestApplyRejectsInvalidGig(t *testing.T) {
	ctx := context.Background()
	deck := newDeck(t)
	doc := Export([]gig.Gig{{ID: "g", Title: "   "}}, nil, now)

	res, err := Apply(ctx, deck, doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.Zero(t, res)
	assert.Empty(t, deck.ListGigs())
}

func TestApplyRejectsInvalidJobBeforeWriting(t *testing.T) {
	ctx := context.Background()
	deck := newDeck(t)
	doc := sample()
	doc.Gigs = append(doc.Gigs, gig.Gig{ID: "old-g2", Title: "Rebrand", Status: gig.StatusOnHold})
	doc.Jobs = append(doc.Jobs, job.Job{ID: "old-j3", GigID: "old-g2", Title: "Logo", Status: job.StatusTodo, Priority: "urgent"})

	res, err := Apply(ctx, deck, doc)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "jobs.2")
	assert.Contains(t, pe.Reason, `"Logo"`)
	assert.Zero(t, res)
	assert.Empty(t, deck.ListGigs())
	assert.Empty(t, deck.ListJobs())
}

func TestApplyIgnoresInvalidOrphans(t *testing.T) {
	ctx := context.Background()
	deck := newDeck(t)
	doc := sample()
	doc.Jobs[1].Priority = "urgent"

	res, err := Apply(ctx, deck, doc)
	require.NoError(t, err)
	assert.Equal(t, Result{Gigs: 1, Jobs: 1, Skipped: 1}, res)
}

// normalized strips monotonic readings and zones so decoded times compare
// equal to the ones they were encoded from.
func normalized(gigs []gig.Gig, jobs []job.Job) ([]gig.Gig, []job.Job) {
	norm := func(t time.Time) time.Time { return t.UTC().Round(0) }
	gigs = append([]gig.Gig(nil), gigs...)
	for i := range gigs {
		gigs[i].CreatedAt = norm(gigs[i].CreatedAt)
		gigs[i].UpdatedAt = norm(gigs[i].UpdatedAt)
	}
	jobs = append([]job.Job(nil), jobs...)
	for i := range jobs {
		jobs[i].CreatedAt = norm(jobs[i].CreatedAt)
		jobs[i].UpdatedAt = norm(jobs[i].UpdatedAt)
		atts := append([]job.Attachment{}, jobs[i].Attachments...)
		for k := range atts {
			atts[k].AddedAt = norm(atts[k].AddedAt)
		}
		jobs[i].Attachments = atts
		jobs[i].Subtasks = append([]job.Subtask{}, jobs[i].Subtasks...)
	}
	return gigs, jobs
}

func TestExportParseRoundTrip(t *testing.T) {
	ctx := context.Background()
	deck := newDeck(t)
	deadline := date.New(2025, time.August, 15)

	g1, err := deck.CreateGig(ctx, gig.Draft{Title: "Launch", Description: "Q3 site", Deadline: &deadline})
	require.NoError(t, err)
	g2, err := deck.CreateGig(ctx, gig.Draft{Title: "Rebrand", Status: gig.StatusOnHold})
	require.NoError(t, err)

	j1, err := deck.CreateJob(ctx, job.Draft{
		GigID: g1.ID, Title: "Write copy", Notes: "tone: calm",
		Status: job.StatusInProgress, Priority: job.PriorityHigh, Deadline: &deadline, TimeTracked: 3600,
	})
	require.NoError(t, err)
	_, err = deck.AddSubtask(ctx, j1.ID, "Outline")
	require.NoError(t, err)
	_, err = deck.AddAttachment(ctx, j1.ID, job.Attachment{Name: "Brief", URL: "https://example.com/brief"})
	require.NoError(t, err)
	_, err = deck.CreateJob(ctx, job.Draft{GigID: g2.ID, Title: "Logo"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Export(deck.ListGigs(), deck.ListJobs(), now)))
	doc, err := Parse(&buf)
	require.NoError(t, err)

	assert.Equal(t, Version, doc.Version)
	assert.True(t, now.Equal(doc.ExportedAt))
	wantGigs, wantJobs := normalized(deck.ListGigs(), deck.ListJobs())
	gotGigs, gotJobs := normalized(doc.Gigs, doc.Jobs)
	assert.Equal(t, wantGigs, gotGigs)
	assert.Equal(t, wantJobs, gotJobs)
}

func TestBucketKey(t *testing.T) {
	b := &Bucket{prefix: "nightly"}
	assert.Equal(t, "nightly/cyberdeck-backup-20250603T143000Z.json", b.Key(now))

	b = &Bucket{}
	assert.Equal(t, "cyberdeck-backup-20250603T143000Z.json", b.Key(now))
}
