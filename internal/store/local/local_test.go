package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/logging"
	"github.com/cyberdeck-app/cyberdeck/internal/store"
)

func newDeck(t *testing.T, dir string) (*store.Deck, *Store) {
	t.Helper()
	s, err := Open(dir, logging.Discard())
	require.NoError(t, err)

	n := 0
	clock := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)
	deck := store.NewDeck(s,
		store.WithLogger(logging.Discard()),
		store.WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		store.WithClock(func() time.Time { clock = clock.Add(time.Minute); return clock }),
	)
	return deck, s
}

func TestCreateListNewestFirst(t *testing.T) {
	ctx := context.Background()
	deck, _ := newDeck(t, t.TempDir())

	a, err := deck.CreateGig(ctx, gig.Draft{Title: "First"})
	require.NoError(t, err)
	b, err := deck.CreateGig(ctx, gig.Draft{Title: "Second"})
	require.NoError(t, err)

	gigs := deck.ListGigs()
	require.Len(t, gigs, 2)
	assert.Equal(t, b.ID, gigs[0].ID)
	assert.Equal(t, a.ID, gigs[1].ID)
	assert.Equal(t, gig.StatusActive, gigs[0].Status)
	assert.Empty(t, gigs[0].UserID)
}

func TestPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	deck, _ := newDeck(t, dir)

	g, err := deck.CreateGig(ctx, gig.Draft{Title: "Launch"})
	require.NoError(t, err)
	j, err := deck.CreateJob(ctx, job.Draft{GigID: g.ID, Title: "Write copy"})
	require.NoError(t, err)
	_, err = deck.AddSubtask(ctx, j.ID, "outline")
	require.NoError(t, err)

	reopened, _ := newDeck(t, dir)
	got, ok := reopened.GetJobByID(j.ID)
	require.True(t, ok)
	assert.Equal(t, "Write copy", got.Title)
	require.Len(t, got.Subtasks, 1)
	assert.Equal(t, "outline", got.Subtasks[0].Text)

	_, err = os.Stat(filepath.Join(dir, GigsFile))
	assert.NoError(t, err)
}

func TestUpdateMergesAndStamps(t *testing.T) {
	ctx := context.Background()
	deck, _ := newDeck(t, t.TempDir())

	g, err := deck.CreateGig(ctx, gig.Draft{Title: "Launch", Description: "site"})
	require.NoError(t, err)

	status := gig.StatusCompleted
	updated, err := deck.UpdateGig(ctx, g.ID, gig.Patch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "site", updated.Description)
	assert.Equal(t, gig.StatusCompleted, updated.Status)
	assert.True(t, updated.UpdatedAt.After(g.UpdatedAt))
	assert.Equal(t, g.CreatedAt, updated.CreatedAt)

	_, err = deck.UpdateGig(ctx, "missing", gig.Patch{Status: &status})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Len(t, deck.ListGigs(), 1)
}

func TestDeleteGigCascades(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	deck, _ := newDeck(t, dir)

	keep, err := deck.CreateGig(ctx, gig.Draft{Title: "Keep"})
	require.NoError(t, err)
	drop, err := deck.CreateGig(ctx, gig.Draft{Title: "Drop"})
	require.NoError(t, err)
	for _, title := range []string{"a", "b"} {
		_, err = deck.CreateJob(ctx, job.Draft{GigID: drop.ID, Title: title})
		require.NoError(t, err)
	}
	kept, err := deck.CreateJob(ctx, job.Draft{GigID: keep.ID, Title: "c"})
	require.NoError(t, err)

	require.NoError(t, deck.DeleteGig(ctx, drop.ID))

	_, ok := deck.GetGigByID(drop.ID)
	assert.False(t, ok)
	jobs := deck.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, kept.ID, jobs[0].ID)
	assert.Empty(t, deck.ListJobsByGigID(drop.ID))

	reopened, _ := newDeck(t, dir)
	assert.Len(t, reopened.ListJobs(), 1)
}

func TestToggleSubtaskTwice(t *testing.T) {
	ctx := context.Background()
	deck, _ := newDeck(t, t.TempDir())

	g, _ := deck.CreateGig(ctx, gig.Draft{Title: "Launch"})
	j, err := deck.CreateJob(ctx, job.Draft{GigID: g.ID, Title: "Copy"})
	require.NoError(t, err)
	j, err = deck.AddSubtask(ctx, j.ID, "headline")
	require.NoError(t, err)
	sub := j.Subtasks[0]

	j, err = deck.ToggleSubtask(ctx, j.ID, sub.ID)
	require.NoError(t, err)
	assert.True(t, j.Subtasks[0].Completed)
	j, err = deck.ToggleSubtask(ctx, j.ID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub, j.Subtasks[0])

	j, err = deck.DeleteSubtask(ctx, j.ID, sub.ID)
	require.NoError(t, err)
	assert.Empty(t, j.Subtasks)

	_, err = deck.ToggleSubtask(ctx, j.ID, sub.ID)
	assert.ErrorIs(t, err, job.ErrSubtaskNotFound)
}

func TestDeleteAttachmentByID(t *testing.T) {
	ctx := context.Background()
	deck, _ := newDeck(t, t.TempDir())

	g, _ := deck.CreateGig(ctx, gig.Draft{Title: "Launch"})
	j, _ := deck.CreateJob(ctx, job.Draft{GigID: g.ID, Title: "Copy"})

	j, err := deck.AddAttachment(ctx, j.ID, job.Attachment{Name: "brief", URL: "https://x/brief"})
	require.NoError(t, err)
	j, err = deck.AddAttachment(ctx, j.ID, job.Attachment{Name: "logo", URL: "https://x/logo"})
	require.NoError(t, err)
	require.Len(t, j.Attachments, 2)

	j, err = deck.DeleteAttachment(ctx, j.ID, j.Attachments[0].ID)
	require.NoError(t, err)
	require.Len(t, j.Attachments, 1)
	assert.Equal(t, "logo", j.Attachments[0].Name)
	assert.False(t, j.Attachments[0].AddedAt.IsZero())

	_, err = deck.AddAttachment(ctx, j.ID, job.Attachment{Name: "no url"})
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestValidationBlocksCreate(t *testing.T) {
	ctx := context.Background()
	deck, _ := newDeck(t, t.TempDir())

	_, err := deck.CreateGig(ctx, gig.Draft{Title: "  "})
	assert.ErrorIs(t, err, store.ErrValidation)
	assert.Empty(t, deck.ListGigs())
}

func TestUnparseableFileSeedsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, GigsFile), []byte("{nope"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, JobsFile),
		[]byte(`[{"id":"j1","gigId":"g1","title":"old","attachments":[{"name":"a","url":"u"}]}]`), 0o600))

	deck, _ := newDeck(t, dir)
	assert.Empty(t, deck.ListGigs())

	j, ok := deck.GetJobByID("j1")
	require.True(t, ok)
	require.Len(t, j.Attachments, 1)
	assert.NotEmpty(t, j.Attachments[0].ID)
	assert.NotNil(t, j.Subtasks)
}

func TestWriteFailurePropagates(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	ctx := context.Background()
	dir := t.TempDir()
	deck, _ := newDeck(t, dir)
	_, err := deck.CreateGig(ctx, gig.Draft{Title: "before"})
	require.NoError(t, err)

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o750) })

	_, err = deck.CreateGig(ctx, gig.Draft{Title: "after"})
	require.Error(t, err)
	assert.Len(t, deck.ListGigs(), 1)
}

// failRename makes renames onto the named data file fail for one test.
func failRename(t *testing.T, name string) {
	t.Helper()
	orig := rename
	rename = func(from, to string) error {
		if filepath.Base(to) == name {
			return errors.New("disk full")
		}
		return orig(from, to)
	}
	t.Cleanup(func() { rename = orig })
}

// seedCascade creates a gig with two jobs and returns the gig.
func seedCascade(t *testing.T, deck *store.Deck) gig.Gig {
	t.Helper()
	ctx := context.Background()
	g, err := deck.CreateGig(ctx, gig.Draft{Title: "Drop"})
	require.NoError(t, err)
	for _, title := range []string{"a", "b"} {
		_, err = deck.CreateJob(ctx, job.Draft{GigID: g.ID, Title: title})
		require.NoError(t, err)
	}
	return g
}

func assertNoOrphans(t *testing.T, deck *store.Deck) {
	t.Helper()
	for _, j := range deck.ListJobs() {
		_, ok := deck.GetGigByID(j.GigID)
		assert.True(t, ok, "job %s points at missing gig %s", j.ID, j.GigID)
	}
}

func TestCascadeFailureOnJobsLeavesBothFiles(t *testing.T) {
	dir := t.TempDir()
	deck, _ := newDeck(t, dir)
	g := seedCascade(t, deck)

	failRename(t, JobsFile)
	require.Error(t, deck.DeleteGig(context.Background(), g.ID))

	reopened, _ := newDeck(t, dir)
	_, ok := reopened.GetGigByID(g.ID)
	assert.True(t, ok)
	assert.Len(t, reopened.ListJobs(), 2)
	assertNoOrphans(t, reopened)

	leftovers, err := filepath.Glob(filepath.Join(dir, ".tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestCascadeFailureOnGigsLeavesNoOrphans(t *testing.T) {
	dir := t.TempDir()
	deck, _ := newDeck(t, dir)
	g := seedCascade(t, deck)

	failRename(t, GigsFile)
	require.Error(t, deck.DeleteGig(context.Background(), g.ID))

	reopened, _ := newDeck(t, dir)
	assert.Empty(t, reopened.ListJobs())
	assertNoOrphans(t, reopened)
}

func TestMutationKeepsOtherProcessWrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	first, _ := newDeck(t, dir)
	other, err := Open(dir, logging.Discard())
	require.NoError(t, err)
	second := store.NewDeck(other, store.WithLogger(logging.Discard()))

	_, err = first.CreateGig(ctx, gig.Draft{Title: "from first"})
	require.NoError(t, err)
	_, err = second.CreateGig(ctx, gig.Draft{Title: "from second"})
	require.NoError(t, err)

	assert.Len(t, second.ListGigs(), 2)
}

func TestTutorialFlag(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, Flag(dir, TutorialFlag))
	require.NoError(t, SetFlag(dir, TutorialFlag, true))
	assert.True(t, Flag(dir, TutorialFlag))
	require.NoError(t, SetFlag(dir, TutorialFlag, false))
	assert.False(t, Flag(dir, TutorialFlag))
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	deck, _ := newDeck(t, t.TempDir())
	g, _ := deck.CreateGig(ctx, gig.Draft{Title: "Launch"})
	_, _ = deck.CreateJob(ctx, job.Draft{GigID: g.ID, Title: "Copy"})

	require.NoError(t, deck.ClearAll(ctx))
	assert.Empty(t, deck.ListGigs())
	assert.Empty(t, deck.ListJobs())
}
