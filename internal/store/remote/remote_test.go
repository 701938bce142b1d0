package remote

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberdeck-app/cyberdeck/internal/date"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/logging"
	"github.com/cyberdeck-app/cyberdeck/internal/store"
)

func openTestStore(t *testing.T, dsn, identity string) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{
		DSN:         dsn,
		Identity:    identity,
		AutoMigrate: true,
		Logger:      logging.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testDSN(t *testing.T) string {
	return sqlitePrefix + filepath.Join(t.TempDir(), "cyberdeck.db")
}

func TestCreateAndReload(t *testing.T) {
	ctx := context.Background()
	dsn := testDSN(t)
	deck := store.NewDeck(openTestStore(t, dsn, "alice"), store.WithLogger(logging.Discard()))

	due := date.New(2025, time.July, 4)
	g, err := deck.CreateGig(ctx, gig.Draft{Title: "Launch", Deadline: &due})
	require.NoError(t, err)
	assert.Equal(t, "alice", g.UserID)

	j, err := deck.CreateJob(ctx, job.Draft{GigID: g.ID, Title: "Write copy", TimeTracked: 42})
	require.NoError(t, err)
	_, err = deck.AddSubtask(ctx, j.ID, "headline")
	require.NoError(t, err)
	_, err = deck.AddAttachment(ctx, j.ID, job.Attachment{Name: "brief", URL: "https://x/brief"})
	require.NoError(t, err)

	fresh := openTestStore(t, dsn, "alice")
	gotGig, ok := fresh.Gig(g.ID)
	require.True(t, ok)
	require.NotNil(t, gotGig.Deadline)
	assert.Equal(t, "2025-07-04", gotGig.Deadline.String())

	gotJob, ok := fresh.Job(j.ID)
	require.True(t, ok)
	assert.Equal(t, g.ID, gotJob.GigID)
	assert.Equal(t, int64(42), gotJob.TimeTracked)
	require.Len(t, gotJob.Subtasks, 1)
	assert.Equal(t, "headline", gotJob.Subtasks[0].Text)
	require.Len(t, gotJob.Attachments, 1)
	assert.NotEmpty(t, gotJob.Attachments[0].ID)
}

func TestRowsAreScopedToIdentity(t *testing.T) {
	ctx := context.Background()
	dsn := testDSN(t)
	alice := store.NewDeck(openTestStore(t, dsn, "alice"), store.WithLogger(logging.Discard()))
	bob := store.NewDeck(openTestStore(t, dsn, "bob"), store.WithLogger(logging.Discard()))

	g, err := alice.CreateGig(ctx, gig.Draft{Title: "Private"})
	require.NoError(t, err)

	require.NoError(t, bob.Reload(ctx))
	assert.Empty(t, bob.ListGigs())

	bobBackend := openTestStore(t, dsn, "bob")
	title := "hijacked"
	_, err = bobBackend.UpdateGig(ctx, g.ID, gig.Patch{Title: &title}, time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, bobBackend.DeleteGig(ctx, g.ID), store.ErrNotFound)

	require.NoError(t, alice.Reload(ctx))
	got, ok := alice.GetGigByID(g.ID)
	require.True(t, ok)
	assert.Equal(t, "Private", got.Title)
}

func TestUpdateReturnsServerRow(t *testing.T) {
	ctx := context.Background()
	deck := store.NewDeck(openTestStore(t, testDSN(t), "alice"), store.WithLogger(logging.Discard()))

	g, err := deck.CreateGig(ctx, gig.Draft{Title: "Launch"})
	require.NoError(t, err)
	j, err := deck.CreateJob(ctx, job.Draft{GigID: g.ID, Title: "Copy", Priority: job.PriorityHigh})
	require.NoError(t, err)

	status := job.StatusCompleted
	updated, err := deck.UpdateJob(ctx, j.ID, job.Patch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, updated.Status)
	assert.Equal(t, job.PriorityHigh, updated.Priority)
	assert.Equal(t, "Copy", updated.Title)

	mirrored, ok := deck.GetJobByID(j.ID)
	require.True(t, ok)
	assert.Equal(t, updated, mirrored)

	updated, err = deck.SetTimeTracked(ctx, j.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, updated.TimeTracked)
}

func TestDeleteGigCascades(t *testing.T) {
	ctx := context.Background()
	dsn := testDSN(t)
	deck := store.NewDeck(openTestStore(t, dsn, "alice"), store.WithLogger(logging.Discard()))

	g, _ := deck.CreateGig(ctx, gig.Draft{Title: "Drop"})
	other, _ := deck.CreateGig(ctx, gig.Draft{Title: "Keep"})
	_, err := deck.CreateJob(ctx, job.Draft{GigID: g.ID, Title: "a"})
	require.NoError(t, err)
	kept, err := deck.CreateJob(ctx, job.Draft{GigID: other.ID, Title: "b"})
	require.NoError(t, err)

	require.NoError(t, deck.DeleteGig(ctx, g.ID))
	jobs := deck.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, kept.ID, jobs[0].ID)

	fresh := openTestStore(t, dsn, "alice")
	assert.Len(t, fresh.Jobs(), 1)
	assert.Len(t, fresh.Gigs(), 1)
}

func TestNoIdentity(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, testDSN(t), "")
	deck := store.NewDeck(s, store.WithLogger(logging.Discard()))

	_, err := deck.CreateGig(ctx, gig.Draft{Title: "Launch"})
	assert.ErrorIs(t, err, store.ErrNoIdentity)
	assert.Empty(t, deck.ListGigs())
}

func TestSetIdentitySwapsMirror(t *testing.T) {
	ctx := context.Background()
	dsn := testDSN(t)
	s := openTestStore(t, dsn, "alice")
	deck := store.NewDeck(s, store.WithLogger(logging.Discard()))
	_, err := deck.CreateGig(ctx, gig.Draft{Title: "Alice's"})
	require.NoError(t, err)

	require.NoError(t, deck.SetIdentity(ctx, "bob"))
	assert.Empty(t, deck.ListGigs())

	require.NoError(t, deck.SetIdentity(ctx, ""))
	assert.Empty(t, deck.ListGigs())

	require.NoError(t, deck.SetIdentity(ctx, "alice"))
	assert.Len(t, deck.ListGigs(), 1)
}

func TestRequestFailureLeavesMirror(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, testDSN(t), "alice")
	deck := store.NewDeck(s, store.WithLogger(logging.Discard()))
	g, err := deck.CreateGig(ctx, gig.Draft{Title: "Launch"})
	require.NoError(t, err)

	require.NoError(t, s.db.Migrator().DropTable(&gigRow{}))

	title := "renamed"
	_, err = deck.UpdateGig(ctx, g.ID, gig.Patch{Title: &title})
	assert.ErrorIs(t, err, store.ErrRemote)

	got, ok := deck.GetGigByID(g.ID)
	require.True(t, ok)
	assert.Equal(t, "Launch", got.Title)
}

func TestColumnTranslation(t *testing.T) {
	secs := int64(30)
	cols := jobColumns(job.Patch{TimeTracked: &secs, ClearDeadline: true}, time.Unix(0, 0))
	assert.Equal(t, int64(30), cols["time_tracked"])
	assert.Contains(t, cols, "deadline")
	assert.Nil(t, cols["deadline"])
	assert.NotContains(t, cols, "timeTracked")

	row := toJobRow(job.Job{ID: "j1", GigID: "g1"})
	assert.Equal(t, "g1", row.GigID)
	back := fromJobRow(row)
	assert.Equal(t, "g1", back.GigID)
	assert.NotNil(t, back.Subtasks)
	assert.NotNil(t, back.Attachments)
}
