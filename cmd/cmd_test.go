package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberdeck-app/cyberdeck/internal/board"
	"github.com/cyberdeck-app/cyberdeck/internal/config"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
)

// setupDeck points the CLI at a fresh config dir with a local data dir.
func setupDeck(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, k := range []string{config.EnvDatabaseURL, config.EnvJWTSecret, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
	t.Setenv(config.EnvDataDir, filepath.Join(dir, "data"))
	t.Chdir(dir)
	return dir
}

// runCLI executes args against the root command and returns stdout.
func runCLI(t *testing.T, dir string, args ...string) string {
	t.Helper()
	resetFlags(rootCmd)
	flagNoColor = true

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w

	rootCmd.SetArgs(append([]string{"--dir", dir}, args...))
	_, runErr := rootCmd.ExecuteContextC(context.Background())

	require.NoError(t, w.Close())
	os.Stdout = stdout
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, runErr, string(out))
	return string(out)
}

// resetFlags restores every flag to its default; cobra keeps parsed values
// between executions in one process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestGigAndJobLifecycle(t *testing.T) {
	dir := setupDeck(t)

	g := decode[gig.Gig](t, runCLI(t, dir, "gig", "create", "Website relaunch", "--deadline", "2025-09-30", "--json"))
	assert.Equal(t, gig.StatusActive, g.Status)
	assert.Equal(t, "2025-09-30", g.Deadline.String())

	j := decode[job.Job](t, runCLI(t, dir, "job", "create", "Draft copy", "--gig", g.ID[:8], "--priority", "high", "--json"))
	assert.Equal(t, g.ID, j.GigID)
	assert.Equal(t, job.StatusTodo, j.Status)
	assert.Equal(t, job.PriorityHigh, j.Priority)

	moved := decode[moveResult](t, runCLI(t, dir, "job", "move", j.ID, "in-progress", "--json"))
	assert.True(t, moved.Changed)
	assert.Equal(t, job.StatusInProgress, moved.Status)

	timed := decode[job.Job](t, runCLI(t, dir, "job", "time", j.ID, "1:30:00", "--json"))
	assert.Equal(t, int64(5400), timed.TimeTracked)

	withSub := decode[job.Job](t, runCLI(t, dir, "job", "subtask", "add", j.ID, "Outline", "--json"))
	require.Len(t, withSub.Subtasks, 1)
	toggled := decode[job.Job](t, runCLI(t, dir, "job", "subtask", "toggle", j.ID, "1", "--json"))
	assert.True(t, toggled.Subtasks[0].Completed)

	d := decode[board.Dashboard](t, runCLI(t, dir, "dashboard", "--json"))
	assert.Equal(t, 1, d.Totals.Gigs)
	assert.Equal(t, 1, d.Totals.InProgress)
	assert.Equal(t, int64(5400), d.Totals.TimeTracked)

	entries := decode[[]board.LogEntry](t, runCLI(t, dir, "log", "--json"))
	require.NotEmpty(t, entries)
	assert.Equal(t, "subtask", entries[0].Action)

	runCLI(t, dir, "gig", "delete", g.ID, "--yes")
	jobs := decode[[]job.Job](t, runCLI(t, dir, "job", "list", "--json"))
	assert.Empty(t, jobs)
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := setupDeck(t)

	g := decode[gig.Gig](t, runCLI(t, dir, "gig", "create", "Podcast", "--json"))
	runCLI(t, dir, "job", "create", "Record intro", "--gig", g.ID, "--json")

	file := filepath.Join(dir, "backup.json")
	runCLI(t, dir, "export", file)

	check := decode[importSummary](t, runCLI(t, dir, "import", file, "--json"))
	assert.Equal(t, 1, check.Gigs)
	assert.Equal(t, 1, check.Jobs)
	assert.Nil(t, check.Applied)

	applied := decode[importSummary](t, runCLI(t, dir, "import", file, "--apply", "--json"))
	require.NotNil(t, applied.Applied)
	assert.Equal(t, 1, applied.Applied.Gigs)

	gigs := decode[[]board.GigProgress](t, runCLI(t, dir, "gig", "list", "--json"))
	assert.Len(t, gigs, 2)
}

func TestConfigSetAndGet(t *testing.T) {
	dir := setupDeck(t)

	runCLI(t, dir, "config", "set", "due_soon_days", "5")
	assert.Equal(t, "5\n", runCLI(t, dir, "config", "get", "due_soon_days"))

	shown := decode[map[string]any](t, runCLI(t, dir, "config", "--json"))
	assert.Equal(t, "local", shown["mode"])
	assert.Equal(t, false, shown["remote.jwt_secret"])
}

func TestLoginWhoamiLogout(t *testing.T) {
	dir := setupDeck(t)
	t.Setenv(config.EnvDatabaseURL, "sqlite:"+filepath.Join(dir, "deck.db"))
	t.Setenv(config.EnvJWTSecret, "test-secret")
	t.Setenv(config.EnvSessionToken, "")

	runCLI(t, dir, "login", "--issue", "--user", "user-1", "--email", "ada@example.com")
	_, err := os.Stat(filepath.Join(dir, config.DefaultSessionFile))
	require.NoError(t, err)

	who := decode[map[string]any](t, runCLI(t, dir, "whoami", "--json"))
	assert.Equal(t, "remote", who["mode"])
	assert.Equal(t, true, who["signedIn"])
	assert.Equal(t, "user-1", who["user"].(map[string]any)["id"])

	g := decode[gig.Gig](t, runCLI(t, dir, "gig", "create", "Remote gig", "--json"))
	assert.Equal(t, "user-1", g.UserID)

	runCLI(t, dir, "logout")
	who = decode[map[string]any](t, runCLI(t, dir, "whoami", "--json"))
	assert.Equal(t, false, who["signedIn"])
}
