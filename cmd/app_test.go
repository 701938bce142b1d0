package cmd

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberdeck-app/cyberdeck/internal/backup"
	"github.com/cyberdeck-app/cyberdeck/internal/clierr"
	"github.com/cyberdeck-app/cyberdeck/internal/config"
	"github.com/cyberdeck-app/cyberdeck/internal/identity"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/store"
)

func TestResolve(t *testing.T) {
	items := []string{"3f2a91c0-aaaa", "3f2b0000-bbbb", "9c1e0000-cccc"}
	id := func(s string) string { return s }

	got, n := resolve(items, id, "9c1e0000-cccc")
	assert.Equal(t, 1, n)
	assert.Equal(t, "9c1e0000-cccc", got)

	got, n = resolve(items, id, "9c1e")
	assert.Equal(t, 1, n)
	assert.Equal(t, "9c1e0000-cccc", got)

	_, n = resolve(items, id, "3f2")
	assert.Zero(t, n, "prefixes shorter than four characters never match")

	_, n = resolve(items, id, "3f2a")
	assert.Equal(t, 1, n)

	items = append(items, "3f2a91c0-dddd")
	_, n = resolve(items, id, "3f2a")
	assert.Equal(t, 2, n)

	_, n = resolve(items, id, "  ")
	assert.Zero(t, n)
}

func TestPick(t *testing.T) {
	subtasks := []job.Subtask{{ID: "aaaa1111", Text: "one"}, {ID: "bbbb2222", Text: "two"}}
	id := func(s job.Subtask) string { return s.ID }

	s, err := pick(subtasks, id, "bbbb", job.ErrSubtaskNotFound)
	require.NoError(t, err)
	assert.Equal(t, "two", s.Text)

	s, err = pick(subtasks, id, "1", job.ErrSubtaskNotFound)
	require.NoError(t, err)
	assert.Equal(t, "one", s.Text)

	_, err = pick(subtasks, id, "3", job.ErrSubtaskNotFound)
	assert.ErrorIs(t, err, job.ErrSubtaskNotFound)
}

func TestParseIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseIDs(" a, b,,a "))
	assert.Nil(t, parseIDs(" , "))
}

func TestParseDeadline(t *testing.T) {
	d, unset, err := parseDeadline("2025-07-01")
	require.NoError(t, err)
	assert.False(t, unset)
	assert.Equal(t, "2025-07-01", d.String())

	d, unset, err = parseDeadline("None")
	require.NoError(t, err)
	assert.True(t, unset)
	assert.Nil(t, d)

	_, _, err = parseDeadline("next week")
	var cliErr *clierr.Error
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, clierr.InvalidDate, cliErr.Code)
}

func TestMapError(t *testing.T) {
	cases := map[string]struct {
		err  error
		code string
	}{
		"gig not found":    {fmt.Errorf("gig x: %w", store.ErrNotFound), clierr.GigNotFound},
		"job not found":    {fmt.Errorf("job x: %w", store.ErrNotFound), clierr.JobNotFound},
		"subtask":          {fmt.Errorf("job x: %w", job.ErrSubtaskNotFound), clierr.SubtaskNotFound},
		"validation":       {fmt.Errorf("title: %w", store.ErrValidation), clierr.InvalidInput},
		"config":           {fmt.Errorf("%w: due_soon_days", config.ErrInvalid), clierr.InvalidInput},
		"no identity":      {store.ErrNoIdentity, clierr.NotSignedIn},
		"expired session":  {identity.ErrExpiredToken, clierr.NotSignedIn},
		"remote":           {fmt.Errorf("%w: connection refused", store.ErrRemote), clierr.RemoteFailed},
		"timeout":          {fmt.Errorf("query: %w", context.DeadlineExceeded), clierr.RemoteFailed},
		"backup parse":     {&backup.ParseError{Reason: "jobs: missing"}, clierr.ImportInvalid},
		"already a clierr": {clierr.New(clierr.NoChanges, "no changes specified"), clierr.NoChanges},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var cliErr *clierr.Error
			require.ErrorAs(t, mapError(tc.err), &cliErr)
			assert.Equal(t, tc.code, cliErr.Code)
		})
	}

	plain := errors.New("disk on fire")
	assert.Same(t, plain, mapError(plain))
}

func TestMapErrorImportMessage(t *testing.T) {
	err := mapError(&backup.ParseError{Reason: "unexpected end of JSON input"})
	assert.Equal(t, "Failed to parse backup file: unexpected end of JSON input", err.Error())
}
