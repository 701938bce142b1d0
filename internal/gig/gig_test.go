package gig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberdeck-app/cyberdeck/internal/date"
	"github.com/cyberdeck-app/cyberdeck/internal/validate"
)

func TestDraft(t *testing.T) {
	d := Draft{Title: " Launch "}
	require.NoError(t, d.Validate())
	g := d.Build("g1", "user-1", time.Unix(10, 0))
	assert.Equal(t, "Launch", g.Title)
	assert.Equal(t, StatusActive, g.Status)
	assert.Equal(t, "user-1", g.UserID)
	assert.Nil(t, g.Deadline)

	empty := Draft{Title: "\t"}
	assert.ErrorIs(t, empty.Validate(), validate.ErrInvalid)

	bad := Draft{Title: "x", Status: "paused"}
	assert.ErrorIs(t, bad.Validate(), validate.ErrInvalid)
}

func TestPatch(t *testing.T) {
	due := date.New(2025, time.March, 1)
	g := Gig{ID: "g1", Title: "Launch", Status: StatusActive, Deadline: &due}

	assert.True(t, Patch{}.Empty())

	blank := "  "
	p := Patch{Title: &blank}
	assert.ErrorIs(t, p.Validate(), validate.ErrInvalid)

	status := StatusOnHold
	p = Patch{Status: &status, ClearDeadline: true}
	require.NoError(t, p.Validate())
	p.Apply(&g, time.Unix(99, 0))

	assert.Equal(t, StatusOnHold, g.Status)
	assert.Nil(t, g.Deadline)
	assert.Equal(t, "Launch", g.Title)
	assert.Equal(t, time.Unix(99, 0), g.UpdatedAt)
}
