// Package store is the data-access layer. A Deck fronts one Backend, either
// the local file store or the remote database store, and exposes the same
// operations whichever is active.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/validate"
)

// Mode names the active backend.
type Mode string

// Backend modes.
const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// Sentinel errors.
var (
	ErrNotFound   = errors.New("not found")
	ErrRemote     = errors.New("remote request failed")
	ErrNoIdentity = errors.New("not signed in")
	ErrValidation = validate.ErrInvalid
)

// Backend persists gigs and jobs and keeps an in-memory mirror of them.
// Reads never perform I/O. After a mutating call returns without error the
// mirror reflects it; on error the mirror is unchanged.
type Backend interface {
	Mode() Mode
	Identity() string

	Gigs() []gig.Gig
	Jobs() []job.Job
	Gig(id string) (gig.Gig, bool)
	Job(id string) (job.Job, bool)

	CreateGig(ctx context.Context, g gig.Gig) (gig.Gig, error)
	UpdateGig(ctx context.Context, id string, p gig.Patch, now time.Time) (gig.Gig, error)
	DeleteGig(ctx context.Context, id string) error

	CreateJob(ctx context.Context, j job.Job) (job.Job, error)
	UpdateJob(ctx context.Context, id string, p job.Patch, now time.Time) (job.Job, error)
	DeleteJob(ctx context.Context, id string) error

	// SetIdentity discards the mirror and reloads it for userID. An empty
	// userID clears the mirror.
	SetIdentity(ctx context.Context, userID string) error
	// Reload re-reads both collections from the durable medium.
	Reload(ctx context.Context) error
	Close() error
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}
