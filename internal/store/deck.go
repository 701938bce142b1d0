package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/validate"
)

// Deck is the data-access facade used by every command and view. It is
// built once per process around the active Backend and passed explicitly.
type Deck struct {
	backend Backend
	now     func() time.Time
	newID   func() string
	logger  *log.Logger
}

// Option customizes a Deck.
type Option func(*Deck)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Deck) { d.now = now }
}

// WithIDs overrides id generation.
func WithIDs(newID func() string) Option {
	return func(d *Deck) { d.newID = newID }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Deck) { d.logger = l }
}

// NewDeck wraps b.
func NewDeck(b Backend, opts ...Option) *Deck {
	d := &Deck{
		backend: b,
		now:     time.Now,
		newID:   NewID,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Mode reports which backend is active.
func (d *Deck) Mode() Mode { return d.backend.Mode() }

// Identity returns the user id the remote backend is scoped to, or "".
func (d *Deck) Identity() string { return d.backend.Identity() }

// Now returns the deck's current time.
func (d *Deck) Now() time.Time { return d.now() }

// Close releases backend resources.
func (d *Deck) Close() error { return d.backend.Close() }

// SetIdentity switches the remote backend to another user.
func (d *Deck) SetIdentity(ctx context.Context, userID string) error {
	return d.backend.SetIdentity(ctx, userID)
}

// Reload re-reads both collections from the backend.
func (d *Deck) Reload(ctx context.Context) error {
	return d.backend.Reload(ctx)
}

// ListGigs returns every gig, newest first.
func (d *Deck) ListGigs() []gig.Gig { return d.backend.Gigs() }

// GetGigByID looks a gig up in memory.
func (d *Deck) GetGigByID(id string) (gig.Gig, bool) { return d.backend.Gig(id) }

// CreateGig validates draft and stores a new gig.
func (d *Deck) CreateGig(ctx context.Context, draft gig.Draft) (gig.Gig, error) {
	if err := draft.Validate(); err != nil {
		return gig.Gig{}, err
	}
	g := draft.Build(d.newID(), d.backend.Identity(), d.now())
	created, err := d.backend.CreateGig(ctx, g)
	if err != nil {
		return gig.Gig{}, err
	}
	d.logger.Debug("gig created", "id", created.ID, "mode", d.Mode())
	return created, nil
}

// UpdateGig merges p into gig id. An unknown id yields ErrNotFound and no write.
func (d *Deck) UpdateGig(ctx context.Context, id string, p gig.Patch) (gig.Gig, error) {
	if err := p.Validate(); err != nil {
		return gig.Gig{}, err
	}
	if _, ok := d.backend.Gig(id); !ok {
		return gig.Gig{}, fmt.Errorf("gig %s: %w", id, ErrNotFound)
	}
	return d.backend.UpdateGig(ctx, id, p, d.now())
}

// DeleteGig removes gig id and all of its jobs.
func (d *Deck) DeleteGig(ctx context.Context, id string) error {
	if _, ok := d.backend.Gig(id); !ok {
		return fmt.Errorf("gig %s: %w", id, ErrNotFound)
	}
	if err := d.backend.DeleteGig(ctx, id); err != nil {
		return err
	}
	d.logger.Debug("gig deleted", "id", id)
	return nil
}

// ListJobs returns every job, newest first.
func (d *Deck) ListJobs() []job.Job { return d.backend.Jobs() }

// GetJobByID looks a job up in memory.
func (d *Deck) GetJobByID(id string) (job.Job, bool) { return d.backend.Job(id) }

// ListJobsByGigID returns the jobs of one gig, newest first.
func (d *Deck) ListJobsByGigID(gigID string) []job.Job {
	all := d.backend.Jobs()
	out := make([]job.Job, 0, len(all))
	for _, j := range all {
		if j.GigID == gigID {
			out = append(out, j)
		}
	}
	return out
}

// CreateJob validates draft and stores a new job. Attachments in the draft
// without an id receive one.
func (d *Deck) CreateJob(ctx context.Context, draft job.Draft) (job.Job, error) {
	if err := draft.Validate(); err != nil {
		return job.Job{}, err
	}
	j := draft.Build(d.newID(), d.backend.Identity(), d.now())
	job.BackfillAttachmentIDs(&j, d.newID)
	created, err := d.backend.CreateJob(ctx, j)
	if err != nil {
		return job.Job{}, err
	}
	d.logger.Debug("job created", "id", created.ID, "gig", created.GigID)
	return created, nil
}

// UpdateJob merges p into job id. An unknown id yields ErrNotFound and no write.
func (d *Deck) UpdateJob(ctx context.Context, id string, p job.Patch) (job.Job, error) {
	if err := p.Validate(); err != nil {
		return job.Job{}, err
	}
	if _, ok := d.backend.Job(id); !ok {
		return job.Job{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return d.backend.UpdateJob(ctx, id, p, d.now())
}

// DeleteJob removes job id.
func (d *Deck) DeleteJob(ctx context.Context, id string) error {
	if _, ok := d.backend.Job(id); !ok {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return d.backend.DeleteJob(ctx, id)
}

// SetTimeTracked overwrites the tracked seconds of job id.
func (d *Deck) SetTimeTracked(ctx context.Context, id string, seconds int64) (job.Job, error) {
	return d.UpdateJob(ctx, id, job.Patch{TimeTracked: &seconds})
}

// AddSubtask appends an unchecked subtask to job jobID.
func (d *Deck) AddSubtask(ctx context.Context, jobID, text string) (job.Job, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return job.Job{}, validate.Required("text")
	}
	j, err := d.lookupJob(jobID)
	if err != nil {
		return job.Job{}, err
	}
	return d.UpdateJob(ctx, jobID, job.Patch{Subtasks: job.WithSubtask(j.Subtasks, d.newID(), text)})
}

// ToggleSubtask flips the completed flag of one subtask.
func (d *Deck) ToggleSubtask(ctx context.Context, jobID, subtaskID string) (job.Job, error) {
	j, err := d.lookupJob(jobID)
	if err != nil {
		return job.Job{}, err
	}
	subs, err := job.ToggledSubtask(j.Subtasks, subtaskID)
	if err != nil {
		return job.Job{}, err
	}
	return d.UpdateJob(ctx, jobID, job.Patch{Subtasks: subs})
}

// DeleteSubtask removes one subtask.
func (d *Deck) DeleteSubtask(ctx context.Context, jobID, subtaskID string) (job.Job, error) {
	j, err := d.lookupJob(jobID)
	if err != nil {
		return job.Job{}, err
	}
	subs, err := job.WithoutSubtask(j.Subtasks, subtaskID)
	if err != nil {
		return job.Job{}, err
	}
	return d.UpdateJob(ctx, jobID, job.Patch{Subtasks: subs})
}

// AddAttachment appends a to job jobID, assigning it an id.
func (d *Deck) AddAttachment(ctx context.Context, jobID string, a job.Attachment) (job.Job, error) {
	a.ID = d.newID()
	a.Name = strings.TrimSpace(a.Name)
	a.URL = strings.TrimSpace(a.URL)
	if err := validate.Struct(a); err != nil {
		return job.Job{}, err
	}
	j, err := d.lookupJob(jobID)
	if err != nil {
		return job.Job{}, err
	}
	atts := job.WithAttachment(j.Attachments, a, d.now())
	return d.UpdateJob(ctx, jobID, job.Patch{Attachments: atts})
}

// DeleteAttachment removes the attachment with the given id.
func (d *Deck) DeleteAttachment(ctx context.Context, jobID, attachmentID string) (job.Job, error) {
	j, err := d.lookupJob(jobID)
	if err != nil {
		return job.Job{}, err
	}
	atts, err := job.WithoutAttachment(j.Attachments, attachmentID)
	if err != nil {
		return job.Job{}, err
	}
	return d.UpdateJob(ctx, jobID, job.Patch{Attachments: atts})
}

// ClearAll deletes every gig and job visible to the current identity.
// Deletion stops at the first failure.
func (d *Deck) ClearAll(ctx context.Context) error {
	for _, g := range d.backend.Gigs() {
		if err := d.backend.DeleteGig(ctx, g.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	for _, j := range d.backend.Jobs() {
		if err := d.backend.DeleteJob(ctx, j.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	d.logger.Info("all data cleared", "mode", d.Mode())
	return nil
}

func (d *Deck) lookupJob(id string) (job.Job, error) {
	j, ok := d.backend.Job(id)
	if !ok {
		return job.Job{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return j, nil
}
