package job

import (
	"errors"
	"slices"
	"time"
)

// Sentinel errors for embedded collection lookups.
var (
	ErrSubtaskNotFound    = errors.New("subtask not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
)

// WithSubtask returns a copy of subs with a new unchecked subtask appended.
func WithSubtask(subs []Subtask, id, text string) []Subtask {
	out := make([]Subtask, 0, len(subs)+1)
	out = append(out, subs...)
	return append(out, Subtask{ID: id, Text: text})
}

// ToggledSubtask returns a copy of subs with the completed flag of id flipped.
func ToggledSubtask(subs []Subtask, id string) ([]Subtask, error) {
	i := slices.IndexFunc(subs, func(s Subtask) bool { return s.ID == id })
	if i < 0 {
		return nil, ErrSubtaskNotFound
	}
	out := slices.Clone(subs)
	out[i].Completed = !out[i].Completed
	return out, nil
}

// WithoutSubtask returns a copy of subs without id.
func WithoutSubtask(subs []Subtask, id string) ([]Subtask, error) {
	i := slices.IndexFunc(subs, func(s Subtask) bool { return s.ID == id })
	if i < 0 {
		return nil, ErrSubtaskNotFound
	}
	return slices.Delete(slices.Clone(subs), i, i+1), nil
}

// WithAttachment returns a copy of atts with a appended. A zero AddedAt is
// stamped with now.
func WithAttachment(atts []Attachment, a Attachment, now time.Time) []Attachment {
	if a.AddedAt.IsZero() {
		a.AddedAt = now
	}
	out := make([]Attachment, 0, len(atts)+1)
	out = append(out, atts...)
	return append(out, a)
}

// WithoutAttachment returns a copy of atts without the attachment id.
func WithoutAttachment(atts []Attachment, id string) ([]Attachment, error) {
	i := slices.IndexFunc(atts, func(a Attachment) bool { return a.ID == id })
	if i < 0 {
		return nil, ErrAttachmentNotFound
	}
	return slices.Delete(slices.Clone(atts), i, i+1), nil
}

// BackfillAttachmentIDs assigns ids to attachments that were stored without
// one. It reports whether anything changed.
func BackfillAttachmentIDs(j *Job, newID func() string) bool {
	changed := false
	for i := range j.Attachments {
		if j.Attachments[i].ID == "" {
			j.Attachments[i].ID = newID()
			changed = true
		}
	}
	return changed
}
