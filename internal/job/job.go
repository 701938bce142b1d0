// Package job defines jobs, the units of work inside a gig, together with
// their embedded subtasks and attachments.
package job

import (
	"strings"
	"time"

	"github.com/cyberdeck-app/cyberdeck/internal/date"
	"github.com/cyberdeck-app/cyberdeck/internal/validate"
)

// Job statuses.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusBlocked    = "blocked"
	StatusCompleted  = "completed"
)

// Job priorities.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Statuses and Priorities list the enumerations in display order.
var (
	Statuses   = []string{StatusTodo, StatusInProgress, StatusBlocked, StatusCompleted}
	Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
)

// Job is a unit of work belonging to exactly one gig.
type Job struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId,omitempty"`
	GigID       string       `json:"gigId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Notes       string       `json:"info"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	Deadline    *date.Date   `json:"deadline"`
	TimeTracked int64        `json:"timeTracked"`
	Attachments []Attachment `json:"attachments"`
	Subtasks    []Subtask    `json:"subtasks"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Subtask is a checklist item embedded in a job.
type Subtask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Attachment is a named link embedded in a job.
type Attachment struct {
	ID      string    `json:"id"`
	Name    string    `json:"name" validate:"required"`
	URL     string    `json:"url" validate:"required"`
	AddedAt time.Time `json:"addedAt"`
}

// IsCompleted reports whether the job is done.
func (j Job) IsCompleted() bool { return j.Status == StatusCompleted }

// CompletedSubtasks counts the checked subtasks.
func (j Job) CompletedSubtasks() int {
	n := 0
	for _, s := range j.Subtasks {
		if s.Completed {
			n++
		}
	}
	return n
}

// Draft holds the caller-supplied fields of a new job.
type Draft struct {
	GigID       string       `json:"gigId" validate:"required"`
	Title       string       `json:"title" validate:"required,max=200"`
	Description string       `json:"description"`
	Notes       string       `json:"info"`
	Status      string       `json:"status" validate:"omitempty,oneof=todo in-progress blocked completed"`
	Priority    string       `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Deadline    *date.Date   `json:"deadline"`
	TimeTracked int64        `json:"timeTracked" validate:"gte=0"`
	Attachments []Attachment `json:"attachments" validate:"dive"`
	Subtasks    []Subtask    `json:"subtasks"`
}

// Normalize trims the title and fills in defaults.
func (d *Draft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	if d.Status == "" {
		d.Status = StatusTodo
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if d.Attachments == nil {
		d.Attachments = []Attachment{}
	}
	if d.Subtasks == nil {
		d.Subtasks = []Subtask{}
	}
}

// Validate normalizes d and checks it.
func (d *Draft) Validate() error {
	d.Normalize()
	return validate.Struct(d)
}

// Build returns the job described by d with the given identity and timestamps.
func (d Draft) Build(id, userID string, now time.Time) Job {
	return Job{
		ID:          id,
		UserID:      userID,
		GigID:       d.GigID,
		Title:       d.Title,
		Description: d.Description,
		Notes:       d.Notes,
		Status:      d.Status,
		Priority:    d.Priority,
		Deadline:    d.Deadline,
		TimeTracked: d.TimeTracked,
		Attachments: append([]Attachment{}, d.Attachments...),
		Subtasks:    append([]Subtask{}, d.Subtasks...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Patch is a partial update. Nil fields are left unchanged; the slices
// replace the whole embedded collection when non-nil.
type Patch struct {
	Title         *string      `json:"title,omitempty" validate:"omitempty,max=200"`
	Description   *string      `json:"description,omitempty"`
	Notes         *string      `json:"info,omitempty"`
	Status        *string      `json:"status,omitempty" validate:"omitempty,oneof=todo in-progress blocked completed"`
	Priority      *string      `json:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Deadline      *date.Date   `json:"deadline,omitempty"`
	ClearDeadline bool         `json:"-"`
	TimeTracked   *int64       `json:"timeTracked,omitempty" validate:"omitempty,gte=0"`
	Attachments   []Attachment `json:"attachments,omitempty"`
	Subtasks      []Subtask    `json:"subtasks,omitempty"`
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Notes == nil &&
		p.Status == nil && p.Priority == nil && p.Deadline == nil &&
		!p.ClearDeadline && p.TimeTracked == nil &&
		p.Attachments == nil && p.Subtasks == nil
}

// Validate trims the title and checks p.
func (p *Patch) Validate() error {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return validate.Required("title")
		}
		p.Title = &t
	}
	return validate.Struct(p)
}

// Apply merges p into j and stamps UpdatedAt.
func (p Patch) Apply(j *Job, now time.Time) {
	if p.Title != nil {
		j.Title = *p.Title
	}
	if p.Description != nil {
		j.Description = *p.Description
	}
	if p.Notes != nil {
		j.Notes = *p.Notes
	}
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.Priority != nil {
		j.Priority = *p.Priority
	}
	if p.ClearDeadline {
		j.Deadline = nil
	} else if p.Deadline != nil {
		d := *p.Deadline
		j.Deadline = &d
	}
	if p.TimeTracked != nil {
		j.TimeTracked = *p.TimeTracked
	}
	if p.Attachments != nil {
		j.Attachments = append([]Attachment{}, p.Attachments...)
	}
	if p.Subtasks != nil {
		j.Subtasks = append([]Subtask{}, p.Subtasks...)
	}
	j.UpdatedAt = now
}
