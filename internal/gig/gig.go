// Package gig defines gigs, the containers that group related jobs.
package gig

import (
	"strings"
	"time"

	"github.com/cyberdeck-app/cyberdeck/internal/date"
	"github.com/cyberdeck-app/cyberdeck/internal/validate"
)

// Gig statuses.
const (
	StatusActive    = "active"
	StatusOnHold    = "on-hold"
	StatusCompleted = "completed"
)

// Statuses lists every gig status in display order.
var Statuses = []string{StatusActive, StatusOnHold, StatusCompleted}

// Gig is a container of related jobs.
type Gig struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Deadline    *date.Date `json:"deadline"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Draft holds the caller-supplied fields of a new gig.
type Draft struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,oneof=active on-hold completed"`
	Deadline    *date.Date `json:"deadline"`
}

// Normalize trims the title and fills in defaults.
func (d *Draft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	if d.Status == "" {
		d.Status = StatusActive
	}
}

// Validate normalizes d and checks it.
func (d *Draft) Validate() error {
	d.Normalize()
	return validate.Struct(d)
}

// Build returns the gig described by d with the given identity and timestamps.
func (d Draft) Build(id, userID string, now time.Time) Gig {
	return Gig{
		ID:          id,
		UserID:      userID,
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		Deadline:    d.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title         *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Description   *string    `json:"description,omitempty"`
	Status        *string    `json:"status,omitempty" validate:"omitempty,oneof=active on-hold completed"`
	Deadline      *date.Date `json:"deadline,omitempty"`
	ClearDeadline bool       `json:"-"`
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Deadline == nil && !p.ClearDeadline
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

// Apply merges p into g and stamps UpdatedAt.
func (p Patch) Apply(g *Gig, now time.Time) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Status != nil {
		g.Status = *p.Status
	}
	if p.ClearDeadline {
		g.Deadline = nil
	} else if p.Deadline != nil {
		d := *p.Deadline
		g.Deadline = &d
	}
	g.UpdatedAt = now
}
