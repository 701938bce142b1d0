package remote

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cyberdeck-app/cyberdeck/internal/date"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
)

// subtaskList is the JSON column holding a job's subtasks.
type subtaskList []job.Subtask

// Scan implements sql.Scanner.
func (l *subtaskList) Scan(value any) error {
	*l = subtaskList{}
	return scanJSON(value, (*[]job.Subtask)(l))
}

// Value implements driver.Valuer.
func (l subtaskList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]job.Subtask(l))
	return string(data), err
}

// attachmentList is the JSON column holding a job's attachments.
type attachmentList []job.Attachment

// Scan implements sql.Scanner.
func (l *attachmentList) Scan(value any) error {
	*l = attachmentList{}
	return scanJSON(value, (*[]job.Attachment)(l))
}

// Value implements driver.Valuer.
func (l attachmentList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]job.Attachment(l))
	return string(data), err
}

func scanJSON(value, dst any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
}

type gigRow struct {
	ID          string     `gorm:"column:id;primaryKey"`
	UserID      string     `gorm:"column:user_id;not null;index"`
	Title       string     `gorm:"column:title;not null"`
	Description string     `gorm:"column:description"`
	Status      string     `gorm:"column:status;not null"`
	Deadline    *time.Time `gorm:"column:deadline;type:date"`
	CreatedAt   time.Time  `gorm:"column:created_at;index"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (gigRow) TableName() string { return "gigs" }

type jobRow struct {
	ID          string         `gorm:"column:id;primaryKey"`
	UserID      string         `gorm:"column:user_id;not null;index"`
	GigID       string         `gorm:"column:gig_id;not null;index"`
	Title       string         `gorm:"column:title;not null"`
	Description string         `gorm:"column:description"`
	Info        string         `gorm:"column:info"`
	Status      string         `gorm:"column:status;not null"`
	Priority    string         `gorm:"column:priority;not null"`
	Deadline    *time.Time     `gorm:"column:deadline;type:date"`
	TimeTracked int64          `gorm:"column:time_tracked;not null;default:0"`
	Attachments attachmentList `gorm:"column:attachments;type:jsonb"`
	Subtasks    subtaskList    `gorm:"column:subtasks;type:jsonb"`
	CreatedAt   time.Time      `gorm:"column:created_at;index"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
}

func (jobRow) TableName() string { return "jobs" }

// Translation between the shared model and table rows happens only here:
// toXRow and xColumns on the way out, fromXRow on the way in.

func toGigRow(g gig.Gig) gigRow {
	return gigRow{
		ID:          g.ID,
		UserID:      g.UserID,
		Title:       g.Title,
		Description: g.Description,
		Status:      g.Status,
		Deadline:    dateColumn(g.Deadline),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func fromGigRow(r gigRow) gig.Gig {
	return gig.Gig{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Deadline:    dateField(r.Deadline),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func gigColumns(p gig.Patch, now time.Time) map[string]any {
	cols := map[string]any{"updated_at": now}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.ClearDeadline {
		cols["deadline"] = nil
	} else if p.Deadline != nil {
		cols["deadline"] = dateColumn(p.Deadline)
	}
	return cols
}

func toJobRow(j job.Job) jobRow {
	return jobRow{
		ID:          j.ID,
		UserID:      j.UserID,
		GigID:       j.GigID,
		Title:       j.Title,
		Description: j.Description,
		Info:        j.Notes,
		Status:      j.Status,
		Priority:    j.Priority,
		Deadline:    dateColumn(j.Deadline),
		TimeTracked: j.TimeTracked,
		Attachments: attachmentList(j.Attachments),
		Subtasks:    subtaskList(j.Subtasks),
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func fromJobRow(r jobRow) job.Job {
	atts := []job.Attachment(r.Attachments)
	if atts == nil {
		atts = []job.Attachment{}
	}
	subs := []job.Subtask(r.Subtasks)
	if subs == nil {
		subs = []job.Subtask{}
	}
	return job.Job{
		ID:          r.ID,
		UserID:      r.UserID,
		GigID:       r.GigID,
		Title:       r.Title,
		Description: r.Description,
		Notes:       r.Info,
		Status:      r.Status,
		Priority:    r.Priority,
		Deadline:    dateField(r.Deadline),
		TimeTracked: r.TimeTracked,
		Attachments: atts,
		Subtasks:    subs,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func jobColumns(p job.Patch, now time.Time) map[string]any {
	cols := map[string]any{"updated_at": now}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Notes != nil {
		cols["info"] = *p.Notes
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.Priority != nil {
		cols["priority"] = *p.Priority
	}
	if p.ClearDeadline {
		cols["deadline"] = nil
	} else if p.Deadline != nil {
		cols["deadline"] = dateColumn(p.Deadline)
	}
	if p.TimeTracked != nil {
		cols["time_tracked"] = *p.TimeTracked
	}
	if p.Attachments != nil {
		cols["attachments"] = attachmentList(p.Attachments)
	}
	if p.Subtasks != nil {
		cols["subtasks"] = subtaskList(p.Subtasks)
	}
	return cols
}

func dateColumn(d *date.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func dateField(t *time.Time) *date.Date {
	if t == nil || t.IsZero() {
		return nil
	}
	d := date.New(t.Year(), t.Month(), t.Day())
	return &d
}
