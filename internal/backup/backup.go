// Package backup exports gigs and jobs to a portable JSON document and
// imports such documents back into a deck.
package backup

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
)

// Version is the document format version written by Export.
const Version = "1.0"

// ErrParse marks a document that could not be read. Nothing is applied.
var ErrParse = errors.New("failed to parse backup file")

// ParseError carries the reason a document was rejected.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return ErrParse.Error() + ": " + e.Reason }

// Is reports ParseError as ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "cyberdeck-backup.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// Document is a full snapshot of the visible gigs and jobs.
type Document struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Gigs       []gig.Gig `json:"gigs"`
	Jobs       []job.Job `json:"jobs"`
}

// Export builds a document from the given collections.
func Export(gigs []gig.Gig, jobs []job.Job, now time.Time) Document {
	if gigs == nil {
		gigs = []gig.Gig{}
	}
	if jobs == nil {
		jobs = []job.Job{}
	}
	return Document{Version: Version, ExportedAt: now.UTC(), Gigs: gigs, Jobs: jobs}
}

// FileName is the default export file name for the given day.
func FileName(now time.Time) string {
	return "cyberdeck-backup-" + now.Format("2006-01-02") + ".json"
}

// Write encodes doc as indented JSON.
func Write(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Parse reads and checks a document: JSON syntax first, then the document
// schema. Rejections are *ParseError.
func Parse(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, &ParseError{Reason: err.Error()}
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, &ParseError{Reason: err.Error()}
	}

	s, err := compiled()
	if err != nil {
		return Document{}, fmt.Errorf("compile schema: %w", err)
	}
	if err := s.Validate(raw); err != nil {
		return Document{}, &ParseError{Reason: schemaMessage(err)}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, &ParseError{Reason: err.Error()}
	}
	return doc, nil
}

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if schemaErr = compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); schemaErr != nil {
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// schemaMessage reduces a validation error to its first leaf cause.
func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := strings.TrimPrefix(ve.InstanceLocation, "/")
	if loc == "" {
		return ve.Message
	}
	return strings.ReplaceAll(loc, "/", ".") + ": " + ve.Message
}

// Creator is what Apply writes through.
type Creator interface {
	CreateGig(ctx context.Context, d gig.Draft) (gig.Gig, error)
	CreateJob(ctx context.Context, d job.Draft) (job.Job, error)
}

// Result summarizes an import.
type Result struct {
	Gigs    int `json:"gigs"`
	Jobs    int `json:"jobs"`
	Skipped int `json:"skipped"` // jobs whose gig is not in the document
}

// Apply creates every gig and job of doc with fresh ids, pointing jobs at
// their re-created gig. Every record is checked before the first write, so a
// document with an invalid record is rejected as a whole with a *ParseError.
// A failed write stops the import; what was created before stays.
func Apply(ctx context.Context, c Creator, doc Document) (Result, error) {
	gigs, jobs, err := drafts(doc)
	if err != nil {
		return Result{}, err
	}

	res := Result{Skipped: len(doc.Jobs) - len(jobs)}
	ids := make(map[string]string, len(gigs))

	// Documents list newest first; create oldest first so order survives.
	for i := len(gigs) - 1; i >= 0; i-- {
		created, err := c.CreateGig(ctx, gigs[i].Draft)
		if err != nil {
			return res, fmt.Errorf("gig %q: %w", gigs[i].Title, err)
		}
		ids[gigs[i].oldID] = created.ID
		res.Gigs++
	}

	for i := len(jobs) - 1; i >= 0; i-- {
		d := jobs[i]
		d.GigID = ids[d.GigID]
		if _, err := c.CreateJob(ctx, d); err != nil {
			return res, fmt.Errorf("job %q: %w", d.Title, err)
		}
		res.Jobs++
	}
	return res, nil
}

type gigDraft struct {
	gig.Draft
	oldID string
}

// drafts turns the records of doc into validated drafts in document order.
// Jobs whose gig is not in the document are left out; the remaining drafts
// still carry the gig id of the document.
func drafts(doc Document) ([]gigDraft, []job.Draft, error) {
	gigs := make([]gigDraft, 0, len(doc.Gigs))
	known := make(map[string]bool, len(doc.Gigs))
	for i, g := range doc.Gigs {
		d := gig.Draft{
			Title:       g.Title,
			Description: g.Description,
			Status:      g.Status,
			Deadline:    g.Deadline,
		}
		if err := d.Validate(); err != nil {
			return nil, nil, &ParseError{Reason: fmt.Sprintf("gigs.%d (%q): %v", i, g.Title, err)}
		}
		gigs = append(gigs, gigDraft{Draft: d, oldID: g.ID})
		known[g.ID] = true
	}

	jobs := make([]job.Draft, 0, len(doc.Jobs))
	for i, j := range doc.Jobs {
		if !known[j.GigID] {
			continue
		}
		d := job.Draft{
			GigID:       j.GigID,
			Title:       j.Title,
			Description: j.Description,
			Notes:       j.Notes,
			Status:      j.Status,
			Priority:    j.Priority,
			Deadline:    j.Deadline,
			TimeTracked: max(j.TimeTracked, 0),
			Attachments: j.Attachments,
			Subtasks:    j.Subtasks,
		}
		if err := d.Validate(); err != nil {
			return nil, nil, &ParseError{Reason: fmt.Sprintf("jobs.%d (%q): %v", i, j.Title, err)}
		}
		jobs = append(jobs, d)
	}
	return gigs, jobs, nil
}
