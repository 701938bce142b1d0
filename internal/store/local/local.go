// Package local stores gigs and jobs as whole-collection JSON files in the
// user's data directory.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cyberdeck-app/cyberdeck/internal/filelock"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/store"
)

// File names inside the data directory.
const (
	GigsFile     = "cyberdeck-gigs.json"
	JobsFile     = "cyberdeck-jobs.json"
	TutorialFlag = "cyberdeck-tutorial-completed"
)

const (
	dirMode  = 0o750
	fileMode = 0o600
	appName  = "cyberdeck"
)

// Store is the file-backed store.Backend.
type Store struct {
	store.Mirror

	dir    string
	logger *log.Logger

	// write serializes mutations within this process; filelock covers
	// other processes.
	write sync.Mutex
}

var _ store.Backend = (*Store)(nil)

// DefaultDir returns $XDG_DATA_HOME/cyberdeck, falling back to
// ~/.local/share/cyberdeck.
func DefaultDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, appName), nil
}

// Open creates dir if needed and loads both collections from it.
func Open(dir string, logger *log.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	s := &Store{dir: dir, logger: logger}
	if err := s.Reload(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// Paths returns the files the store reads, for change watching.
func (s *Store) Paths() []string {
	return []string{s.path(GigsFile), s.path(JobsFile)}
}

// Mode implements store.Backend.
func (s *Store) Mode() store.Mode { return store.ModeLocal }

// Identity implements store.Backend. Local data has no owner.
func (s *Store) Identity() string { return "" }

// SetIdentity implements store.Backend. Local data is not scoped.
func (s *Store) SetIdentity(context.Context, string) error { return nil }

// Close implements store.Backend.
func (s *Store) Close() error { return nil }

// Reload re-reads both files.
func (s *Store) Reload(context.Context) error {
	gigs, jobs, err := s.read()
	if err != nil {
		return err
	}
	s.Reset(gigs, jobs)
	return nil
}

// CreateGig implements store.Backend.
func (s *Store) CreateGig(_ context.Context, g gig.Gig) (gig.Gig, error) {
	err := s.mutate(func(gigs []gig.Gig, jobs []job.Job) ([]gig.Gig, []job.Job, error) {
		return store.PutGig(gigs, g), jobs, nil
	})
	if err != nil {
		return gig.Gig{}, err
	}
	return g, nil
}

// UpdateGig implements store.Backend.
func (s *Store) UpdateGig(_ context.Context, id string, p gig.Patch, now time.Time) (gig.Gig, error) {
	var updated gig.Gig
	err := s.mutate(func(gigs []gig.Gig, jobs []job.Job) ([]gig.Gig, []job.Job, error) {
		for _, g := range gigs {
			if g.ID == id {
				p.Apply(&g, now)
				updated = g
				return store.PutGig(gigs, g), jobs, nil
			}
		}
		return nil, nil, fmt.Errorf("gig %s: %w", id, store.ErrNotFound)
	})
	return updated, err
}

// DeleteGig implements store.Backend.
func (s *Store) DeleteGig(_ context.Context, id string) error {
	return s.mutate(func(gigs []gig.Gig, jobs []job.Job) ([]gig.Gig, []job.Job, error) {
		g, j := store.WithoutGig(gigs, jobs, id)
		return g, j, nil
	})
}

// CreateJob implements store.Backend.
func (s *Store) CreateJob(_ context.Context, j job.Job) (job.Job, error) {
	err := s.mutate(func(gigs []gig.Gig, jobs []job.Job) ([]gig.Gig, []job.Job, error) {
		return gigs, store.PutJob(jobs, j), nil
	})
	if err != nil {
		return job.Job{}, err
	}
	return j, nil
}

// UpdateJob implements store.Backend.
func (s *Store) UpdateJob(_ context.Context, id string, p job.Patch, now time.Time) (job.Job, error) {
	var updated job.Job
	err := s.mutate(func(gigs []gig.Gig, jobs []job.Job) ([]gig.Gig, []job.Job, error) {
		for _, j := range jobs {
			if j.ID == id {
				p.Apply(&j, now)
				updated = j
				return gigs, store.PutJob(jobs, j), nil
			}
		}
		return nil, nil, fmt.Errorf("job %s: %w", id, store.ErrNotFound)
	})
	return updated, err
}

// DeleteJob implements store.Backend.
func (s *Store) DeleteJob(_ context.Context, id string) error {
	return s.mutate(func(gigs []gig.Gig, jobs []job.Job) ([]gig.Gig, []job.Job, error) {
		return gigs, store.WithoutJob(jobs, id), nil
	})
}

// mutate re-reads the files under the lock, derives new collections with
// fn, writes them back whole and only then swaps the mirror. Another
// process's writes since our last read are therefore kept.
func (s *Store) mutate(fn func([]gig.Gig, []job.Job) ([]gig.Gig, []job.Job, error)) error {
	s.write.Lock()
	defer s.write.Unlock()

	return filelock.With(s.path(JobsFile), func() error {
		gigs, jobs, err := s.read()
		if err != nil {
			return err
		}
		nextGigs, nextJobs, err := fn(gigs, jobs)
		if err != nil {
			return err
		}
		if err := writeBoth(s.path(GigsFile), nextGigs, s.path(JobsFile), nextJobs); err != nil {
			return err
		}
		s.Reset(nextGigs, nextJobs)
		return nil
	})
}

func (s *Store) read() ([]gig.Gig, []job.Job, error) {
	var gigs []gig.Gig
	if err := s.readCollection(GigsFile, &gigs); err != nil {
		return nil, nil, err
	}
	var jobs []job.Job
	if err := s.readCollection(JobsFile, &jobs); err != nil {
		return nil, nil, err
	}
	for i := range jobs {
		job.BackfillAttachmentIDs(&jobs[i], store.NewID)
		if jobs[i].Subtasks == nil {
			jobs[i].Subtasks = []job.Subtask{}
		}
		if jobs[i].Attachments == nil {
			jobs[i].Attachments = []job.Attachment{}
		}
	}
	return gigs, jobs, nil
}

// readCollection decodes one file into v. A missing or unparseable file
// leaves v empty; only I/O errors other than absence are returned.
func (s *Store) readCollection(name string, v any) error {
	data, err := os.ReadFile(s.path(name)) //nolint:gosec // path inside the data dir
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("ignoring unparseable data file", "file", name, "err", err)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// rename is swapped out by tests to simulate a failing filesystem.
var rename = os.Rename

// writeBoth stages both collections in temp files and only then moves them
// into place, jobs first. A failure before the first rename changes nothing;
// a failure between the renames can leave a gig without its jobs but never
// a job without its gig.
func writeBoth(gigsPath string, gigs []gig.Gig, jobsPath string, jobs []job.Job) error {
	gigsTmp, err := stage(gigsPath, gigs)
	if err != nil {
		return err
	}
	jobsTmp, err := stage(jobsPath, jobs)
	if err != nil {
		_ = os.Remove(gigsTmp)
		return err
	}
	if err := rename(jobsTmp, jobsPath); err != nil {
		_ = os.Remove(jobsTmp)
		_ = os.Remove(gigsTmp)
		return fmt.Errorf("writing %s: %w", filepath.Base(jobsPath), err)
	}
	if err := rename(gigsTmp, gigsPath); err != nil {
		_ = os.Remove(gigsTmp)
		return fmt.Errorf("writing %s: %w", filepath.Base(gigsPath), err)
	}
	return nil
}

// stage writes the JSON encoding of v to a temp file next to path and
// returns its name.
func stage(path string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmp.Name(), fileMode); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
