package store

import (
	"slices"
	"sync"

	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
)

// Mirror is the in-memory copy of both collections, newest first. Backends
// embed it to satisfy the read half of Backend.
type Mirror struct {
	mu   sync.RWMutex
	gigs []gig.Gig
	jobs []job.Job
}

// Gigs returns a copy of the gig collection.
func (m *Mirror) Gigs() []gig.Gig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.gigs)
}

// Jobs returns a copy of the job collection.
func (m *Mirror) Jobs() []job.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.jobs)
}

// Gig looks up a gig by id.
func (m *Mirror) Gig(id string) (gig.Gig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.gigIndex(id); i >= 0 {
		return m.gigs[i], true
	}
	return gig.Gig{}, false
}

// Job looks up a job by id.
func (m *Mirror) Job(id string) (job.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.jobIndex(id); i >= 0 {
		return m.jobs[i], true
	}
	return job.Job{}, false
}

// Reset replaces both collections.
func (m *Mirror) Reset(gigs []gig.Gig, jobs []job.Job) {
	if gigs == nil {
		gigs = []gig.Gig{}
	}
	if jobs == nil {
		jobs = []job.Job{}
	}
	m.mu.Lock()
	m.gigs, m.jobs = gigs, jobs
	m.mu.Unlock()
}

// PutGig replaces the gig with the same id, or prepends g when it is new.
func (m *Mirror) PutGig(g gig.Gig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gigs = PutGig(m.gigs, g)
}

// PutJob replaces the job with the same id, or prepends j when it is new.
func (m *Mirror) PutJob(j job.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = PutJob(m.jobs, j)
}

// RemoveGig drops the gig and every job referencing it.
func (m *Mirror) RemoveGig(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gigs, m.jobs = WithoutGig(m.gigs, m.jobs, id)
}

// RemoveJob drops one job.
func (m *Mirror) RemoveJob(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = WithoutJob(m.jobs, id)
}

func (m *Mirror) gigIndex(id string) int {
	return slices.IndexFunc(m.gigs, func(g gig.Gig) bool { return g.ID == id })
}

func (m *Mirror) jobIndex(id string) int {
	return slices.IndexFunc(m.jobs, func(j job.Job) bool { return j.ID == id })
}

// PutGig returns a new collection with g replacing its namesake or prepended.
func PutGig(gigs []gig.Gig, g gig.Gig) []gig.Gig {
	if i := slices.IndexFunc(gigs, func(x gig.Gig) bool { return x.ID == g.ID }); i >= 0 {
		out := slices.Clone(gigs)
		out[i] = g
		return out
	}
	return append([]gig.Gig{g}, gigs...)
}

// PutJob returns a new collection with j replacing its namesake or prepended.
func PutJob(jobs []job.Job, j job.Job) []job.Job {
	if i := slices.IndexFunc(jobs, func(x job.Job) bool { return x.ID == j.ID }); i >= 0 {
		out := slices.Clone(jobs)
		out[i] = j
		return out
	}
	return append([]job.Job{j}, jobs...)
}

// WithoutGig returns new collections without gig id and its jobs.
func WithoutGig(gigs []gig.Gig, jobs []job.Job, id string) ([]gig.Gig, []job.Job) {
	keptGigs := make([]gig.Gig, 0, len(gigs))
	for _, g := range gigs {
		if g.ID != id {
			keptGigs = append(keptGigs, g)
		}
	}
	keptJobs := make([]job.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.GigID != id {
			keptJobs = append(keptJobs, j)
		}
	}
	return keptGigs, keptJobs
}

// WithoutJob returns a new collection without job id.
func WithoutJob(jobs []job.Job, id string) []job.Job {
	kept := make([]job.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.ID != id {
			kept = append(kept, j)
		}
	}
	return kept
}
