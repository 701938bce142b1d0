// Package remote stores gigs and jobs in a relational database through GORM.
// Every statement is scoped to the current identity's user_id.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/store"
)

const sqlitePrefix = "sqlite:"

// Options configures Open.
type Options struct {
	// DSN is a postgres URL/keyword DSN, or "sqlite:<path>".
	DSN         string
	Identity    string
	AutoMigrate bool
	Logger      *log.Logger
}

// Store is the database-backed store.Backend.
type Store struct {
	store.Mirror

	db       *gorm.DB
	identity string
	logger   *log.Logger
}

var _ store.Backend = (*Store)(nil)

// Dialector picks the GORM driver for dsn.
func Dialector(dsn string) gorm.Dialector {
	if path, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		return sqlite.Open(path)
	}
	return postgres.Open(dsn)
}

// Open connects, optionally creates the tables, and loads the identity's rows.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	db, err := gorm.Open(Dialector(opts.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting: %w", store.ErrRemote, err)
	}
	s := &Store{db: db, logger: opts.Logger}
	if opts.AutoMigrate {
		if err := Migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	if err := s.SetIdentity(ctx, opts.Identity); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates or updates the gigs and jobs tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&gigRow{}, &jobRow{}); err != nil {
		return fmt.Errorf("%w: migrating: %w", store.ErrRemote, err)
	}
	return nil
}

// Mode implements store.Backend.
func (s *Store) Mode() store.Mode { return store.ModeRemote }

// Identity implements store.Backend.
func (s *Store) Identity() string { return s.identity }

// Close implements store.Backend.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SetIdentity discards the mirror and re-fetches both tables for userID.
func (s *Store) SetIdentity(ctx context.Context, userID string) error {
	s.identity = userID
	s.Reset(nil, nil)
	if userID == "" {
		return nil
	}
	return s.Reload(ctx)
}

// Reload re-fetches both tables for the current identity, newest first.
func (s *Store) Reload(ctx context.Context) error {
	if s.identity == "" {
		s.Reset(nil, nil)
		return nil
	}
	var gigRows []gigRow
	if err := s.scoped(ctx).Order("created_at desc").Find(&gigRows).Error; err != nil {
		return s.fail("list gigs", err)
	}
	var jobRows []jobRow
	if err := s.scoped(ctx).Order("created_at desc").Find(&jobRows).Error; err != nil {
		return s.fail("list jobs", err)
	}

	gigs := make([]gig.Gig, len(gigRows))
	for i, r := range gigRows {
		gigs[i] = fromGigRow(r)
	}
	jobs := make([]job.Job, len(jobRows))
	for i, r := range jobRows {
		jobs[i] = fromJobRow(r)
	}
	s.Reset(gigs, jobs)
	return nil
}

// CreateGig implements store.Backend.
func (s *Store) CreateGig(ctx context.Context, g gig.Gig) (gig.Gig, error) {
	if s.identity == "" {
		return gig.Gig{}, store.ErrNoIdentity
	}
	g.UserID = s.identity
	row := toGigRow(g)
	if err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Create(&row).Error; err != nil {
		return gig.Gig{}, s.fail("create gig", err)
	}
	created := fromGigRow(row)
	s.PutGig(created)
	return created, nil
}

// UpdateGig implements store.Backend.
func (s *Store) UpdateGig(ctx context.Context, id string, p gig.Patch, now time.Time) (gig.Gig, error) {
	var row gigRow
	res := s.scoped(ctx).Model(&row).Clauses(clause.Returning{}).
		Where("id = ?", id).Updates(gigColumns(p, now))
	if res.Error != nil {
		return gig.Gig{}, s.fail("update gig", res.Error)
	}
	if res.RowsAffected == 0 {
		return gig.Gig{}, fmt.Errorf("gig %s: %w", id, store.ErrNotFound)
	}
	updated := fromGigRow(row)
	s.PutGig(updated)
	return updated, nil
}

// DeleteGig removes the gig and its jobs in one transaction.
func (s *Store) DeleteGig(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND gig_id = ?", s.identity, id).Delete(&jobRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND id = ?", s.identity, id).Delete(&gigRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("gig %s: %w", id, err)
	}
	if err != nil {
		return s.fail("delete gig", err)
	}
	s.RemoveGig(id)
	return nil
}

// CreateJob implements store.Backend.
func (s *Store) CreateJob(ctx context.Context, j job.Job) (job.Job, error) {
	if s.identity == "" {
		return job.Job{}, store.ErrNoIdentity
	}
	j.UserID = s.identity
	row := toJobRow(j)
	if err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Create(&row).Error; err != nil {
		return job.Job{}, s.fail("create job", err)
	}
	created := fromJobRow(row)
	s.PutJob(created)
	return created, nil
}

// UpdateJob implements store.Backend.
func (s *Store) UpdateJob(ctx context.Context, id string, p job.Patch, now time.Time) (job.Job, error) {
	var row jobRow
	res := s.scoped(ctx).Model(&row).Clauses(clause.Returning{}).
		Where("id = ?", id).Updates(jobColumns(p, now))
	if res.Error != nil {
		return job.Job{}, s.fail("update job", res.Error)
	}
	if res.RowsAffected == 0 {
		return job.Job{}, fmt.Errorf("job %s: %w", id, store.ErrNotFound)
	}
	updated := fromJobRow(row)
	s.PutJob(updated)
	return updated, nil
}

// DeleteJob implements store.Backend.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	res := s.scoped(ctx).Where("id = ?", id).Delete(&jobRow{})
	if res.Error != nil {
		return s.fail("delete job", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job %s: %w", id, store.ErrNotFound)
	}
	s.RemoveJob(id)
	return nil
}

// scoped starts a statement filtered to the current identity.
func (s *Store) scoped(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Where("user_id = ?", s.identity)
}

// fail logs a failed request and wraps it as store.ErrRemote.
func (s *Store) fail(op string, err error) error {
	s.logger.Error("remote request failed", "op", op, "user", s.identity, "err", err)
	return fmt.Errorf("%s: %w: %w", op, store.ErrRemote, err)
}
