package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/cyberdeck-app/cyberdeck/internal/backup"
	"github.com/cyberdeck-app/cyberdeck/internal/board"
	"github.com/cyberdeck-app/cyberdeck/internal/clierr"
	"github.com/cyberdeck-app/cyberdeck/internal/config"
	"github.com/cyberdeck-app/cyberdeck/internal/date"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/identity"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/logging"
	"github.com/cyberdeck-app/cyberdeck/internal/output"
	"github.com/cyberdeck-app/cyberdeck/internal/store"
	"github.com/cyberdeck-app/cyberdeck/internal/store/local"
	"github.com/cyberdeck-app/cyberdeck/internal/store/remote"
)

// minPrefix is the shortest id prefix accepted in place of a full id.
const minPrefix = 4

// app is what a command needs once config is loaded and the deck is open.
type app struct {
	cfg    *config.Config
	deck   *store.Deck
	logger *log.Logger
	user   identity.User

	// dataDir holds the local files, the activity log and the tutorial flag.
	// It exists in remote mode too.
	dataDir string
	// watch lists the files the local store saves; empty in remote mode.
	watch []string

	logFile io.Closer
}

// openApp loads config, sets up logging and opens the deck for the active mode.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, logFile, err := logging.New(cfg.LogOptions())
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, logFile: logFile}

	a.dataDir = cfg.DataDir()
	if a.dataDir == "" {
		if a.dataDir, err = local.DefaultDir(); err != nil {
			_ = logFile.Close()
			return nil, err
		}
	}

	var backend store.Backend
	if cfg.RemoteConfigured() && !flagLocal {
		backend, err = a.openRemote(ctx)
	} else {
		backend, err = a.openLocal()
	}
	if err != nil {
		_ = logFile.Close()
		return nil, err
	}
	a.deck = store.NewDeck(backend, store.WithLogger(logger))
	logger.Debug("deck open", "mode", a.deck.Mode(), "data", a.dataDir)
	return a, nil
}

func (a *app) openLocal() (store.Backend, error) {
	s, err := local.Open(a.dataDir, a.logger)
	if err != nil {
		return nil, err
	}
	a.watch = s.Paths()
	return s, nil
}

func (a *app) openRemote(ctx context.Context) (store.Backend, error) {
	if err := os.MkdirAll(a.dataDir, 0o750); err != nil { //nolint:mnd // private data dir
		return nil, err
	}
	session := identity.Session{
		Secret: a.cfg.Remote.JWTSecret,
		Token:  os.Getenv(config.EnvSessionToken),
		File:   a.cfg.SessionPath(),
	}
	user, err := session.Current()
	if err != nil {
		a.logger.Warn("no identity", "err", err)
	}
	a.user = user

	ctx, cancel := context.WithTimeout(ctx, a.cfg.RemoteTimeout())
	defer cancel()
	return remote.Open(ctx, remote.Options{
		DSN:         a.cfg.Remote.DatabaseURL,
		Identity:    user.ID,
		AutoMigrate: a.cfg.Remote.AutoMigrate,
		Logger:      a.logger,
	})
}

// Close releases the deck and the log file.
func (a *app) Close() {
	if err := a.deck.Close(); err != nil {
		a.logger.Warn("closing deck", "err", err)
	}
	_ = a.logFile.Close()
}

// ctx bounds remote round trips by remote.timeout.
func (a *app) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if a.deck.Mode() == store.ModeRemote {
		return context.WithTimeout(parent, a.cfg.RemoteTimeout())
	}
	return context.WithCancel(parent)
}

// logActivity appends an entry to the activity log.
func (a *app) logActivity(action, kind, id, detail string) {
	board.LogMutation(a.dataDir, action, kind, id, detail)
}

func (a *app) deadlines() output.Deadlines {
	return output.Deadlines{Now: a.deck.Now(), DueSoonDays: a.cfg.DueSoonDays}
}

func (a *app) gigTitles() map[string]string {
	titles := make(map[string]string)
	for _, g := range a.deck.ListGigs() {
		titles[g.ID] = g.Title
	}
	return titles
}

// gig resolves a full id or a unique id prefix.
func (a *app) gig(ref string) (gig.Gig, error) {
	g, n := resolve(a.deck.ListGigs(), func(g gig.Gig) string { return g.ID }, ref)
	switch {
	case n == 1:
		return g, nil
	case n > 1:
		return gig.Gig{}, clierr.Newf(clierr.InvalidInput, "gig id %q is ambiguous", ref).
			WithDetails(map[string]any{"id": ref, "matches": n})
	}
	return gig.Gig{}, clierr.Newf(clierr.GigNotFound, "gig %s not found", ref).
		WithDetails(map[string]any{"id": ref})
}

// job resolves a full id or a unique id prefix.
func (a *app) job(ref string) (job.Job, error) {
	j, n := resolve(a.deck.ListJobs(), func(j job.Job) string { return j.ID }, ref)
	switch {
	case n == 1:
		return j, nil
	case n > 1:
		return job.Job{}, clierr.Newf(clierr.InvalidInput, "job id %q is ambiguous", ref).
			WithDetails(map[string]any{"id": ref, "matches": n})
	}
	return job.Job{}, clierr.Newf(clierr.JobNotFound, "job %s not found", ref).
		WithDetails(map[string]any{"id": ref})
}

// resolve returns the item whose id equals ref, or the only item whose id
// starts with it, and the number of candidates found.
func resolve[T any](items []T, id func(T) string, ref string) (T, int) {
	var zero, match T
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return zero, 0
	}
	n := 0
	for _, it := range items {
		switch {
		case id(it) == ref:
			return it, 1
		case len(ref) >= minPrefix && strings.HasPrefix(id(it), ref):
			match = it
			n++
		}
	}
	if n != 1 {
		return zero, n
	}
	return match, 1
}

// mapError turns store, backup and identity errors into structured CLI errors.
func mapError(err error) error {
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		return err
	}
	var parseErr *backup.ParseError
	switch {
	case errors.As(err, &parseErr):
		return clierr.New(clierr.ImportInvalid, "Failed to parse backup file: "+parseErr.Reason)
	case errors.Is(err, job.ErrSubtaskNotFound):
		return clierr.New(clierr.SubtaskNotFound, err.Error())
	case errors.Is(err, job.ErrAttachmentNotFound):
		return clierr.New(clierr.AttachmentNotFound, err.Error())
	case errors.Is(err, store.ErrNoIdentity),
		errors.Is(err, identity.ErrMissingToken),
		errors.Is(err, identity.ErrInvalidToken),
		errors.Is(err, identity.ErrExpiredToken):
		return clierr.New(clierr.NotSignedIn, err.Error()+"; run cyberdeck login")
	case errors.Is(err, context.DeadlineExceeded):
		return clierr.New(clierr.RemoteFailed, "remote request timed out")
	case errors.Is(err, store.ErrRemote):
		return clierr.New(clierr.RemoteFailed, err.Error())
	case errors.Is(err, store.ErrNotFound):
		if strings.HasPrefix(err.Error(), "gig ") {
			return clierr.New(clierr.GigNotFound, err.Error())
		}
		return clierr.New(clierr.JobNotFound, err.Error())
	case errors.Is(err, store.ErrValidation), errors.Is(err, config.ErrInvalid):
		return clierr.New(clierr.InvalidInput, err.Error())
	}
	return err
}

// confirm asks a yes/no question on stderr. Without a terminal it refuses
// with CONFIRMATION_REQUIRED unless yes is set.
func confirm(prompt string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, clierr.New(clierr.ConfirmationReq,
			"cannot prompt for confirmation (not a terminal); use --yes")
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer != "y" && answer != "yes" {
		fmt.Fprintln(os.Stderr, "Canceled.")
		return false, nil
	}
	return true, nil
}

// parseDeadline parses a --deadline value. "none" clears.
func parseDeadline(v string) (d *date.Date, unset bool, err error) {
	if strings.EqualFold(v, "none") {
		return nil, true, nil
	}
	parsed, err := date.Parse(v)
	if err != nil {
		return nil, false, job.ValidateDate("deadline", v, err)
	}
	return &parsed, false, nil
}

// parseIDs splits a comma-separated id list, dropping blanks and duplicates.
func parseIDs(arg string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, id := range strings.Split(arg, ",") {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// runBatch executes fn for each ID and collects results. Returns a SilentError
// with exit code 1 if any operation failed (after outputting results).
func runBatch(ids []string, fn func(string) error) error {
	results := make([]output.BatchResult, 0, len(ids))
	anyFailed := false

	for _, id := range ids {
		err := fn(id)
		if err == nil {
			results = append(results, output.BatchResult{ID: id, OK: true})
			continue
		}
		anyFailed = true
		err = mapError(err)
		var cliErr *clierr.Error
		if errors.As(err, &cliErr) {
			results = append(results, output.BatchResult{ID: id, Error: cliErr.Message, Code: cliErr.Code})
		} else {
			results = append(results, output.BatchResult{ID: id, Error: err.Error()})
		}
	}

	if outputFormat() == output.FormatJSON {
		if err := output.JSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		var succeeded int
		for _, r := range results {
			if r.OK {
				succeeded++
			} else {
				fmt.Fprintf(os.Stderr, "Error: %s: %s\n", r.ID, r.Error)
			}
		}
		output.Messagef(os.Stdout, "Completed %d/%d operations", succeeded, len(ids))
	}

	if anyFailed {
		return &clierr.SilentError{Code: 1}
	}
	return nil
}
