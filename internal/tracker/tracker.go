// Package tracker implements the per-job stopwatch: a terminal UI that counts
// seconds while running and periodically persists the total.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cyberdeck-app/cyberdeck/internal/job"
)

// DefaultFlushInterval is how much counted time passes between saves.
const DefaultFlushInterval = 10 * time.Second

const tickInterval = time.Second

// Saver persists a job's tracked seconds.
type Saver interface {
	SetTimeTracked(ctx context.Context, id string, seconds int64) (job.Job, error)
}

type view int

const (
	viewTimer view = iota
	viewConfirmReset
)

type keyMap struct {
	Toggle key.Binding
	Reset  key.Binding
	Quit   key.Binding
	Yes    key.Binding
	No     key.Binding
}

var keys = keyMap{
	Toggle: key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "start/pause")),
	Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	Yes:    key.NewBinding(key.WithKeys("y", "Y")),
	No:     key.NewBinding(key.WithKeys("n", "N", "esc", "q")),
}

// Model is the bubbletea model of the stopwatch.
type Model struct {
	ctx        context.Context
	saver      Saver
	job        job.Job
	gigTitle   string
	seconds    int64
	saved      int64
	running    bool
	unsaved    time.Duration
	flushEvery time.Duration
	gen        int // invalidates ticks from a previous run
	view       view
	err        error

	pending  int // saves started but not yet reported
	seq      int
	savedSeq int
	quitting bool
	retried  bool
}

// Option customizes a Model.
type Option func(*Model)

// WithFlushInterval sets how often a running timer persists.
func WithFlushInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.flushEvery = d
		}
	}
}

// WithGigTitle sets the gig title shown above the job.
func WithGigTitle(title string) Option {
	return func(m *Model) { m.gigTitle = title }
}

// New creates a paused timer starting from the job's stored total.
func New(ctx context.Context, saver Saver, j job.Job, opts ...Option) *Model {
	m := &Model{
		ctx:        ctx,
		saver:      saver,
		job:        j,
		seconds:    max(j.TimeTracked, 0),
		saved:      j.TimeTracked,
		flushEvery: DefaultFlushInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Seconds returns the current count.
func (m *Model) Seconds() int64 { return m.seconds }

// Saved returns the last count known to be persisted.
func (m *Model) Saved() int64 { return m.saved }

// Running reports whether the timer is counting.
func (m *Model) Running() bool { return m.running }

// Err returns the last save error, if any.
func (m *Model) Err() error { return m.err }

// Saving reports whether a save is still in flight.
func (m *Model) Saving() bool { return m.pending > 0 }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		return m.handleTick(msg)
	case SavedMsg:
		return m.handleSaved(msg)
	}
	return m, nil
}

func (m *Model) handleSaved(msg SavedMsg) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}
	switch {
	case msg.Err != nil:
		m.err = msg.Err
	case msg.seq >= m.savedSeq:
		m.err = nil
		m.saved = msg.Seconds
		m.savedSeq = msg.seq
	}
	if m.quitting {
		return m, m.finish()
	}
	return m, nil
}

// finish quits once every save has landed and the final count is persisted.
// A failed final save is retried once before giving up.
func (m *Model) finish() tea.Cmd {
	if m.pending > 0 {
		return nil
	}
	if m.saved != m.seconds && !m.retried {
		m.retried = true
		return m.flush()
	}
	return tea.Quit
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.view == viewConfirmReset {
		switch {
		case key.Matches(msg, keys.Yes):
			m.view = viewTimer
			m.running = false
			m.gen++
			m.seconds = 0
			m.unsaved = 0
			return m, m.flush()
		case key.Matches(msg, keys.No):
			m.view = viewTimer
		}
		return m, nil
	}

	if m.quitting {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		if m.running {
			m.running = false
			m.gen++
			return m, m.flush()
		}
		return m, m.finish()
	case key.Matches(msg, keys.Toggle):
		if m.running {
			m.running = false
			m.gen++
			return m, m.flush()
		}
		m.running = true
		m.gen++
		return m, tick(m.gen)
	case key.Matches(msg, keys.Reset):
		m.view = viewConfirmReset
	}
	return m, nil
}

func (m *Model) handleTick(msg TickMsg) (tea.Model, tea.Cmd) {
	if !m.running || msg.gen != m.gen {
		return m, nil
	}
	m.seconds++
	m.unsaved += tickInterval
	if m.unsaved >= m.flushEvery {
		return m, tea.Batch(m.flush(), tick(m.gen))
	}
	return m, tick(m.gen)
}

// flush snapshots the count and persists it in the background. Saves may
// land out of order; Saved tracks the most recently started one that
// succeeded.
func (m *Model) flush() tea.Cmd {
	m.unsaved = 0
	m.pending++
	m.seq++
	ctx, saver, id, secs, seq := m.ctx, m.saver, m.job.ID, m.seconds, m.seq
	return func() tea.Msg {
		_, err := saver.SetTimeTracked(ctx, id, secs)
		return SavedMsg{Seconds: secs, Err: err, seq: seq}
	}
}

// --- Messages ---

// TickMsg advances a running timer by one second.
type TickMsg struct{ gen int }

// SavedMsg reports the outcome of a save.
type SavedMsg struct {
	Seconds int64
	Err     error
	seq     int
}

func tick(gen int) tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return TickMsg{gen: gen} })
}

// --- Styles ---

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
	timerStyle   = lipgloss.NewStyle().Bold(true).Padding(1, 4).Border(lipgloss.RoundedBorder())
	runningStyle = timerStyle.BorderForeground(lipgloss.Color("46"))
	pausedStyle  = timerStyle.BorderForeground(lipgloss.Color("240"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dialogStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("226")).
			Padding(1, 2)
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.view == viewConfirmReset {
		return dialogStyle.Render(errorStyle.Render("Reset timer?") + "\n\n" +
			fmt.Sprintf("  %s will be set to 0:00:00.", m.job.Title) + "\n\n" +
			dimStyle.Render("y:yes  n:no"))
	}

	header := titleStyle.Render(m.job.Title)
	if m.gigTitle != "" {
		header = dimStyle.Render(m.gigTitle+" / ") + header
	}

	style, state := pausedStyle, "paused"
	switch {
	case m.running:
		style, state = runningStyle, "running"
	case m.quitting:
		state = "saving..."
	}

	parts := []string{header, style.Render(FormatDuration(m.seconds)), dimStyle.Render(state)}
	if m.err != nil {
		parts = append(parts, errorStyle.Render("Save failed: "+m.err.Error()))
	}
	parts = append(parts, dimStyle.Render("space:start/pause  r:reset  q:quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
