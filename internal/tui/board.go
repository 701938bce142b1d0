// Package tui implements the interactive job board: one column per job
// status, with keys to move, delete and time jobs.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cyberdeck-app/cyberdeck/internal/board"
	"github.com/cyberdeck-app/cyberdeck/internal/date"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/tracker"
)

// Deck is the slice of the data facade the board needs.
type Deck interface {
	tracker.Saver
	ListGigs() []gig.Gig
	ListJobs() []job.Job
	UpdateJob(ctx context.Context, id string, p job.Patch) (job.Job, error)
	DeleteJob(ctx context.Context, id string) error
	Reload(ctx context.Context) error
}

type view int

const (
	viewBoard view = iota
	viewConfirmDelete
	viewTracker
)

const (
	keyEsc       = "esc"
	boardChrome  = 2 // blank line + status bar
	errorChrome  = 1
	cardLines    = 4 // border (2) + title + meta
	maxColWidth  = 60
	defaultWidth = 30
)

// Board is the top-level bubbletea model.
type Board struct {
	ctx         context.Context
	deck        Deck
	gigFilter   string
	dueSoonDays int
	flushEvery  time.Duration
	now         func() time.Time
	logDir      string

	gigTitles map[string]string
	columns   []column
	activeCol int
	activeRow int
	view      view
	width     int
	height    int
	err       error

	deleteID    string
	deleteTitle string

	timer    *tracker.Model
	quitting bool
}

// column groups jobs sharing one status.
type column struct {
	status    string
	jobs      []job.Job
	scrollOff int
}

// Option customizes a Board.
type Option func(*Board)

// WithGig limits the board to one gig's jobs.
func WithGig(id string) Option { return func(b *Board) { b.gigFilter = id } }

// WithDueSoonDays sets the due-soon highlight window.
func WithDueSoonDays(days int) Option { return func(b *Board) { b.dueSoonDays = days } }

// WithFlushInterval is passed through to the embedded tracker.
func WithFlushInterval(d time.Duration) Option { return func(b *Board) { b.flushEvery = d } }

// WithActivityLog appends board mutations to the activity log in dir.
func WithActivityLog(dir string) Option { return func(b *Board) { b.logDir = dir } }

// WithClock overrides the clock used for deadline highlighting.
func WithClock(now func() time.Time) Option { return func(b *Board) { b.now = now } }

// NewBoard creates a Board over deck.
func NewBoard(ctx context.Context, deck Deck, opts ...Option) *Board {
	b := &Board{
		ctx:         ctx,
		deck:        deck,
		dueSoonDays: date.DefaultDueSoonDays,
		flushEvery:  tracker.DefaultFlushInterval,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.loadJobs()
	return b
}

// Init implements tea.Model.
func (b *Board) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if b.view == viewTracker {
		return b.updateTracker(msg)
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b.handleKey(msg)
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		return b, nil
	case ReloadMsg:
		if err := b.deck.Reload(b.ctx); err != nil {
			b.err = err
		}
		b.loadJobs()
		return b, nil
	case tracker.SavedMsg:
		if msg.Err != nil {
			b.err = msg.Err
		}
		if b.timer != nil {
			b.timer.Update(msg)
		}
		b.loadJobs()
		if b.quitting && !b.saving() {
			return b, tea.Quit
		}
		return b, nil
	}
	return b, nil
}

func (b *Board) saving() bool { return b.timer != nil && b.timer.Saving() }

// quit leaves the board once the stopwatch has nothing left to persist.
func (b *Board) quit() (tea.Model, tea.Cmd) {
	if b.saving() {
		b.quitting = true
		return b, nil
	}
	return b, tea.Quit
}

// View implements tea.Model.
func (b *Board) View() string {
	switch b.view {
	case viewTracker:
		return b.timer.View() + "\n\n" + dimStyle.Render("esc:back to board")
	case viewConfirmDelete:
		return b.viewDeleteConfirm()
	}
	if b.width == 0 {
		return "Loading..."
	}
	return b.viewBoard()
}

func (b *Board) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))) {
		if b.quitting {
			return b, tea.Quit
		}
		return b.quit()
	}
	if b.quitting {
		return b, nil
	}
	if b.view == viewConfirmDelete {
		return b.handleDeleteKey(msg)
	}

	switch msg.String() {
	case "q", keyEsc:
		return b.quit()
	case "h", "left":
		if b.activeCol > 0 {
			b.activeCol--
			b.clampRow()
		}
	case "l", "right":
		if b.activeCol < len(b.columns)-1 {
			b.activeCol++
			b.clampRow()
		}
	case "j", "down":
		if col := b.currentColumn(); col != nil && b.activeRow < len(col.jobs)-1 {
			b.activeRow++
			b.ensureVisible()
		}
	case "k", "up":
		if b.activeRow > 0 {
			b.activeRow--
			b.ensureVisible()
		}
	case ">", "L":
		b.moveSelected(1)
	case "<", "H":
		b.moveSelected(-1)
	case "d", "D":
		if j := b.selectedJob(); j != nil {
			b.deleteID = j.ID
			b.deleteTitle = j.Title
			b.view = viewConfirmDelete
		}
	case "t", "enter":
		if j := b.selectedJob(); j != nil {
			b.timer = tracker.New(b.ctx, b.deck, *j,
				tracker.WithFlushInterval(b.flushEvery),
				tracker.WithGigTitle(b.gigTitles[j.GigID]))
			b.view = viewTracker
		}
	case "r":
		return b.Update(ReloadMsg{})
	}
	return b, nil
}

// updateTracker forwards messages to the embedded stopwatch. Leaving it
// pauses and saves the count before returning to the board.
func (b *Board) updateTracker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "q", keyEsc, "ctrl+c":
			var cmd tea.Cmd
			if b.timer.Running() {
				_, cmd = b.timer.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			}
			b.view = viewBoard
			return b, cmd
		}
	}
	if saved, ok := msg.(tracker.SavedMsg); ok {
		b.timer.Update(saved)
		b.loadJobs()
		return b, nil
	}
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		b.width, b.height = ws.Width, ws.Height
	}
	_, cmd := b.timer.Update(msg)
	return b, cmd
}

func (b *Board) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if err := b.deck.DeleteJob(b.ctx, b.deleteID); err != nil {
			b.err = fmt.Errorf("deleting job %s: %w", b.deleteTitle, err)
		} else {
			b.logMutation("delete", b.deleteID, b.deleteTitle)
		}
		b.view = viewBoard
		b.loadJobs()
	case "n", "N", keyEsc, "q":
		b.view = viewBoard
	}
	return b, nil
}

// moveSelected shifts the selected job one status left or right and keeps
// the cursor on it.
func (b *Board) moveSelected(delta int) {
	j := b.selectedJob()
	if j == nil {
		return
	}
	next := b.activeCol + delta
	if next < 0 || next >= len(b.columns) {
		return
	}
	status := b.columns[next].status
	updated, err := b.deck.UpdateJob(b.ctx, j.ID, job.Patch{Status: &status})
	if err != nil {
		b.err = fmt.Errorf("moving job %s: %w", j.Title, err)
		return
	}
	b.err = nil
	b.logMutation("move", j.ID, status)
	b.loadJobs()
	b.activeCol = next
	if col := b.currentColumn(); col != nil {
		b.activeRow = max(slices.IndexFunc(col.jobs, func(x job.Job) bool { return x.ID == updated.ID }), 0)
	}
	b.ensureVisible()
}

// loadJobs rebuilds the columns from the deck's mirror.
func (b *Board) loadJobs() {
	b.gigTitles = make(map[string]string)
	for _, g := range b.deck.ListGigs() {
		b.gigTitles[g.ID] = g.Title
	}

	jobs := b.deck.ListJobs()
	if b.gigFilter != "" {
		jobs = board.FilterJobs(jobs, board.JobFilter{GigID: b.gigFilter})
	}
	board.SortJobs(jobs, board.SortPriority, false)

	b.columns = make([]column, len(job.Statuses))
	for i, s := range job.Statuses {
		b.columns[i] = column{status: s}
	}
	for _, j := range jobs {
		if i := slices.Index(job.Statuses, j.Status); i >= 0 {
			b.columns[i].jobs = append(b.columns[i].jobs, j)
		}
	}
	b.clampRow()
}

func (b *Board) logMutation(action, id, detail string) {
	if b.logDir != "" {
		board.LogMutation(b.logDir, action, "job", id, detail)
	}
}

func (b *Board) currentColumn() *column {
	if b.activeCol >= 0 && b.activeCol < len(b.columns) {
		return &b.columns[b.activeCol]
	}
	return nil
}

func (b *Board) selectedJob() *job.Job {
	col := b.currentColumn()
	if col == nil || b.activeRow < 0 || b.activeRow >= len(col.jobs) {
		return nil
	}
	return &col.jobs[b.activeRow]
}

func (b *Board) clampRow() {
	col := b.currentColumn()
	if col == nil || len(col.jobs) == 0 {
		b.activeRow = 0
		return
	}
	if b.activeRow >= len(col.jobs) {
		b.activeRow = len(col.jobs) - 1
	}
	b.ensureVisible()
}

func (b *Board) visibleCards() int {
	h := b.height - boardChrome - 1 // column header
	if b.err != nil {
		h -= errorChrome
	}
	return max(h/cardLines, 1)
}

// ensureVisible scrolls the active column so the selected row is shown.
func (b *Board) ensureVisible() {
	col := b.currentColumn()
	if col == nil {
		return
	}
	n := b.visibleCards()
	switch {
	case b.activeRow >= col.scrollOff+n:
		col.scrollOff = b.activeRow - n + 1
	case b.activeRow < col.scrollOff:
		col.scrollOff = b.activeRow
	}
}

// --- Messages ---

// ReloadMsg is sent by the file watcher to trigger a board refresh.
type ReloadMsg struct{}

// --- Styles ---

var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("236")).
				Padding(0, 1)

	activeColumnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("226")).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeCardStyle = cardStyle.BorderForeground(lipgloss.Color("226"))

	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	overdueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dueSoonStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	priorityColors = map[string]lipgloss.Color{
		job.PriorityLow:      "245",
		job.PriorityMedium:   "33",
		job.PriorityHigh:     "214",
		job.PriorityCritical: "196",
	}

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("226")).
			Padding(1, 2)
)

// --- View rendering ---

func (b *Board) viewBoard() string {
	width := b.columnWidth()
	rendered := make([]string, len(b.columns))
	for i, col := range b.columns {
		rendered[i] = b.renderColumn(i, col, width)
	}
	boardView := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	target := b.height - boardChrome
	if b.err != nil {
		target -= errorChrome
	}
	if target > 0 {
		lines := strings.Split(boardView, "\n")
		if len(lines) > target {
			lines = lines[:target]
		}
		boardView = strings.Join(lines, "\n") + strings.Repeat("\n", target-len(lines))
	}
	return lipgloss.JoinVertical(lipgloss.Left, boardView, "", b.renderStatusBar())
}

func (b *Board) columnWidth() int {
	if b.width == 0 || len(b.columns) == 0 {
		return defaultWidth
	}
	return min(b.width/len(b.columns), maxColWidth)
}

func (b *Board) renderColumn(idx int, col column, width int) string {
	header := truncate(fmt.Sprintf("%s (%d)", col.status, len(col.jobs)), width-2) //nolint:mnd // padding
	style := columnHeaderStyle
	if idx == b.activeCol {
		style = activeColumnHeaderStyle
	}
	parts := []string{style.Width(width).Render(header)}

	if len(col.jobs) == 0 {
		parts = append(parts, dimStyle.Width(width).Render("  (empty)"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	start := min(col.scrollOff, len(col.jobs))
	end := min(start+b.visibleCards(), len(col.jobs))
	if start > 0 {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("  ↑ %d more", start)))
	}
	for row := start; row < end; row++ {
		active := idx == b.activeCol && row == b.activeRow
		parts = append(parts, b.renderCard(col.jobs[row], active, width))
	}
	if end < len(col.jobs) {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("  ↓ %d more", len(col.jobs)-end)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (b *Board) renderCard(j job.Job, active bool, width int) string {
	const chrome = 4 // border (2) + padding (2)
	inner := max(width-chrome, 1)

	title := lipgloss.NewStyle().Foreground(priorityColors[j.Priority]).Render(truncate(j.Title, inner))

	meta := truncate(b.gigTitles[j.GigID], inner/2) //nolint:mnd // gig gets half the meta line
	if j.Deadline != nil {
		dl := j.Deadline.Display()
		switch {
		case j.IsCompleted():
			meta += "  " + dimStyle.Render(dl)
		case date.OverdueAt(j.Deadline, b.now()):
			meta += "  " + overdueStyle.Render(dl)
		case date.DueSoonAt(j.Deadline, b.now(), b.dueSoonDays):
			meta += "  " + dueSoonStyle.Render(dl)
		default:
			meta += "  " + dimStyle.Render(dl)
		}
	}
	if j.TimeTracked > 0 {
		meta += "  " + dimStyle.Render(tracker.FormatDuration(j.TimeTracked))
	}

	style := cardStyle
	if active {
		style = activeCardStyle
	}
	return style.Width(width - 2).Render(title + "\n" + meta) //nolint:mnd // border width
}

func (b *Board) renderStatusBar() string {
	total := 0
	for _, c := range b.columns {
		total += len(c.jobs)
	}
	status := truncate(fmt.Sprintf(" cyberdeck | %d jobs | </>:move t:track d:del r:reload q:quit", total), max(b.width, 4))
	if b.err != nil {
		return errorStyle.Render(truncate("Error: "+b.err.Error(), max(b.width, 4))) + "\n" + statusBarStyle.Render(status)
	}
	return statusBarStyle.Render(status)
}

func (b *Board) viewDeleteConfirm() string {
	return dialogStyle.Render(errorStyle.Render("Delete job?") + "\n\n" +
		"  " + b.deleteTitle + "\n\n" +
		dimStyle.Render("y:yes  n:no"))
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 { //nolint:mnd // minimum length for truncation
		maxLen = 4
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	target := min(maxLen-3, len(runes)) //nolint:mnd // room for "..."
	for target > 0 && lipgloss.Width(string(runes[:target])) > maxLen-3 {
		target--
	}
	return string(runes[:target]) + "..."
}
