package cmd

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cyberdeck-app/cyberdeck/internal/tui"
	"github.com/cyberdeck-app/cyberdeck/internal/watcher"
)

// remotePoll is how often a remote board or dashboard re-reads the database.
const remotePoll = 30 * time.Second

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the job board",
	Long: `Opens a kanban board of jobs by status. h/l and j/k move the cursor,
> and < move the selected job, t opens its timer, d deletes it, r reloads, q quits.

Local boards refresh when the data files change; remote boards poll.`,
	Args: cobra.NoArgs,
	RunE: runBoard,
}

func init() {
	boardCmd.Flags().StringP("gig", "g", "", "only show jobs of this gig")
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []tui.Option{
		tui.WithDueSoonDays(a.cfg.DueSoonDays),
		tui.WithFlushInterval(a.cfg.FlushInterval()),
		tui.WithActivityLog(a.dataDir),
	}
	if ref, _ := cmd.Flags().GetString("gig"); ref != "" {
		g, err := a.gig(ref)
		if err != nil {
			return err
		}
		opts = append(opts, tui.WithGig(g.ID))
	}

	model := tui.NewBoard(cmd.Context(), a.deck, opts...)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(cmd.Context()))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go startTUIWatcher(ctx, a, p)

	_, err = p.Run()
	return err
}

func startTUIWatcher(ctx context.Context, a *app, p *tea.Program) {
	w, err := a.newWatcher(func() {
		p.Send(tui.ReloadMsg{})
	})
	if err != nil {
		a.logger.Warn("live refresh disabled", "err", err)
		return
	}
	defer w.Close()
	w.Run(ctx)
}

// newWatcher watches the local data files, or polls a remote deck.
func (a *app) newWatcher(callback func()) (*watcher.Watcher, error) {
	if len(a.watch) == 0 {
		return watcher.NewPoller(remotePoll, callback, watcher.WithLogger(a.logger)), nil
	}
	return watcher.New(a.watch, callback, watcher.WithLogger(a.logger))
}
