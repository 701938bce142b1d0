package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cyberdeck-app/cyberdeck/internal/board"
	"github.com/cyberdeck-app/cyberdeck/internal/output"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "overview"},
	Short:   "Show the dashboard",
	Long: `Displays headline counts, completion rate and total tracked time, then the
overdue, upcoming and recently updated jobs and the active gigs with their progress.

Use --watch to keep the display live-updating. Local decks re-render whenever the
data files change (e.g. from another terminal); remote decks poll.
Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

var analyticsCmd = &cobra.Command{
	Use:     "analytics",
	Aliases: []string{"stats"},
	Short:   "Show job charts",
	Long:    `Charts jobs by status, by priority, and per gig for the first five gigs.`,
	Args:    cobra.NoArgs,
	RunE:    runAnalytics,
}

var logCmd = &cobra.Command{
	Use:     "log",
	Aliases: []string{"activity"},
	Short:   "Show recent activity",
	Long:    `Lists the most recent changes made through cyberdeck, newest first.`,
	Args:    cobra.NoArgs,
	RunE:    runLog,
}

func init() {
	dashboardCmd.Flags().BoolP("watch", "w", false, "live-update the dashboard on changes")
	logCmd.Flags().IntP("limit", "n", 20, "number of entries (0 for all)") //nolint:mnd // default page
	rootCmd.AddCommand(dashboardCmd, analyticsCmd, logCmd)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	watch, _ := cmd.Flags().GetBool("watch")

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := renderDashboard(a); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	w, err := a.newWatcher(func() {
		ctx, cancel := a.ctx(cmd.Context())
		defer cancel()
		if err := a.deck.Reload(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: reloading: %v\n", err)
			return
		}
		clearScreen()
		if err := renderDashboard(a); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: rendering dashboard: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer w.Close()

	fmt.Fprintln(os.Stderr, "Watching for changes... (Ctrl+C to stop)")
	w.Run(cmd.Context())
	return nil
}

func renderDashboard(a *app) error {
	d := board.Summarize(a.deck.ListGigs(), a.deck.ListJobs(), a.deck.Now(), a.cfg.DueSoonDays)

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, d)
	case output.FormatCompact:
		output.DashboardCompact(os.Stdout, d)
	default:
		output.DashboardTable(os.Stdout, d, a.gigTitles(), a.deadlines())
	}
	return nil
}

func runAnalytics(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	an := board.Analyze(a.deck.ListGigs(), a.deck.ListJobs())
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, an)
	case output.FormatCompact:
		output.AnalyticsCompact(os.Stdout, an)
	default:
		output.AnalyticsTable(os.Stdout, an)
	}
	return nil
}

func runLog(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := board.ReadLog(a.dataDir, limit)
	if err != nil {
		return err
	}
	if outputFormat() == output.FormatJSON {
		if entries == nil {
			entries = []board.LogEntry{}
		}
		return output.JSON(os.Stdout, entries)
	}
	output.LogTable(os.Stdout, entries, a.deck.Now())
	return nil
}

// clearScreen sends ANSI escape codes to clear the terminal and move the
// cursor to the top-left corner.
func clearScreen() {
	fmt.Fprint(os.Stdout, "\033[2J\033[H")
}
