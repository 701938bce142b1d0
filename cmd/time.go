package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cyberdeck-app/cyberdeck/internal/clierr"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/output"
	"github.com/cyberdeck-app/cyberdeck/internal/store"
	"github.com/cyberdeck-app/cyberdeck/internal/tracker"
)

var jobTimeCmd = &cobra.Command{
	Use:   "time JOB [HH:MM:SS|MM:SS|MINUTES]",
	Short: "Show or set a job's tracked time",
	Long: `Without a duration, prints the tracked time of a job. With one, replaces it.
A bare number is minutes. --reset sets the time to zero after confirmation.`,
	Args: cobra.RangeArgs(1, 2), //nolint:mnd // job and optional duration
	RunE: runJobTime,
}

var jobTrackCmd = &cobra.Command{
	Use:     "track JOB",
	Aliases: []string{"timer"},
	Short:   "Run a live timer for a job",
	Long: `Opens a stopwatch for the job. space starts and pauses, r resets, q quits.
While running, the total is saved every tracker.flush_interval and on pause or quit.`,
	Args: cobra.ExactArgs(1),
	RunE: runJobTrack,
}

func init() {
	jobTimeCmd.Flags().Bool("reset", false, "reset tracked time to zero")
	jobTimeCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	jobCmd.AddCommand(jobTimeCmd, jobTrackCmd)
}

func runJobTime(cmd *cobra.Command, args []string) error {
	reset, _ := cmd.Flags().GetBool("reset")
	yes, _ := cmd.Flags().GetBool("yes")
	if reset && len(args) == 2 { //nolint:mnd // duration given
		return clierr.New(clierr.InvalidInput, "give either a duration or --reset, not both")
	}

	var seconds int64
	if len(args) == 2 { //nolint:mnd // duration given
		var err error
		if seconds, err = tracker.ParseManual(args[1]); err != nil {
			return err
		}
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	j, err := a.job(args[0])
	if err != nil {
		return err
	}

	if !reset && len(args) == 1 {
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, map[string]any{"id": j.ID, "timeTracked": j.TimeTracked})
		}
		output.Messagef(os.Stdout, "%s: %s", j.Title, output.FormatDuration(j.TimeTracked))
		return nil
	}

	if reset {
		ok, err := confirm(fmt.Sprintf("Reset tracked time of %q (%s)?", j.Title, output.FormatDuration(j.TimeTracked)), yes)
		if err != nil || !ok {
			return err
		}
	}

	ctx, cancel := a.ctx(cmd.Context())
	defer cancel()
	updated, err := a.deck.SetTimeTracked(ctx, j.ID, seconds)
	if err != nil {
		return err
	}
	a.logActivity("time", "job", j.ID, output.FormatDuration(j.TimeTracked)+" -> "+output.FormatDuration(seconds))

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, updated)
	}
	output.Messagef(os.Stdout, "%s: %s", updated.Title, output.FormatDuration(updated.TimeTracked))
	return nil
}

func runJobTrack(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	j, err := a.job(args[0])
	if err != nil {
		return err
	}
	opts := []tracker.Option{tracker.WithFlushInterval(a.cfg.FlushInterval())}
	if g, ok := a.deck.GetGigByID(j.GigID); ok {
		opts = append(opts, tracker.WithGigTitle(g.Title))
	}

	model := tracker.New(cmd.Context(), a.saver(), j, opts...)
	if _, err := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run(); err != nil {
		return err
	}
	if model.Saved() != j.TimeTracked {
		a.logActivity("time", "job", j.ID, output.FormatDuration(j.TimeTracked)+" -> "+output.FormatDuration(model.Saved()))
	}
	if err := model.Err(); err != nil {
		return err
	}
	output.Messagef(os.Stdout, "%s: %s", j.Title, output.FormatDuration(model.Saved()))
	return nil
}

// saver bounds each tracker save by remote.timeout.
func (a *app) saver() tracker.Saver {
	if a.deck.Mode() != store.ModeRemote {
		return a.deck
	}
	return timedSaver{deck: a.deck, timeout: a.cfg.RemoteTimeout()}
}

type timedSaver struct {
	deck    *store.Deck
	timeout time.Duration
}

func (s timedSaver) SetTimeTracked(ctx context.Context, id string, seconds int64) (job.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.deck.SetTimeTracked(ctx, id, seconds)
}
