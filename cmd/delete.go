package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cyberdeck-app/cyberdeck/internal/clierr"
	"github.com/cyberdeck-app/cyberdeck/internal/output"
)

var gigDeleteCmd = &cobra.Command{
	Use:     "delete GIG",
	Aliases: []string{"rm"},
	Short:   "Delete a gig and all of its jobs",
	Long:    `Deletes a gig together with every job in it. Prompts for confirmation in interactive mode.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runGigDelete,
}

var jobDeleteCmd = &cobra.Command{
	Use:     "delete JOB[,JOB,...]",
	Aliases: []string{"rm"},
	Short:   "Delete a job",
	Long: `Deletes a job. Prompts for confirmation in interactive mode.
Multiple IDs can be provided as a comma-separated list (requires --yes).`,
	Args: cobra.ExactArgs(1),
	RunE: runJobDelete,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every gig and job",
	Long: `Deletes all gigs and jobs of the active store (in remote mode, those of the
signed-in user). Asks twice in interactive mode; --yes skips both prompts.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func init() {
	gigDeleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	gigCmd.AddCommand(gigDeleteCmd)
	jobDeleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	jobCmd.AddCommand(jobDeleteCmd)
	clearCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompts")
	rootCmd.AddCommand(clearCmd)
}

func runGigDelete(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	g, err := a.gig(args[0])
	if err != nil {
		return err
	}
	jobs := a.deck.ListJobsByGigID(g.ID)

	prompt := fmt.Sprintf("Delete gig %q?", g.Title)
	if len(jobs) > 0 {
		prompt = fmt.Sprintf("Delete gig %q and its %d jobs?", g.Title, len(jobs))
	}
	ok, err := confirm(prompt, yes)
	if err != nil || !ok {
		return err
	}

	ctx, cancel := a.ctx(cmd.Context())
	defer cancel()
	if err := a.deck.DeleteGig(ctx, g.ID); err != nil {
		return err
	}
	a.logActivity("delete", "gig", g.ID, g.Title)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"status": "deleted",
			"id":     g.ID,
			"title":  g.Title,
			"jobs":   len(jobs),
		})
	}
	output.Messagef(os.Stdout, "Deleted gig %s: %s (%d jobs)", g.ID, g.Title, len(jobs))
	return nil
}

func runJobDelete(cmd *cobra.Command, args []string) error {
	ids := parseIDs(args[0])
	yes, _ := cmd.Flags().GetBool("yes")

	if len(ids) > 1 && !yes {
		return clierr.New(clierr.ConfirmationReq, "batch delete requires --yes")
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if len(ids) > 1 {
		return runBatch(ids, func(id string) error {
			_, err := executeJobDelete(cmd, a, id)
			return err
		})
	}

	j, err := a.job(ids[0])
	if err != nil {
		return err
	}
	ok, err := confirm(fmt.Sprintf("Delete job %q?", j.Title), yes)
	if err != nil || !ok {
		return err
	}
	title, err := executeJobDelete(cmd, a, j.ID)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"status": "deleted",
			"id":     j.ID,
			"title":  title,
		})
	}
	output.Messagef(os.Stdout, "Deleted job %s: %s", j.ID, title)
	return nil
}

func executeJobDelete(cmd *cobra.Command, a *app, ref string) (string, error) {
	j, err := a.job(ref)
	if err != nil {
		return "", err
	}
	ctx, cancel := a.ctx(cmd.Context())
	defer cancel()
	if err := a.deck.DeleteJob(ctx, j.ID); err != nil {
		return "", err
	}
	a.logActivity("delete", "job", j.ID, j.Title)
	return j.Title, nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	yes, _ := cmd.Flags().GetBool("yes")

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	gigs, jobs := len(a.deck.ListGigs()), len(a.deck.ListJobs())
	ok, err := confirm(fmt.Sprintf("Delete all %d gigs and %d jobs?", gigs, jobs), yes)
	if err != nil || !ok {
		return err
	}
	if ok, err = confirm("This cannot be undone. Are you sure?", yes); err != nil || !ok {
		return err
	}

	ctx, cancel := a.ctx(cmd.Context())
	defer cancel()
	if err := a.deck.ClearAll(ctx); err != nil {
		return err
	}
	a.logActivity("clear", "deck", "", fmt.Sprintf("%d gigs, %d jobs", gigs, jobs))

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"status": "cleared", "gigs": gigs, "jobs": jobs})
	}
	output.Messagef(os.Stdout, "Deleted %d gigs and %d jobs", gigs, jobs)
	return nil
}
