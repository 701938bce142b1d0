package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cyberdeck-app/cyberdeck/internal/clierr"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/output"
)

var gigEditCmd = &cobra.Command{
	Use:   "edit GIG",
	Short: "Edit a gig",
	Long: `Modifies fields of an existing gig. Only specified fields are changed.
Use --deadline none to clear the deadline.`,
	Args: cobra.ExactArgs(1),
	RunE: runGigEdit,
}

var jobEditCmd = &cobra.Command{
	Use:   "edit JOB[,JOB,...]",
	Short: "Edit a job",
	Long: `Modifies fields of an existing job. Only specified fields are changed.
Use --deadline none to clear the deadline.
Multiple IDs can be provided as a comma-separated list.`,
	Args: cobra.ExactArgs(1),
	RunE: runJobEdit,
}

func init() {
	gigEditCmd.Flags().String("title", "", "new title")
	gigEditCmd.Flags().String("description", "", "new description (replaces it)")
	gigEditCmd.Flags().String("status", "", "new status")
	gigEditCmd.Flags().String("deadline", "", "new deadline (YYYY-MM-DD, or none)")
	gigEditCmd.Flags().SetNormalizeFunc(normalizeFlags)
	gigCmd.AddCommand(gigEditCmd)

	jobEditCmd.Flags().String("title", "", "new title")
	jobEditCmd.Flags().String("description", "", "new description (replaces it)")
	jobEditCmd.Flags().String("notes", "", "new notes (replaces them)")
	jobEditCmd.Flags().StringP("append-notes", "a", "", "append text to the notes")
	jobEditCmd.Flags().BoolP("timestamp", "t", false, "prefix a timestamp line when appending")
	jobEditCmd.Flags().String("status", "", "new status")
	jobEditCmd.Flags().String("priority", "", "new priority")
	jobEditCmd.Flags().String("deadline", "", "new deadline (YYYY-MM-DD, or none)")
	jobEditCmd.Flags().SetNormalizeFunc(normalizeFlags)
	jobCmd.AddCommand(jobEditCmd)
}

func runGigEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	g, err := a.gig(args[0])
	if err != nil {
		return err
	}

	var p gig.Patch
	if cmd.Flags().Changed("title") {
		v, _ := cmd.Flags().GetString("title")
		p.Title = &v
	}
	if cmd.Flags().Changed("description") {
		v, _ := cmd.Flags().GetString("description")
		p.Description = &v
	}
	if v, _ := cmd.Flags().GetString("status"); v != "" {
		if err := job.ValidateStatus(v, gig.Statuses); err != nil {
			return err
		}
		p.Status = &v
	}
	if v, _ := cmd.Flags().GetString("deadline"); v != "" {
		if p.Deadline, p.ClearDeadline, err = parseDeadline(v); err != nil {
			return err
		}
	}
	if p.Empty() {
		return clierr.New(clierr.NoChanges, "no changes specified")
	}

	ctx, cancel := a.ctx(cmd.Context())
	defer cancel()
	updated, err := a.deck.UpdateGig(ctx, g.ID, p)
	if err != nil {
		return err
	}
	a.logActivity("edit", "gig", g.ID, updated.Title)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, updated)
	}
	output.Messagef(os.Stdout, "Updated gig %s: %s", updated.ID, updated.Title)
	return nil
}

func runJobEdit(cmd *cobra.Command, args []string) error {
	ids := parseIDs(args[0])

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if len(ids) == 1 {
		j, err := executeJobEdit(cmd, a, ids[0])
		if err != nil {
			return err
		}
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, j)
		}
		output.Messagef(os.Stdout, "Updated job %s: %s", j.ID, j.Title)
		return nil
	}

	return runBatch(ids, func(id string) error {
		_, err := executeJobEdit(cmd, a, id)
		return err
	})
}

// executeJobEdit builds the patch from flags, writes it and logs it.
func executeJobEdit(cmd *cobra.Command, a *app, ref string) (job.Job, error) {
	j, err := a.job(ref)
	if err != nil {
		return job.Job{}, err
	}

	p, err := jobPatchFromFlags(cmd, a, j)
	if err != nil {
		return job.Job{}, err
	}
	if p.Empty() {
		return job.Job{}, clierr.New(clierr.NoChanges, "no changes specified")
	}

	ctx, cancel := a.ctx(cmd.Context())
	defer cancel()
	updated, err := a.deck.UpdateJob(ctx, j.ID, p)
	if err != nil {
		return job.Job{}, err
	}
	a.logActivity("edit", "job", j.ID, updated.Title)
	return updated, nil
}

func jobPatchFromFlags(cmd *cobra.Command, a *app, j job.Job) (job.Patch, error) {
	var p job.Patch
	if cmd.Flags().Changed("title") {
		v, _ := cmd.Flags().GetString("title")
		p.Title = &v
	}
	if cmd.Flags().Changed("description") {
		v, _ := cmd.Flags().GetString("description")
		p.Description = &v
	}
	if cmd.Flags().Changed("notes") {
		v, _ := cmd.Flags().GetString("notes")
		p.Notes = &v
	}
	if v, _ := cmd.Flags().GetString("append-notes"); v != "" {
		base := j.Notes
		if p.Notes != nil {
			base = *p.Notes
		}
		if ts, _ := cmd.Flags().GetBool("timestamp"); ts {
			v = "**" + a.deck.Now().Format("2006-01-02 15:04") + "**\n" + v
		}
		notes := strings.TrimRight(base, "\n")
		if notes != "" {
			notes += "\n\n"
		}
		notes += v
		p.Notes = &notes
	}
	if v, _ := cmd.Flags().GetString("status"); v != "" {
		if err := job.ValidateStatus(v, job.Statuses); err != nil {
			return p, err
		}
		p.Status = &v
	}
	if v, _ := cmd.Flags().GetString("priority"); v != "" {
		if err := job.ValidatePriority(v); err != nil {
			return p, err
		}
		p.Priority = &v
	}
	if v, _ := cmd.Flags().GetString("deadline"); v != "" {
		var err error
		if p.Deadline, p.ClearDeadline, err = parseDeadline(v); err != nil {
			return p, err
		}
	}
	return p, nil
}
