package cmd

import (
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/cyberdeck-app/cyberdeck/internal/clierr"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/output"
)

var jobMoveCmd = &cobra.Command{
	Use:   "move JOB[,JOB,...] [STATUS]",
	Short: "Move a job to a different status",
	Long: `Changes the status of a job. Provide the new status directly,
or use --next/--prev to move along todo, in-progress, blocked, completed.
Multiple IDs can be provided as a comma-separated list.`,
	Args: cobra.RangeArgs(1, 2), //nolint:mnd // 1 or 2 positional args
	RunE: runJobMove,
}

func init() {
	jobMoveCmd.Flags().Bool("next", false, "move to next status")
	jobMoveCmd.Flags().Bool("prev", false, "move to previous status")
	jobCmd.AddCommand(jobMoveCmd)
}

// moveResult wraps a job with a changed flag for JSON output.
type moveResult struct {
	job.Job
	Changed bool `json:"changed"`
}

func runJobMove(cmd *cobra.Command, args []string) error {
	ids := parseIDs(args[0])

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if len(ids) == 1 {
		j, oldStatus, err := executeMove(cmd, a, ids[0], args)
		if err != nil {
			return err
		}
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, moveResult{Job: j, Changed: oldStatus != ""})
		}
		if oldStatus == "" {
			output.Messagef(os.Stdout, "Job %s is already %s", j.ID, j.Status)
			return nil
		}
		output.Messagef(os.Stdout, "Moved job %s: %s -> %s", j.ID, oldStatus, j.Status)
		return nil
	}

	return runBatch(ids, func(id string) error {
		_, _, err := executeMove(cmd, a, id, args)
		return err
	})
}

// executeMove resolves the target status and writes it. If the job is
// already there nothing is written and oldStatus is empty.
func executeMove(cmd *cobra.Command, a *app, ref string, args []string) (j job.Job, oldStatus string, err error) {
	j, err = a.job(ref)
	if err != nil {
		return j, "", err
	}
	target, err := resolveTargetStatus(cmd, args, j)
	if err != nil {
		return j, "", err
	}
	if target == j.Status {
		return j, "", nil
	}

	ctx, cancel := a.ctx(cmd.Context())
	defer cancel()
	oldStatus = j.Status
	j, err = a.deck.UpdateJob(ctx, j.ID, job.Patch{Status: &target})
	if err != nil {
		return j, "", err
	}
	a.logActivity("move", "job", j.ID, oldStatus+" -> "+target)
	return j, oldStatus, nil
}

func resolveTargetStatus(cmd *cobra.Command, args []string, j job.Job) (string, error) {
	next, _ := cmd.Flags().GetBool("next")
	prev, _ := cmd.Flags().GetBool("prev")
	idx := slices.Index(job.Statuses, j.Status)

	switch {
	case len(args) == 2: //nolint:mnd // positional arg
		if err := job.ValidateStatus(args[1], job.Statuses); err != nil {
			return "", err
		}
		return args[1], nil
	case next:
		if idx < 0 || idx >= len(job.Statuses)-1 {
			return "", boundaryError(j, "last")
		}
		return job.Statuses[idx+1], nil
	case prev:
		if idx <= 0 {
			return "", boundaryError(j, "first")
		}
		return job.Statuses[idx-1], nil
	default:
		return "", clierr.New(clierr.InvalidInput, "provide a target status or use --next/--prev")
	}
}

func boundaryError(j job.Job, edge string) error {
	return clierr.Newf(clierr.InvalidStatus, "job %s is already at the %s status (%s)", j.ID, edge, j.Status).
		WithDetails(map[string]any{"id": j.ID, "status": j.Status})
}
