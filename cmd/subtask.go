package cmd

import (
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/output"
)

var subtaskCmd = &cobra.Command{
	Use:     "subtask",
	Aliases: []string{"sub", "check"},
	Short:   "Manage a job's checklist",
	Long: `Adds, toggles and removes checklist items of a job. SUBTASK is the subtask id,
a unique id prefix, or its 1-based position in the checklist.`,
}

var subtaskAddCmd = &cobra.Command{
	Use:   "add JOB TEXT",
	Short: "Append a subtask",
	Args:  cobra.ExactArgs(2), //nolint:mnd // job and text
	RunE:  runSubtaskAdd,
}

var subtaskToggleCmd = &cobra.Command{
	Use:     "toggle JOB SUBTASK",
	Aliases: []string{"done"},
	Short:   "Check or uncheck a subtask",
	Args:    cobra.ExactArgs(2), //nolint:mnd // job and subtask
	RunE:    runSubtaskToggle,
}

var subtaskRmCmd = &cobra.Command{
	Use:     "rm JOB SUBTASK",
	Aliases: []string{"delete"},
	Short:   "Remove a subtask",
	Args:    cobra.ExactArgs(2), //nolint:mnd // job and subtask
	RunE:    runSubtaskRm,
}

var attachCmd = &cobra.Command{
	Use:     "attach",
	Aliases: []string{"attachment", "link"},
	Short:   "Manage a job's attachments",
	Long:    `Attachments are named links. ATTACHMENT is the attachment id, a unique id prefix, or its 1-based position.`,
}

var attachAddCmd = &cobra.Command{
	Use:   "add JOB NAME URL",
	Short: "Attach a link",
	Args:  cobra.ExactArgs(3), //nolint:mnd // job, name and url
	RunE:  runAttachAdd,
}

var attachRmCmd = &cobra.Command{
	Use:     "rm JOB ATTACHMENT",
	Aliases: []string{"delete"},
	Short:   "Remove an attachment",
	Args:    cobra.ExactArgs(2), //nolint:mnd // job and attachment
	RunE:    runAttachRm,
}

func init() {
	subtaskCmd.AddCommand(subtaskAddCmd, subtaskToggleCmd, subtaskRmCmd)
	attachCmd.AddCommand(attachAddCmd, attachRmCmd)
	jobCmd.AddCommand(subtaskCmd, attachCmd)
}

func runSubtaskAdd(cmd *cobra.Command, args []string) error {
	return editJob(cmd, args[0], "subtask", func(ctx context.Context, a *app, j job.Job) (job.Job, string, error) {
		updated, err := a.deck.AddSubtask(ctx, j.ID, args[1])
		return updated, "added " + args[1], err
	})
}

func runSubtaskToggle(cmd *cobra.Command, args []string) error {
	return editJob(cmd, args[0], "subtask", func(ctx context.Context, a *app, j job.Job) (job.Job, string, error) {
		s, err := pick(j.Subtasks, func(s job.Subtask) string { return s.ID }, args[1], job.ErrSubtaskNotFound)
		if err != nil {
			return j, "", err
		}
		updated, err := a.deck.ToggleSubtask(ctx, j.ID, s.ID)
		verb := "checked "
		if s.Completed {
			verb = "unchecked "
		}
		return updated, verb + s.Text, err
	})
}

func runSubtaskRm(cmd *cobra.Command, args []string) error {
	return editJob(cmd, args[0], "subtask", func(ctx context.Context, a *app, j job.Job) (job.Job, string, error) {
		s, err := pick(j.Subtasks, func(s job.Subtask) string { return s.ID }, args[1], job.ErrSubtaskNotFound)
		if err != nil {
			return j, "", err
		}
		updated, err := a.deck.DeleteSubtask(ctx, j.ID, s.ID)
		return updated, "removed " + s.Text, err
	})
}

func runAttachAdd(cmd *cobra.Command, args []string) error {
	return editJob(cmd, args[0], "attach", func(ctx context.Context, a *app, j job.Job) (job.Job, string, error) {
		updated, err := a.deck.AddAttachment(ctx, j.ID, job.Attachment{Name: args[1], URL: args[2]})
		return updated, "attached " + args[1], err
	})
}

func runAttachRm(cmd *cobra.Command, args []string) error {
	return editJob(cmd, args[0], "attach", func(ctx context.Context, a *app, j job.Job) (job.Job, string, error) {
		att, err := pick(j.Attachments, func(at job.Attachment) string { return at.ID }, args[1], job.ErrAttachmentNotFound)
		if err != nil {
			return j, "", err
		}
		updated, err := a.deck.DeleteAttachment(ctx, j.ID, att.ID)
		return updated, "removed " + att.Name, err
	})
}

// editJob resolves ref, runs fn against the deck and prints the result.
func editJob(cmd *cobra.Command, ref, action string,
	fn func(context.Context, *app, job.Job) (job.Job, string, error),
) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	j, err := a.job(ref)
	if err != nil {
		return err
	}
	ctx, cancel := a.ctx(cmd.Context())
	defer cancel()
	updated, detail, err := fn(ctx, a, j)
	if err != nil {
		return err
	}
	a.logActivity(action, "job", j.ID, detail)

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, updated)
	case output.FormatCompact:
		output.JobDetailCompact(os.Stdout, updated, "")
	default:
		output.Messagef(os.Stdout, "%s: %s", updated.Title, detail)
	}
	return nil
}

// pick finds an embedded item by id, unique id prefix or 1-based position.
func pick[T any](items []T, id func(T) string, ref string, notFound error) (T, error) {
	if it, n := resolve(items, id, ref); n == 1 {
		return it, nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(items) {
		return items[n-1], nil
	}
	var zero T
	return zero, notFound
}
