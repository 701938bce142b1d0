package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cyberdeck-app/cyberdeck/internal/clierr"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/output"
	"github.com/cyberdeck-app/cyberdeck/internal/tracker"
)

var gigCreateCmd = &cobra.Command{
	Use:     "create [TITLE]",
	Aliases: []string{"add", "new"},
	Short:   "Create a gig",
	Long: `Creates a new gig. Title can be provided as a positional argument or via --title.
Status defaults to defaults.gig_status from the config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGigCreate,
}

var jobCreateCmd = &cobra.Command{
	Use:     "create [TITLE] --gig GIG",
	Aliases: []string{"add", "new"},
	Short:   "Create a job inside a gig",
	Long: `Creates a new job. --gig takes a gig id or a unique id prefix.
Status and priority default to defaults.job_status and defaults.job_priority.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobCreate,
}

func init() {
	gigCreateCmd.Flags().String("title", "", "gig title (alternative to positional argument)")
	gigCreateCmd.Flags().String("description", "", "gig description (markdown)")
	gigCreateCmd.Flags().String("status", "", "gig status (active, on-hold, completed)")
	gigCreateCmd.Flags().String("deadline", "", "deadline (YYYY-MM-DD)")
	gigCreateCmd.Flags().SetNormalizeFunc(normalizeFlags)
	gigCmd.AddCommand(gigCreateCmd)

	jobCreateCmd.Flags().String("title", "", "job title (alternative to positional argument)")
	jobCreateCmd.Flags().StringP("gig", "g", "", "gig the job belongs to")
	jobCreateCmd.Flags().String("description", "", "job description (markdown)")
	jobCreateCmd.Flags().String("notes", "", "free-form notes (markdown)")
	jobCreateCmd.Flags().String("status", "", "job status (todo, in-progress, blocked, completed)")
	jobCreateCmd.Flags().String("priority", "", "job priority (low, medium, high, critical)")
	jobCreateCmd.Flags().String("deadline", "", "deadline (YYYY-MM-DD)")
	jobCreateCmd.Flags().String("time", "", "time already spent (HH:MM:SS, MM:SS or minutes)")
	jobCreateCmd.Flags().SetNormalizeFunc(normalizeFlags)
	_ = jobCreateCmd.MarkFlagRequired("gig")
	jobCmd.AddCommand(jobCreateCmd)
}

// normalizeFlags accepts the singular and original spellings of a few flags.
func normalizeFlags(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "desc", "body":
		name = "description"
	case "info", "note":
		name = "notes"
	case "due":
		name = "deadline"
	}
	return pflag.NormalizedName(name)
}

func runGigCreate(cmd *cobra.Command, args []string) error {
	title, err := resolveCreateTitle(cmd, args)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	d := gig.Draft{Title: title, Status: a.cfg.Defaults.GigStatus}
	d.Description, _ = cmd.Flags().GetString("description")
	if v, _ := cmd.Flags().GetString("status"); v != "" {
		if err := job.ValidateStatus(v, gig.Statuses); err != nil {
			return err
		}
		d.Status = v
	}
	if v, _ := cmd.Flags().GetString("deadline"); v != "" {
		if d.Deadline, _, err = parseDeadline(v); err != nil {
			return err
		}
	}

	ctx, cancel := a.ctx(cmd.Context())
	defer cancel()
	g, err := a.deck.CreateGig(ctx, d)
	if err != nil {
		return err
	}
	a.logActivity("create", "gig", g.ID, g.Title)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, g)
	}
	output.Messagef(os.Stdout, "Created gig %s: %s", g.ID, g.Title)
	output.Messagef(os.Stdout, "  Status: %s", g.Status)
	return nil
}

func runJobCreate(cmd *cobra.Command, args []string) error {
	title, err := resolveCreateTitle(cmd, args)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ref, _ := cmd.Flags().GetString("gig")
	g, err := a.gig(ref)
	if err != nil {
		return err
	}

	d := job.Draft{
		GigID:    g.ID,
		Title:    title,
		Status:   a.cfg.Defaults.JobStatus,
		Priority: a.cfg.Defaults.JobPriority,
	}
	if err := applyJobCreateFlags(cmd, &d); err != nil {
		return err
	}

	ctx, cancel := a.ctx(cmd.Context())
	defer cancel()
	j, err := a.deck.CreateJob(ctx, d)
	if err != nil {
		return err
	}
	a.logActivity("create", "job", j.ID, j.Title)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, j)
	}
	output.Messagef(os.Stdout, "Created job %s: %s", j.ID, j.Title)
	output.Messagef(os.Stdout, "  Gig: %s", g.Title)
	output.Messagef(os.Stdout, "  Status: %s | Priority: %s", j.Status, j.Priority)
	return nil
}

func applyJobCreateFlags(cmd *cobra.Command, d *job.Draft) error {
	d.Description, _ = cmd.Flags().GetString("description")
	d.Notes, _ = cmd.Flags().GetString("notes")
	if v, _ := cmd.Flags().GetString("status"); v != "" {
		if err := job.ValidateStatus(v, job.Statuses); err != nil {
			return err
		}
		d.Status = v
	}
	if v, _ := cmd.Flags().GetString("priority"); v != "" {
		if err := job.ValidatePriority(v); err != nil {
			return err
		}
		d.Priority = v
	}
	if v, _ := cmd.Flags().GetString("deadline"); v != "" {
		deadline, _, err := parseDeadline(v)
		if err != nil {
			return err
		}
		d.Deadline = deadline
	}
	if v, _ := cmd.Flags().GetString("time"); v != "" {
		secs, err := tracker.ParseManual(v)
		if err != nil {
			return err
		}
		d.TimeTracked = secs
	}
	return nil
}

// resolveCreateTitle returns the title from either the positional arg or --title flag.
func resolveCreateTitle(cmd *cobra.Command, args []string) (string, error) {
	flagTitle, _ := cmd.Flags().GetString("title")
	hasPositional := len(args) > 0
	hasFlag := flagTitle != ""

	switch {
	case hasPositional && hasFlag:
		return "", clierr.New(clierr.InvalidInput,
			"title provided both as argument and --title flag; use one or the other")
	case hasPositional:
		return args[0], nil
	case hasFlag:
		return flagTitle, nil
	default:
		return "", clierr.New(clierr.InvalidInput,
			"title is required: provide it as an argument or with --title")
	}
}
