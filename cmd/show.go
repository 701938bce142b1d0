package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cyberdeck-app/cyberdeck/internal/board"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/output"
)

var gigShowCmd = &cobra.Command{
	Use:   "show GIG",
	Short: "Show gig details",
	Long:  `Displays a gig with its description, progress, tracked time and jobs.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGigShow,
}

var jobShowCmd = &cobra.Command{
	Use:   "show JOB",
	Short: "Show job details",
	Long:  `Displays a job with its description, subtasks, attachments and notes.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runJobShow,
}

func init() {
	gigCmd.AddCommand(gigShowCmd)
	jobCmd.AddCommand(jobShowCmd)
}

// gigDetail is the JSON shape of gig show.
type gigDetail struct {
	gig.Gig
	Progress    int       `json:"progress"`
	TimeTracked int64     `json:"timeTracked"`
	Jobs        []job.Job `json:"jobs"`
}

func runGigShow(cmd *cobra.Command, args []string) error {
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

	switch outputFormat() {
	case output.FormatJSON:
		if jobs == nil {
			jobs = []job.Job{}
		}
		return output.JSON(os.Stdout, gigDetail{
			Gig:         g,
			Progress:    board.Progress(jobs),
			TimeTracked: board.TotalTimeTracked(jobs),
			Jobs:        jobs,
		})
	case output.FormatCompact:
		output.GigCompact(os.Stdout, []gig.Gig{g}, jobs)
		output.JobCompact(os.Stdout, jobs, nil)
	default:
		output.GigDetail(os.Stdout, g, jobs, a.deadlines())
	}
	return nil
}

func runJobShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	j, err := a.job(args[0])
	if err != nil {
		return err
	}
	var gigTitle string
	if g, ok := a.deck.GetGigByID(j.GigID); ok {
		gigTitle = g.Title
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, j)
	case output.FormatCompact:
		output.JobDetailCompact(os.Stdout, j, gigTitle)
	default:
		output.JobDetail(os.Stdout, j, gigTitle, a.deadlines())
	}
	return nil
}
