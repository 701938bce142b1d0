package cmd

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cyberdeck-app/cyberdeck/internal/board"
	"github.com/cyberdeck-app/cyberdeck/internal/clierr"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/output"
)

var gigListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List gigs",
	Long:    `Lists gigs with their job count, progress and deadline.`,
	Args:    cobra.NoArgs,
	RunE:    runGigList,
}

var jobListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List jobs",
	Long:    `Lists jobs with optional filtering, sorting, grouping and output format control.`,
	Args:    cobra.NoArgs,
	RunE:    runJobList,
}

func init() {
	gigListCmd.Flags().StringSlice("status", nil, "filter by status (comma-separated)")
	gigListCmd.Flags().StringP("search", "s", "", "search title and description (case-insensitive)")
	gigListCmd.Flags().String("sort", board.SortRecent, "sort field ("+strings.Join(board.GigSortFields, ", ")+")")
	gigListCmd.Flags().BoolP("reverse", "r", false, "reverse sort order")
	gigListCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	gigCmd.AddCommand(gigListCmd)

	jobListCmd.Flags().StringSlice("status", nil, "filter by status (comma-separated)")
	jobListCmd.Flags().StringSlice("priority", nil, "filter by priority (comma-separated)")
	jobListCmd.Flags().StringP("gig", "g", "", "only jobs of this gig")
	jobListCmd.Flags().StringP("search", "s", "", "search title, description and notes (case-insensitive)")
	jobListCmd.Flags().Bool("overdue", false, "show only overdue jobs")
	jobListCmd.Flags().Int("due-soon", 0, "show only jobs due within N days")
	jobListCmd.Flags().String("sort", board.SortRecent, "sort field ("+strings.Join(board.JobSortFields, ", ")+")")
	jobListCmd.Flags().BoolP("reverse", "r", false, "reverse sort order")
	jobListCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	jobListCmd.Flags().String("group-by", "", "group results by field ("+strings.Join(board.ValidGroupByFields(), ", ")+")")
	jobCmd.AddCommand(jobListCmd)
}

func runGigList(cmd *cobra.Command, _ []string) error {
	statuses, _ := cmd.Flags().GetStringSlice("status")
	search, _ := cmd.Flags().GetString("search")
	sortBy, _ := cmd.Flags().GetString("sort")
	reverse, _ := cmd.Flags().GetBool("reverse")
	limit, _ := cmd.Flags().GetInt("limit")

	for _, s := range statuses {
		if err := job.ValidateStatus(s, gig.Statuses); err != nil {
			return err
		}
	}
	if err := validateSort(sortBy, board.GigSortFields); err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	gigs := board.FilterGigs(a.deck.ListGigs(), board.GigFilter{Statuses: statuses, Search: search})
	board.SortGigs(gigs, sortBy, reverse)
	if limit > 0 && len(gigs) > limit {
		gigs = gigs[:limit]
	}
	if gigs == nil {
		gigs = []gig.Gig{}
	}
	jobs := a.deck.ListJobs()

	switch outputFormat() {
	case output.FormatJSON:
		out := make([]board.GigProgress, 0, len(gigs))
		for _, g := range gigs {
			gj := board.JobsOf(jobs, g.ID)
			out = append(out, board.GigProgress{Gig: g, Progress: board.Progress(gj), JobCount: len(gj)})
		}
		return output.JSON(os.Stdout, out)
	case output.FormatCompact:
		output.GigCompact(os.Stdout, gigs, jobs)
	default:
		output.GigTable(os.Stdout, gigs, jobs, a.deadlines())
	}
	return nil
}

func runJobList(cmd *cobra.Command, _ []string) error {
	statuses, _ := cmd.Flags().GetStringSlice("status")
	priorities, _ := cmd.Flags().GetStringSlice("priority")
	gigRef, _ := cmd.Flags().GetString("gig")
	search, _ := cmd.Flags().GetString("search")
	overdue, _ := cmd.Flags().GetBool("overdue")
	dueSoon, _ := cmd.Flags().GetInt("due-soon")
	sortBy, _ := cmd.Flags().GetString("sort")
	reverse, _ := cmd.Flags().GetBool("reverse")
	limit, _ := cmd.Flags().GetInt("limit")
	groupBy, _ := cmd.Flags().GetString("group-by")

	for _, s := range statuses {
		if err := job.ValidateStatus(s, job.Statuses); err != nil {
			return err
		}
	}
	for _, p := range priorities {
		if err := job.ValidatePriority(p); err != nil {
			return err
		}
	}
	if err := validateSort(sortBy, board.JobSortFields); err != nil {
		return err
	}
	if err := validateGroupBy(groupBy); err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	filter := board.JobFilter{
		Statuses:   statuses,
		Priorities: priorities,
		Search:     search,
		Overdue:    overdue,
		DueSoon:    dueSoon,
		Now:        a.deck.Now(),
	}
	if gigRef != "" {
		g, err := a.gig(gigRef)
		if err != nil {
			return err
		}
		filter.GigID = g.ID
	}

	jobs := board.FilterJobs(a.deck.ListJobs(), filter)
	if groupBy != "" {
		grouped := board.GroupBy(jobs, a.deck.ListGigs(), groupBy)
		switch outputFormat() {
		case output.FormatJSON:
			return output.JSON(os.Stdout, grouped)
		case output.FormatCompact:
			output.GroupedCompact(os.Stdout, grouped)
		default:
			output.GroupedTable(os.Stdout, grouped)
		}
		return nil
	}

	board.SortJobs(jobs, sortBy, reverse)
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	if jobs == nil {
		jobs = []job.Job{}
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, jobs)
	case output.FormatCompact:
		output.JobCompact(os.Stdout, jobs, a.gigTitles())
	default:
		output.JobTable(os.Stdout, jobs, a.gigTitles(), a.deadlines())
	}
	return nil
}

func validateSort(field string, allowed []string) error {
	if slices.Contains(allowed, field) {
		return nil
	}
	return clierr.Newf(clierr.InvalidSort, "invalid --sort field %q; valid: %s",
		field, strings.Join(allowed, ", "))
}

func validateGroupBy(field string) error {
	if field == "" || slices.Contains(board.ValidGroupByFields(), field) {
		return nil
	}
	return clierr.Newf(clierr.InvalidGroupBy, "invalid --group-by field %q; valid: %s",
		field, strings.Join(board.ValidGroupByFields(), ", "))
}
