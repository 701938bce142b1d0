package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cyberdeck-app/cyberdeck/internal/backup"
	"github.com/cyberdeck-app/cyberdeck/internal/clierr"
	"github.com/cyberdeck-app/cyberdeck/internal/output"
)

var exportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Export all gigs and jobs to a JSON backup",
	Long: `Writes every gig and job to FILE, by default cyberdeck-backup-YYYY-MM-DD.json
in the working directory. Use - to write to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Validate a JSON backup and optionally load it",
	Long: `Checks FILE against the backup format and reports what it contains.
With --apply, every gig and job is created with a fresh id; jobs keep pointing at
their gig. Jobs whose gig is not in the file are skipped. Use - to read stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Store backups in an S3-compatible bucket",
	Long:  `Pushes and pulls JSON backups to the bucket configured under backup: in config.yml.`,
}

var backupPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload a backup of the current deck",
	Args:  cobra.NoArgs,
	RunE:  runBackupPush,
}

var backupPullCmd = &cobra.Command{
	Use:   "pull [KEY]",
	Short: "Download a backup (the newest by default)",
	Long:  `Downloads and validates a backup. With --apply it is loaded like import --apply.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBackupPull,
}

var backupListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List backups in the bucket, newest first",
	Args:    cobra.NoArgs,
	RunE:    runBackupList,
}

func init() {
	importCmd.Flags().Bool("apply", false, "create the gigs and jobs of the backup")
	backupPullCmd.Flags().Bool("apply", false, "create the gigs and jobs of the backup")
	backupCmd.AddCommand(backupPushCmd, backupPullCmd, backupListCmd)
	rootCmd.AddCommand(exportCmd, importCmd, backupCmd)
}

// importSummary is the JSON shape of import and backup pull.
type importSummary struct {
	Source     string         `json:"source"`
	Version    string         `json:"version"`
	ExportedAt string         `json:"exportedAt,omitempty"`
	Gigs       int            `json:"gigs"`
	Jobs       int            `json:"jobs"`
	Applied    *backup.Result `json:"applied,omitempty"`
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	now := a.deck.Now()
	doc := backup.Export(a.deck.ListGigs(), a.deck.ListJobs(), now)

	name := backup.FileName(now)
	if len(args) == 1 {
		name = args[0]
	}
	if name == "-" {
		return backup.Write(os.Stdout, doc)
	}

	f, err := os.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) //nolint:gosec,mnd // user-chosen export path
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := backup.Write(f, doc); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.logActivity("export", "deck", "", name)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"file": name, "gigs": len(doc.Gigs), "jobs": len(doc.Jobs)})
	}
	output.Messagef(os.Stdout, "Exported %d gigs and %d jobs to %s", len(doc.Gigs), len(doc.Jobs), name)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	apply, _ := cmd.Flags().GetBool("apply")

	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return clierr.Newf(clierr.ImportInvalid, "Failed to parse backup file: %v", err)
		}
		defer f.Close()
		r = f
	}
	doc, err := backup.Parse(r)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	return loadBackup(cmd.Context(), a, args[0], doc, apply)
}

// loadBackup reports doc and, when apply is set, creates its contents.
func loadBackup(parent context.Context, a *app, source string, doc backup.Document, apply bool) error {
	summary := importSummary{Source: source, Version: doc.Version, Gigs: len(doc.Gigs), Jobs: len(doc.Jobs)}
	if !doc.ExportedAt.IsZero() {
		summary.ExportedAt = doc.ExportedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	var applyErr error
	if apply {
		ctx, cancel := a.ctx(parent)
		defer cancel()
		res, err := backup.Apply(ctx, a.deck, doc)
		summary.Applied = &res
		applyErr = err
		a.logActivity("import", "deck", "", fmt.Sprintf("%s: %d gigs, %d jobs", source, res.Gigs, res.Jobs))
	}

	if outputFormat() == output.FormatJSON {
		if err := output.JSON(os.Stdout, summary); err != nil {
			return err
		}
		return applyErr
	}

	output.Messagef(os.Stdout, "%s: version %s, %d gigs, %d jobs", source, summary.Version, summary.Gigs, summary.Jobs)
	switch {
	case summary.Applied == nil:
		output.Messagef(os.Stdout, "Backup is valid. Run again with --apply to load it.")
	default:
		res := summary.Applied
		output.Messagef(os.Stdout, "Imported %d gigs and %d jobs", res.Gigs, res.Jobs)
		if res.Skipped > 0 {
			output.Messagef(os.Stdout, "Skipped %d jobs whose gig is not in the backup", res.Skipped)
		}
	}
	return applyErr
}

func openBucket(ctx context.Context, a *app) (*backup.Bucket, error) {
	if !a.cfg.BackupConfigured() {
		return nil, clierr.New(clierr.BackupDisabled,
			"no backup bucket configured; set backup.endpoint and backup.bucket in "+a.cfg.ConfigPath())
	}
	return backup.OpenBucket(ctx, a.cfg.BucketConfig(), a.logger)
}

func runBackupPush(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := a.ctx(cmd.Context())
	defer cancel()
	b, err := openBucket(ctx, a)
	if err != nil {
		return err
	}
	doc := backup.Export(a.deck.ListGigs(), a.deck.ListJobs(), a.deck.Now())
	key, err := b.Push(ctx, doc)
	if err != nil {
		return err
	}
	a.logActivity("backup", "deck", "", key)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"key": key, "gigs": len(doc.Gigs), "jobs": len(doc.Jobs)})
	}
	output.Messagef(os.Stdout, "Uploaded %d gigs and %d jobs to %s", len(doc.Gigs), len(doc.Jobs), key)
	return nil
}

func runBackupPull(cmd *cobra.Command, args []string) error {
	apply, _ := cmd.Flags().GetBool("apply")
	var key string
	if len(args) == 1 {
		key = args[0]
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := a.ctx(cmd.Context())
	defer cancel()
	b, err := openBucket(ctx, a)
	if err != nil {
		return err
	}
	doc, key, err := b.Pull(ctx, key)
	if err != nil {
		var parseErr *backup.ParseError
		if errors.As(err, &parseErr) {
			return err
		}
		return clierr.Newf(clierr.RemoteFailed, "%v", err)
	}
	return loadBackup(cmd.Context(), a, key, doc, apply)
}

func runBackupList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := a.ctx(cmd.Context())
	defer cancel()
	b, err := openBucket(ctx, a)
	if err != nil {
		return err
	}
	keys, err := b.List(ctx)
	if err != nil {
		return clierr.Newf(clierr.RemoteFailed, "%v", err)
	}
	if outputFormat() == output.FormatJSON {
		if keys == nil {
			keys = []string{}
		}
		return output.JSON(os.Stdout, keys)
	}
	if len(keys) == 0 {
		fmt.Fprintln(os.Stderr, "No backups found.")
		return nil
	}
	for _, k := range keys {
		fmt.Fprintln(os.Stdout, k)
	}
	return nil
}
