package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cyberdeck-app/cyberdeck/internal/config"
	"github.com/cyberdeck-app/cyberdeck/internal/logging"
	"github.com/cyberdeck-app/cyberdeck/internal/output"
	"github.com/cyberdeck-app/cyberdeck/internal/store/local"
)

const welcome = `# Welcome to cyberdeck

Gigs are your projects; jobs are the work inside them.

1. Create a gig: ` + "`cyberdeck gig create \"Website relaunch\" --deadline 2025-09-30`" + `
2. Add a job: ` + "`cyberdeck job create \"Draft homepage copy\" --gig <id>`" + `
3. Track time: ` + "`cyberdeck job track <id>`" + `
4. See where things stand: ` + "`cyberdeck dashboard`" + ` or ` + "`cyberdeck board`" + `

Back up with ` + "`cyberdeck export`" + `. Set ` + "`remote.database_url`" + ` and ` + "`remote.jwt_secret`" + `
in the config to share a database across machines.
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config and data directories",
	Long: `Writes a default config.yml to the config directory (unless one exists) and
creates the local data directory. The welcome guide is shown the first time only.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("data-dir", "", "where local data files are kept")
	initCmd.Flags().String("database-url", "", "remote database (postgres URL or sqlite:<path>)")
	initCmd.Flags().String("jwt-secret", "", "secret that signs session tokens (required with --database-url)")
	initCmd.Flags().Bool("auto-migrate", false, "create remote tables on first connect")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir, err := resolveDir()
	if err != nil {
		return err
	}
	cfg, err := config.Init(dir)
	if err != nil {
		return err
	}

	changed := false
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.Storage.DataDir = v
		changed = true
	}
	if v, _ := cmd.Flags().GetString("database-url"); v != "" {
		cfg.Remote.DatabaseURL = v
		changed = true
	}
	if v, _ := cmd.Flags().GetString("jwt-secret"); v != "" {
		cfg.Remote.JWTSecret = v
		changed = true
	}
	if cmd.Flags().Changed("auto-migrate") {
		cfg.Remote.AutoMigrate, _ = cmd.Flags().GetBool("auto-migrate")
		changed = true
	}
	if changed {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
	}

	dataDir := cfg.DataDir()
	if dataDir == "" {
		if dataDir, err = local.DefaultDir(); err != nil {
			return err
		}
	}
	logger, logFile, err := logging.New(cfg.LogOptions())
	if err != nil {
		return err
	}
	defer logFile.Close()
	if _, err := local.Open(dataDir, logger); err != nil {
		return err
	}

	firstRun := !local.Flag(dataDir, local.TutorialFlag)
	if firstRun {
		if err := local.SetFlag(dataDir, local.TutorialFlag, true); err != nil {
			logger.Warn("saving welcome flag", "err", err)
		}
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"status":   "initialized",
			"config":   cfg.ConfigPath(),
			"data":     dataDir,
			"remote":   cfg.RemoteConfigured(),
			"firstRun": firstRun,
		})
	}

	output.Messagef(os.Stdout, "Initialized cyberdeck")
	output.Messagef(os.Stdout, "  Config: %s", cfg.ConfigPath())
	output.Messagef(os.Stdout, "  Data:   %s", dataDir)
	if firstRun {
		os.Stdout.WriteString("\n" + output.Markdown(welcome)) //nolint:errcheck // best-effort
	}
	return nil
}
