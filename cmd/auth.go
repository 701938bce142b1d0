package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cyberdeck-app/cyberdeck/internal/clierr"
	"github.com/cyberdeck-app/cyberdeck/internal/config"
	"github.com/cyberdeck-app/cyberdeck/internal/identity"
	"github.com/cyberdeck-app/cyberdeck/internal/output"
	"github.com/cyberdeck-app/cyberdeck/internal/store"
)

const defaultSessionTTL = 30 * 24 * time.Hour

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the active store and signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save a session token for the remote store",
	Long: `Stores a session token in remote.session_file after verifying it against
remote.jwt_secret. --token takes a token issued by your identity provider.
Self-hosted setups without one can mint a token with --issue.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved session token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().String("token", "", "session token to save")
	loginCmd.Flags().Bool("issue", false, "sign a new token with remote.jwt_secret")
	loginCmd.Flags().String("user", "", "user id for --issue (default: a new uuid)")
	loginCmd.Flags().String("email", "", "email claim for --issue")
	loginCmd.Flags().Duration("ttl", defaultSessionTTL, "lifetime of an issued token")
	rootCmd.AddCommand(whoamiCmd, loginCmd, logoutCmd)
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	info := map[string]any{"mode": a.deck.Mode()}
	if a.deck.Mode() == store.ModeRemote {
		info["user"] = a.user
		info["signedIn"] = a.user.ID != ""
	} else {
		info["data"] = a.dataDir
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, info)
	}
	output.Messagef(os.Stdout, "Mode: %s", a.deck.Mode())
	switch {
	case a.deck.Mode() == store.ModeLocal:
		output.Messagef(os.Stdout, "Data: %s", a.dataDir)
	case a.user.ID == "":
		output.Messagef(os.Stdout, "Not signed in. Run cyberdeck login.")
	case a.user.Email != "":
		output.Messagef(os.Stdout, "User: %s (%s)", a.user.ID, a.user.Email)
	default:
		output.Messagef(os.Stdout, "User: %s", a.user.ID)
	}
	return nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Remote.JWTSecret == "" {
		return clierr.Newf(clierr.InvalidInput,
			"remote.jwt_secret is not set; add it to %s or %s", cfg.ConfigPath(), config.EnvJWTSecret)
	}

	token, _ := cmd.Flags().GetString("token")
	issue, _ := cmd.Flags().GetBool("issue")
	switch {
	case issue && token != "":
		return clierr.New(clierr.InvalidInput, "use either --token or --issue")
	case issue:
		if token, err = issueToken(cmd, cfg.Remote.JWTSecret); err != nil {
			return err
		}
	case token == "":
		return clierr.New(clierr.InvalidInput, "provide --token, or --issue to sign one")
	}

	user, err := identity.Verify(token, cfg.Remote.JWTSecret)
	if err != nil {
		return clierr.New(clierr.NotSignedIn, err.Error())
	}

	path := cfg.SessionPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil { //nolint:mnd // private dir
		return err
	}
	if err := os.WriteFile(path, []byte(token), 0o600); err != nil { //nolint:mnd // secret file
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"user": user, "session": path})
	}
	output.Messagef(os.Stdout, "Signed in as %s", user.ID)
	return nil
}

func issueToken(cmd *cobra.Command, secret string) (string, error) {
	id, _ := cmd.Flags().GetString("user")
	if id == "" {
		id = uuid.NewString()
	}
	email, _ := cmd.Flags().GetString("email")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	now := time.Now()
	return identity.Sign(identity.User{ID: id, Email: email}, secret, jwt.RegisteredClaims{
		Issuer:    "cyberdeck",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
}

func runLogout(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.SessionPath()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{"status": "signed out"})
	}
	output.Messagef(os.Stdout, "Signed out")
	return nil
}
