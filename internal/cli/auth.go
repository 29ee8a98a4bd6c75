package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fastertools/signals-mcp/internal/auth"
	"github.com/fastertools/signals-mcp/internal/config"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Allow overriding for tests
var (
	surveyAskOne                     = survey.AskOne
	browserOpener auth.BrowserOpener = auth.DefaultBrowser()
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long: `Manage the Snowplow console API key used to obtain Signals access tokens.
Credentials are kept in the OS keyring. Values set through SIGNALS_API_KEY,
SIGNALS_API_KEY_ID and SIGNALS_ORG_ID take precedence over stored ones.`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
	)

	return cmd
}

type loginOptions struct {
	openBrowser bool
	verify      bool
}

func newAuthLoginCmd() *cobra.Command {
	var opts loginOptions

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store Signals API credentials",
		Long: `Prompt for a Snowplow console API key, its key id and the organization id,
and store them in the OS keyring. Create the key in the console under
Settings > API keys; --open takes you there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogin(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.openBrowser, "open", false, "open the console API keys page in a browser")
	cmd.Flags().BoolVar(&opts.verify, "verify", true, "exchange the key for a token before saving")

	return cmd
}

func runAuthLogin(ctx context.Context, out io.Writer, opts loginOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.openBrowser {
		_, _ = fmt.Fprintln(out, "🚀 Opening browser...")
		if err := auth.OpenConsole(browserOpener); err != nil {
			Warn("%v, visit %s", err, auth.ConsoleURL)
		}
	}

	var creds auth.Credentials
	if err := surveyAskOne(&survey.Input{
		Message: "Organization ID:",
		Default: viper.GetString(config.KeyOrgID),
	}, &creds.OrgID, survey.WithValidator(survey.Required)); err != nil {
		return err
	}
	if err := surveyAskOne(&survey.Input{
		Message: "API key ID:",
	}, &creds.APIKeyID, survey.WithValidator(survey.Required)); err != nil {
		return err
	}
	if err := surveyAskOne(&survey.Password{
		Message: "API key:",
	}, &creds.APIKey, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	if opts.verify {
		manager, err := auth.NewManager(creds, viper.GetString(config.KeyAuthURL))
		if err != nil {
			return err
		}
		vctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if _, err := manager.Token(vctx); err != nil {
			return errors.Wrap(err, "credentials were rejected")
		}
	}

	if err := newCredentialStore().Save(&creds); err != nil {
		return err
	}

	Success("Credentials saved for organization %s", creds.OrgID)
	return nil
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout and remove stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newCredentialStore().Delete(); err != nil {
				return err
			}
			Success("Stored credentials removed")
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			of, err := ParseOutputFormat(format)
			if err != nil {
				return err
			}
			return runAuthStatus(cmd.OutOrStdout(), of)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "Output format (text, json, yaml)")

	return cmd
}

func runAuthStatus(out io.Writer, format OutputFormat) error {
	configured := auth.Credentials{
		APIKey:   viper.GetString(config.KeyAPIKey),
		APIKeyID: viper.GetString(config.KeyAPIKeyID),
		OrgID:    viper.GetString(config.KeyOrgID),
	}

	source := config.CredentialSource(viper.GetViper())
	if configured.IsZero() {
		source = "keyring"
	}
	creds, err := auth.Resolve(configured, newCredentialStore())
	if err != nil {
		return err
	}

	if creds.IsZero() {
		if format != OutputFormatText {
			return NewDataWriter(out, format).WriteTable(nil, nil, map[string]interface{}{"configured": false})
		}
		_, _ = fmt.Fprintln(out, color.YellowString("Not configured"))
		_, _ = fmt.Fprintf(out, "Run %s to store credentials, or calls are made without authorization.\n",
			color.CyanString("signals-mcp auth login"))
		return nil
	}

	complete := creds.Validate() == nil
	return NewKeyValueBuilder("Signals Credentials").
		Add("configured", complete).
		Add("source", source).
		Add("org_id", creds.OrgID).
		Add("api_key_id", creds.APIKeyID).
		Add("api_key", creds.MaskedKey()).
		AddIf(!complete, "problem", errString(creds.Validate())).
		Write(NewDataWriter(out, format))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
