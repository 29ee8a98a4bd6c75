package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Query session features",
	}

	cmd.AddCommand(newFeaturesGetCmd())

	return cmd
}

func newFeaturesGetCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "get <session-id>",
		Short: "Print the features of a session",
		Long: `Fetch the feature view for one session and print it exactly as the
get_features MCP tool returns it.`,
		Example: `  signals-mcp features get 3f9a6c1e-5d6b-4a8e-9b1f-0c2d7e4a9b31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return runFeaturesGet(ctx, cmd.OutOrStdout(), args[0])
		},
	}

	cmd.Flags().DurationVar(&timeout, "deadline", 0, "overall deadline for the lookup (0 for none)")

	return cmd
}

func runFeaturesGet(ctx context.Context, out io.Writer, sessionID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	adapter, err := newAdapter(cfg)
	if err != nil {
		return err
	}

	var sp *spinner.Spinner
	if showSpinner() {
		sp = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		sp.Suffix = " Fetching features..."
		sp.Start()
	}

	text, err := adapter.GetFeatures(ctx, sessionID)
	if sp != nil {
		sp.Stop()
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, text)
	return err
}

// Allow overriding for tests
var showSpinner = func() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) && !IsVerbose()
}
