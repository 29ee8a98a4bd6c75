package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fastertools/signals-mcp/internal/config"
	"github.com/fastertools/signals-mcp/internal/telemetry"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version information
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"

	// Configuration
	cfgFile string
	verbose bool
	noColor bool

	// Colors
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)

	// For testing - allows redirecting output
	colorOutput io.Writer = os.Stdout
	errOutput   io.Writer = os.Stderr
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "signals-mcp",
	Short: "Snowplow Signals features for AI agents over MCP",
	Long: `signals-mcp exposes the behavioral features Snowplow Signals computes for a
web session as an MCP tool, so an agent can read what a visitor has done in
the current session before it answers them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		level := viper.GetString(config.KeyLogLevel)
		if verbose {
			level = "DEBUG"
		}
		// stdout belongs to the MCP transport
		return telemetry.SetupLogging(level, errOutput)
	},
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version information
func SetVersion(v, c, b string) {
	version = v
	commit = c
	buildDate = b
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate)
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./signals-mcp.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().String("api-url", "", "Signals API URL (env SIGNALS_API_URL)")
	rootCmd.PersistentFlags().String("catalog", "", "feature view file overriding the built-in catalog (.yaml or .toml)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))
	_ = viper.BindPFlag(config.KeyAPIURL, rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag(config.KeyCatalogFile, rootCmd.PersistentFlags().Lookup("catalog"))

	// Add commands
	rootCmd.AddCommand(
		newServeCmd(),
		newFeaturesCmd(),
		newCatalogCmd(),
		newAuthCmd(),
	)
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if path := config.DetectFile("."); path != "" {
		viper.SetConfigFile(path)
	} else {
		return
	}

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		Warn("Failed to read config file %s: %v", viper.ConfigFileUsed(), err)
		return
	}
	if verbose {
		fmt.Fprintln(errOutput, infoColor.Sprint("Using config file:"), viper.ConfigFileUsed())
	}
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
}

// loadConfig returns the validated configuration from flags, env and file.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// Helper functions for consistent output

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Fprintln(colorOutput, successColor.Sprintf("✓ "+format, args...))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Fprintln(errOutput, errorColor.Sprintf("✗ "+format, args...))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Fprintln(colorOutput, infoColor.Sprintf("ℹ "+format, args...))
}

// Warn prints a warning message
func Warn(format string, args ...interface{}) {
	fmt.Fprintln(errOutput, warnColor.Sprintf("⚠ "+format, args...))
}

// Debug prints a debug message if verbose mode is enabled
func Debug(format string, args ...interface{}) {
	if IsVerbose() {
		fmt.Fprintln(errOutput, color.New(color.FgMagenta).Sprintf("» "+format, args...))
	}
}

// IsVerbose returns true if verbose mode is enabled
func IsVerbose() bool {
	return viper.GetBool("verbose")
}
