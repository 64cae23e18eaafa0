package cmd

import (
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/brewtap-tools/tapsync/pkg/tapconfig"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
	quiet      bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "tapsync",
	Short: "Keep Homebrew tap formulas in sync with upstream GitHub releases",
	Long: `tapsync keeps the formulas of a Homebrew tap in sync with their upstream
GitHub releases. It resolves the latest release, selects the platform asset,
downloads it to compute the sha256, and rewrites the formula's version, url
and sha256 fields, optionally committing the result.

Credentials are discovered from --token, HOMEBREW_GITHUB_API_TOKEN,
GITHUB_TOKEN, GH_TOKEN, the gh CLI, or the git credential store, in that
order.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetHandler(cli.Default)
		if verbose {
			log.SetLevel(log.DebugLevel)
			log.Debugf("Verbose logging enabled")
		} else if quiet {
			log.SetLevel(log.ErrorLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		log.WithError(err).Fatal("command execution failed")
	}
}

func init() {
	// Disable automatic command sorting to maintain semantic order
	cobra.EnableCommandSorting = false

	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to tap config file (default: "+tapconfig.DefaultConfigPathYML+")")
	RootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Increase log verbosity")
	RootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress progress output")

	RootCmd.AddGroup(&cobra.Group{
		ID:    "workflow",
		Title: "Workflow Commands:",
	})
	RootCmd.AddGroup(&cobra.Group{
		ID:    "utility",
		Title: "Utility Commands:",
	})

	RootCmd.SetHelpCommandGroupID("utility")
	RootCmd.SetCompletionCommandGroupID("utility")

	InitCommand.GroupID = "workflow"
	CheckCommand.GroupID = "workflow"
	UpdateCommand.GroupID = "workflow"
	FetchCommand.GroupID = "utility"

	RootCmd.AddCommand(InitCommand)   // Step 1: Declare a formula
	RootCmd.AddCommand(CheckCommand)  // Step 2: Validate config and formula files
	RootCmd.AddCommand(UpdateCommand) // Step 3: Synchronize with upstream
	RootCmd.AddCommand(FetchCommand)  // Utility: Resolve and download one asset
}
