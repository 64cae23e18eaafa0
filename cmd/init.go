package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/brewtap-tools/tapsync/pkg/datasource"
	"github.com/brewtap-tools/tapsync/pkg/ghrelease"
	"github.com/brewtap-tools/tapsync/pkg/tapconfig"
	"github.com/spf13/cobra"
)

var (
	// Flags for init command
	initRepo       string
	initName       string
	initSource     string
	initSourceFile string
	initToken      string
	initForce      bool
)

// promptForConfirmation prompts the user for confirmation and returns true if they confirm
func promptForConfirmation(message string) bool {
	fmt.Printf("%s (y/N): ", message)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// InitCommand represents the init command
var InitCommand = &cobra.Command{
	Use:   "init",
	Short: "Declare a formula in the tap config file",
	Long: `Adds a formula declaration to the tap config (.config/tapsync.yml),
detecting asset naming from a source: the repository's own release assets
(github, the default) or a local GoReleaser config file (goreleaser).`,
	Example: `  # Declare a formula by probing the latest release assets
  tapsync init --repo gobuffalo/packr

  # Seed the asset template from the project's GoReleaser config
  tapsync init --repo gobuffalo/packr --source goreleaser --file ../packr/.goreleaser.yml

  # Overwrite an existing declaration without confirmation
  tapsync init --repo gobuffalo/packr --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var adapter datasource.SourceAdapter

		switch initSource {
		case "github":
			token, err := resolveToken(initToken)
			if err != nil {
				return err
			}
			adapter = datasource.NewGitHubAdapter(ghrelease.NewClient(token), initRepo, initName)
		case "goreleaser":
			if initSourceFile == "" {
				return fmt.Errorf("--file is required for goreleaser source")
			}
			adapter = datasource.NewGoReleaserAdapter(initRepo, initSourceFile, initName)
		default:
			return fmt.Errorf("unknown source specified: %s. Valid sources are: github, goreleaser", initSource)
		}

		log.Infof("Generating formula declaration using source: %s", initSource)
		f, err := adapter.GenerateFormula(cmd.Context())
		if err != nil {
			log.WithError(err).Error("Failed to generate formula declaration")
			return err
		}

		cfgFile := configFile
		if cfgFile == "" {
			cfgFile = tapconfig.DefaultConfigPathYML
		}
		cfg := &tapconfig.Config{}
		if _, err := os.Stat(cfgFile); err == nil {
			cfg, err = tapconfig.Load(cfgFile)
			if err != nil {
				return err
			}
		}

		replaced := false
		for i, existing := range cfg.Formulas {
			if existing.Name == f.Name {
				if !initForce {
					message := fmt.Sprintf("Formula %s already declared in %s. Overwrite?", f.Name, cfgFile)
					if !promptForConfirmation(message) {
						log.Info("Operation cancelled by user")
						return fmt.Errorf("operation cancelled: formula %s already declared", f.Name)
					}
				}
				cfg.Formulas[i] = *f
				replaced = true
				break
			}
		}
		if !replaced {
			cfg.Formulas = append(cfg.Formulas, *f)
		}

		if err := tapconfig.Save(cfg, cfgFile); err != nil {
			return err
		}
		log.Infof("Formula %s declared in %s", f.Name, cfgFile)
		return nil
	},
}

func init() {
	InitCommand.Flags().StringVar(&initRepo, "repo", "", "Upstream GitHub repository (owner/name)")
	_ = InitCommand.MarkFlagRequired("repo")

	InitCommand.Flags().StringVar(&initName, "name", "", "Explicit formula name override")
	InitCommand.Flags().StringVar(&initSource, "source", "github", "Source to detect asset naming from (github, goreleaser)")
	InitCommand.Flags().StringVar(&initSourceFile, "file", "", "Path to source file (e.g., .goreleaser.yml)")
	InitCommand.Flags().StringVar(&initToken, "token", "", "GitHub API token (overrides environment and helpers)")
	InitCommand.Flags().BoolVar(&initForce, "force", false, "Skip confirmation when overwriting existing declarations")
}
