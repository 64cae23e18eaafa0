package cmd

import (
	"fmt"

	"github.com/apex/log"
	"github.com/brewtap-tools/tapsync/pkg/credential"
	"github.com/brewtap-tools/tapsync/pkg/download"
	"github.com/brewtap-tools/tapsync/pkg/ghrelease"
	"github.com/brewtap-tools/tapsync/pkg/sync"
	"github.com/brewtap-tools/tapsync/pkg/tapconfig"
	"github.com/spf13/cobra"
)

var (
	// Flags for update command
	updateRepo        string
	updateFormulaFile string
	updateTapDir      string
	updateToken       string
	updateDryRun      bool
	updateCommit      bool
	updatePush        bool
	updateAll         bool
	updateOS          string
	updateArch        string
)

// UpdateCommand represents the update command
var UpdateCommand = &cobra.Command{
	Use:   "update [formula]",
	Short: "Update formula version, url and sha256 from the latest upstream release",
	Long: `Resolves the latest GitHub release of a formula's upstream repository,
selects the platform asset, downloads it to compute the sha256, and rewrites
the formula file. Exits 0 when the formula is already current.

Formulas are normally declared in the tap config file; --repo allows an
ad-hoc update without one.`,
	Example: `  # Update one declared formula
  tapsync update packr

  # Update every formula of the tap
  tapsync update --all

  # Ad-hoc update without a config file
  tapsync update --repo gobuffalo/packr --formula-file Formula/packr.rb

  # Show what would change, write and commit nothing
  tapsync update packr --dry-run

  # Commit and push the rewritten formula
  tapsync update packr --commit --push`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := resolveToken(updateToken)
		if err != nil {
			return err
		}
		if updatePush {
			updateCommit = true
		}

		syncer := &sync.Synchronizer{
			Client:     ghrelease.NewClient(token),
			Downloader: download.New(token),
			TapDir:     updateTapDir,
			DryRun:     updateDryRun,
			Commit:     updateCommit,
			Push:       updatePush,
			OS:         updateOS,
			Arch:       updateArch,
		}
		ctx := cmd.Context()

		if updateRepo != "" {
			f := tapconfig.Formula{
				Repo:        updateRepo,
				FormulaFile: updateFormulaFile,
			}
			if len(args) == 1 {
				f.Name = args[0]
			} else if _, name, err := ghrelease.SplitRepo(updateRepo); err == nil {
				f.Name = name
			}
			res, err := syncer.Sync(ctx, f)
			if err != nil {
				return reportHint(err)
			}
			reportResult(res)
			return nil
		}

		cfgFile, err := tapconfig.ResolveConfigFile(configFile)
		if err != nil {
			return err
		}
		cfg, err := tapconfig.Load(cfgFile)
		if err != nil {
			return err
		}

		if updateAll {
			results, err := syncer.SyncAll(ctx, cfg)
			for _, res := range results {
				reportResult(res)
			}
			if err != nil {
				return reportHint(err)
			}
			return nil
		}

		if len(args) != 1 {
			return fmt.Errorf("formula name required unless --all or --repo is given")
		}
		f, err := cfg.FormulaByName(args[0])
		if err != nil {
			return err
		}
		res, err := syncer.Sync(ctx, f)
		if err != nil {
			return reportHint(err)
		}
		reportResult(res)
		return nil
	},
}

// reportHint logs remediation guidance for credential and access
// failures before handing the error back to cobra.
func reportHint(err error) error {
	if hint := ghrelease.RemediationHint(err); hint != "" {
		log.Errorf("%s", hint)
	}
	return err
}

// resolveToken runs credential discovery and prints remediation guidance
// when every source comes up empty.
func resolveToken(explicit string) (string, error) {
	resolver := &credential.Resolver{Token: explicit}
	token, err := resolver.Resolve()
	if err != nil {
		log.Errorf("no GitHub credential found; %s", credential.Remediation)
		return "", err
	}
	return token, nil
}

func reportResult(res *sync.Result) {
	if !res.Updated {
		log.Infof("%s: up to date at %s", res.Formula, res.OldVersion)
		return
	}
	log.Infof("%s: %s -> %s (%s)", res.Formula, res.OldVersion, res.NewVersion, res.AssetName)
}

func init() {
	UpdateCommand.Flags().StringVar(&updateRepo, "repo", "", "Upstream GitHub repository (owner/name) for an ad-hoc update")
	UpdateCommand.Flags().StringVar(&updateFormulaFile, "formula-file", "", "Path to the formula file (default: Formula/<name>.rb)")
	UpdateCommand.Flags().StringVar(&updateTapDir, "tap-dir", ".", "Root of the tap checkout")
	UpdateCommand.Flags().StringVar(&updateToken, "token", "", "GitHub API token (overrides environment and helpers)")
	UpdateCommand.Flags().BoolVarP(&updateDryRun, "dry-run", "n", false, "Print intended changes without writing or committing")
	UpdateCommand.Flags().BoolVar(&updateCommit, "commit", false, "Commit the rewritten formula")
	UpdateCommand.Flags().BoolVar(&updatePush, "push", false, "Push after committing (implies --commit)")
	UpdateCommand.Flags().BoolVar(&updateAll, "all", false, "Update every formula declared in the config")
	UpdateCommand.Flags().StringVar(&updateOS, "os", "", "OS token for asset selection (default: host OS)")
	UpdateCommand.Flags().StringVar(&updateArch, "arch", "", "Arch token for asset selection (default: host arch)")
}
