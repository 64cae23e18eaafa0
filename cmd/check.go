package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/apex/log"
	"github.com/brewtap-tools/tapsync/pkg/formula"
	"github.com/brewtap-tools/tapsync/pkg/tapconfig"
	"github.com/spf13/cobra"
)

var (
	// Flags for check command
	checkTapDir string
)

// CheckCommand represents the check command
var CheckCommand = &cobra.Command{
	Use:   "check",
	Short: "Validate the tap config and formula files",
	Long: `Checks the tap configuration by:
- Validating the config file format and formula declarations
- Verifying each declared formula file exists
- Verifying each formula file carries rewritable version, url and sha256 fields

No network calls are made; this validates only what is on disk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, err := tapconfig.ResolveConfigFile(configFile)
		if err != nil {
			return err
		}
		cfg, err := tapconfig.Load(cfgFile)
		if err != nil {
			return err
		}
		log.Infof("config %s declares %d formulas", cfgFile, len(cfg.Formulas))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FORMULA\tREPO\tVERSION\tFILE")

		var failed bool
		for _, f := range cfg.Formulas {
			path := filepath.Join(checkTapDir, f.Path())
			doc, err := os.ReadFile(path)
			if err != nil {
				log.Errorf("%s: cannot read formula file: %v", f.Name, err)
				failed = true
				continue
			}
			fields, err := formula.Extract(string(doc))
			if err != nil {
				log.Errorf("%s: %v", f.Name, err)
				failed = true
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Name, f.Repo, fields.Version, f.Path())
		}
		w.Flush()

		if failed {
			return fmt.Errorf("one or more formulas failed validation")
		}
		log.Info("all formulas valid")
		return nil
	},
}

func init() {
	CheckCommand.Flags().StringVar(&checkTapDir, "tap-dir", ".", "Root of the tap checkout")
}
