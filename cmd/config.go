package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/josephlewis42/magish/core/config"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the active configuration.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "# %s\n", filepath.Join(cfg.Dir(), config.ConfigurationName))
		fmt.Fprint(w, string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
