package cmd

import (
	"fmt"
	"os"

	"github.com/josephlewis42/magish/core/locate"
	"github.com/josephlewis42/magish/core/script"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var runDir string

// runCmd executes a single script without the interactive shell.
var runCmd = &cobra.Command{
	Use:   "run SCRIPT|DIR",
	Short: "Run a script, or a folder's default script, line by line.",
	Long: `Run a script line by line without the interactive shell.

If the argument is a folder, its default script is used: base.sh, index.sh,
script.sh, then the first .sh file by name. Lines run from --dir, or the
working directory if unset.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		if err := checkHost(cmd, true); err != nil {
			return err
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		target, err := locate.NewLocator(afero.NewOsFs()).Resolve(args[0])
		if err != nil {
			return err
		}

		startDir := runDir
		if startDir == "" {
			if startDir, err = os.Getwd(); err != nil {
				return err
			}
		}

		engine, closeLog := newEngine(cmd, cfg)
		defer closeLog()

		ctx, stop := interruptContext(cmd)
		defer stop()

		return resultError(engine.Execute(ctx, target, startDir))
	},
}

// resultError converts an unsuccessful execution into an error for the exit
// status.
func resultError(result script.Result) error {
	if result.Outcome == script.Completed {
		return nil
	}
	return fmt.Errorf("%s: %s: %w", result.Script, result.Outcome, result.Err)
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runDir, "dir", "d", "", "directory the first line runs in")
}
