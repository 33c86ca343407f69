package cmd

import (
	"fmt"
	"runtime"

	"github.com/josephlewis42/magish/core/backend"
	"github.com/spf13/cobra"
)

var checkOpenGuide bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that this host can run scripts.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		capability := backend.HostProber().Check(cmd.Context(), runtime.GOOS)

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Platform:  %s\n", capability.Platform)
		fmt.Fprintf(w, "Supported: %t\n", capability.Supported)
		fmt.Fprintln(w, capability.Message)
		if capability.Hint != "" {
			fmt.Fprintln(w, capability.Hint)
		}

		if !capability.Supported {
			if checkOpenGuide && capability.Platform == backend.PlatformWindows {
				if err := backend.OpenInstallGuide(); err != nil {
					return err
				}
			}
			return backend.ErrUnsupportedPlatform
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkOpenGuide, "open", false, "open the WSL install guide if WSL2 is missing")
}
