package cmd

import (
	"fmt"

	"github.com/josephlewis42/magish/core/locate"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var scanOutput string

var scanCmd = &cobra.Command{
	Use:   "scan [DIR]",
	Short: "List every .sh script below DIR, or the working directory.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		root := "."
		if len(args) > 0 {
			root = args[0]
		}

		fsys := afero.NewOsFs()
		if ok, err := afero.DirExists(fsys, root); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%s: not a directory", root)
		}

		found := locate.Scan(fsys, root)
		if len(found) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No .sh files found below %s.\n", root)
			return nil
		}

		if err := locate.WriteListing(cmd.OutOrStdout(), found); err != nil {
			return err
		}

		if scanOutput != "" {
			if err := locate.SaveListing(fsys, scanOutput, found); err != nil {
				return err
			}
			newLogger(cmd).Printf("Listing saved to %s", scanOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "also write the listing to FILE")
}
