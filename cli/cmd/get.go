package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Decrypt and print the stored note",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		note, found, err := vault.Load()
		if err != nil {
			return err
		}
		if !found {
			fmt.Fprintln(cmd.OutOrStdout(), "No note stored yet.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), note)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
