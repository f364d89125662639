package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"southwinds.dev/notesafe/internal/misc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store reachability and whether a note is present",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Store type: %s\n", store.GetType())

		if err := store.Ping(); err != nil {
			fmt.Fprintf(out, "Store:      unavailable (%v)\n", err)
			return nil
		}
		fmt.Fprintln(out, "Store:      available")

		keyExists, err := store.Exists(misc.DefaultKeyEntryID)
		if err != nil {
			return fmt.Errorf("failed to check key: %w", err)
		}
		fmt.Fprintf(out, "Key:        %s\n", presence(keyExists))

		noteExists, err := vault.Exists()
		if err != nil {
			return fmt.Errorf("failed to check note: %w", err)
		}
		fmt.Fprintf(out, "Note:       %s\n", presence(noteExists))
		return nil
	},
}

func presence(exists bool) string {
	if exists {
		return "present"
	}
	return "absent"
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
