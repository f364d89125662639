package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set [text]",
	Short: "Save the note, replacing any previous content",
	Long: `Encrypts the given text and stores it as the single note, fully
replacing whatever was stored before. With no argument the note text is
read from stdin until EOF.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var text string
		if len(args) == 1 {
			text = args[0]
		} else {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read note from stdin: %w", err)
			}
			text = strings.TrimSuffix(string(data), "\n")
		}

		if err := vault.Save(text); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Note saved.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}
