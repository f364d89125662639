package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var backupCmd = &cobra.Command{
	Use:   "backup <file>",
	Short: "Export a passphrase-sealed recovery container",
	Long: `Writes the note key and the encrypted note record to a recovery
container sealed with a passphrase. Losing the credential store without
a backup destroys the note irrecoverably.

The passphrase is taken from --passphrase, the NOTESAFE_PASSPHRASE
environment variable, or an interactive prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := resolvePassphrase(cmd)
		if err != nil {
			return err
		}

		container, err := vault.ExportBackup(args[0], passphrase)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Backup %s written to %s\n", container.BackupID, args[0])
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore the key and note from a recovery container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := resolvePassphrase(cmd)
		if err != nil {
			return err
		}

		if err = vault.RestoreBackup(args[0], passphrase); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Backup restored.")
		return nil
	},
}

func resolvePassphrase(cmd *cobra.Command) (string, error) {
	passphrase, err := cmd.Flags().GetString("passphrase")
	if err != nil {
		return "", err
	}
	if passphrase != "" {
		return passphrase, nil
	}

	if env := os.Getenv("NOTESAFE_PASSPHRASE"); env != "" {
		return env, nil
	}

	fmt.Fprint(cmd.OutOrStdout(), "Passphrase: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("passphrase is required")
	}
	return string(raw), nil
}

func init() {
	backupCmd.Flags().String("passphrase", "", "backup passphrase (or use NOTESAFE_PASSPHRASE)")
	restoreCmd.Flags().String("passphrase", "", "backup passphrase (or use NOTESAFE_PASSPHRASE)")
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}
