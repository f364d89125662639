package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"southwinds.dev/notesafe"
	"southwinds.dev/notesafe/audit"
	"southwinds.dev/notesafe/persist"
)

var (
	cfgFile string
	vault   *notesafe.NoteVault
	store   persist.Store
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notesafe",
	Short: "An encrypted single-note vault backed by the OS credential store",
	Long: `notesafe keeps one free-text note encrypted at rest with AES-256-CBC.
The symmetric key is generated once, stored in the OS credential service
(or a restricted file), and never rotated. Access can be gated behind an
interactive confirmation standing in for the device's biometric check.`,
	PersistentPreRunE: initializeVault,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if vault != nil {
			return vault.Close()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.notesafe.yaml)")
	rootCmd.PersistentFlags().StringP("path", "p", "", "base path for the filesystem store")
	rootCmd.PersistentFlags().String("store-type", "", "storage backend type (filesystem, keyring, memory)")
	rootCmd.PersistentFlags().String("service", "", "credential service name for the keyring store")
	rootCmd.PersistentFlags().Bool("confirm", false, "require interactive confirmation before each operation")

	bindFlagOrPanic("store.path", "path")
	bindFlagOrPanic("store.type", "store-type")
	bindFlagOrPanic("store.service", "service")
	bindFlagOrPanic("gate.confirm", "confirm")

	rootCmd.PersistentFlags().Bool("audit", false, "enable audit logging")
	rootCmd.PersistentFlags().String("audit-file", "", "audit log file path")

	bindFlagOrPanic("audit.enabled", "audit")
	bindFlagOrPanic("audit.file_path", "audit-file")
}

func bindFlagOrPanic(configKey, flagName string) {
	if err := viper.BindPFlag(configKey, rootCmd.PersistentFlags().Lookup(flagName)); err != nil {
		panic(fmt.Sprintf("failed to bind %s flag: %v", flagName, err))
	}
}

func initConfig() {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigName(".notesafe")
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("NOTESAFE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config: %v\n", err)
		}
	}
}

func setDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	viper.SetDefault("store.type", string(persist.StoreTypeKeyring))
	viper.SetDefault("store.path", filepath.Join(home, ".notesafe"))
	viper.SetDefault("store.service", "notesafe")
	viper.SetDefault("audit.enabled", false)
	viper.SetDefault("audit.file_path", filepath.Join(home, ".notesafe", "audit.log"))
}

func initializeVault(cmd *cobra.Command, args []string) error {
	var err error

	storeType := persist.StoreType(viper.GetString("store.type"))
	switch storeType {
	case persist.StoreTypeFileSystem:
		store, err = persist.NewFileSystemStore(viper.GetString("store.path"))
	case persist.StoreTypeKeyring:
		store, err = persist.NewKeyringStore(viper.GetString("store.service"))
	case persist.StoreTypeMemory:
		store = persist.NewMemoryStore()
	default:
		return fmt.Errorf("unsupported store type: %s", storeType)
	}
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	options := notesafe.DefaultOptions()
	if viper.GetBool("gate.confirm") {
		options.Gate = confirmGate(cmd)
	}
	if viper.GetBool("audit.enabled") {
		options.Audit = &audit.Config{
			Enabled: true,
			Type:    audit.FileAuditType,
			Options: map[string]interface{}{
				"file_path": viper.GetString("audit.file_path"),
			},
		}
	}

	vault, err = notesafe.New(options, store)
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	return nil
}

// confirmGate is the CLI's stand-in for a biometric check: an explicit
// granted/denied answer from the terminal.
func confirmGate(cmd *cobra.Command) notesafe.Gate {
	return notesafe.GateFunc(func() (notesafe.Decision, error) {
		fmt.Fprint(cmd.OutOrStdout(), "Unlock the note vault? [y/N]: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, err := reader.ReadString('\n')
		if err != nil {
			return notesafe.DecisionDenied, fmt.Errorf("failed to read confirmation: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return notesafe.DecisionGranted, nil
		default:
			return notesafe.DecisionDenied, nil
		}
	})
}
