package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swanjin/go2/internal/config"
	"github.com/swanjin/go2/internal/logging"
)

var (
	// Version information (set by the release build)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	configPath string
	transport  string
)

var rootCmd = &cobra.Command{
	Use:           "go2",
	Short:         "Publish and subscribe HelloWorldData::Msg samples",
	Long:          `Encodes HelloWorldData::Msg samples as CDR and moves them over Kafka or NATS.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "go2 version %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (defaults to $CONFIG_PATH or config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&transport, "transport", "t", "", "Transport to use: kafka or nats (overrides config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newPublishCmd())
	rootCmd.AddCommand(newSubscribeCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newDescribeCmd())
	rootCmd.AddCommand(newEncodeCmd())
	rootCmd.AddCommand(newDecodeCmd())
}

// setup loads configuration and builds the logger shared by every command
func setup() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if transport != "" {
		cfg.Transport = transport
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
