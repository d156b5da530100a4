package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lanmesh/lanchat/internal/config"
	"github.com/lanmesh/lanchat/internal/log"
)

var (
	flagConfig   string
	flagName     string
	flagChatPort int
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "lanchat",
	Short: "lanchat - peer-discoverable text chat for local networks",
	Long: `lanchat hosts or joins a multi-client text chat carried over raw TCP
sockets on a local network. Hosts announce themselves over UDP multicast so
clients can find them without knowing an address.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagName, "name", "", "display name (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagChatPort, "port", 0, "chat port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig resolves configuration with flag overrides applied on top.
func loadConfig() (config.Config, *zerolog.Logger, error) {
	bootstrap := log.New("info")
	cfg, _, err := config.Load(bootstrap, flagConfig)
	if err != nil {
		return cfg, bootstrap, err
	}

	if flagName != "" {
		cfg.Name = flagName
	}
	if flagChatPort != 0 {
		cfg.ChatPort = flagChatPort
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	logger := log.New(cfg.LogLevel)
	return cfg, logger, nil
}
