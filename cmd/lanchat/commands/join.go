package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lanmesh/lanchat/internal/app"
	"github.com/lanmesh/lanchat/internal/discovery"
)

var joinCmd = &cobra.Command{
	Use:   "join [host:port]",
	Short: "Join a chat session, discovering the host when no address is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		addr := ""
		if len(args) == 1 {
			addr = args[0]
		} else {
			found, err := discovery.Discover(cfg.MulticastGroup, cfg.DiscoveryPort, cfg.DiscoveryTimeout, logger)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return fmt.Errorf("no hosts found on the local network within %s", cfg.DiscoveryTimeout)
			}
			addr = found[0].String()
			logger.Info().Str("host", addr).Msg("discovered host")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Join(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
}
