package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lanmesh/lanchat/internal/discovery"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List chat hosts advertising on the local network",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		found, err := discovery.Discover(cfg.MulticastGroup, cfg.DiscoveryPort, cfg.DiscoveryTimeout, logger)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Println("no hosts found")
			return nil
		}
		for _, ep := range found {
			fmt.Println(ep)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
