package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lanmesh/lanchat/internal/app"
	"github.com/lanmesh/lanchat/internal/core"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Host a chat session and advertise it on the local network",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.Host(ctx)
		var sessionErr *core.SessionError
		if errors.As(err, &sessionErr) && sessionErr.Code == core.ErrCodeAddrInUse {
			logger.Error().Msg("another host is already using this port; try 'lanchat discover' and join it instead")
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(hostCmd)
}
