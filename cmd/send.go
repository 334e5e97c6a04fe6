package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"automatron/pkg/config"
	"automatron/pkg/homebus"
	"automatron/pkg/logger"

	"github.com/spf13/cobra"
)

// sendCmd publishes bus commands from the terminal, bypassing the chat
// transport. Useful for testing device wiring.
var sendCmd = &cobra.Command{
	Use:   "send <command>...",
	Short: "Publish commands directly to the home-automation bus",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.send")

		home, err := homebus.NewClient(cfg.Home, log)
		if err != nil {
			log.Error("Failed to initialize home bus client", "error", err)
			return
		}

		if err := home.Send(context.Background(), args...); err != nil {
			log.Error("Failed to send commands", "error", err)
			return
		}

		fmt.Printf("sent %d command(s)\n", len(args))
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
