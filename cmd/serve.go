package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"automatron/pkg/channel/line"
	"automatron/pkg/config"
	"automatron/pkg/dispatch"
	"automatron/pkg/gateway"
	"automatron/pkg/homebus"
	"automatron/pkg/ledger"
	"automatron/pkg/logger"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat-command relay server",
	Long:  "Runs the webhook, push, and remote-command HTTP endpoints of the relay.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

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
		log := slog.Default().With("component", "cmd.serve")

		lineClient, err := line.NewClient(cfg.Line, log)
		if err != nil {
			log.Error("Failed to initialize LINE client", "error", err)
			return
		}

		home, err := homebus.NewClient(cfg.Home, log)
		if err != nil {
			log.Error("Failed to initialize home bus client", "error", err)
			return
		}

		expenses, err := ledger.NewClient(cfg.Expense, log)
		if err != nil {
			log.Error("Failed to initialize ledger client", "error", err)
			return
		}

		dispatcher, err := dispatch.New(home, expenses, version, log)
		if err != nil {
			log.Error("Failed to initialize dispatcher", "error", err)
			return
		}

		svc, err := gateway.NewService(cfg, lineClient, lineClient, dispatcher, log)
		if err != nil {
			log.Error("Failed to initialize relay service", "error", err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("Relay started", "topic", cfg.Home.Topic)
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Relay runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
