package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evopti/chargepilot/app"
	"github.com/evopti/chargepilot/infra/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep the client up and start runs over the HTTP API",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// After the first signal the service shuts down cleanly; a
		// second one kills the process.
		<-ctx.Done()
		stop()
	}()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.API.Enabled = true

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("serve-command").Errorf("closing service: %v", err)
		}
	}()

	return svc.Serve(ctx)
}
