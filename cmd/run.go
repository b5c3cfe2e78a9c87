package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evopti/chargepilot/app"
	"github.com/evopti/chargepilot/core/model"
	"github.com/evopti/chargepilot/infra/logger"
	"github.com/evopti/chargepilot/pkg/export"
)

var runMode string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive one charging session through the simulated day",
	RunE:  runSession,
}

func init() {
	runCmd.Flags().StringVarP(&runMode, "mode", "m", "load", `optimization mode: "load" or "price"`)
	rootCmd.AddCommand(runCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// After the first signal the run aborts cooperatively; a
		// second one kills the process.
		<-ctx.Done()
		stop()
	}()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	mode, err := model.ParseRunMode(runMode)
	if err != nil {
		return err
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("run-command").Errorf("closing service: %v", err)
		}
	}()

	res, err := svc.Run(ctx, mode)
	if err != nil {
		return err
	}
	export.RenderResult(cmd.OutOrStdout(), res)
	if res.Outcome == model.OutcomeFailed {
		return fmt.Errorf("run failed: %w", res.Err)
	}
	return nil
}
