package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evopti/chargepilot/infra/simserver"
)

var simserverAddr string

var simserverCmd = &cobra.Command{
	Use:   "simserver",
	Short: "Serve the embedded home-energy simulator standalone",
	RunE:  runSimserver,
}

func init() {
	simserverCmd.Flags().StringVar(&simserverAddr, "addr", "", "listen address (overrides the config)")
	rootCmd.AddCommand(simserverCmd)
}

func runSimserver(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	srvCfg := cfg.Simulator
	if simserverAddr != "" {
		srvCfg.Addr = simserverAddr
	}
	return simserver.NewServer(srvCfg).Start(ctx)
}
