package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evopti/chargepilot/auth"
	"github.com/evopti/chargepilot/core/model"
	"github.com/evopti/chargepilot/core/scheduler"
	"github.com/evopti/chargepilot/infra/charger"
	"github.com/evopti/chargepilot/pkg/export"
)

var planMode string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute and print the charging schedule without charging",
	Long: `plan fetches the day's profiles and the current battery level,
computes the schedule the run would use and prints it. The simulated
day is left untouched.`,
	RunE: printPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planMode, "mode", "m", "load", `optimization mode: "load" or "price"`)
	rootCmd.AddCommand(planCmd)
}

func printPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	mode, err := model.ParseRunMode(planMode)
	if err != nil {
		return err
	}
	simCfg := cfg.Simulation
	simCfg.SetDefaults()
	if err := simCfg.Validate(); err != nil {
		return err
	}

	var opts []charger.Option
	opts = append(opts, charger.WithTimeout(simCfg.CallTimeout))
	if cfg.Charger.Auth.Enabled {
		opts = append(opts, charger.WithAuth(auth.NewClientCred(cfg.Charger.Auth)))
	}
	client := charger.NewHTTPClient(cfg.Charger.BaseURL, opts...)

	baseLoad, err := client.BaseLoad(ctx)
	if err != nil {
		return fmt.Errorf("fetching base load: %w", err)
	}
	prices, err := client.PricePerHour(ctx)
	if err != nil {
		return fmt.Errorf("fetching prices: %w", err)
	}
	tel, err := client.Info(ctx)
	if err != nil {
		return fmt.Errorf("fetching telemetry: %w", err)
	}

	needed := scheduler.HoursNeeded(tel.BatteryKWh, simCfg.PackKWh, simCfg.ChargerPowerKW)
	costs := baseLoad
	if mode == model.ModeByPrice {
		costs = prices
	}
	feasible := func(h int) bool {
		return scheduler.FitsUnderSiteCap(simCfg.SiteCapKW, baseLoad[h], simCfg.ChargerPowerKW)
	}
	plan := model.Plan{
		Mode:        mode,
		BaseLoad:    baseLoad,
		Prices:      prices,
		Schedule:    scheduler.ComputeSchedule(costs, needed, feasible),
		HoursNeeded: needed,
	}
	return export.RenderPlan(cmd.OutOrStdout(), plan)
}
