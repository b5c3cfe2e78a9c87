package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/evopti/chargepilot/core/runlog"
	"github.com/evopti/chargepilot/infra/logger"
	"github.com/evopti/chargepilot/pkg/export"
)

var (
	exportFormat string
	exportMode   string
	exportRunID  string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the run history from the configured run log",
	Long: `export writes the recorded runs as CSV or JSON. With --run it
writes that run's tick-by-tick sample series instead.`,
	RunE: exportRuns,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", `output format: "csv" or "json"`)
	exportCmd.Flags().StringVarP(&exportMode, "mode", "m", "", "only runs of this mode")
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "export this run's sample series")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func exportRuns(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	store, err := runlog.NewStore(cfg.RunLog.ModuleConfig())
	if err != nil {
		return fmt.Errorf("run log store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.New("export").Errorf("store close: %v", err)
		}
	}()

	records, err := store.Query(ctx, time.Time{}, time.Time{}, exportMode)
	if err != nil {
		return fmt.Errorf("query run log: %w", err)
	}

	out := cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if exportRunID != "" {
		return exportSamples(out, records, exportRunID)
	}
	switch exportFormat {
	case "csv":
		return export.WriteRecordsCSV(out, records)
	case "json":
		return export.WriteRecordsJSON(out, records)
	default:
		return fmt.Errorf("unknown format %q", exportFormat)
	}
}

func exportSamples(out io.Writer, records []runlog.RunRecord, runID string) error {
	for _, r := range records {
		if r.ID != runID {
			continue
		}
		switch exportFormat {
		case "csv":
			return export.WriteSamplesCSV(out, r.Samples)
		case "json":
			return export.WriteSamplesJSON(out, r.Samples)
		default:
			return fmt.Errorf("unknown format %q", exportFormat)
		}
	}
	return fmt.Errorf("run %q not found in the run log", runID)
}
