package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/solstrike-client/internal/economy"
	"github.com/rovshanmuradov/solstrike-client/internal/export"
	"github.com/rovshanmuradov/solstrike-client/internal/storage/models"
)

// exportLimit caps the rows read for --export and --daily unless --limit is set.
const exportLimit = 100_000

func newHistoryCmd(rt *runtime) *cobra.Command {
	var (
		authority   string
		limit       int
		format      string
		daily       string
		outputDir   string
		instruction string
		onlySuccess bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := optionalKey(authority)
			if err != nil {
				return fmt.Errorf("invalid authority: %w", err)
			}
			exporting := format != "" || daily != ""
			if exporting && !cmd.Flags().Changed("limit") {
				limit = exportLimit
			}
			rows, err := rt.app.History(rt.ctx, key, limit)
			if err != nil {
				return err
			}
			if exporting {
				return exportHistory(rt, rows, format, daily, outputDir, instruction, onlySuccess)
			}
			title(fmt.Sprintf("History (%d)", len(rows)))
			for _, row := range rows {
				line := fmt.Sprintf("%-24s %-9s slot=%d amount=%d", row.Instruction, row.Status, row.Slot, row.Amount)
				if row.ErrorMessage != "" {
					line += " error=" + row.ErrorMessage
				}
				field(row.CreatedAt.Format("2006-01-02 15:04:05"), line)
				field("", row.Signature)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&authority, "authority", "", "only transactions signed for this authority")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows")
	cmd.Flags().StringVar(&format, "export", "", "write the rows to a csv or json file")
	cmd.Flags().StringVar(&daily, "daily", "", "write a JSON report for one UTC day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&outputDir, "out", "exports", "output directory for --export and --daily")
	cmd.Flags().StringVar(&instruction, "instruction", "", "export only this instruction")
	cmd.Flags().BoolVar(&onlySuccess, "only-success", false, "export only transactions that landed without error")
	return cmd
}

func exportHistory(rt *runtime, rows []*models.Transaction, format, daily, outputDir, instruction string, onlySuccess bool) error {
	exporter := export.NewExporter(rt.log.WithComponent("export"))
	if daily != "" {
		date, err := time.Parse("2006-01-02", daily)
		if err != nil {
			return fmt.Errorf("invalid --daily date: %w", err)
		}
		path, err := exporter.ExportDailyReport(rows, date, outputDir)
		if err != nil {
			return err
		}
		if path == "" {
			warn("no transactions on " + daily)
			return nil
		}
		success("daily report written to " + path)
		return nil
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	path, err := exporter.Export(rows, export.Options{
		Format:      f,
		Instruction: instruction,
		OnlySuccess: onlySuccess,
		OutputDir:   outputDir,
	})
	if err != nil {
		return err
	}
	success(fmt.Sprintf("%d rows scanned, export written to %s", len(rows), path))
	return nil
}

func newRoundingCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "rounding",
		Short: "Check the configured rounding rule against journaled purchases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := rt.app.PinRounding(rt.ctx)
			if err != nil {
				return err
			}
			names := make([]string, len(report.Consistent))
			for i, rule := range report.Consistent {
				names[i] = rule.String()
			}
			title("Rounding")
			field("Purchases", report.Observations)
			field("Consistent rules", strings.Join(names, ", "))
			field("Configured", report.Configured)
			if !report.Agrees() {
				warn(fmt.Sprintf("rounding_rule %s contradicts observed purchases", report.Configured))
				return economy.ErrInvariantViolated
			}
			success("configured rule matches every purchase")
			return nil
		},
	}
}
