package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/brieflyhq/briefly/internal/cli"
	"github.com/brieflyhq/briefly/internal/engine"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <user-id>",
		Short: "Scan a user's inbox and update their brief",
		Long: `Fetch recent messages from the user's Gmail account, classify each
one against their persona, and persist one summary per new message.

Messages already summarized in a previous scan are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}

	cmd.Flags().String("range", "auto", "lookback window (auto, 2hours, 1day, 3days, 7days, 30days)")
	cmd.Flags().Int("limit", 0, "max messages to fetch (0 uses the configured default)")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	userID := args[0]

	timeRange, _ := cmd.Flags().GetString("range")
	limit, _ := cmd.Flags().GetInt("limit")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	eng, cleanup, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println(cli.FormatTitle("Scanning inbox for " + userID))

	opts := engine.ScanOptions{TimeRange: timeRange, Limit: limit}

	var bar *progressbar.ProgressBar
	if !noProgress {
		// The batch size is only known after the fetch, so the bar is
		// created on the first progress tick.
		opts.OnProgress = func(_, total int) {
			if bar == nil {
				bar = cli.NewScanProgress(total, os.Stdout)
			}
			_ = bar.Add(1)
		}
	}

	report, err := eng.RunScan(ctx, userID, opts)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if report.UsedFallback {
		fmt.Println(cli.FormatWarning("Time-windowed search came up empty, showing latest inbox messages instead"))
	}

	fmt.Println(cli.FormatSuccess(report.Message))
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("  found %d · new %d · skipped %d · took %s",
		report.TotalFound, report.Processed, report.Skipped, formatDuration(report.Duration))))

	return nil
}
