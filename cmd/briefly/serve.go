package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brieflyhq/briefly/internal/cli"
	"github.com/brieflyhq/briefly/internal/engine"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled scans for every connected user",
		Long: `Run the scan scheduler. Every interval, all users with stored Gmail
credentials are scanned sequentially; one user's failure never stops
the rest.

With --once, a single sweep runs and the command exits.`,
		RunE: runServe,
	}

	cmd.Flags().Duration("interval", 0, "time between sweeps (default 24h)")
	cmd.Flags().Bool("once", false, "run a single sweep and exit")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	interval, _ := cmd.Flags().GetDuration("interval")
	once, _ := cmd.Flags().GetBool("once")

	if interval <= 0 {
		interval = viper.GetDuration("scan.interval")
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	eng, cleanup, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if once {
		reports := eng.RunScheduledScanAllUsers(ctx)
		if len(reports) == 0 {
			fmt.Println(cli.FormatInfo("No users with stored credentials"))
			return nil
		}
		for _, report := range reports {
			line := fmt.Sprintf("%s: %s", report.UserID, report.Message)
			if report.Processed > 0 {
				fmt.Println(cli.FormatSuccess(line))
			} else {
				fmt.Println(cli.FormatInfo(line))
			}
		}
		return nil
	}

	slog.Info("Starting scan scheduler", "interval", interval)
	sched := engine.NewScheduler(eng, interval, slog.Default())
	sched.Run(ctx)

	return nil
}
