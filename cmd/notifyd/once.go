package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/taskboard/internal/notify"
)

func init() {
	onceCmd.AddCommand(onceFrequentCmd)
	onceCmd.AddCommand(onceWeeklyCmd)
	rootCmd.AddCommand(onceCmd)
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single notification cycle and exit",
}

var onceFrequentCmd = &cobra.Command{
	Use:   "frequent",
	Short: "Run the scheduled, due-soon, overdue and overtime rules once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, (*notify.Engine).RunFrequentCycle)
	},
}

var onceWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Run the weekly insights cycle once",
	Long: `Run the weekly insights cycle once. Users that already received this
week's insights are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, (*notify.Engine).RunWeeklyCycle)
	},
}

type cycleFunc func(e *notify.Engine, ctx context.Context) (notify.CycleReport, error)

func runOnce(cmd *cobra.Command, run cycleFunc) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := run(rt.engine, cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "users: %d  failed: %d  skipped: %d  notifications: %d\n",
		report.Users, report.FailedUsers, report.SkippedUsers, report.Notifications)
	return err
}
