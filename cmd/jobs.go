package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/leave-management/internal/accrual"
	"github.com/frahmantamala/leave-management/internal/carryforward"
	"github.com/frahmantamala/leave-management/internal/core/period"
	"github.com/frahmantamala/leave-management/internal/scheduler"
)

var accrualCmd = &cobra.Command{
	Use:   "accrual",
	Short: "Leave accrual commands",
}

var accrualRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Accrue every eligible balance for one month",
	Long:  `Run the monthly accrual for --year/--month, defaulting to the month before today. The run is recorded in job_runs.`,
	RunE:  runAccrual,
}

var carryForwardCmd = &cobra.Command{
	Use:   "carry-forward",
	Short: "Year-end carry-forward commands",
}

var carryForwardRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Carry balances from one year into the next",
	Long:  `Cap every carry-forward balance for --from into --to, defaulting to last year into this year. The run is recorded in job_runs.`,
	RunE:  runCarryForward,
}

var (
	accrualYear      int
	accrualMonth     int
	carryForwardFrom int
	carryForwardTo   int
)

func runAccrual(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	deps, err := initializeDependencies(ctx)
	if err != nil {
		return err
	}
	defer closeWithTimeout(deps)

	ym := accrual.PreviousMonth(deps.Clock.Today())
	if accrualYear != 0 || accrualMonth != 0 {
		ym, err = period.New(accrualYear, time.Month(accrualMonth))
		if err != nil {
			return fmt.Errorf("invalid period: %w", err)
		}
	}

	deps.Logger.Info("running monthly accrual", "year_month", ym.String())
	run, err := deps.Scheduler.RunMonthlyAccrual(ctx, ym)
	printRun(run)
	return err
}

func runCarryForward(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	deps, err := initializeDependencies(ctx)
	if err != nil {
		return err
	}
	defer closeWithTimeout(deps)

	fromYear, toYear := carryforward.DefaultTransition(deps.Clock.Today())
	if carryForwardFrom != 0 {
		fromYear = carryForwardFrom
		toYear = fromYear + 1
	}
	if carryForwardTo != 0 {
		toYear = carryForwardTo
	}

	deps.Logger.Info("running annual carry-forward", "from_year", fromYear, "to_year", toYear)
	run, err := deps.Scheduler.RunAnnualCarryForward(ctx, fromYear, toYear)
	printRun(run)
	return err
}

func printRun(run *scheduler.JobRun) {
	if run == nil {
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(run)
}

func closeWithTimeout(deps *Dependencies) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	deps.Close(ctx)
}

func init() {
	accrualRunCmd.Flags().IntVar(&accrualYear, "year", 0, "Year to accrue (defaults to last month's year)")
	accrualRunCmd.Flags().IntVar(&accrualMonth, "month", 0, "Month to accrue, 1-12 (defaults to last month)")
	carryForwardRunCmd.Flags().IntVar(&carryForwardFrom, "from", 0, "Year being closed (defaults to last year)")
	carryForwardRunCmd.Flags().IntVar(&carryForwardTo, "to", 0, "Year receiving the balance (defaults to --from + 1)")

	accrualCmd.AddCommand(accrualRunCmd)
	carryForwardCmd.AddCommand(carryForwardRunCmd)

	rootCmd.AddCommand(accrualCmd)
	rootCmd.AddCommand(carryForwardCmd)
}
