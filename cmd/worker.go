package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/leave-management/internal/core/events"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start the scheduler that runs monthly accruals and annual carry-forward, and the outbox dispatcher that delivers leave events to notifications and email.`,
}

var schedulerWorkerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Start the accrual and carry-forward scheduler",
	Run: func(cmd *cobra.Command, args []string) {
		runWorkers(true, false)
	},
}

var outboxWorkerCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Start the outbox dispatcher",
	Long:  `Poll pending outbox messages, publish them on the event bus and send the resulting notifications and emails.`,
	Run: func(cmd *cobra.Command, args []string) {
		runWorkers(false, true)
	},
}

var allWorkersCmd = &cobra.Command{
	Use:   "all",
	Short: "Start every background worker in one process",
	Run: func(cmd *cobra.Command, args []string) {
		runWorkers(true, true)
	},
}

var (
	outboxInterval    time.Duration
	outboxBatchSize   int
	schedulerInterval time.Duration
)

func runWorkers(withScheduler, withOutbox bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	log := deps.Logger

	g, gctx := errgroup.WithContext(ctx)

	if withScheduler {
		jobs := deps.Scheduler
		if schedulerInterval > 0 {
			jobs = jobs.WithInterval(schedulerInterval)
		}
		log.Info("starting scheduler worker", "interval", jobs.Interval())
		g.Go(func() error {
			jobs.Run(gctx)
			return nil
		})
	}

	if withOutbox {
		dispatcher := deps.Dispatcher
		if outboxBatchSize > 0 {
			dispatcher = events.NewOutboxDispatcher(deps.Gorm, deps.EventBus, deps.Clock, events.DispatcherConfig{
				BatchSize:   outboxBatchSize,
				MaxAttempts: deps.Config.Outbox.MaxAttempts,
				BaseBackoff: deps.Config.Outbox.BaseBackoff,
				MaxBackoff:  deps.Config.Outbox.MaxBackoff,
			}, log)
		}
		interval := getDurationFlag(outboxInterval, deps.Config.Outbox.Interval)
		log.Info("starting outbox worker", "interval", interval)
		g.Go(func() error {
			dispatcher.Run(gctx, interval)
			return nil
		})
	}

	log.Info("workers running. Press Ctrl+C to stop.")
	if err := g.Wait(); err != nil {
		log.Error("worker stopped with error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	deps.Close(shutdownCtx)
	log.Info("workers shutdown complete")
}

func getDurationFlag(flagValue, configValue time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	if configValue > 0 {
		return configValue
	}
	return 2 * time.Second
}

func init() {
	schedulerWorkerCmd.Flags().DurationVar(&schedulerInterval, "interval", 0, "How often the scheduler checks for due jobs (overrides config)")
	outboxWorkerCmd.Flags().DurationVar(&outboxInterval, "interval", 0, "Outbox polling interval (overrides config)")
	outboxWorkerCmd.Flags().IntVar(&outboxBatchSize, "batch-size", 0, "Messages claimed per poll (overrides config)")
	allWorkersCmd.Flags().DurationVar(&outboxInterval, "outbox-interval", 0, "Outbox polling interval (overrides config)")
	allWorkersCmd.Flags().DurationVar(&schedulerInterval, "scheduler-interval", 0, "Scheduler check interval (overrides config)")

	workerCmd.AddCommand(schedulerWorkerCmd)
	workerCmd.AddCommand(outboxWorkerCmd)
	workerCmd.AddCommand(allWorkersCmd)

	rootCmd.AddCommand(workerCmd)
}
