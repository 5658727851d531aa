package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/accrual"
	"github.com/frahmantamala/leave-management/internal/carryforward"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/period"
)

type RepositoryAPI interface {
	Create(ctx context.Context, run *JobRun) error
	Finish(ctx context.Context, run *JobRun) error
	HasCompleted(ctx context.Context, jobType, runKey string) (bool, error)
	List(ctx context.Context, jobType string, limit int) ([]*JobRun, error)
}

type AccrualRunner interface {
	ProcessMonthlyAccruals(ctx context.Context, ym period.YearMonth) (*accrual.BatchResult, error)
}

type CarryForwardRunner interface {
	ProcessAnnualCarryForward(ctx context.Context, fromYear, toYear int) (*carryforward.BatchResult, error)
}

type Config struct {
	// AccrualDay is the first day of the month on which the previous month is accrued.
	AccrualDay        int
	CarryForwardMonth time.Month
	CarryForwardDay   int
	Interval          time.Duration
}

func (c Config) withDefaults() Config {
	if c.AccrualDay <= 0 || c.AccrualDay > 28 {
		c.AccrualDay = 1
	}
	if c.CarryForwardMonth < time.January || c.CarryForwardMonth > time.December {
		c.CarryForwardMonth = time.January
	}
	if c.CarryForwardDay <= 0 || c.CarryForwardDay > 28 {
		c.CarryForwardDay = 1
	}
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	return c
}

type Service struct {
	repo          RepositoryAPI
	accruals      AccrualRunner
	carryForwards CarryForwardRunner
	clock         clock.Clock
	cfg           Config
	logger        *slog.Logger
}

func NewService(repo RepositoryAPI, accruals AccrualRunner, carryForwards CarryForwardRunner, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		accruals:      accruals,
		carryForwards: carryForwards,
		clock:         clk,
		cfg:           cfg.withDefaults(),
		logger:        logger,
	}
}

func (s *Service) Interval() time.Duration {
	return s.cfg.Interval
}

// WithInterval returns a copy of the service that checks for due jobs every d.
func (s *Service) WithInterval(d time.Duration) *Service {
	clone := *s
	clone.cfg.Interval = d
	clone.cfg = clone.cfg.withDefaults()
	return &clone
}

func carryForwardKey(fromYear, toYear int) string {
	return fmt.Sprintf("%d-%d", fromYear, toYear)
}

// RunMonthlyAccrual accrues ym for every eligible balance and records the run.
func (s *Service) RunMonthlyAccrual(ctx context.Context, ym period.YearMonth) (*JobRun, error) {
	run, err := s.start(ctx, JobTypeMonthlyAccrual, ym.String())
	if err != nil {
		return nil, err
	}

	result, runErr := s.accruals.ProcessMonthlyAccruals(ctx, ym)
	if result != nil {
		run.Details.Processed = len(result.Processed)
		run.Details.Skipped = result.Skipped
		for _, f := range result.Failures {
			run.Details.Failures = append(run.Details.Failures, fmt.Sprintf("balance %d: %s", f.EmployeeBalanceID, f.Error))
		}
	}
	return s.finish(ctx, run, runErr)
}

// RunAnnualCarryForward moves every carry-forward balance from fromYear into toYear and records the run.
func (s *Service) RunAnnualCarryForward(ctx context.Context, fromYear, toYear int) (*JobRun, error) {
	run, err := s.start(ctx, JobTypeAnnualCarryForward, carryForwardKey(fromYear, toYear))
	if err != nil {
		return nil, err
	}

	result, runErr := s.carryForwards.ProcessAnnualCarryForward(ctx, fromYear, toYear)
	if result != nil {
		run.Details.Processed = len(result.Processed)
		run.Details.Skipped = result.Skipped
		for _, f := range result.Failures {
			run.Details.Failures = append(run.Details.Failures, fmt.Sprintf("balance %d: %s", f.EmployeeBalanceID, f.Error))
		}
	}
	return s.finish(ctx, run, runErr)
}

func (s *Service) start(ctx context.Context, jobType, key string) (*JobRun, error) {
	run := &JobRun{
		JobType:   jobType,
		RunKey:    key,
		Status:    StatusRunning,
		StartedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, run); err != nil {
		s.logger.Error("failed to record job start", "job_type", jobType, "run_key", key, "error", err)
		return nil, internal.NewInternalError("failed to record job run", err)
	}
	s.logger.Info("job started", "job_type", jobType, "run_key", key, "job_run_id", run.ID)
	return run, nil
}

func (s *Service) finish(ctx context.Context, run *JobRun, runErr error) (*JobRun, error) {
	run.Details.Failed = len(run.Details.Failures)
	switch {
	case runErr != nil:
		run.Status = StatusFailed
		run.Details.Error = runErr.Error()
	case run.Details.Failed > 0:
		run.Status = StatusPartial
	default:
		run.Status = StatusSucceeded
	}
	completedAt := s.clock.Now()
	run.CompletedAt = &completedAt

	// the job's own context may already be cancelled; the ledger row must still close
	if err := s.repo.Finish(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Error("failed to record job completion", "job_run_id", run.ID, "error", err)
		return run, internal.NewInternalError("failed to record job run", err)
	}

	s.logger.Info("job finished",
		"job_type", run.JobType,
		"run_key", run.RunKey,
		"status", run.Status,
		"processed", run.Details.Processed,
		"skipped", run.Details.Skipped,
		"failed", run.Details.Failed)
	return run, runErr
}

// Tick starts whichever jobs are due today and have not completed for their
// period yet. Failed runs are retried on the next tick.
func (s *Service) Tick(ctx context.Context) ([]*JobRun, error) {
	today := s.clock.Today()
	var runs []*JobRun

	if today.Day() >= s.cfg.AccrualDay {
		ym := accrual.PreviousMonth(today)
		run, err := s.runIfDue(ctx, JobTypeMonthlyAccrual, ym.String(), func() (*JobRun, error) {
			return s.RunMonthlyAccrual(ctx, ym)
		})
		if run != nil {
			runs = append(runs, run)
		}
		if err != nil {
			return runs, err
		}
	}

	if today.Month() == s.cfg.CarryForwardMonth && today.Day() >= s.cfg.CarryForwardDay {
		fromYear, toYear := carryforward.DefaultTransition(today)
		run, err := s.runIfDue(ctx, JobTypeAnnualCarryForward, carryForwardKey(fromYear, toYear), func() (*JobRun, error) {
			return s.RunAnnualCarryForward(ctx, fromYear, toYear)
		})
		if run != nil {
			runs = append(runs, run)
		}
		if err != nil {
			return runs, err
		}
	}
	return runs, nil
}

func (s *Service) runIfDue(ctx context.Context, jobType, key string, run func() (*JobRun, error)) (*JobRun, error) {
	done, err := s.repo.HasCompleted(ctx, jobType, key)
	if err != nil {
		return nil, internal.NewInternalError("failed to check job runs", err)
	}
	if done {
		return nil, nil
	}
	return run()
}

// Run ticks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "interval", s.cfg.Interval.String(), "accrual_day", s.cfg.AccrualDay)
	for {
		if _, err := s.Tick(ctx); err != nil {
			s.logger.Error("scheduler tick failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) ListRuns(ctx context.Context, jobType string, limit int) ([]*JobRun, error) {
	if jobType != "" && jobType != JobTypeMonthlyAccrual && jobType != JobTypeAnnualCarryForward {
		return nil, internal.NewValidationFieldError("type", "unknown job type "+jobType, internal.ErrCodeValidationFailed)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	runs, err := s.repo.List(ctx, jobType, limit)
	if err != nil {
		s.logger.Error("failed to list job runs", "error", err)
		return nil, internal.NewInternalError("failed to list job runs", err)
	}
	for _, run := range runs {
		if run.detailsErr != nil {
			s.logger.Warn("job run details could not be decoded", "job_run_id", run.ID, "error", run.detailsErr)
		}
	}
	return runs, nil
}
