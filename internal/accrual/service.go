package accrual

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/balance"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/database"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/core/period"
	"github.com/frahmantamala/leave-management/internal/user"
)

type RepositoryAPI interface {
	// Create reports a second record for the same balance and period as a state error.
	Create(ctx context.Context, a *LeaveAccrual) error
	ExistsForPeriod(ctx context.Context, balanceID int64, ym period.YearMonth) (bool, error)
	CountForPeriod(ctx context.Context, ym period.YearMonth) (int64, error)
	FindByBalance(ctx context.Context, balanceID int64) ([]*LeaveAccrual, error)
	FindByBalanceAndPeriod(ctx context.Context, balanceID int64, ym period.YearMonth) (*LeaveAccrual, error)
	ListByPeriod(ctx context.Context, ym period.YearMonth) ([]*LeaveAccrual, error)
	ListAll(ctx context.Context) ([]*LeaveAccrual, error)
}

// SummaryReader serves the read-side aggregate over all accruals.
type SummaryReader interface {
	HistorySummary(ctx context.Context) ([]*PeriodSummary, error)
}

type BalanceStore interface {
	Mutate(ctx context.Context, id int64, fn func(ctx context.Context, b *balance.EmployeeBalance) error) (*balance.EmployeeBalance, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]*balance.EmployeeBalance, error)
	FindEligibleForAccrual(ctx context.Context, asOf time.Time) ([]*balance.EmployeeBalance, error)
}

type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id int64) (*user.User, error)
}

type Service struct {
	repo      RepositoryAPI
	summaries SummaryReader
	balances  BalanceStore
	employees EmployeeDirectory
	tx        database.TxRunner
	events    events.Recorder
	clock     clock.Clock
	logger    *slog.Logger
}

func NewService(
	repo RepositoryAPI,
	summaries SummaryReader,
	balances BalanceStore,
	employees EmployeeDirectory,
	tx database.TxRunner,
	recorder events.Recorder,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		summaries: summaries,
		balances:  balances,
		employees: employees,
		tx:        tx,
		events:    recorder,
		clock:     clk,
		logger:    logger,
	}
}

func (s *Service) today() time.Time {
	return clock.DateOf(s.clock.Today())
}

func alreadyProcessed(balanceID int64, ym period.YearMonth) error {
	return internal.NewStateError(
		fmt.Sprintf("accrual already processed for balance %d in %s", balanceID, ym),
		internal.ErrCodeAccrualAlreadyProcessed)
}

func isAlreadyProcessed(err error) bool {
	appErr, ok := internal.IsAppError(err)
	return ok && appErr.Code == internal.ErrCodeAccrualAlreadyProcessed
}

// ProcessAccrualForBalance accrues one month on one balance. The balance row
// stays locked from the period check until the record and the new balance
// are committed, so a second call for the same period fails with a state
// error and changes nothing.
func (s *Service) ProcessAccrualForBalance(ctx context.Context, balanceID int64, ym period.YearMonth) (*LeaveAccrual, error) {
	var record *LeaveAccrual
	_, err := s.balances.Mutate(ctx, balanceID, func(ctx context.Context, b *balance.EmployeeBalance) error {
		exists, err := s.repo.ExistsForPeriod(ctx, b.ID, ym)
		if err != nil {
			return internal.NewInternalError("failed to check accrual period", err)
		}
		if exists {
			return alreadyProcessed(b.ID, ym)
		}

		accrued := decimal.Zero
		prorated := false
		if b.Employee != nil {
			prorated = IsProrated(b.Employee.JoinedDate, ym)
			if b.AccruesNow() {
				accrued = CalculateAmount(b.LeaveType.MonthlyRate(), b.Employee.JoinedDate, ym)
			}
		}
		if err := b.Adjust(accrued); err != nil {
			return err
		}
		today := s.today()
		b.LastAccrualDate = &today

		record = &LeaveAccrual{
			EmployeeBalanceID: b.ID,
			EmployeeID:        b.EmployeeID,
			LeaveTypeID:       b.LeaveTypeID,
			Period:            ym,
			YearMonth:         ym.String(),
			AccrualDate:       today,
			Amount:            accrued,
			IsProrated:        prorated,
		}
		if b.Employee != nil {
			record.EmployeeName = b.Employee.FullName()
		}
		if b.LeaveType != nil {
			record.LeaveTypeName = b.LeaveType.Name
		}
		if err := s.repo.Create(ctx, record); err != nil {
			if internal.IsErrorType(err, internal.ErrorTypeInvalidState) {
				return err
			}
			return internal.NewInternalError("failed to record accrual", err)
		}
		return s.recordEvent(ctx, record, b)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("accrual processed",
		"balance_id", balanceID,
		"year_month", ym.String(),
		"amount", record.Amount.StringFixed(2),
		"is_prorated", record.IsProrated)
	return record, nil
}

func (s *Service) recordEvent(ctx context.Context, a *LeaveAccrual, b *balance.EmployeeBalance) error {
	event, err := events.NewEvent(events.EventTypeAccrualProcessed, s.clock.Now(), events.AccrualPayload{
		AccrualID:         a.ID,
		EmployeeBalanceID: b.ID,
		EmployeeID:        b.EmployeeID,
		LeaveTypeName:     a.LeaveTypeName,
		YearMonth:         a.YearMonth,
		Amount:            a.Amount.StringFixed(2),
		IsProrated:        a.IsProrated,
		NewBalance:        b.CurrentBalance.StringFixed(2),
	})
	if err != nil {
		return internal.NewInternalError("failed to build accrual event", err)
	}
	if err := s.events.Record(ctx, event); err != nil {
		return internal.NewInternalError("failed to record accrual event", err)
	}
	return nil
}

// ProcessMonthlyAccruals accrues ym on every eligible balance. Balances already
// accrued for ym are counted as skipped; any other failure is reported per
// balance.
func (s *Service) ProcessMonthlyAccruals(ctx context.Context, ym period.YearMonth) (*BatchResult, error) {
	// Balances touched earlier today stay in scope; the period check decides.
	asOf := s.today().AddDate(0, 0, 1)
	balances, err := s.balances.FindEligibleForAccrual(ctx, asOf)
	if err != nil {
		s.logger.Error("failed to load balances eligible for accrual", "error", err)
		return nil, internal.NewInternalError("failed to process monthly accruals", err)
	}

	result := &BatchResult{
		YearMonth: ym.String(),
		Processed: make([]*LeaveAccrual, 0, len(balances)),
		Failures:  make([]BatchFailure, 0),
	}
	for _, b := range balances {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		record, err := s.ProcessAccrualForBalance(ctx, b.ID, ym)
		switch {
		case err == nil:
			result.Processed = append(result.Processed, record)
		case isAlreadyProcessed(err):
			result.Skipped++
		default:
			s.logger.Warn("accrual failed for balance",
				"balance_id", b.ID,
				"employee_id", b.EmployeeID,
				"year_month", ym.String(),
				"error", err)
			result.Failures = append(result.Failures, BatchFailure{
				EmployeeBalanceID: b.ID,
				EmployeeID:        b.EmployeeID,
				Error:             err.Error(),
			})
		}
	}

	s.logger.Info("monthly accruals processed",
		"year_month", ym.String(),
		"processed", len(result.Processed),
		"skipped", result.Skipped,
		"failed", len(result.Failures))
	return result, nil
}

// ProcessEmployeeMonthlyAccruals accrues ym on every balance of one employee
// in a single transaction.
func (s *Service) ProcessEmployeeMonthlyAccruals(ctx context.Context, employeeID int64, ym period.YearMonth) ([]*LeaveAccrual, error) {
	if _, err := s.employees.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	balances, err := s.balances.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load employee balances", err)
	}
	if len(balances) == 0 {
		return nil, internal.NewValidationError(
			fmt.Sprintf("employee %d has no leave balances configured", employeeID),
			internal.ErrCodeNoBalancesConfigured)
	}
	for _, b := range balances {
		exists, err := s.repo.ExistsForPeriod(ctx, b.ID, ym)
		if err != nil {
			return nil, internal.NewInternalError("failed to check accrual period", err)
		}
		if exists {
			return nil, internal.NewStateError(
				fmt.Sprintf("accruals have already been processed for employee %d for %s", employeeID, ym),
				internal.ErrCodeAccrualAlreadyProcessed)
		}
	}

	records := make([]*LeaveAccrual, 0, len(balances))
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, b := range balances {
			record, err := s.ProcessAccrualForBalance(ctx, b.ID, ym)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("employee accruals failed", "employee_id", employeeID, "year_month", ym.String(), "error", err)
		return nil, err
	}
	return records, nil
}

// ProcessEmployeeYear accrues every completed month of year on the employee's
// eligible balances, skipping months already processed.
func (s *Service) ProcessEmployeeYear(ctx context.Context, employeeID int64, year int) ([]*LeaveAccrual, error) {
	if _, err := s.employees.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	balances, err := s.balances.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load employee balances", err)
	}
	if len(balances) == 0 {
		return nil, internal.NewValidationError(
			fmt.Sprintf("employee %d has no leave balances configured", employeeID),
			internal.ErrCodeNoBalancesConfigured)
	}

	current := period.Of(s.today())
	records := make([]*LeaveAccrual, 0)
	for _, b := range balances {
		if !b.AccruesNow() {
			continue
		}
		for month := time.January; month <= time.December; month++ {
			ym := period.YearMonth{Year: year, Month: month}
			if !ym.Before(current) {
				break
			}
			record, err := s.ProcessAccrualForBalance(ctx, b.ID, ym)
			if err != nil {
				if isAlreadyProcessed(err) {
					continue
				}
				return records, err
			}
			records = append(records, record)
		}
	}

	s.logger.Info("yearly accruals processed", "employee_id", employeeID, "year", year, "count", len(records))
	return records, nil
}

func (s *Service) FindByBalance(ctx context.Context, balanceID int64) ([]*LeaveAccrual, error) {
	return s.repo.FindByBalance(ctx, balanceID)
}

func (s *Service) FindByBalanceAndPeriod(ctx context.Context, balanceID int64, ym period.YearMonth) (*LeaveAccrual, error) {
	return s.repo.FindByBalanceAndPeriod(ctx, balanceID, ym)
}

// HasAccrualsBeenProcessed reports whether any balance accrued in the given month.
func (s *Service) HasAccrualsBeenProcessed(ctx context.Context, year, month int) (bool, error) {
	ym, err := period.New(year, time.Month(month))
	if err != nil {
		return false, internal.NewValidationFieldError("month", err.Error(), internal.ErrCodeInvalidPeriod)
	}
	count, err := s.repo.CountForPeriod(ctx, ym)
	if err != nil {
		return false, internal.NewInternalError("failed to check processed accruals", err)
	}
	return count > 0, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*LeaveAccrual, error) {
	return s.repo.ListAll(ctx)
}

// PeriodDetails lists the accruals of a "2006-01" period.
func (s *Service) PeriodDetails(ctx context.Context, raw string) ([]*LeaveAccrual, error) {
	ym, err := period.Parse(raw)
	if err != nil {
		return nil, internal.NewValidationFieldError("period", "period must be formatted as YYYY-MM", internal.ErrCodeInvalidPeriod)
	}
	return s.repo.ListByPeriod(ctx, ym)
}

func (s *Service) HistorySummary(ctx context.Context) ([]*PeriodSummary, error) {
	summaries, err := s.summaries.HistorySummary(ctx)
	if err != nil {
		s.logger.Error("failed to load accrual summary", "error", err)
		return nil, internal.NewInternalError("failed to load accrual summary", err)
	}
	for _, summary := range summaries {
		summary.Resolve()
	}
	return summaries, nil
}
