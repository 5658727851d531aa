package carryforward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/balance"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	"github.com/frahmantamala/leave-management/internal/user"
)

type RepositoryAPI interface {
	// Create returns ErrTransitionExists when the transition is already stored.
	Create(ctx context.Context, c *LeaveCarryForward) error
	Exists(ctx context.Context, balanceID int64, fromYear, toYear int) (bool, error)
	FindByBalance(ctx context.Context, balanceID int64) ([]*LeaveCarryForward, error)
	FindByBalanceAndFromYear(ctx context.Context, balanceID int64, fromYear int) ([]*LeaveCarryForward, error)
	ListByYears(ctx context.Context, fromYear, toYear int) ([]*LeaveCarryForward, error)
	TotalCarriedForward(ctx context.Context, balanceID int64, fromYear, toYear int) (decimal.Decimal, error)
}

type BalanceStore interface {
	Mutate(ctx context.Context, id int64, fn func(ctx context.Context, b *balance.EmployeeBalance) error) (*balance.EmployeeBalance, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]*balance.EmployeeBalance, error)
	ListByLeaveType(ctx context.Context, leaveTypeID int64) ([]*balance.EmployeeBalance, error)
	FindEligibleForCarryForward(ctx context.Context) ([]*balance.EmployeeBalance, error)
}

type LeaveTypeRegistry interface {
	ListEligibleForCarryForward(ctx context.Context) ([]*leavetype.LeaveType, error)
}

type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id int64) (*user.User, error)
}

// ErrTransitionExists signals that a balance already moved between the two years.
var ErrTransitionExists = errors.New("carry-forward already exists for year transition")

// errNothingToCarry aborts the balance mutation without writing anything.
var errNothingToCarry = errors.New("nothing to carry forward")

type Service struct {
	repo       RepositoryAPI
	balances   BalanceStore
	leaveTypes LeaveTypeRegistry
	employees  EmployeeDirectory
	events     events.Recorder
	clock      clock.Clock
	logger     *slog.Logger
}

func NewService(
	repo RepositoryAPI,
	balances BalanceStore,
	leaveTypes LeaveTypeRegistry,
	employees EmployeeDirectory,
	recorder events.Recorder,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		balances:   balances,
		leaveTypes: leaveTypes,
		employees:  employees,
		events:     recorder,
		clock:      clk,
		logger:     logger,
	}
}

func validateYears(fromYear, toYear int) error {
	if fromYear < 1 || toYear <= fromYear {
		return internal.NewValidationFieldError("to_year",
			fmt.Sprintf("invalid year transition %d to %d", fromYear, toYear), internal.ErrCodeInvalidPeriod)
	}
	return nil
}

// ProcessCarryForward moves one balance from fromYear into toYear. It returns
// nil without error when the transition was already processed or the leave
// type does not carry forward.
func (s *Service) ProcessCarryForward(ctx context.Context, balanceID int64, fromYear, toYear int) (*LeaveCarryForward, error) {
	if err := validateYears(fromYear, toYear); err != nil {
		return nil, err
	}

	var record *LeaveCarryForward
	_, err := s.balances.Mutate(ctx, balanceID, func(ctx context.Context, b *balance.EmployeeBalance) error {
		exists, err := s.repo.Exists(ctx, b.ID, fromYear, toYear)
		if err != nil {
			return internal.NewInternalError("failed to check carry-forward", err)
		}
		if exists {
			s.logger.Warn("carry-forward already exists", "balance_id", b.ID, "from_year", fromYear, "to_year", toYear)
			return errNothingToCarry
		}
		if b.LeaveType == nil || !b.LeaveType.IsEligibleForCarryForward() {
			return errNothingToCarry
		}

		carried, forfeited := Split(b.CurrentBalance, *b.LeaveType.CarryForwardCap)
		record = &LeaveCarryForward{
			EmployeeBalanceID:    b.ID,
			EmployeeID:           b.EmployeeID,
			LeaveTypeID:          b.LeaveTypeID,
			LeaveTypeName:        b.LeaveType.Name,
			FromYear:             fromYear,
			ToYear:               toYear,
			CarryForwardDate:     clock.DateOf(s.clock.Today()),
			OriginalBalance:      b.CurrentBalance,
			CarriedForwardAmount: carried,
			ForfeitedAmount:      forfeited,
		}
		if b.Employee != nil {
			record.EmployeeName = b.Employee.FullName()
		}
		if err := record.Validate(); err != nil {
			return err
		}

		b.CurrentBalance = carried
		if err := s.repo.Create(ctx, record); err != nil {
			if errors.Is(err, ErrTransitionExists) {
				return errNothingToCarry
			}
			return internal.NewInternalError("failed to record carry-forward", err)
		}
		return s.recordEvent(ctx, record)
	})
	if errors.Is(err, errNothingToCarry) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("carry-forward processed",
		"balance_id", balanceID,
		"from_year", fromYear,
		"to_year", toYear,
		"carried_forward", record.CarriedForwardAmount.StringFixed(2),
		"forfeited", record.ForfeitedAmount.StringFixed(2))
	return record, nil
}

func (s *Service) recordEvent(ctx context.Context, c *LeaveCarryForward) error {
	event, err := events.NewEvent(events.EventTypeCarryForwardProcessed, s.clock.Now(), events.CarryForwardPayload{
		CarryForwardID:       c.ID,
		EmployeeBalanceID:    c.EmployeeBalanceID,
		EmployeeID:           c.EmployeeID,
		LeaveTypeName:        c.LeaveTypeName,
		FromYear:             c.FromYear,
		ToYear:               c.ToYear,
		OriginalBalance:      c.OriginalBalance.StringFixed(2),
		CarriedForwardAmount: c.CarriedForwardAmount.StringFixed(2),
		ForfeitedAmount:      c.ForfeitedAmount.StringFixed(2),
	})
	if err != nil {
		return internal.NewInternalError("failed to build carry-forward event", err)
	}
	if err := s.events.Record(ctx, event); err != nil {
		return internal.NewInternalError("failed to record carry-forward event", err)
	}
	return nil
}

// ProcessAnnualCarryForward runs every balance of every carry-forward type.
func (s *Service) ProcessAnnualCarryForward(ctx context.Context, fromYear, toYear int) (*BatchResult, error) {
	if err := validateYears(fromYear, toYear); err != nil {
		return nil, err
	}
	types, err := s.leaveTypes.ListEligibleForCarryForward(ctx)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		FromYear:  fromYear,
		ToYear:    toYear,
		Processed: make([]*LeaveCarryForward, 0),
		Failures:  make([]BatchFailure, 0),
	}
	for _, lt := range types {
		balances, err := s.balances.ListByLeaveType(ctx, lt.ID)
		if err != nil {
			return result, internal.NewInternalError("failed to load balances for leave type", err)
		}
		for _, b := range balances {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			record, err := s.ProcessCarryForward(ctx, b.ID, fromYear, toYear)
			switch {
			case err != nil:
				s.logger.Warn("carry-forward failed for balance", "balance_id", b.ID, "error", err)
				result.Failures = append(result.Failures, BatchFailure{EmployeeBalanceID: b.ID, Error: err.Error()})
			case record == nil:
				result.Skipped++
			default:
				result.Processed = append(result.Processed, record)
			}
		}
	}

	s.logger.Info("annual carry-forward processed",
		"from_year", fromYear,
		"to_year", toYear,
		"processed", len(result.Processed),
		"skipped", result.Skipped,
		"failed", len(result.Failures))
	return result, nil
}

// ProcessEmployeeCarryForward carries every carry-forward balance of one
// employee. It refuses to run twice for the same fromYear.
func (s *Service) ProcessEmployeeCarryForward(ctx context.Context, employeeID int64, fromYear, toYear int) ([]*LeaveCarryForward, error) {
	if err := validateYears(fromYear, toYear); err != nil {
		return nil, err
	}
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

	eligible := make([]*balance.EmployeeBalance, 0, len(balances))
	for _, b := range balances {
		if b.LeaveType == nil || !b.LeaveType.IsCarryForwardEnabled {
			continue
		}
		previous, err := s.repo.FindByBalanceAndFromYear(ctx, b.ID, fromYear)
		if err != nil {
			return nil, internal.NewInternalError("failed to check carry-forward", err)
		}
		if len(previous) > 0 {
			return nil, internal.NewStateError(
				fmt.Sprintf("carry-forward has already been processed for employee %d from %d to %d", employeeID, fromYear, toYear),
				internal.ErrCodeCarryForwardAlreadyProcessed)
		}
		eligible = append(eligible, b)
	}

	records := make([]*LeaveCarryForward, 0, len(eligible))
	for _, b := range eligible {
		record, err := s.ProcessCarryForward(ctx, b.ID, fromYear, toYear)
		if err != nil {
			return records, err
		}
		if record != nil {
			records = append(records, record)
		}
	}
	return records, nil
}

// Preview projects the carry-forward of every eligible balance without writing.
func (s *Service) Preview(ctx context.Context) ([]*Projection, error) {
	balances, err := s.balances.FindEligibleForCarryForward(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to load balances eligible for carry-forward", err)
	}

	projections := make([]*Projection, 0, len(balances))
	for _, b := range balances {
		if b.LeaveType == nil || !b.LeaveType.IsEligibleForCarryForward() {
			continue
		}
		carried, forfeited := Split(b.CurrentBalance, *b.LeaveType.CarryForwardCap)
		p := &Projection{
			EmployeeBalanceID:    b.ID,
			EmployeeID:           b.EmployeeID,
			LeaveTypeName:        b.LeaveType.Name,
			CurrentBalance:       b.CurrentBalance,
			CarryForwardCap:      *b.LeaveType.CarryForwardCap,
			CarriedForwardAmount: carried,
			ForfeitedAmount:      forfeited,
		}
		if b.Employee != nil {
			p.EmployeeName = b.Employee.FullName()
		}
		projections = append(projections, p)
	}
	return projections, nil
}

func (s *Service) HistoryByBalance(ctx context.Context, balanceID int64) ([]*LeaveCarryForward, error) {
	return s.repo.FindByBalance(ctx, balanceID)
}

func (s *Service) HistoryByYears(ctx context.Context, fromYear, toYear int) ([]*LeaveCarryForward, error) {
	if err := validateYears(fromYear, toYear); err != nil {
		return nil, err
	}
	return s.repo.ListByYears(ctx, fromYear, toYear)
}

func (s *Service) FindByBalanceAndFromYear(ctx context.Context, balanceID int64, fromYear int) ([]*LeaveCarryForward, error) {
	return s.repo.FindByBalanceAndFromYear(ctx, balanceID, fromYear)
}

// TotalCarriedForward is zero when the balance has no record for the transition.
func (s *Service) TotalCarriedForward(ctx context.Context, balanceID int64, fromYear, toYear int) (decimal.Decimal, error) {
	total, err := s.repo.TotalCarriedForward(ctx, balanceID, fromYear, toYear)
	if err != nil {
		return decimal.Zero, internal.NewInternalError("failed to sum carried forward amounts", err)
	}
	return total, nil
}

// DefaultTransition is last year into this year.
func DefaultTransition(today time.Time) (fromYear, toYear int) {
	return today.Year() - 1, today.Year()
}
