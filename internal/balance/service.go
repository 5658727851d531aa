package balance

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/database"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	"github.com/frahmantamala/leave-management/internal/user"
)

type RepositoryAPI interface {
	Create(ctx context.Context, b *EmployeeBalance) error
	Save(ctx context.Context, b *EmployeeBalance) error
	GetByID(ctx context.Context, id int64) (*EmployeeBalance, error)
	// GetByIDForUpdate locks the row for the rest of the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (*EmployeeBalance, error)
	GetByEmployeeAndType(ctx context.Context, employeeID, leaveTypeID int64) (*EmployeeBalance, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]*EmployeeBalance, error)
	ListByLeaveType(ctx context.Context, leaveTypeID int64) ([]*EmployeeBalance, error)
	FindEligibleForAccrual(ctx context.Context, asOf time.Time) ([]*EmployeeBalance, error)
	FindEligibleForCarryForward(ctx context.Context) ([]*EmployeeBalance, error)
	ListExceedingMaxBalance(ctx context.Context) ([]*EmployeeBalance, error)
}

type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id int64) (*user.User, error)
}

type LeaveTypeRegistry interface {
	Get(ctx context.Context, id int64) (*leavetype.LeaveType, error)
	ListDefaults(ctx context.Context) ([]*leavetype.LeaveType, error)
}

type Service struct {
	repo       RepositoryAPI
	employees  EmployeeDirectory
	leaveTypes LeaveTypeRegistry
	tx         database.TxRunner
	clock      clock.Clock
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, employees EmployeeDirectory, leaveTypes LeaveTypeRegistry, tx database.TxRunner, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		employees:  employees,
		leaveTypes: leaveTypes,
		tx:         tx,
		clock:      clk,
		logger:     logger,
	}
}

func (s *Service) today() time.Time {
	return clock.DateOf(s.clock.Today())
}

// Create opens a zero balance for the employee and leave type.
func (s *Service) Create(ctx context.Context, employeeID, leaveTypeID int64) (*EmployeeBalance, error) {
	employee, err := s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	lt, err := s.leaveTypes.Get(ctx, leaveTypeID)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, employee, lt)
}

func (s *Service) create(ctx context.Context, employee *user.User, lt *leavetype.LeaveType) (*EmployeeBalance, error) {
	existing, err := s.repo.GetByEmployeeAndType(ctx, employee.ID, lt.ID)
	if err != nil && !internal.IsErrorType(err, internal.ErrorTypeNotFound) {
		return nil, internal.NewInternalError("failed to create balance", err)
	}
	if existing != nil {
		return nil, alreadyExists()
	}

	b := New(employee, lt)
	if err := b.Validate(s.today()); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeConflict) {
			return nil, err
		}
		s.logger.Error("failed to create balance", "error", err, "employee_id", employee.ID, "leave_type_id", lt.ID)
		return nil, internal.NewInternalError("failed to create balance", err)
	}

	s.logger.Info("balance created", "balance_id", b.ID, "employee_id", employee.ID, "leave_type_id", lt.ID)
	return b, nil
}

func alreadyExists() error {
	return internal.NewConflictError("balance already exists for employee and leave type", internal.ErrCodeBalanceAlreadyExists)
}

// InitializeForEmployee creates the missing balances for every default leave type.
func (s *Service) InitializeForEmployee(ctx context.Context, employeeID int64) ([]*EmployeeBalance, error) {
	employee, err := s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	defaults, err := s.leaveTypes.ListDefaults(ctx)
	if err != nil {
		return nil, err
	}

	created := make([]*EmployeeBalance, 0, len(defaults))
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, lt := range defaults {
			b, err := s.create(ctx, employee, lt)
			if err != nil {
				if appErr, ok := internal.IsAppError(err); ok && appErr.Code == internal.ErrCodeBalanceAlreadyExists {
					continue
				}
				return err
			}
			created = append(created, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Mutate is the only write path for an existing balance: it locks the row,
// applies fn, re-validates the invariants and saves. fn receives the
// transactional context so related writes commit with the balance.
func (s *Service) Mutate(ctx context.Context, id int64, fn func(ctx context.Context, b *EmployeeBalance) error) (*EmployeeBalance, error) {
	var out *EmployeeBalance
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, b); err != nil {
			return err
		}
		if err := b.Validate(s.today()); err != nil {
			return invalidBalance(err)
		}
		if err := s.repo.Save(ctx, b); err != nil {
			return internal.NewInternalError("failed to save balance", err)
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// invalidBalance re-labels a failed invariant check on an existing balance.
func invalidBalance(err error) error {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		return err
	}
	code := internal.ErrCodeBalanceExceedsMax
	if details, ok := appErr.Details.(internal.ValidationErrors); ok && len(details.Errors) > 0 {
		if details.Errors[0].Field == "current_balance" && details.Errors[0].Code != string(internal.ErrCodeBalanceExceedsMax) {
			code = internal.ErrCodeBalanceNegative
		}
	}
	return internal.NewInvalidBalanceError(appErr.Error(), code).WithDetails(appErr.Details)
}

func (s *Service) Adjust(ctx context.Context, id int64, delta decimal.Decimal) (*EmployeeBalance, error) {
	b, err := s.Mutate(ctx, id, func(_ context.Context, b *EmployeeBalance) error {
		return b.Adjust(delta)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("balance adjusted", "balance_id", id, "delta", delta.StringFixed(2), "balance", b.CurrentBalance.StringFixed(2))
	return b, nil
}

func (s *Service) SetMaxBalance(ctx context.Context, id int64, newMax *decimal.Decimal) (*EmployeeBalance, error) {
	return s.Mutate(ctx, id, func(_ context.Context, b *EmployeeBalance) error {
		return b.SetMax(newMax)
	})
}

func (s *Service) UpdateAccrualEligibility(ctx context.Context, id int64, eligible bool) (*EmployeeBalance, error) {
	return s.Mutate(ctx, id, func(_ context.Context, b *EmployeeBalance) error {
		b.IsEligibleForAccrual = eligible
		return nil
	})
}

func (s *Service) Get(ctx context.Context, id int64) (*EmployeeBalance, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmployeeAndType(ctx context.Context, employeeID, leaveTypeID int64) (*EmployeeBalance, error) {
	return s.repo.GetByEmployeeAndType(ctx, employeeID, leaveTypeID)
}

func (s *Service) ListByEmployee(ctx context.Context, employeeID int64) ([]*EmployeeBalance, error) {
	return s.repo.ListByEmployee(ctx, employeeID)
}

func (s *Service) ListByLeaveType(ctx context.Context, leaveTypeID int64) ([]*EmployeeBalance, error) {
	return s.repo.ListByLeaveType(ctx, leaveTypeID)
}

// FindEligibleForAccrual returns flagged balances of active employees on
// accrual-based types that have not accrued since before asOf.
func (s *Service) FindEligibleForAccrual(ctx context.Context, asOf time.Time) ([]*EmployeeBalance, error) {
	return s.repo.FindEligibleForAccrual(ctx, clock.DateOf(asOf))
}

func (s *Service) FindEligibleForCarryForward(ctx context.Context) ([]*EmployeeBalance, error) {
	return s.repo.FindEligibleForCarryForward(ctx)
}

func (s *Service) ListExceedingMaxBalance(ctx context.Context) ([]*EmployeeBalance, error) {
	return s.repo.ListExceedingMaxBalance(ctx)
}

// TotalAllowance returns the yearly entitlement of a balance.
func (s *Service) TotalAllowance(ctx context.Context, id int64) (decimal.Decimal, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return b.TotalAllowance(), nil
}
