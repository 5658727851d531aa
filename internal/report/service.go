package report

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal/accrual"
	"github.com/frahmantamala/leave-management/internal/balance"
	"github.com/frahmantamala/leave-management/internal/carryforward"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/user"
)

type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id int64) (*user.User, error)
}

type BalanceReader interface {
	ListByEmployee(ctx context.Context, employeeID int64) ([]*balance.EmployeeBalance, error)
}

type AccrualHistory interface {
	FindByBalance(ctx context.Context, balanceID int64) ([]*accrual.LeaveAccrual, error)
}

type CarryForwardHistory interface {
	HistoryByBalance(ctx context.Context, balanceID int64) ([]*carryforward.LeaveCarryForward, error)
}

type Service struct {
	employees     EmployeeDirectory
	balances      BalanceReader
	accruals      AccrualHistory
	carryForwards CarryForwardHistory
	clock         clock.Clock
	logger        *slog.Logger
}

func NewService(
	employees EmployeeDirectory,
	balances BalanceReader,
	accruals AccrualHistory,
	carryForwards CarryForwardHistory,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		employees:     employees,
		balances:      balances,
		accruals:      accruals,
		carryForwards: carryForwards,
		clock:         clk,
		logger:        logger,
	}
}

// BalanceStatement collects every balance of the employee with its accrual
// and carry-forward history.
func (s *Service) BalanceStatement(ctx context.Context, employeeID int64) (*Statement, error) {
	employee, err := s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	balances, err := s.balances.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	statement := &Statement{
		Employee:    employee,
		GeneratedAt: s.clock.Now(),
		Sections:    make([]*BalanceSection, 0, len(balances)),
	}
	for _, b := range balances {
		accruals, err := s.accruals.FindByBalance(ctx, b.ID)
		if err != nil {
			s.logger.Error("failed to load accrual history", "error", err, "balance_id", b.ID)
			return nil, err
		}
		carryForwards, err := s.carryForwards.HistoryByBalance(ctx, b.ID)
		if err != nil {
			s.logger.Error("failed to load carry-forward history", "error", err, "balance_id", b.ID)
			return nil, err
		}
		statement.Sections = append(statement.Sections, &BalanceSection{
			Balance:        b,
			TotalAllowance: b.TotalAllowance(),
			Accruals:       accruals,
			CarryForwards:  carryForwards,
		})
	}

	s.logger.Info("balance statement prepared", "employee_id", employeeID, "balances", len(balances))
	return statement, nil
}
