package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/balance"
	"github.com/frahmantamala/leave-management/internal/core/database"
	balanceDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/balance"
	"github.com/frahmantamala/leave-management/internal/user"
)

type BalanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) balance.RepositoryAPI {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) Create(ctx context.Context, b *balance.EmployeeBalance) error {
	model := balance.ToDataModel(b)
	if err := database.Conn(ctx, r.db).Omit("Employee", "LeaveType").Create(model).Error; err != nil {
		if database.IsDuplicate(err) {
			return internal.NewConflictError("balance already exists for employee and leave type", internal.ErrCodeBalanceAlreadyExists)
		}
		return err
	}
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// Save writes the mutable columns only.
func (r *BalanceRepository) Save(ctx context.Context, b *balance.EmployeeBalance) error {
	model := balance.ToDataModel(b)
	result := database.Conn(ctx, r.db).
		Model(&balanceDatamodel.EmployeeBalance{ID: b.ID}).
		Select("current_balance", "max_balance", "last_accrual_date", "is_eligible_for_accrual", "updated_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrBalanceNotFound
	}
	b.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *BalanceRepository) withRelations(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db).
		Preload("Employee").
		Preload("Employee.Department").
		Preload("LeaveType")
}

func (r *BalanceRepository) first(q *gorm.DB) (*balance.EmployeeBalance, error) {
	var model balanceDatamodel.EmployeeBalance
	if err := q.First(&model).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrBalanceNotFound
		}
		return nil, err
	}
	return balance.FromDataModel(&model), nil
}

func (r *BalanceRepository) find(q *gorm.DB) ([]*balance.EmployeeBalance, error) {
	var models []*balanceDatamodel.EmployeeBalance
	if err := q.Order("employee_balances.id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return balance.FromDataModelSlice(models), nil
}

func (r *BalanceRepository) GetByID(ctx context.Context, id int64) (*balance.EmployeeBalance, error) {
	return r.first(r.withRelations(ctx).Where("id = ?", id))
}

func (r *BalanceRepository) GetByIDForUpdate(ctx context.Context, id int64) (*balance.EmployeeBalance, error) {
	return r.first(database.ForUpdate(r.withRelations(ctx)).Where("id = ?", id))
}

func (r *BalanceRepository) GetByEmployeeAndType(ctx context.Context, employeeID, leaveTypeID int64) (*balance.EmployeeBalance, error) {
	return r.first(r.withRelations(ctx).Where("employee_id = ? AND leave_type_id = ?", employeeID, leaveTypeID))
}

func (r *BalanceRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]*balance.EmployeeBalance, error) {
	return r.find(r.withRelations(ctx).Where("employee_id = ?", employeeID))
}

func (r *BalanceRepository) ListByLeaveType(ctx context.Context, leaveTypeID int64) ([]*balance.EmployeeBalance, error) {
	return r.find(r.withRelations(ctx).Where("leave_type_id = ?", leaveTypeID))
}

func (r *BalanceRepository) joined(ctx context.Context) *gorm.DB {
	return r.withRelations(ctx).
		Joins("JOIN users ON users.id = employee_balances.employee_id").
		Joins("JOIN leave_types ON leave_types.id = employee_balances.leave_type_id")
}

func (r *BalanceRepository) FindEligibleForAccrual(ctx context.Context, asOf time.Time) ([]*balance.EmployeeBalance, error) {
	return r.find(r.joined(ctx).
		Where("employee_balances.is_eligible_for_accrual = ?", true).
		Where("users.status = ?", user.StatusActive).
		Where("leave_types.accrual_based = ? AND leave_types.accrual_rate > 0", true).
		Where("employee_balances.last_accrual_date IS NULL OR employee_balances.last_accrual_date < ?", asOf))
}

func (r *BalanceRepository) FindEligibleForCarryForward(ctx context.Context) ([]*balance.EmployeeBalance, error) {
	return r.find(r.joined(ctx).
		Where("leave_types.is_carry_forward_enabled = ?", true).
		Where("employee_balances.current_balance > 0").
		Where("users.status = ?", user.StatusActive))
}

func (r *BalanceRepository) ListExceedingMaxBalance(ctx context.Context) ([]*balance.EmployeeBalance, error) {
	return r.find(r.withRelations(ctx).
		Where("max_balance IS NOT NULL AND current_balance > max_balance"))
}
