package postgres

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal/carryforward"
	"github.com/frahmantamala/leave-management/internal/core/database"
	carryforwardDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/carryforward"
)

type CarryForwardRepository struct {
	db *gorm.DB
}

func NewCarryForwardRepository(db *gorm.DB) carryforward.RepositoryAPI {
	return &CarryForwardRepository{db: db}
}

func (r *CarryForwardRepository) Create(ctx context.Context, c *carryforward.LeaveCarryForward) error {
	model := carryforward.ToDataModel(c)
	if err := database.Conn(ctx, r.db).Omit("EmployeeBalance").Create(model).Error; err != nil {
		if database.IsDuplicate(err) {
			return carryforward.ErrTransitionExists
		}
		return err
	}
	c.ID = model.ID
	c.CreatedAt = model.CreatedAt
	return nil
}

func (r *CarryForwardRepository) model(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db).Model(&carryforwardDatamodel.LeaveCarryForward{})
}

func (r *CarryForwardRepository) find(q *gorm.DB) ([]*carryforward.LeaveCarryForward, error) {
	var models []*carryforwardDatamodel.LeaveCarryForward
	err := q.Preload("EmployeeBalance").
		Preload("EmployeeBalance.Employee").
		Preload("EmployeeBalance.LeaveType").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return carryforward.FromDataModelSlice(models), nil
}

func (r *CarryForwardRepository) Exists(ctx context.Context, balanceID int64, fromYear, toYear int) (bool, error) {
	var count int64
	err := r.model(ctx).
		Where("employee_balance_id = ? AND from_year = ? AND to_year = ?", balanceID, fromYear, toYear).
		Count(&count).Error
	return count > 0, err
}

func (r *CarryForwardRepository) FindByBalance(ctx context.Context, balanceID int64) ([]*carryforward.LeaveCarryForward, error) {
	return r.find(database.Conn(ctx, r.db).
		Where("employee_balance_id = ?", balanceID).
		Order("carry_forward_date DESC, id DESC"))
}

func (r *CarryForwardRepository) FindByBalanceAndFromYear(ctx context.Context, balanceID int64, fromYear int) ([]*carryforward.LeaveCarryForward, error) {
	return r.find(database.Conn(ctx, r.db).
		Where("employee_balance_id = ? AND from_year = ?", balanceID, fromYear).
		Order("id ASC"))
}

func (r *CarryForwardRepository) ListByYears(ctx context.Context, fromYear, toYear int) ([]*carryforward.LeaveCarryForward, error) {
	return r.find(database.Conn(ctx, r.db).
		Where("from_year = ? AND to_year = ?", fromYear, toYear).
		Order("employee_balance_id ASC"))
}

func (r *CarryForwardRepository) TotalCarriedForward(ctx context.Context, balanceID int64, fromYear, toYear int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.model(ctx).
		Select("COALESCE(SUM(carried_forward_amount), 0)").
		Where("employee_balance_id = ? AND from_year = ? AND to_year = ?", balanceID, fromYear, toYear).
		Row().
		Scan(&total)
	return total.Round(2), err
}
