package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/accrual"
	"github.com/frahmantamala/leave-management/internal/core/database"
	accrualDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/accrual"
	"github.com/frahmantamala/leave-management/internal/core/period"
)

type AccrualRepository struct {
	db *gorm.DB
}

func NewAccrualRepository(db *gorm.DB) accrual.RepositoryAPI {
	return &AccrualRepository{db: db}
}

func (r *AccrualRepository) Create(ctx context.Context, a *accrual.LeaveAccrual) error {
	model := accrual.ToDataModel(a)
	if err := database.Conn(ctx, r.db).Omit("EmployeeBalance").Create(model).Error; err != nil {
		if database.IsDuplicate(err) {
			return internal.NewStateError(
				fmt.Sprintf("accrual already processed for balance %d in %s", a.EmployeeBalanceID, a.Period),
				internal.ErrCodeAccrualAlreadyProcessed)
		}
		return err
	}
	a.ID = model.ID
	a.CreatedAt = model.CreatedAt
	return nil
}

func (r *AccrualRepository) withRelations(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db).
		Preload("EmployeeBalance").
		Preload("EmployeeBalance.Employee").
		Preload("EmployeeBalance.LeaveType")
}

func inPeriod(q *gorm.DB, ym period.YearMonth) *gorm.DB {
	return q.Where("accrual_year = ? AND accrual_month = ?", ym.Year, int(ym.Month))
}

func (r *AccrualRepository) find(q *gorm.DB) ([]*accrual.LeaveAccrual, error) {
	var models []*accrualDatamodel.LeaveAccrual
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	return accrual.FromDataModelSlice(models), nil
}

func (r *AccrualRepository) ExistsForPeriod(ctx context.Context, balanceID int64, ym period.YearMonth) (bool, error) {
	var count int64
	err := inPeriod(database.Conn(ctx, r.db).Model(&accrualDatamodel.LeaveAccrual{}), ym).
		Where("employee_balance_id = ?", balanceID).
		Count(&count).Error
	return count > 0, err
}

func (r *AccrualRepository) CountForPeriod(ctx context.Context, ym period.YearMonth) (int64, error) {
	var count int64
	err := inPeriod(database.Conn(ctx, r.db).Model(&accrualDatamodel.LeaveAccrual{}), ym).Count(&count).Error
	return count, err
}

func (r *AccrualRepository) FindByBalance(ctx context.Context, balanceID int64) ([]*accrual.LeaveAccrual, error) {
	return r.find(r.withRelations(ctx).
		Where("employee_balance_id = ?", balanceID).
		Order("accrual_year DESC, accrual_month DESC"))
}

func (r *AccrualRepository) FindByBalanceAndPeriod(ctx context.Context, balanceID int64, ym period.YearMonth) (*accrual.LeaveAccrual, error) {
	var model accrualDatamodel.LeaveAccrual
	err := inPeriod(r.withRelations(ctx), ym).Where("employee_balance_id = ?", balanceID).First(&model).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrAccrualNotFound
		}
		return nil, err
	}
	return accrual.FromDataModel(&model), nil
}

func (r *AccrualRepository) ListByPeriod(ctx context.Context, ym period.YearMonth) ([]*accrual.LeaveAccrual, error) {
	return r.find(inPeriod(r.withRelations(ctx), ym).Order("employee_balance_id ASC"))
}

func (r *AccrualRepository) ListAll(ctx context.Context) ([]*accrual.LeaveAccrual, error) {
	return r.find(r.withRelations(ctx).Order("accrual_year DESC, accrual_month DESC, id ASC"))
}
