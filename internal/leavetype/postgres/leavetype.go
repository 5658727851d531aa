package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/database"
	leavetypeDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leavetype"
	"github.com/frahmantamala/leave-management/internal/leavetype"
)

type LeaveTypeRepository struct {
	db *gorm.DB
}

func NewLeaveTypeRepository(db *gorm.DB) leavetype.RepositoryAPI {
	return &LeaveTypeRepository{db: db}
}

func (r *LeaveTypeRepository) Create(ctx context.Context, lt *leavetype.LeaveType) error {
	model := leavetype.ToDataModel(lt)
	if err := database.Conn(ctx, r.db).Create(model).Error; err != nil {
		if database.IsDuplicate(err) {
			return internal.NewConflictError("leave type name already exists", internal.ErrCodeLeaveTypeDuplicateName)
		}
		return err
	}
	lt.ID = model.ID
	lt.CreatedAt = model.CreatedAt
	lt.UpdatedAt = model.UpdatedAt
	return nil
}

// Update writes every column so that cleared rates and flags are persisted.
func (r *LeaveTypeRepository) Update(ctx context.Context, lt *leavetype.LeaveType) error {
	model := leavetype.ToDataModel(lt)
	result := database.Conn(ctx, r.db).Model(model).Select("*").Omit("created_at").Updates(model)
	if result.Error != nil {
		if database.IsDuplicate(result.Error) {
			return internal.NewConflictError("leave type name already exists", internal.ErrCodeLeaveTypeDuplicateName)
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrLeaveTypeNotFound
	}
	lt.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *LeaveTypeRepository) GetByID(ctx context.Context, id int64) (*leavetype.LeaveType, error) {
	var model leavetypeDatamodel.LeaveType
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrLeaveTypeNotFound
		}
		return nil, err
	}
	return leavetype.FromDataModel(&model), nil
}

func (r *LeaveTypeRepository) GetByName(ctx context.Context, name string) (*leavetype.LeaveType, error) {
	var model leavetypeDatamodel.LeaveType
	if err := database.Conn(ctx, r.db).Where("name = ?", name).First(&model).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrLeaveTypeNotFound
		}
		return nil, err
	}
	return leavetype.FromDataModel(&model), nil
}

func (r *LeaveTypeRepository) List(ctx context.Context) ([]*leavetype.LeaveType, error) {
	return r.find(ctx, nil)
}

func (r *LeaveTypeRepository) ListDefaults(ctx context.Context) ([]*leavetype.LeaveType, error) {
	return r.find(ctx, "is_default = ?", true)
}

func (r *LeaveTypeRepository) ListAccrualBased(ctx context.Context) ([]*leavetype.LeaveType, error) {
	return r.find(ctx, "accrual_based = ? AND accrual_rate > 0", true)
}

func (r *LeaveTypeRepository) ListCarryForwardEnabled(ctx context.Context) ([]*leavetype.LeaveType, error) {
	return r.find(ctx, "is_carry_forward_enabled = ? AND carry_forward_cap > 0", true)
}

func (r *LeaveTypeRepository) find(ctx context.Context, query interface{}, args ...interface{}) ([]*leavetype.LeaveType, error) {
	var models []*leavetypeDatamodel.LeaveType
	q := database.Conn(ctx, r.db).Order("name ASC")
	if query != nil {
		q = q.Where(query, args...)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	return leavetype.FromDataModelSlice(models), nil
}
