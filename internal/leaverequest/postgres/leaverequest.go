package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/database"
	leaverequestDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leaverequest"
	"github.com/frahmantamala/leave-management/internal/leaverequest"
)

type LeaveRequestRepository struct {
	db *gorm.DB
}

func NewLeaveRequestRepository(db *gorm.DB) leaverequest.RepositoryAPI {
	return &LeaveRequestRepository{db: db}
}

// Create inserts the request together with its documents.
func (r *LeaveRequestRepository) Create(ctx context.Context, lr *leaverequest.LeaveRequest) error {
	model := leaverequest.ToDataModel(lr)
	if err := database.Conn(ctx, r.db).Omit("Employee", "LeaveType", "Manager").Create(model).Error; err != nil {
		return err
	}
	lr.ID = model.ID
	lr.CreatedAt = model.CreatedAt
	lr.UpdatedAt = model.UpdatedAt
	for i := range model.Documents {
		lr.Documents[i].ID = model.Documents[i].ID
	}
	return nil
}

// SaveStatus writes the decision columns only.
func (r *LeaveRequestRepository) SaveStatus(ctx context.Context, lr *leaverequest.LeaveRequest) error {
	model := leaverequest.ToDataModel(lr)
	result := database.Conn(ctx, r.db).
		Model(&leaverequestDatamodel.LeaveRequest{ID: lr.ID}).
		Select("status", "rejection_reason", "manager_id", "approved_at", "updated_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrLeaveRequestNotFound
	}
	lr.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *LeaveRequestRepository) withRelations(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db).
		Preload("Employee").
		Preload("Employee.Department").
		Preload("LeaveType").
		Preload("Manager").
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, id ASC")
		})
}

func (r *LeaveRequestRepository) first(q *gorm.DB) (*leaverequest.LeaveRequest, error) {
	var model leaverequestDatamodel.LeaveRequest
	if err := q.First(&model).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrLeaveRequestNotFound
		}
		return nil, err
	}
	return leaverequest.FromDataModel(&model), nil
}

func (r *LeaveRequestRepository) GetByID(ctx context.Context, id int64) (*leaverequest.LeaveRequest, error) {
	return r.first(r.withRelations(ctx).Where("leave_requests.id = ?", id))
}

func (r *LeaveRequestRepository) GetByIDForUpdate(ctx context.Context, id int64) (*leaverequest.LeaveRequest, error) {
	return r.first(database.ForUpdate(r.withRelations(ctx)).Where("leave_requests.id = ?", id))
}

func (r *LeaveRequestRepository) List(ctx context.Context, filter leaverequest.Filter) ([]*leaverequest.LeaveRequest, error) {
	q := r.withRelations(ctx)
	if filter.EmployeeID != nil {
		q = q.Where("leave_requests.employee_id = ?", *filter.EmployeeID)
	}
	if filter.ManagerID != nil {
		q = q.Where("leave_requests.manager_id = ?", *filter.ManagerID)
	}
	if filter.DepartmentID != nil {
		q = q.Joins("JOIN users ON users.id = leave_requests.employee_id").
			Where("users.department_id = ?", *filter.DepartmentID)
	}
	if filter.Status != nil {
		q = q.Where("leave_requests.status = ?", *filter.Status)
	}
	if filter.From != nil {
		q = q.Where("leave_requests.end_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("leave_requests.start_date <= ?", *filter.To)
	}

	var models []*leaverequestDatamodel.LeaveRequest
	if err := q.Order("leave_requests.start_date ASC, leave_requests.id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return leaverequest.FromDataModelSlice(models), nil
}
