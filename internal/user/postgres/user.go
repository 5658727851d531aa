package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/database"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	"github.com/frahmantamala/leave-management/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u userDatamodel.User
	err := database.Conn(ctx, r.db).
		Preload("Department").
		Preload("Manager").
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&u), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var u userDatamodel.User
	err := database.Conn(ctx, r.db).
		Preload("Department").
		Where("email = ?", email).
		First(&u).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&u), nil
}

func (r *UserRepository) ListActive(ctx context.Context) ([]*user.User, error) {
	var users []*userDatamodel.User
	err := database.Conn(ctx, r.db).
		Preload("Department").
		Where("status = ?", user.StatusActive).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return user.FromDataModelSlice(users), nil
}

func (r *UserRepository) ListDepartments(ctx context.Context) ([]*user.Department, error) {
	var departments []*userDatamodel.Department
	if err := database.Conn(ctx, r.db).Order("name ASC").Find(&departments).Error; err != nil {
		return nil, err
	}
	out := make([]*user.Department, len(departments))
	for i, d := range departments {
		out[i] = user.DepartmentFromDataModel(d)
	}
	return out, nil
}
