package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/core/database"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{db: db}
}

func toAccount(u *userDatamodel.User) *auth.Account {
	return &auth.Account{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Status:       u.Status,
		DepartmentID: u.DepartmentID,
	}
}

func (r *Repository) find(ctx context.Context, query string, arg interface{}) (*auth.Account, error) {
	var model userDatamodel.User
	err := database.Conn(ctx, r.db).
		Select("id", "email", "password_hash", "role", "status", "department_id").
		Where(query, arg).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, err
	}
	return toAccount(&model), nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	return r.find(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*auth.Account, error) {
	return r.find(ctx, "id = ?", id)
}
