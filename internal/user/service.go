package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListActive(ctx context.Context) ([]*User, error)
	ListDepartments(ctx context.Context) ([]*Department, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetEmployee returns the employee with manager and department resolved.
func (s *Service) GetEmployee(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeNotFound) {
			return nil, err
		}
		s.logger.Error("failed to get employee", "error", err, "employee_id", id)
		return nil, internal.NewInternalError("failed to get employee", err)
	}
	return u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) ListActiveEmployees(ctx context.Context) ([]*User, error) {
	users, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.Error("failed to list active employees", "error", err)
		return nil, internal.NewInternalError("failed to list employees", err)
	}
	return users, nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]*Department, error) {
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		s.logger.Error("failed to list departments", "error", err)
		return nil, internal.NewInternalError("failed to list departments", err)
	}
	return departments, nil
}
