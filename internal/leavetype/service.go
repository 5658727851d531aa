package leavetype

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal"
)

type RepositoryAPI interface {
	Create(ctx context.Context, lt *LeaveType) error
	Update(ctx context.Context, lt *LeaveType) error
	GetByID(ctx context.Context, id int64) (*LeaveType, error)
	GetByName(ctx context.Context, name string) (*LeaveType, error)
	List(ctx context.Context) ([]*LeaveType, error)
	ListDefaults(ctx context.Context) ([]*LeaveType, error)
	ListAccrualBased(ctx context.Context) ([]*LeaveType, error)
	ListCarryForwardEnabled(ctx context.Context) ([]*LeaveType, error)
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

func duplicateName(name string) error {
	return internal.NewConflictError("leave type with name '"+name+"' already exists", internal.ErrCodeLeaveTypeDuplicateName)
}

func (s *Service) Create(ctx context.Context, dto CreateLeaveTypeDTO) (*LeaveType, error) {
	lt := dto.toLeaveType()
	if err := lt.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(ctx, lt.Name)
	if err != nil && !internal.IsErrorType(err, internal.ErrorTypeNotFound) {
		s.logger.Error("failed to look up leave type by name", "error", err, "name", lt.Name)
		return nil, internal.NewInternalError("failed to create leave type", err)
	}
	if existing != nil {
		return nil, duplicateName(lt.Name)
	}

	if err := s.repo.Create(ctx, lt); err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeConflict) {
			return nil, err
		}
		s.logger.Error("failed to create leave type", "error", err, "name", lt.Name)
		return nil, internal.NewInternalError("failed to create leave type", err)
	}

	s.logger.Info("leave type created", "leave_type_id", lt.ID, "name", lt.Name)
	return lt, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateLeaveTypeDTO) (*LeaveType, error) {
	lt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if lt.IsDefault && dto.IsEnabled != nil && !*dto.IsEnabled {
		return nil, internal.NewValidationError("default leave types cannot be disabled", internal.ErrCodeDefaultTypeDisabled)
	}

	oldName := lt.Name
	dto.applyTo(lt)
	if err := lt.Validate(); err != nil {
		return nil, err
	}

	if lt.Name != oldName {
		other, err := s.repo.GetByName(ctx, lt.Name)
		if err != nil && !internal.IsErrorType(err, internal.ErrorTypeNotFound) {
			return nil, internal.NewInternalError("failed to update leave type", err)
		}
		if other != nil && other.ID != lt.ID {
			return nil, duplicateName(lt.Name)
		}
	}

	if err := s.repo.Update(ctx, lt); err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeConflict) {
			return nil, err
		}
		s.logger.Error("failed to update leave type", "error", err, "leave_type_id", id)
		return nil, internal.NewInternalError("failed to update leave type", err)
	}

	s.logger.Info("leave type updated", "leave_type_id", lt.ID)
	return lt, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*LeaveType, error) {
	lt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeNotFound) {
			return nil, err
		}
		s.logger.Error("failed to get leave type", "error", err, "leave_type_id", id)
		return nil, internal.NewInternalError("failed to get leave type", err)
	}
	return lt, nil
}

func (s *Service) GetByName(ctx context.Context, name string) (*LeaveType, error) {
	lt, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeNotFound) {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to get leave type", err)
	}
	return lt, nil
}

func (s *Service) List(ctx context.Context) ([]*LeaveType, error) {
	return s.list(ctx, s.repo.List, "failed to list leave types")
}

func (s *Service) ListDefaults(ctx context.Context) ([]*LeaveType, error) {
	return s.list(ctx, s.repo.ListDefaults, "failed to list default leave types")
}

// ListEligibleForAccrual returns accrual-based types with a positive rate.
func (s *Service) ListEligibleForAccrual(ctx context.Context) ([]*LeaveType, error) {
	types, err := s.list(ctx, s.repo.ListAccrualBased, "failed to list accrual leave types")
	if err != nil {
		return nil, err
	}
	return filter(types, (*LeaveType).IsEligibleForAccrual), nil
}

// ListEligibleForCarryForward returns carry-forward enabled types with a positive cap.
func (s *Service) ListEligibleForCarryForward(ctx context.Context) ([]*LeaveType, error) {
	types, err := s.list(ctx, s.repo.ListCarryForwardEnabled, "failed to list carry forward leave types")
	if err != nil {
		return nil, err
	}
	return filter(types, (*LeaveType).IsEligibleForCarryForward), nil
}

func (s *Service) list(ctx context.Context, fetch func(context.Context) ([]*LeaveType, error), msg string) ([]*LeaveType, error) {
	types, err := fetch(ctx)
	if err != nil {
		s.logger.Error(msg, "error", err)
		return nil, internal.NewInternalError(msg, err)
	}
	return types, nil
}

func filter(types []*LeaveType, keep func(*LeaveType) bool) []*LeaveType {
	out := make([]*LeaveType, 0, len(types))
	for _, lt := range types {
		if keep(lt) {
			out = append(out, lt)
		}
	}
	return out
}
