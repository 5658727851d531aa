package leaverequest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/balance"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/database"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/core/period"
	"github.com/frahmantamala/leave-management/internal/holiday"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	"github.com/frahmantamala/leave-management/internal/user"
)

type RepositoryAPI interface {
	Create(ctx context.Context, r *LeaveRequest) error
	GetByID(ctx context.Context, id int64) (*LeaveRequest, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*LeaveRequest, error)
	SaveStatus(ctx context.Context, r *LeaveRequest) error
	List(ctx context.Context, filter Filter) ([]*LeaveRequest, error)
}

type CalendarReader interface {
	DepartmentLeaveCounts(ctx context.Context, from, to time.Time) ([]*DepartmentLeaveCount, error)
}

type LeaveTypeRegistry interface {
	Get(ctx context.Context, id int64) (*leavetype.LeaveType, error)
}

type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id int64) (*user.User, error)
	ListDepartments(ctx context.Context) ([]*user.Department, error)
}

type BalanceStore interface {
	GetByEmployeeAndType(ctx context.Context, employeeID, leaveTypeID int64) (*balance.EmployeeBalance, error)
	Mutate(ctx context.Context, id int64, fn func(ctx context.Context, b *balance.EmployeeBalance) error) (*balance.EmployeeBalance, error)
}

type HolidayCalendar interface {
	List(ctx context.Context, from, to time.Time) ([]*holiday.PublicHoliday, error)
}

type Config struct {
	// DeductOnApproval subtracts the submission duration from the matching
	// balance when a request is approved.
	DeductOnApproval bool
}

type Service struct {
	repo       RepositoryAPI
	calendar   CalendarReader
	leaveTypes LeaveTypeRegistry
	employees  EmployeeDirectory
	balances   BalanceStore
	holidays   HolidayCalendar
	tx         database.TxRunner
	events     events.Recorder
	clock      clock.Clock
	config     Config
	logger     *slog.Logger
}

func NewService(
	repo RepositoryAPI,
	calendar CalendarReader,
	leaveTypes LeaveTypeRegistry,
	employees EmployeeDirectory,
	balances BalanceStore,
	holidays HolidayCalendar,
	tx database.TxRunner,
	recorder events.Recorder,
	clk clock.Clock,
	config Config,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		calendar:   calendar,
		leaveTypes: leaveTypes,
		employees:  employees,
		balances:   balances,
		holidays:   holidays,
		tx:         tx,
		events:     recorder,
		clock:      clk,
		config:     config,
		logger:     logger,
	}
}

func parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := clock.ParseDate(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, internal.NewValidationFieldError("start_date", "start_date must be a YYYY-MM-DD date", internal.ErrCodeInvalidDate)
	}
	end, err := clock.ParseDate(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, internal.NewValidationFieldError("end_date", "end_date must be a YYYY-MM-DD date", internal.ErrCodeInvalidDate)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, internal.NewValidationFieldError("end_date", "end_date must not be before start_date", internal.ErrCodeInvalidDate)
	}
	return start, end, nil
}

func canDecide(approver *user.User, r *LeaveRequest) bool {
	switch approver.Role {
	case internal.RoleAdmin:
		return true
	case internal.RoleManager:
		return sameDepartment(approver.DepartmentID, r.DepartmentID)
	default:
		return false
	}
}

// Submit files a PENDING request for employeeID, routed to the employee's manager.
func (s *Service) Submit(ctx context.Context, employeeID int64, dto SubmitLeaveRequestDTO) (*LeaveRequest, error) {
	start, end, err := parseRange(dto.StartDate, dto.EndDate)
	if err != nil {
		return nil, err
	}
	if start.Before(clock.DateOf(s.clock.Today())) {
		return nil, internal.NewValidationFieldError("start_date", "start_date cannot be in the past", internal.ErrCodeInvalidDate)
	}
	if start.Equal(end) && dto.HalfDayStart && dto.HalfDayEnd {
		return nil, internal.NewValidationFieldError("half_day_end",
			"a single day request cannot be half day at both ends", internal.ErrCodeInvalidDate)
	}

	employee, err := s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	lt, err := s.leaveTypes.Get(ctx, dto.LeaveTypeID)
	if err != nil {
		return nil, err
	}
	if !lt.IsEnabled {
		return nil, internal.NewValidationError(fmt.Sprintf("leave type '%s' is currently disabled", lt.Name),
			internal.ErrCodeLeaveTypeDisabled)
	}

	if lt.RequireReason && (dto.Reason == nil || strings.TrimSpace(*dto.Reason) == "") {
		return nil, internal.NewValidationFieldError("reason",
			fmt.Sprintf("reason is required for %s leave", lt.Name), internal.ErrCodeReasonRequired)
	}
	documents := dto.documents()
	if lt.RequireDocument && len(documents) == 0 {
		return nil, internal.NewValidationFieldError("documents",
			fmt.Sprintf("a document attachment is required for %s leave", lt.Name), internal.ErrCodeDocumentRequired)
	}

	duration := SubmissionDuration(start, end, dto.HalfDayStart, dto.HalfDayEnd)
	if lt.MaxDuration != nil && duration.GreaterThan(decimal.NewFromInt(int64(*lt.MaxDuration))) {
		return nil, internal.NewValidationFieldError("end_date",
			fmt.Sprintf("leave request duration (%s days) exceeds maximum allowed duration (%d days) for leave type %s",
				duration.String(), *lt.MaxDuration, lt.Name),
			internal.ErrCodeDurationExceeded)
	}

	r := &LeaveRequest{
		EmployeeID:     employee.ID,
		EmployeeName:   employee.FullName(),
		EmployeeEmail:  employee.Email,
		DepartmentID:   employee.DepartmentID,
		DepartmentName: employee.DepartmentName,
		LeaveTypeID:    lt.ID,
		LeaveTypeName:  lt.Name,
		StartDate:      start,
		EndDate:        end,
		HalfDayStart:   dto.HalfDayStart,
		HalfDayEnd:     dto.HalfDayEnd,
		Status:         StatusPending,
		Reason:         dto.Reason,
		ManagerID:      employee.ManagerID,
		Documents:      documents,
	}
	r.Duration = duration
	r.WorkingDays = r.WorkingDayCount()
	if employee.Manager != nil {
		r.ManagerEmail = employee.Manager.Email
	} else {
		s.logger.Warn("employee has no manager assigned", "employee_id", employee.ID)
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, r); err != nil {
			return internal.NewInternalError("failed to create leave request", err)
		}
		return s.recordEvent(ctx, r, employee.ID)
	})
	if err != nil {
		s.logger.Error("failed to submit leave request", "error", err, "employee_id", employeeID)
		return nil, err
	}

	s.logger.Info("leave request submitted",
		"leave_request_id", r.ID,
		"employee_id", employeeID,
		"leave_type_id", lt.ID,
		"duration", duration.String())
	return r, nil
}

// Decide approves or rejects a pending request. The approver must be an
// admin, or a manager in the requesting employee's department.
func (s *Service) Decide(ctx context.Context, id, approverID int64, dto DecisionDTO) (*LeaveRequest, error) {
	if dto.Status != StatusApproved && dto.Status != StatusRejected {
		return nil, internal.NewValidationFieldError("status", "status must be APPROVED or REJECTED", internal.ErrCodeInvalidRequestStatus)
	}
	approver, err := s.employees.GetEmployee(ctx, approverID)
	if err != nil {
		return nil, err
	}

	var decided *LeaveRequest
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !canDecide(approver, r) {
			s.logger.Warn("leave decision denied", "leave_request_id", id, "approver_id", approverID)
			return internal.NewForbiddenError("you are not authorized to approve this leave request", internal.ErrCodeApproverNotAllowed)
		}
		if !r.IsPending() {
			return internal.NewStateError("leave request has already been "+strings.ToLower(r.Status), internal.ErrCodeInvalidRequestStatus)
		}
		if dto.Status == StatusRejected && (dto.RejectionReason == nil || strings.TrimSpace(*dto.RejectionReason) == "") {
			return internal.NewValidationFieldError("rejection_reason", "a rejection reason is required", internal.ErrCodeRejectionReasonNeeded)
		}
		if err := r.Decide(dto.Status, dto.RejectionReason, approver.ID, s.clock.Now()); err != nil {
			return err
		}
		if err := s.repo.SaveStatus(ctx, r); err != nil {
			return internal.NewInternalError("failed to save leave request", err)
		}
		r.ManagerEmail = approver.Email

		if r.Status == StatusApproved && s.config.DeductOnApproval {
			if err := s.deduct(ctx, r); err != nil {
				return err
			}
		}
		decided = r
		return s.recordEvent(ctx, r, approver.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave request decided",
		"leave_request_id", id,
		"approver_id", approverID,
		"status", decided.Status)
	return decided, nil
}

func sameDepartment(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}

func (s *Service) deduct(ctx context.Context, r *LeaveRequest) error {
	b, err := s.balances.GetByEmployeeAndType(ctx, r.EmployeeID, r.LeaveTypeID)
	if err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeNotFound) {
			return internal.NewInvalidBalanceError("no leave balance exists for this leave type", internal.ErrCodeBalanceNotFound)
		}
		return err
	}
	days := r.SubmissionDuration()
	_, err = s.balances.Mutate(ctx, b.ID, func(_ context.Context, b *balance.EmployeeBalance) error {
		if b.CurrentBalance.LessThan(days) {
			return internal.NewInvalidBalanceError(
				fmt.Sprintf("insufficient leave balance: %s days available, %s requested", b.CurrentBalance.StringFixed(2), days.String()),
				internal.ErrCodeBalanceNegative)
		}
		return b.Adjust(days.Neg())
	})
	return err
}

// Cancel withdraws a pending request. Only the requesting employee may cancel.
func (s *Service) Cancel(ctx context.Context, id, employeeID int64) (*LeaveRequest, error) {
	var cancelled *LeaveRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r.EmployeeID != employeeID {
			return internal.NewForbiddenError("you are not authorized to cancel this leave request", internal.ErrCodeNotRequestOwner)
		}
		if err := r.Cancel(); err != nil {
			return err
		}
		if err := s.repo.SaveStatus(ctx, r); err != nil {
			return internal.NewInternalError("failed to save leave request", err)
		}
		cancelled = r
		return s.recordEvent(ctx, r, employeeID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave request cancelled", "leave_request_id", id, "employee_id", employeeID)
	return cancelled, nil
}

func (s *Service) recordEvent(ctx context.Context, r *LeaveRequest, actorID int64) error {
	event, err := events.NewEvent(events.LeaveRequestEventType(r.Status), s.clock.Now(), events.LeaveRequestPayload{
		LeaveRequestID:  r.ID,
		EmployeeID:      r.EmployeeID,
		EmployeeName:    r.EmployeeName,
		EmployeeEmail:   r.EmployeeEmail,
		ManagerID:       r.ManagerID,
		ManagerEmail:    r.ManagerEmail,
		LeaveTypeName:   r.LeaveTypeName,
		StartDate:       r.StartDate.Format(clock.DateLayout),
		EndDate:         r.EndDate.Format(clock.DateLayout),
		Duration:        r.SubmissionDuration().String(),
		Status:          r.Status,
		RejectionReason: r.RejectionReason,
		ActorID:         actorID,
	})
	if err != nil {
		return internal.NewInternalError("failed to build leave request event", err)
	}
	if err := s.events.Record(ctx, event); err != nil {
		return internal.NewInternalError("failed to record leave request event", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*LeaveRequest, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeNotFound) {
			return nil, err
		}
		s.logger.Error("failed to get leave request", "error", err, "leave_request_id", id)
		return nil, internal.NewInternalError("failed to get leave request", err)
	}
	return r, nil
}

func (s *Service) list(ctx context.Context, filter Filter) ([]*LeaveRequest, error) {
	if filter.Status != nil && !IsValidStatus(*filter.Status) {
		return nil, internal.NewValidationFieldError("status", "unknown leave request status "+*filter.Status, internal.ErrCodeInvalidRequestStatus)
	}
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list leave requests", "error", err)
		return nil, internal.NewInternalError("failed to list leave requests", err)
	}
	return requests, nil
}

func (s *Service) ListByEmployee(ctx context.Context, employeeID int64) ([]*LeaveRequest, error) {
	return s.list(ctx, Filter{EmployeeID: &employeeID})
}

func (s *Service) ListByManager(ctx context.Context, managerID int64) ([]*LeaveRequest, error) {
	return s.list(ctx, Filter{ManagerID: &managerID})
}

func (s *Service) ListByDepartment(ctx context.Context, departmentID int64, status *string) ([]*LeaveRequest, error) {
	return s.list(ctx, Filter{DepartmentID: &departmentID, Status: status})
}

func (s *Service) ListByStatus(ctx context.Context, status string) ([]*LeaveRequest, error) {
	return s.list(ctx, Filter{Status: &status})
}

// CompanyCalendar gathers approved leave and public holidays for a month, or
// for the whole year when month is nil.
func (s *Service) CompanyCalendar(ctx context.Context, year int, month *int) (*CompanyCalendar, error) {
	var from, to time.Time
	if month != nil {
		ym, err := period.New(year, time.Month(*month))
		if err != nil {
			return nil, internal.NewValidationFieldError("month", err.Error(), internal.ErrCodeInvalidPeriod)
		}
		from, to = ym.Start(), ym.End()
	} else {
		if year < 1 {
			return nil, internal.NewValidationFieldError("year", "year must be positive", internal.ErrCodeInvalidPeriod)
		}
		from, to = clock.Date(year, time.January, 1), clock.Date(year, time.December, 31)
	}

	approved := StatusApproved
	requests, err := s.list(ctx, Filter{Status: &approved, From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	holidays, err := s.holidays.List(ctx, from, to)
	if err != nil {
		return nil, err
	}
	departments, err := s.employees.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.calendar.DepartmentLeaveCounts(ctx, from, to)
	if err != nil {
		s.logger.Error("failed to count department leave", "error", err)
		return nil, internal.NewInternalError("failed to build company calendar", err)
	}

	leaves := make([]*EmployeeLeave, len(requests))
	for i, r := range requests {
		leaves[i] = &EmployeeLeave{
			LeaveRequestID: r.ID,
			EmployeeID:     r.EmployeeID,
			EmployeeName:   r.EmployeeName,
			DepartmentName: r.DepartmentName,
			LeaveTypeName:  r.LeaveTypeName,
			StartDate:      r.StartDate,
			EndDate:        r.EndDate,
			HalfDayStart:   r.HalfDayStart,
			HalfDayEnd:     r.HalfDayEnd,
			WorkingDays:    r.WorkingDays,
		}
	}

	s.logger.Info("company calendar built",
		"from", from.Format(clock.DateLayout),
		"to", to.Format(clock.DateLayout),
		"leaves", len(leaves),
		"holidays", len(holidays))
	return &CompanyCalendar{
		Year:           year,
		Month:          month,
		From:           from,
		To:             to,
		EmployeeLeaves: leaves,
		PublicHolidays: holidays,
		Departments:    departments,
		LeaveCounts:    counts,
	}, nil
}
