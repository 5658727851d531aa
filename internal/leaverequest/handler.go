package leaverequest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/transport"
)

type ServiceAPI interface {
	Submit(ctx context.Context, employeeID int64, dto SubmitLeaveRequestDTO) (*LeaveRequest, error)
	Decide(ctx context.Context, id, approverID int64, dto DecisionDTO) (*LeaveRequest, error)
	Cancel(ctx context.Context, id, employeeID int64) (*LeaveRequest, error)
	Get(ctx context.Context, id int64) (*LeaveRequest, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]*LeaveRequest, error)
	ListByManager(ctx context.Context, managerID int64) ([]*LeaveRequest, error)
	ListByDepartment(ctx context.Context, departmentID int64, status *string) ([]*LeaveRequest, error)
	ListByStatus(ctx context.Context, status string) ([]*LeaveRequest, error)
	CompanyCalendar(ctx context.Context, year int, month *int) (*CompanyCalendar, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Clock   clock.Clock
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, clk clock.Clock) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Clock:       clk,
	}
}

func principalFrom(r *http.Request) (*internal.User, error) {
	principal, ok := internal.UserFromContext(r.Context())
	if !ok {
		return nil, internal.NewUnauthorizedError("unauthorized", internal.ErrCodeUnauthorizedAccess)
	}
	return principal, nil
}

// canView allows the requester, the routed manager, and anyone holding the
// view-all permission.
func canView(principal *internal.User, lr *LeaveRequest) bool {
	if principal.CanActFor(lr.EmployeeID, internal.PermViewAllRequests) {
		return true
	}
	return lr.ManagerID != nil && *lr.ManagerID == principal.ID
}

// SubmitLeaveRequest handles POST /leave-requests
func (h *Handler) SubmitLeaveRequest(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	var dto SubmitLeaveRequestDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	lr, err := h.Service.Submit(r.Context(), principal.ID, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, lr)
}

// GetMyLeaveRequests handles GET /leave-requests/me
func (h *Handler) GetMyLeaveRequests(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	requests, err := h.Service.ListByEmployee(r.Context(), principal.ID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, LeaveRequestsResponse{LeaveRequests: requests})
}

// GetManagedLeaveRequests handles GET /leave-requests/managed
func (h *Handler) GetManagedLeaveRequests(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	requests, err := h.Service.ListByManager(r.Context(), principal.ID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, LeaveRequestsResponse{LeaveRequests: requests})
}

// GetLeaveRequests handles GET /leave-requests?status=&department_id=
func (h *Handler) GetLeaveRequests(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	departmentID, err := h.QueryInt64(r, "department_id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if !principal.IsAdmin() && !principal.HasPermission(internal.PermViewAllRequests) {
		if departmentID == nil || principal.DepartmentID == nil || *departmentID != *principal.DepartmentID {
			h.WriteAppError(w, internal.ErrUnauthorizedAccess)
			return
		}
	}

	var status *string
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = &raw
	}

	var requests []*LeaveRequest
	switch {
	case departmentID != nil:
		requests, err = h.Service.ListByDepartment(r.Context(), *departmentID, status)
	case status != nil:
		requests, err = h.Service.ListByStatus(r.Context(), *status)
	default:
		requests, err = h.Service.ListByStatus(r.Context(), StatusPending)
	}
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, LeaveRequestsResponse{LeaveRequests: requests})
}

func (h *Handler) GetLeaveRequest(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	lr, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if !canView(principal, lr) {
		h.WriteAppError(w, internal.ErrUnauthorizedAccess)
		return
	}
	h.WriteJSON(w, http.StatusOK, lr)
}

// DecideLeaveRequest handles PATCH /leave-requests/{id}/decision
func (h *Handler) DecideLeaveRequest(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	var dto DecisionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	lr, err := h.Service.Decide(r.Context(), id, principal.ID, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, lr)
}

// CancelLeaveRequest handles PATCH /leave-requests/{id}/cancel
func (h *Handler) CancelLeaveRequest(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	lr, err := h.Service.Cancel(r.Context(), id, principal.ID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, lr)
}

// GetCompanyCalendar handles GET /calendar?year=&month=
func (h *Handler) GetCompanyCalendar(w http.ResponseWriter, r *http.Request) {
	year := h.Clock.Today().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.WriteAppError(w, internal.NewValidationFieldError("year", "year must be an integer", internal.ErrCodeInvalidPeriod))
			return
		}
		year = v
	}
	var month *int
	if raw := r.URL.Query().Get("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.WriteAppError(w, internal.NewValidationFieldError("month", "month must be an integer", internal.ErrCodeInvalidPeriod))
			return
		}
		month = &v
	}
	calendar, err := h.Service.CompanyCalendar(r.Context(), year, month)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, calendar)
}
