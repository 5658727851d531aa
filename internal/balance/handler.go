package balance

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, employeeID, leaveTypeID int64) (*EmployeeBalance, error)
	InitializeForEmployee(ctx context.Context, employeeID int64) ([]*EmployeeBalance, error)
	Adjust(ctx context.Context, id int64, delta decimal.Decimal) (*EmployeeBalance, error)
	SetMaxBalance(ctx context.Context, id int64, newMax *decimal.Decimal) (*EmployeeBalance, error)
	UpdateAccrualEligibility(ctx context.Context, id int64, eligible bool) (*EmployeeBalance, error)
	Get(ctx context.Context, id int64) (*EmployeeBalance, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]*EmployeeBalance, error)
	ListExceedingMaxBalance(ctx context.Context) ([]*EmployeeBalance, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// employeeScope resolves the {employeeID} path parameter, or the caller when absent,
// and checks the caller may read it.
func (h *Handler) employeeScope(r *http.Request) (int64, error) {
	principal, ok := internal.UserFromContext(r.Context())
	if !ok {
		return 0, internal.NewUnauthorizedError("unauthorized", internal.ErrCodeUnauthorizedAccess)
	}
	if chi.URLParam(r, "employeeID") == "" {
		return principal.ID, nil
	}
	employeeID, err := h.PathID(r, "employeeID")
	if err != nil {
		return 0, err
	}
	if !principal.CanActFor(employeeID, internal.PermManageBalances) {
		return 0, internal.ErrUnauthorizedAccess
	}
	return employeeID, nil
}

// GetBalances handles GET /balances/me and GET /employees/{employeeID}/balances
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.employeeScope(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	balances, err := h.Service.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, BalancesResponse{Balances: balances})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	b, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	principal, _ := internal.UserFromContext(r.Context())
	if principal == nil || !principal.CanActFor(b.EmployeeID, internal.PermManageBalances) {
		h.WriteAppError(w, internal.ErrUnauthorizedAccess)
		return
	}
	h.WriteJSON(w, http.StatusOK, b)
}

// GetTotalAllowance handles GET /balances/{id}/allowance
func (h *Handler) GetTotalAllowance(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	b, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	principal, _ := internal.UserFromContext(r.Context())
	if principal == nil || !principal.CanActFor(b.EmployeeID, internal.PermManageBalances) {
		h.WriteAppError(w, internal.ErrUnauthorizedAccess)
		return
	}
	h.WriteJSON(w, http.StatusOK, TotalAllowanceResponse{BalanceID: b.ID, TotalAllowance: b.TotalAllowance()})
}

func (h *Handler) CreateBalance(w http.ResponseWriter, r *http.Request) {
	var dto CreateBalanceDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	b, err := h.Service.Create(r.Context(), dto.EmployeeID, dto.LeaveTypeID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, b)
}

// InitializeBalances handles POST /employees/{employeeID}/balances/initialize
func (h *Handler) InitializeBalances(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.PathID(r, "employeeID")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	balances, err := h.Service.InitializeForEmployee(r.Context(), employeeID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, BalancesResponse{Balances: balances})
}

func (h *Handler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	var dto AdjustBalanceDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	b, err := h.Service.Adjust(r.Context(), id, dto.Delta)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) SetMaxBalance(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	var dto SetMaxBalanceDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	b, err := h.Service.SetMaxBalance(r.Context(), id, dto.MaxBalance)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) UpdateAccrualEligibility(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	var dto AccrualEligibilityDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	b, err := h.Service.UpdateAccrualEligibility(r.Context(), id, dto.Eligible)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) GetExceedingMaxBalance(w http.ResponseWriter, r *http.Request) {
	balances, err := h.Service.ListExceedingMaxBalance(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, BalancesResponse{Balances: balances})
}
