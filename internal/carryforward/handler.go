package carryforward

import (
	"context"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/transport"
)

type ServiceAPI interface {
	ProcessAnnualCarryForward(ctx context.Context, fromYear, toYear int) (*BatchResult, error)
	ProcessEmployeeCarryForward(ctx context.Context, employeeID int64, fromYear, toYear int) ([]*LeaveCarryForward, error)
	Preview(ctx context.Context) ([]*Projection, error)
	HistoryByBalance(ctx context.Context, balanceID int64) ([]*LeaveCarryForward, error)
	HistoryByYears(ctx context.Context, fromYear, toYear int) ([]*LeaveCarryForward, error)
	TotalCarriedForward(ctx context.Context, balanceID int64, fromYear, toYear int) (decimal.Decimal, error)
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

type ProcessCarryForwardDTO struct {
	FromYear *int `json:"from_year"`
	ToYear   *int `json:"to_year"`
}

type CarryForwardsResponse struct {
	CarryForwards []*LeaveCarryForward `json:"carry_forwards"`
}

type PreviewResponse struct {
	Projections []*Projection `json:"projections"`
}

type TotalResponse struct {
	EmployeeBalanceID   int64           `json:"employee_balance_id"`
	FromYear            int             `json:"from_year"`
	ToYear              int             `json:"to_year"`
	TotalCarriedForward decimal.Decimal `json:"total_carried_forward"`
}

// years resolves the transition from the DTO, defaulting to last year into this year.
func (h *Handler) years(dto ProcessCarryForwardDTO) (int, int) {
	fromYear, toYear := DefaultTransition(h.Clock.Today())
	if dto.FromYear != nil {
		fromYear = *dto.FromYear
		toYear = fromYear + 1
	}
	if dto.ToYear != nil {
		toYear = *dto.ToYear
	}
	return fromYear, toYear
}

func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, internal.NewValidationFieldError(name, name+" must be an integer", internal.ErrCodeInvalidPeriod)
	}
	return &v, nil
}

func (h *Handler) queryYears(r *http.Request) (int, int, error) {
	var (
		dto ProcessCarryForwardDTO
		err error
	)
	if dto.FromYear, err = queryInt(r, "from_year"); err != nil {
		return 0, 0, err
	}
	if dto.ToYear, err = queryInt(r, "to_year"); err != nil {
		return 0, 0, err
	}
	fromYear, toYear := h.years(dto)
	return fromYear, toYear, nil
}

// ProcessAnnual handles POST /carry-forwards/process
func (h *Handler) ProcessAnnual(w http.ResponseWriter, r *http.Request) {
	var dto ProcessCarryForwardDTO
	if r.ContentLength != 0 {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.WriteAppError(w, err)
			return
		}
	}
	fromYear, toYear := h.years(dto)
	result, err := h.Service.ProcessAnnualCarryForward(r.Context(), fromYear, toYear)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

// ProcessEmployee handles POST /carry-forwards/employees/{employeeID}
func (h *Handler) ProcessEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.PathID(r, "employeeID")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	fromYear, toYear, err := h.queryYears(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	records, err := h.Service.ProcessEmployeeCarryForward(r.Context(), employeeID, fromYear, toYear)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, CarryForwardsResponse{CarryForwards: records})
}

// GetHistory handles GET /carry-forwards?from_year=&to_year=
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	fromYear, toYear, err := h.queryYears(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	records, err := h.Service.HistoryByYears(r.Context(), fromYear, toYear)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, CarryForwardsResponse{CarryForwards: records})
}

// GetBalanceHistory handles GET /balances/{id}/carry-forwards
func (h *Handler) GetBalanceHistory(w http.ResponseWriter, r *http.Request) {
	balanceID, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	records, err := h.Service.HistoryByBalance(r.Context(), balanceID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, CarryForwardsResponse{CarryForwards: records})
}

// GetBalanceTotal handles GET /balances/{id}/carry-forwards/total?from_year=&to_year=
func (h *Handler) GetBalanceTotal(w http.ResponseWriter, r *http.Request) {
	balanceID, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	fromYear, toYear, err := h.queryYears(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	total, err := h.Service.TotalCarriedForward(r.Context(), balanceID, fromYear, toYear)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, TotalResponse{
		EmployeeBalanceID:   balanceID,
		FromYear:            fromYear,
		ToYear:              toYear,
		TotalCarriedForward: total,
	})
}

func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	projections, err := h.Service.Preview(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PreviewResponse{Projections: projections})
}
