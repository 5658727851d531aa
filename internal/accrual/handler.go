package accrual

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/period"
	"github.com/frahmantamala/leave-management/internal/transport"
)

type ServiceAPI interface {
	ProcessMonthlyAccruals(ctx context.Context, ym period.YearMonth) (*BatchResult, error)
	ProcessEmployeeMonthlyAccruals(ctx context.Context, employeeID int64, ym period.YearMonth) ([]*LeaveAccrual, error)
	ProcessEmployeeYear(ctx context.Context, employeeID int64, year int) ([]*LeaveAccrual, error)
	FindByBalance(ctx context.Context, balanceID int64) ([]*LeaveAccrual, error)
	HasAccrualsBeenProcessed(ctx context.Context, year, month int) (bool, error)
	ListAll(ctx context.Context) ([]*LeaveAccrual, error)
	PeriodDetails(ctx context.Context, raw string) ([]*LeaveAccrual, error)
	HistorySummary(ctx context.Context) ([]*PeriodSummary, error)
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

type AccrualsResponse struct {
	Accruals []*LeaveAccrual `json:"accruals"`
}

type SummaryResponse struct {
	Periods []*PeriodSummary `json:"periods"`
}

type ProcessedResponse struct {
	Year      int  `json:"year"`
	Month     int  `json:"month"`
	Processed bool `json:"processed"`
}

// targetPeriod reads ?year=&month=, defaulting to the month before today.
func (h *Handler) targetPeriod(r *http.Request) (period.YearMonth, error) {
	q := r.URL.Query()
	if q.Get("year") == "" && q.Get("month") == "" {
		return PreviousMonth(h.Clock.Today()), nil
	}
	year, yerr := strconv.Atoi(q.Get("year"))
	month, merr := strconv.Atoi(q.Get("month"))
	if yerr != nil || merr != nil {
		return period.YearMonth{}, internal.NewValidationFieldError("period", "year and month must both be integers", internal.ErrCodeInvalidPeriod)
	}
	ym, err := period.New(year, time.Month(month))
	if err != nil {
		return period.YearMonth{}, internal.NewValidationFieldError("month", err.Error(), internal.ErrCodeInvalidPeriod)
	}
	return ym, nil
}

// ProcessMonthly handles POST /accruals/process-monthly
func (h *Handler) ProcessMonthly(w http.ResponseWriter, r *http.Request) {
	ym, err := h.targetPeriod(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	result, err := h.Service.ProcessMonthlyAccruals(r.Context(), ym)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

// ProcessEmployeeMonthly handles POST /accruals/employees/{employeeID}/process-monthly
func (h *Handler) ProcessEmployeeMonthly(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.PathID(r, "employeeID")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	ym, err := h.targetPeriod(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	accruals, err := h.Service.ProcessEmployeeMonthlyAccruals(r.Context(), employeeID, ym)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AccrualsResponse{Accruals: accruals})
}

// ProcessEmployeeYearly handles POST /accruals/employees/{employeeID}/process-yearly?year=
func (h *Handler) ProcessEmployeeYearly(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.PathID(r, "employeeID")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	year := h.Clock.Today().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil {
			h.WriteAppError(w, internal.NewValidationFieldError("year", "year must be an integer", internal.ErrCodeInvalidPeriod))
			return
		}
	}
	accruals, err := h.Service.ProcessEmployeeYear(r.Context(), employeeID, year)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AccrualsResponse{Accruals: accruals})
}

// GetAccruals handles GET /accruals?balance_id=
func (h *Handler) GetAccruals(w http.ResponseWriter, r *http.Request) {
	var (
		accruals []*LeaveAccrual
		err      error
	)
	if balanceID, perr := h.QueryInt64(r, "balance_id"); perr != nil {
		h.WriteAppError(w, perr)
		return
	} else if balanceID != nil {
		accruals, err = h.Service.FindByBalance(r.Context(), *balanceID)
	} else {
		accruals, err = h.Service.ListAll(r.Context())
	}
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AccrualsResponse{Accruals: accruals})
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Service.HistorySummary(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, SummaryResponse{Periods: summaries})
}

// GetPeriodDetails handles GET /accruals/periods/{period}
func (h *Handler) GetPeriodDetails(w http.ResponseWriter, r *http.Request) {
	accruals, err := h.Service.PeriodDetails(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AccrualsResponse{Accruals: accruals})
}

// GetProcessed handles GET /accruals/processed?year=&month=
func (h *Handler) GetProcessed(w http.ResponseWriter, r *http.Request) {
	year, yerr := strconv.Atoi(r.URL.Query().Get("year"))
	month, merr := strconv.Atoi(r.URL.Query().Get("month"))
	if yerr != nil || merr != nil {
		h.WriteAppError(w, internal.NewValidationFieldError("period", "year and month are required", internal.ErrCodeInvalidPeriod))
		return
	}
	processed, err := h.Service.HasAccrualsBeenProcessed(r.Context(), year, month)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ProcessedResponse{Year: year, Month: month, Processed: processed})
}
