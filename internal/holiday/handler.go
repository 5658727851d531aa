package holiday

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateHolidayDTO) (*PublicHoliday, error)
	Update(ctx context.Context, id int64, dto UpdateHolidayDTO) (*PublicHoliday, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*PublicHoliday, error)
	List(ctx context.Context, from, to time.Time) ([]*PublicHoliday, error)
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

// GetHolidays handles GET /holidays?from=&to=, defaulting to the current year.
func (h *Handler) GetHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.Clock.Today().Year()
	from := clock.Date(year, time.January, 1)
	to := clock.Date(year, time.December, 31)

	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = parseDate("from", raw); err != nil {
			h.WriteAppError(w, err)
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = parseDate("to", raw); err != nil {
			h.WriteAppError(w, err)
			return
		}
	}

	holidays, err := h.Service.List(r.Context(), from, to)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, HolidaysResponse{Holidays: holidays})
}

func (h *Handler) GetHoliday(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	holiday, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, holiday)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var dto CreateHolidayDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	holiday, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, holiday)
}

func (h *Handler) UpdateHoliday(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	var dto UpdateHolidayDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	holiday, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, holiday)
}

func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
