package leavetype

import (
	"context"
	"net/http"

	"github.com/frahmantamala/leave-management/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateLeaveTypeDTO) (*LeaveType, error)
	Update(ctx context.Context, id int64, dto UpdateLeaveTypeDTO) (*LeaveType, error)
	Get(ctx context.Context, id int64) (*LeaveType, error)
	List(ctx context.Context) ([]*LeaveType, error)
	ListDefaults(ctx context.Context) ([]*LeaveType, error)
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

// GetLeaveTypes handles GET /leave-types?defaults=true
func (h *Handler) GetLeaveTypes(w http.ResponseWriter, r *http.Request) {
	list := h.Service.List
	if r.URL.Query().Get("defaults") == "true" {
		list = h.Service.ListDefaults
	}

	types, err := list(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, LeaveTypesResponse{LeaveTypes: types})
}

func (h *Handler) GetLeaveType(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	lt, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, lt)
}

func (h *Handler) CreateLeaveType(w http.ResponseWriter, r *http.Request) {
	var dto CreateLeaveTypeDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	lt, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, lt)
}

func (h *Handler) UpdateLeaveType(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	var dto UpdateLeaveTypeDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	lt, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, lt)
}
