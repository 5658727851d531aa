package scheduler

import (
	"context"
	"net/http"

	"github.com/frahmantamala/leave-management/internal/transport"
)

type ServiceAPI interface {
	ListRuns(ctx context.Context, jobType string, limit int) ([]*JobRun, error)
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

type JobRunsResponse struct {
	Runs []*JobRun `json:"runs"`
}

// GetJobRuns handles GET /jobs?type=&limit=
func (h *Handler) GetJobRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := h.QueryInt64(r, "limit")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	n := 0
	if limit != nil {
		n = int(*limit)
	}

	runs, err := h.Service.ListRuns(r.Context(), r.URL.Query().Get("type"), n)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, JobRunsResponse{Runs: runs})
}
