package report

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/transport"
)

type ServiceAPI interface {
	BalanceStatement(ctx context.Context, employeeID int64) (*Statement, error)
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

// GetBalanceStatement handles GET /employees/{employeeID}/balances/statement.pdf
func (h *Handler) GetBalanceStatement(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.PathID(r, "employeeID")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	principal, ok := internal.UserFromContext(r.Context())
	if !ok || !principal.CanActFor(employeeID, internal.PermViewReports) {
		h.WriteAppError(w, internal.ErrUnauthorizedAccess)
		return
	}

	statement, err := h.Service.BalanceStatement(r.Context(), employeeID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := Render(statement, &buf); err != nil {
		h.WriteAppError(w, internal.NewInternalError("failed to render balance statement", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="balance-statement-%d.pdf"`, employeeID))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.Error("failed to write balance statement", "error", err, "employee_id", employeeID)
	}
}
