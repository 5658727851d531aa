package notification

import (
	"context"
	"net/http"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, userID int64, unreadOnly bool) ([]*Notification, int64, error)
	MarkRead(ctx context.Context, id, userID int64) (*Notification, error)
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

// GetNotifications handles GET /notifications?unread=true
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("unauthorized", internal.ErrCodeUnauthorizedAccess))
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"
	notifications, unread, err := h.Service.List(r.Context(), principal.ID, unreadOnly)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, NotificationsResponse{Notifications: notifications, Unread: unread})
}

// MarkNotificationRead handles PATCH /notifications/{id}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("unauthorized", internal.ErrCodeUnauthorizedAccess))
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	n, err := h.Service.MarkRead(r.Context(), id, principal.ID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, n)
}
