package notification

import (
	"time"

	notificationDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/notification"
)

const (
	TypeLeaveSubmitted        = "leave_submitted"
	TypeLeaveApproved         = "leave_approved"
	TypeLeaveRejected         = "leave_rejected"
	TypeLeaveCancelled        = "leave_cancelled"
	TypeAccrualProcessed      = "accrual_processed"
	TypeCarryForwardProcessed = "carry_forward_processed"
)

type Notification struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Recipient identifies who a notification goes to. Email is optional; when
// empty the notification is only stored in-app.
type Recipient struct {
	UserID int64
	Email  string
}

func ToDataModel(n *Notification) *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func FromDataModel(n *notificationDatamodel.Notification) *Notification {
	if n == nil {
		return nil
	}
	return &Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func FromDataModelSlice(models []*notificationDatamodel.Notification) []*Notification {
	result := make([]*Notification, len(models))
	for i, m := range models {
		result[i] = FromDataModel(m)
	}
	return result
}

type NotificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
	Unread        int64           `json:"unread"`
}
