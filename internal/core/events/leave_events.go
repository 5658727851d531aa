package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLeaveRequestSubmitted = "leave_request.submitted"
	EventTypeLeaveRequestApproved  = "leave_request.approved"
	EventTypeLeaveRequestRejected  = "leave_request.rejected"
	EventTypeLeaveRequestCancelled = "leave_request.cancelled"
	EventTypeAccrualProcessed      = "accrual.processed"
	EventTypeCarryForwardProcessed = "carry_forward.processed"
)

// AllEventTypes lists every type the outbox knows how to dispatch.
var AllEventTypes = []string{
	EventTypeLeaveRequestSubmitted,
	EventTypeLeaveRequestApproved,
	EventTypeLeaveRequestRejected,
	EventTypeLeaveRequestCancelled,
	EventTypeAccrualProcessed,
	EventTypeCarryForwardProcessed,
}

type LeaveRequestPayload struct {
	LeaveRequestID  int64   `json:"leave_request_id"`
	EmployeeID      int64   `json:"employee_id"`
	EmployeeName    string  `json:"employee_name"`
	EmployeeEmail   string  `json:"employee_email"`
	ManagerID       *int64  `json:"manager_id,omitempty"`
	ManagerEmail    string  `json:"manager_email,omitempty"`
	LeaveTypeName   string  `json:"leave_type_name"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	Duration        string  `json:"duration"`
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	ActorID         int64   `json:"actor_id"`
}

type AccrualPayload struct {
	AccrualID         int64  `json:"accrual_id"`
	EmployeeBalanceID int64  `json:"employee_balance_id"`
	EmployeeID        int64  `json:"employee_id"`
	LeaveTypeName     string `json:"leave_type_name"`
	YearMonth         string `json:"year_month"`
	Amount            string `json:"amount"`
	IsProrated        bool   `json:"is_prorated"`
	NewBalance        string `json:"new_balance"`
}

type CarryForwardPayload struct {
	CarryForwardID       int64  `json:"carry_forward_id"`
	EmployeeBalanceID    int64  `json:"employee_balance_id"`
	EmployeeID           int64  `json:"employee_id"`
	LeaveTypeName        string `json:"leave_type_name"`
	FromYear             int    `json:"from_year"`
	ToYear               int    `json:"to_year"`
	OriginalBalance      string `json:"original_balance"`
	CarriedForwardAmount string `json:"carried_forward_amount"`
	ForfeitedAmount      string `json:"forfeited_amount"`
}

// NewEvent builds a BaseEvent whose Data is the JSON object form of payload.
func NewEvent(eventType string, occurredAt time.Time, payload interface{}) (BaseEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return BaseEvent{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	data := make(map[string]interface{})
	if err := json.Unmarshal(raw, &data); err != nil {
		return BaseEvent{}, fmt.Errorf("unmarshal %s payload: %w", eventType, err)
	}
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: occurredAt,
		Data:      data,
	}, nil
}

// DecodePayload converts the event data back into a typed payload.
func DecodePayload(event Event, dst interface{}) error {
	raw, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.EventID(), err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode event %s: %w", event.EventID(), err)
	}
	return nil
}

func LeaveRequestEventType(status string) string {
	switch status {
	case "APPROVED":
		return EventTypeLeaveRequestApproved
	case "REJECTED":
		return EventTypeLeaveRequestRejected
	case "CANCELLED":
		return EventTypeLeaveRequestCancelled
	}
	return EventTypeLeaveRequestSubmitted
}
