package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/user"
)

type Notifier interface {
	Notify(ctx context.Context, to Recipient, ntype, title, message string) (*Notification, error)
}

type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id int64) (*user.User, error)
}

// EventHandler turns leave domain events into notifications.
type EventHandler struct {
	notifier  Notifier
	employees EmployeeDirectory
	logger    *slog.Logger
}

func NewEventHandler(notifier Notifier, employees EmployeeDirectory, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		notifier:  notifier,
		employees: employees,
		logger:    logger,
	}
}

func (h *EventHandler) decode(event events.Event, dst interface{}) error {
	if err := events.DecodePayload(event, dst); err != nil {
		h.logger.Error("invalid payload for notification handler",
			"error", err,
			"event_type", event.EventType(),
			"event_id", event.EventID())
		return err
	}
	return nil
}

func describeLeave(p events.LeaveRequestPayload) string {
	return fmt.Sprintf("%s leave from %s to %s (%s days)", p.LeaveTypeName, p.StartDate, p.EndDate, p.Duration)
}

func (h *EventHandler) HandleLeaveRequestSubmitted(ctx context.Context, event events.Event) error {
	var p events.LeaveRequestPayload
	if err := h.decode(event, &p); err != nil {
		return err
	}
	if p.ManagerID == nil {
		h.logger.Info("leave request has no manager to notify", "leave_request_id", p.LeaveRequestID)
		return nil
	}

	_, err := h.notifier.Notify(ctx, Recipient{UserID: *p.ManagerID, Email: p.ManagerEmail}, TypeLeaveSubmitted,
		"New leave request from "+p.EmployeeName,
		fmt.Sprintf("%s requested %s.", p.EmployeeName, describeLeave(p)))
	return err
}

func (h *EventHandler) HandleLeaveRequestDecided(ctx context.Context, event events.Event) error {
	var p events.LeaveRequestPayload
	if err := h.decode(event, &p); err != nil {
		return err
	}

	to := Recipient{UserID: p.EmployeeID, Email: p.EmployeeEmail}
	if event.EventType() == events.EventTypeLeaveRequestRejected {
		message := fmt.Sprintf("Your request for %s was rejected.", describeLeave(p))
		if p.RejectionReason != nil {
			message += " Reason: " + *p.RejectionReason
		}
		_, err := h.notifier.Notify(ctx, to, TypeLeaveRejected, "Leave request rejected", message)
		return err
	}

	_, err := h.notifier.Notify(ctx, to, TypeLeaveApproved, "Leave request approved",
		fmt.Sprintf("Your request for %s was approved.", describeLeave(p)))
	return err
}

func (h *EventHandler) HandleLeaveRequestCancelled(ctx context.Context, event events.Event) error {
	var p events.LeaveRequestPayload
	if err := h.decode(event, &p); err != nil {
		return err
	}
	if p.ManagerID == nil {
		return nil
	}

	_, err := h.notifier.Notify(ctx, Recipient{UserID: *p.ManagerID, Email: p.ManagerEmail}, TypeLeaveCancelled,
		"Leave request cancelled",
		fmt.Sprintf("%s cancelled their request for %s.", p.EmployeeName, describeLeave(p)))
	return err
}

// recipient resolves the employee's email; a lookup failure still yields an
// in-app notification.
func (h *EventHandler) recipient(ctx context.Context, employeeID int64) Recipient {
	to := Recipient{UserID: employeeID}
	employee, err := h.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		h.logger.Warn("notification email lookup failed", "error", err, "employee_id", employeeID)
		return to
	}
	to.Email = employee.Email
	return to
}

func (h *EventHandler) HandleAccrualProcessed(ctx context.Context, event events.Event) error {
	var p events.AccrualPayload
	if err := h.decode(event, &p); err != nil {
		return err
	}

	_, err := h.notifier.Notify(ctx, h.recipient(ctx, p.EmployeeID), TypeAccrualProcessed,
		p.LeaveTypeName+" leave accrued",
		fmt.Sprintf("%s days of %s leave were accrued for %s. Your balance is now %s days.",
			p.Amount, p.LeaveTypeName, p.YearMonth, p.NewBalance))
	return err
}

func (h *EventHandler) HandleCarryForwardProcessed(ctx context.Context, event events.Event) error {
	var p events.CarryForwardPayload
	if err := h.decode(event, &p); err != nil {
		return err
	}

	message := fmt.Sprintf("%s days of %s leave were carried forward from %d to %d.",
		p.CarriedForwardAmount, p.LeaveTypeName, p.FromYear, p.ToYear)
	if p.ForfeitedAmount != "0.00" {
		message += fmt.Sprintf(" %s days above the carry-forward cap were forfeited.", p.ForfeitedAmount)
	}
	_, err := h.notifier.Notify(ctx, h.recipient(ctx, p.EmployeeID), TypeCarryForwardProcessed,
		p.LeaveTypeName+" leave carried forward", message)
	return err
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeLeaveRequestSubmitted, h.HandleLeaveRequestSubmitted)
	eventBus.Subscribe(events.EventTypeLeaveRequestApproved, h.HandleLeaveRequestDecided)
	eventBus.Subscribe(events.EventTypeLeaveRequestRejected, h.HandleLeaveRequestDecided)
	eventBus.Subscribe(events.EventTypeLeaveRequestCancelled, h.HandleLeaveRequestCancelled)
	eventBus.Subscribe(events.EventTypeAccrualProcessed, h.HandleAccrualProcessed)
	eventBus.Subscribe(events.EventTypeCarryForwardProcessed, h.HandleCarryForwardProcessed)

	h.logger.Info("notification event handlers registered", "handlers", events.AllEventTypes)
}
