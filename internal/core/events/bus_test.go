package events_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/leave-management/internal/core/events"
)

var _ = Describe("EventBus", func() {
	var (
		bus   *events.EventBus
		ctx   context.Context
		event events.BaseEvent
	)

	BeforeEach(func() {
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
		ctx = context.Background()

		var err error
		event, err = events.NewEvent(events.EventTypeLeaveRequestApproved,
			time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC),
			events.LeaveRequestPayload{LeaveRequestID: 12, EmployeeID: 3, Status: "APPROVED"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("ignores events nobody subscribed to", func() {
		Expect(bus.Subscribers(events.EventTypeLeaveRequestApproved)).To(BeZero())
		Expect(bus.PublishSync(ctx, event)).To(Succeed())
	})

	It("delivers only to subscribers of the event's type", func() {
		var approved, rejected int
		bus.Subscribe(events.EventTypeLeaveRequestApproved, func(_ context.Context, e events.Event) error {
			approved++
			Expect(e.EventID()).To(Equal(event.ID))
			return nil
		})
		bus.Subscribe(events.EventTypeLeaveRequestRejected, func(context.Context, events.Event) error {
			rejected++
			return nil
		})

		Expect(bus.PublishSync(ctx, event)).To(Succeed())
		Expect(approved).To(Equal(1))
		Expect(rejected).To(BeZero())
	})

	It("keeps delivering after a subscriber fails or panics", func() {
		boom := errors.New("mail relay down")
		var reached bool
		bus.Subscribe(events.EventTypeLeaveRequestApproved, func(context.Context, events.Event) error { return boom })
		bus.Subscribe(events.EventTypeLeaveRequestApproved, func(context.Context, events.Event) error { panic("nil manager") })
		bus.Subscribe(events.EventTypeLeaveRequestApproved, func(context.Context, events.Event) error {
			reached = true
			return nil
		})
		Expect(bus.Subscribers(events.EventTypeLeaveRequestApproved)).To(Equal(3))

		err := bus.PublishSync(ctx, event)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, boom)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("2 of 3 subscribers failed"))
		Expect(err.Error()).To(ContainSubstring("nil manager"))
		Expect(reached).To(BeTrue())
	})
})
