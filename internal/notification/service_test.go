package notification_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/database/dbtest"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/mailer"
	"github.com/frahmantamala/leave-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/leave-management/internal/notification/postgres"
	"github.com/frahmantamala/leave-management/internal/user"
	userPostgres "github.com/frahmantamala/leave-management/internal/user/postgres"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

var _ = Describe("Notification Service", func() {
	var (
		db       *gorm.DB
		ctx      context.Context
		sender   *recordingSender
		clk      *clock.FixedClock
		service  *notification.Service
		handler  *notification.EventHandler
		bus      *events.EventBus
		employee *userDatamodel.User
		manager  *userDatamodel.User
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		clk = clock.NewFixedClock(time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC))
		sender = &recordingSender{}

		service = notification.NewService(notificationPostgres.NewNotificationRepository(db), sender, clk, logger)
		users := user.NewService(userPostgres.NewUserRepository(db), logger)
		handler = notification.NewEventHandler(service, users, logger)
		bus = events.NewEventBus(logger)
		handler.RegisterEventHandlers(bus)

		seed := dbtest.Seeder{DB: db}
		joined := clock.Date(2022, time.January, 3)
		manager = seed.User(&userDatamodel.User{Email: "manager@example.com", JoinedDate: joined})
		employee = seed.User(&userDatamodel.User{Email: "erin@example.com", ManagerID: &manager.ID, JoinedDate: joined})
	})

	AfterEach(func() {
		Expect(dbtest.Close(db)).To(Succeed())
	})

	leaveEvent := func(eventType string, reason *string) events.Event {
		event, err := events.NewEvent(eventType, clk.Now(), events.LeaveRequestPayload{
			LeaveRequestID:  1,
			EmployeeID:      employee.ID,
			EmployeeName:    "Erin Engineer",
			EmployeeEmail:   employee.Email,
			ManagerID:       &manager.ID,
			ManagerEmail:    manager.Email,
			LeaveTypeName:   "Annual",
			StartDate:       "2024-06-10",
			EndDate:         "2024-06-14",
			Duration:        "5",
			RejectionReason: reason,
		})
		Expect(err).NotTo(HaveOccurred())
		return event
	}

	listFor := func(userID int64) []*notification.Notification {
		notifications, _, err := service.List(ctx, userID, false)
		Expect(err).NotTo(HaveOccurred())
		return notifications
	}

	Describe("leave request events", func() {
		It("tells the manager about a submission", func() {
			Expect(bus.PublishSync(ctx, leaveEvent(events.EventTypeLeaveRequestSubmitted, nil))).To(Succeed())

			notifications := listFor(manager.ID)
			Expect(notifications).To(HaveLen(1))
			Expect(notifications[0].Type).To(Equal(notification.TypeLeaveSubmitted))
			Expect(notifications[0].Message).To(ContainSubstring("Annual leave from 2024-06-10 to 2024-06-14 (5 days)"))
			Expect(sender.sent).To(HaveLen(1))
			Expect(sender.sent[0].To).To(Equal("manager@example.com"))
			Expect(listFor(employee.ID)).To(BeEmpty())
		})

		It("tells the employee about a rejection and its reason", func() {
			reason := "release week"
			Expect(bus.PublishSync(ctx, leaveEvent(events.EventTypeLeaveRequestRejected, &reason))).To(Succeed())

			notifications := listFor(employee.ID)
			Expect(notifications).To(HaveLen(1))
			Expect(notifications[0].Type).To(Equal(notification.TypeLeaveRejected))
			Expect(notifications[0].Message).To(HaveSuffix("Reason: release week"))
		})

		It("keeps the in-app notification when email fails", func() {
			sender.err = errors.New("smtp down")
			Expect(bus.PublishSync(ctx, leaveEvent(events.EventTypeLeaveRequestApproved, nil))).To(Succeed())
			Expect(listFor(employee.ID)).To(HaveLen(1))
		})
	})

	It("looks up the employee's address for accrual events", func() {
		event, err := events.NewEvent(events.EventTypeAccrualProcessed, clk.Now(), events.AccrualPayload{
			EmployeeID: employee.ID, LeaveTypeName: "Annual", YearMonth: "2024-05", Amount: "1.75", NewBalance: "8.75",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(bus.PublishSync(ctx, event)).To(Succeed())

		Expect(sender.sent).To(HaveLen(1))
		Expect(sender.sent[0].To).To(Equal("erin@example.com"))
		Expect(sender.sent[0].Body).To(ContainSubstring("balance is now 8.75 days"))
	})

	It("mentions forfeited days after a carry-forward", func() {
		event, err := events.NewEvent(events.EventTypeCarryForwardProcessed, clk.Now(), events.CarryForwardPayload{
			EmployeeID: employee.ID, LeaveTypeName: "Annual", FromYear: 2023, ToYear: 2024,
			OriginalBalance: "25.00", CarriedForwardAmount: "20.00", ForfeitedAmount: "5.00",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(bus.PublishSync(ctx, event)).To(Succeed())

		notifications := listFor(employee.ID)
		Expect(notifications).To(HaveLen(1))
		Expect(notifications[0].Message).To(ContainSubstring("5.00 days above the carry-forward cap were forfeited"))
	})

	Describe("MarkRead", func() {
		It("marks the owner's notification read", func() {
			n, err := service.Notify(ctx, notification.Recipient{UserID: employee.ID}, notification.TypeLeaveApproved, "t", "m")
			Expect(err).NotTo(HaveOccurred())
			Expect(sender.sent).To(BeEmpty())

			_, unread, err := service.List(ctx, employee.ID, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(unread).To(Equal(int64(1)))

			read, err := service.MarkRead(ctx, n.ID, employee.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(read.IsRead).To(BeTrue())
			Expect(*read.ReadAt).To(Equal(clk.Now()))

			unreadList, unread, err := service.List(ctx, employee.ID, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(unreadList).To(BeEmpty())
			Expect(unread).To(BeZero())
		})

		It("hides other users' notifications", func() {
			n, err := service.Notify(ctx, notification.Recipient{UserID: employee.ID}, notification.TypeLeaveApproved, "t", "m")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.MarkRead(ctx, n.ID, manager.ID)
			Expect(err).To(MatchError(internal.ErrNotificationNotFound))

			_, err = service.MarkRead(ctx, 999, employee.ID)
			Expect(err).To(MatchError(internal.ErrNotificationNotFound))
		})
	})
})
