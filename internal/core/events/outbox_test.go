package events_test

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

	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/database"
	"github.com/frahmantamala/leave-management/internal/core/database/dbtest"
	outboxDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/outbox"
	"github.com/frahmantamala/leave-management/internal/core/events"
)

type recordingPublisher struct {
	mu       sync.Mutex
	received []events.Event
	failWith error
}

func (p *recordingPublisher) PublishSync(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.received = append(p.received, event)
	return nil
}

var _ = Describe("Outbox", func() {
	var (
		db         *gorm.DB
		clk        *clock.FixedClock
		writer     *events.OutboxWriter
		publisher  *recordingPublisher
		dispatcher *events.OutboxDispatcher
		ctx        context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		clk = clock.NewFixedClock(time.Date(2024, time.July, 1, 8, 0, 0, 0, time.UTC))
		writer = events.NewOutboxWriter(db, clk)
		publisher = &recordingPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		dispatcher = events.NewOutboxDispatcher(db, publisher, clk, events.DispatcherConfig{
			MaxAttempts: 2,
			BaseBackoff: time.Minute,
		}, logger)
	})

	AfterEach(func() {
		Expect(dbtest.Close(db)).To(Succeed())
	})

	newEvent := func() events.BaseEvent {
		event, err := events.NewEvent(events.EventTypeAccrualProcessed, clk.Now(), events.AccrualPayload{
			AccrualID: 7, EmployeeID: 3, YearMonth: "2024-06", Amount: "1.75",
		})
		Expect(err).NotTo(HaveOccurred())
		return event
	}

	It("does not keep events recorded in a rolled back transaction", func() {
		tx := database.NewTransactor(db)
		err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
			Expect(writer.Record(ctx, newEvent())).To(Succeed())
			return errors.New("abort")
		})
		Expect(err).To(HaveOccurred())

		var count int64
		Expect(db.Model(&outboxDatamodel.Message{}).Count(&count).Error).To(Succeed())
		Expect(count).To(BeZero())
	})

	It("dispatches pending messages once with their typed payload", func() {
		Expect(writer.Record(ctx, newEvent())).To(Succeed())

		n, err := dispatcher.DispatchPending(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
		Expect(publisher.received).To(HaveLen(1))

		var payload events.AccrualPayload
		Expect(events.DecodePayload(publisher.received[0], &payload)).To(Succeed())
		Expect(payload.AccrualID).To(Equal(int64(7)))
		Expect(payload.Amount).To(Equal("1.75"))

		n, err = dispatcher.DispatchPending(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
	})

	It("retries with backoff and gives up after max attempts", func() {
		event := newEvent()
		Expect(writer.Record(ctx, event)).To(Succeed())
		publisher.failWith = errors.New("smtp down")

		n, err := dispatcher.DispatchPending(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())

		var msg outboxDatamodel.Message
		Expect(db.First(&msg, "id = ?", event.ID).Error).To(Succeed())
		Expect(msg.Attempts).To(Equal(1))
		Expect(*msg.LastError).To(ContainSubstring("smtp down"))

		n, _ = dispatcher.DispatchPending(ctx)
		Expect(n).To(BeZero())
		Expect(db.First(&msg, "id = ?", event.ID).Error).To(Succeed())
		Expect(msg.Attempts).To(Equal(1))

		clk.Advance(2 * time.Minute)
		publisher.failWith = errors.New("still down")
		_, _ = dispatcher.DispatchPending(ctx)
		Expect(db.First(&msg, "id = ?", event.ID).Error).To(Succeed())
		Expect(msg.Attempts).To(Equal(2))

		clk.Advance(24 * time.Hour)
		publisher.failWith = nil
		n, _ = dispatcher.DispatchPending(ctx)
		Expect(n).To(BeZero())
		Expect(publisher.received).To(BeEmpty())
	})

	It("doubles the retry delay up to the cap", func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		patient := events.NewOutboxDispatcher(db, publisher, clk, events.DispatcherConfig{
			MaxAttempts: 10,
			BaseBackoff: time.Minute,
			MaxBackoff:  3 * time.Minute,
		}, logger)

		event := newEvent()
		Expect(writer.Record(ctx, event)).To(Succeed())
		publisher.failWith = errors.New("smtp down")

		var msg outboxDatamodel.Message
		for _, want := range []time.Duration{time.Minute, 2 * time.Minute, 3 * time.Minute, 3 * time.Minute} {
			failedAt := clk.Now()
			_, err := patient.DispatchPending(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(db.First(&msg, "id = ?", event.ID).Error).To(Succeed())
			Expect(msg.NextAttemptAt).To(BeTemporally("~", failedAt.Add(want), time.Second))
			clk.Advance(want)
		}
		Expect(msg.Attempts).To(Equal(4))
	})
})
