package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/database"
	outboxDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/outbox"
)

// Recorder stores an event for later delivery. Implementations write through
// the transaction carried by ctx so the event commits with the state change.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

type OutboxWriter struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewOutboxWriter(db *gorm.DB, clk clock.Clock) *OutboxWriter {
	return &OutboxWriter{db: db, clock: clk}
}

func (w *OutboxWriter) Record(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	msg := &outboxDatamodel.Message{
		ID:            event.EventID(),
		EventType:     event.EventType(),
		Payload:       string(payload),
		OccurredAt:    event.OccurredAt(),
		NextAttemptAt: w.clock.Now(),
	}
	if err := database.Conn(ctx, w.db).Create(msg).Error; err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

type Publisher interface {
	PublishSync(ctx context.Context, event Event) error
}

type DispatcherConfig struct {
	BatchSize   int
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Lease       time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 30 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = time.Hour
	}
	if c.Lease <= 0 {
		c.Lease = time.Minute
	}
	return c
}

// OutboxDispatcher delivers pending outbox messages on the bus. Several
// dispatchers may run at once: a message is claimed by pushing its
// next_attempt_at forward with a conditional update before delivery.
type OutboxDispatcher struct {
	db     *gorm.DB
	bus    Publisher
	clock  clock.Clock
	cfg    DispatcherConfig
	logger *slog.Logger
}

func NewOutboxDispatcher(db *gorm.DB, bus Publisher, clk clock.Clock, cfg DispatcherConfig, logger *slog.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{
		db:     db,
		bus:    bus,
		clock:  clk,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

// DispatchPending delivers one batch and returns how many messages were dispatched.
func (d *OutboxDispatcher) DispatchPending(ctx context.Context) (int, error) {
	now := d.clock.Now()

	var pending []outboxDatamodel.Message
	err := d.db.WithContext(ctx).
		Where("dispatched_at IS NULL AND attempts < ? AND next_attempt_at <= ?", d.cfg.MaxAttempts, now).
		Order("occurred_at ASC").
		Limit(d.cfg.BatchSize).
		Find(&pending).Error
	if err != nil {
		return 0, fmt.Errorf("load pending outbox messages: %w", err)
	}

	dispatched := 0
	for i := range pending {
		msg := &pending[i]
		claimed, err := d.claim(ctx, msg, now)
		if err != nil {
			return dispatched, err
		}
		if !claimed {
			continue
		}
		if d.deliver(ctx, msg) {
			dispatched++
		}
	}
	return dispatched, nil
}

func (d *OutboxDispatcher) claim(ctx context.Context, msg *outboxDatamodel.Message, now time.Time) (bool, error) {
	result := d.db.WithContext(ctx).
		Model(&outboxDatamodel.Message{}).
		Where("id = ? AND dispatched_at IS NULL AND next_attempt_at <= ?", msg.ID, now).
		Update("next_attempt_at", now.Add(d.cfg.Lease))
	if result.Error != nil {
		return false, fmt.Errorf("claim outbox message %s: %w", msg.ID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (d *OutboxDispatcher) deliver(ctx context.Context, msg *outboxDatamodel.Message) bool {
	event := BaseEvent{
		ID:        msg.ID,
		Type:      msg.EventType,
		Timestamp: msg.OccurredAt,
		Data:      map[string]interface{}{},
	}
	err := json.Unmarshal([]byte(msg.Payload), &event.Data)
	if err == nil {
		err = d.bus.PublishSync(ctx, event)
	}

	db := d.db.WithContext(ctx).Model(&outboxDatamodel.Message{}).Where("id = ?", msg.ID)
	if err == nil {
		now := d.clock.Now()
		if uerr := db.Updates(map[string]interface{}{"dispatched_at": now, "attempts": msg.Attempts + 1}).Error; uerr != nil {
			d.logger.Error("failed to mark outbox message dispatched", "message_id", msg.ID, "error", uerr)
		}
		return true
	}

	attempts := msg.Attempts + 1
	lastError := err.Error()
	next := d.clock.Now().Add(d.backoff(attempts))
	if uerr := db.Updates(map[string]interface{}{
		"attempts":        attempts,
		"last_error":      lastError,
		"next_attempt_at": next,
	}).Error; uerr != nil {
		d.logger.Error("failed to record outbox failure", "message_id", msg.ID, "error", uerr)
	}

	level := slog.LevelWarn
	if attempts >= d.cfg.MaxAttempts {
		level = slog.LevelError
	}
	d.logger.Log(ctx, level, "outbox delivery failed",
		"message_id", msg.ID,
		"event_type", msg.EventType,
		"attempts", attempts,
		"error", err)
	return false
}

// backoff is the wait before retry number attempts+1: BaseBackoff doubled per
// earlier attempt, capped at MaxBackoff. The schedule is rebuilt per row since
// the attempt count lives in the database.
func (d *OutboxDispatcher) backoff(attempts int) time.Duration {
	b := retry.WithCappedDuration(d.cfg.MaxBackoff, retry.NewExponential(d.cfg.BaseBackoff))
	wait := d.cfg.BaseBackoff
	for i := 0; i < attempts; i++ {
		next, stop := b.Next()
		if stop {
			break
		}
		wait = next
	}
	return wait
}

// Run polls until ctx is cancelled.
func (d *OutboxDispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info("outbox dispatcher started", "interval", interval.String())
	for {
		if n, err := d.DispatchPending(ctx); err != nil {
			d.logger.Error("outbox dispatch failed", "error", err)
		} else if n > 0 {
			d.logger.Info("outbox messages dispatched", "count", n)
		}

		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
		}
	}
}
