package outbox

import "time"

type Message struct {
	ID            string     `gorm:"primaryKey;size:36"`
	EventType     string     `gorm:"column:event_type;not null;index"`
	Payload       string     `gorm:"column:payload;type:text;not null"`
	OccurredAt    time.Time  `gorm:"column:occurred_at;not null"`
	Attempts      int        `gorm:"column:attempts;not null;default:0"`
	LastError     *string    `gorm:"column:last_error"`
	NextAttemptAt time.Time  `gorm:"column:next_attempt_at;not null;index"`
	DispatchedAt  *time.Time `gorm:"column:dispatched_at;index"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Message) TableName() string {
	return "outbox_messages"
}
