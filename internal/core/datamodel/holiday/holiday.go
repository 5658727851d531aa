package holiday

import "time"

type PublicHoliday struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Date        time.Time `gorm:"column:date;type:date;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	IsRecurring bool      `gorm:"column:is_recurring;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (PublicHoliday) TableName() string {
	return "public_holidays"
}
