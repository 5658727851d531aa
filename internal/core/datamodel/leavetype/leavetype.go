package leavetype

import (
	"time"

	"github.com/shopspring/decimal"
)

type LeaveType struct {
	ID                    int64               `gorm:"primaryKey"`
	Name                  string              `gorm:"column:name;uniqueIndex;not null"`
	IsDefault             bool                `gorm:"column:is_default;not null;default:false"`
	IsEnabled             bool                `gorm:"column:is_enabled;not null"`
	MaxDuration           *int                `gorm:"column:max_duration"`
	Paid                  bool                `gorm:"column:paid;not null"`
	AccrualBased          bool                `gorm:"column:accrual_based;not null;default:false"`
	AccrualRate           decimal.NullDecimal `gorm:"column:accrual_rate;type:numeric(4,2)"`
	IsCarryForwardEnabled bool                `gorm:"column:is_carry_forward_enabled;not null;default:false"`
	CarryForwardCap       decimal.NullDecimal `gorm:"column:carry_forward_cap;type:numeric(5,2)"`
	RequireReason         bool                `gorm:"column:require_reason;not null;default:false"`
	RequireDocument       bool                `gorm:"column:require_document;not null;default:false"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (LeaveType) TableName() string {
	return "leave_types"
}
