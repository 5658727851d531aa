package carryforward

import (
	"time"

	"github.com/shopspring/decimal"

	balanceDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/balance"
)

type LeaveCarryForward struct {
	ID                   int64                            `gorm:"primaryKey"`
	EmployeeBalanceID    int64                            `gorm:"column:employee_balance_id;not null;uniqueIndex:idx_carry_forward_transition"`
	FromYear             int                              `gorm:"column:from_year;not null;uniqueIndex:idx_carry_forward_transition"`
	ToYear               int                              `gorm:"column:to_year;not null;uniqueIndex:idx_carry_forward_transition"`
	CarryForwardDate     time.Time                        `gorm:"column:carry_forward_date;type:date;not null"`
	OriginalBalance      decimal.Decimal                  `gorm:"column:original_balance;type:numeric(5,2);not null"`
	CarriedForwardAmount decimal.Decimal                  `gorm:"column:carried_forward_amount;type:numeric(5,2);not null"`
	ForfeitedAmount      decimal.Decimal                  `gorm:"column:forfeited_amount;type:numeric(5,2);not null"`
	EmployeeBalance      balanceDatamodel.EmployeeBalance `gorm:"foreignKey:EmployeeBalanceID"`
	CreatedAt            time.Time                        `gorm:"column:created_at;autoCreateTime"`
}

func (LeaveCarryForward) TableName() string {
	return "leave_carry_forwards"
}
