package accrual

import (
	"time"

	"github.com/shopspring/decimal"

	balanceDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/balance"
)

type LeaveAccrual struct {
	ID                int64                            `gorm:"primaryKey"`
	EmployeeBalanceID int64                            `gorm:"column:employee_balance_id;not null;uniqueIndex:idx_accrual_balance_period"`
	AccrualYear       int                              `gorm:"column:accrual_year;not null;uniqueIndex:idx_accrual_balance_period"`
	AccrualMonth      int                              `gorm:"column:accrual_month;not null;uniqueIndex:idx_accrual_balance_period"`
	AccrualDate       time.Time                        `gorm:"column:accrual_date;type:date;not null"`
	Amount            decimal.Decimal                  `gorm:"column:amount;type:numeric(5,2);not null"`
	IsProrated        bool                             `gorm:"column:is_prorated;not null;default:false"`
	EmployeeBalance   balanceDatamodel.EmployeeBalance `gorm:"foreignKey:EmployeeBalanceID"`
	CreatedAt         time.Time                        `gorm:"column:created_at;autoCreateTime"`
}

func (LeaveAccrual) TableName() string {
	return "leave_accruals"
}
