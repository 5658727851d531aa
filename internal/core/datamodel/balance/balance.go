package balance

import (
	"time"

	"github.com/shopspring/decimal"

	leavetypeDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leavetype"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
)

type EmployeeBalance struct {
	ID                   int64                        `gorm:"primaryKey"`
	EmployeeID           int64                        `gorm:"column:employee_id;not null;uniqueIndex:idx_balance_employee_type"`
	LeaveTypeID          int64                        `gorm:"column:leave_type_id;not null;uniqueIndex:idx_balance_employee_type"`
	CurrentBalance       decimal.Decimal              `gorm:"column:current_balance;type:numeric(4,2);not null;default:0"`
	MaxBalance           decimal.NullDecimal          `gorm:"column:max_balance;type:numeric(5,2);check:chk_employee_balances_max_balance,max_balance IS NULL OR max_balance > 0"`
	LastAccrualDate      *time.Time                   `gorm:"column:last_accrual_date;type:date"`
	IsEligibleForAccrual bool                         `gorm:"column:is_eligible_for_accrual;not null"`
	Employee             userDatamodel.User           `gorm:"foreignKey:EmployeeID"`
	LeaveType            leavetypeDatamodel.LeaveType `gorm:"foreignKey:LeaveTypeID"`
	CreatedAt            time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                    `gorm:"column:updated_at;autoUpdateTime"`
}

func (EmployeeBalance) TableName() string {
	return "employee_balances"
}
