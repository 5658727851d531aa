package balance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/amount"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	balanceDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/balance"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	"github.com/frahmantamala/leave-management/internal/user"
)

// EmployeeBalance is the per employee, per leave type ledger. Employee and
// LeaveType are resolved by the repository on every read.
type EmployeeBalance struct {
	ID                   int64                `json:"id"`
	EmployeeID           int64                `json:"employee_id"`
	LeaveTypeID          int64                `json:"leave_type_id"`
	CurrentBalance       decimal.Decimal      `json:"current_balance"`
	MaxBalance           *decimal.Decimal     `json:"max_balance,omitempty"`
	LastAccrualDate      *time.Time           `json:"last_accrual_date,omitempty"`
	IsEligibleForAccrual bool                 `json:"is_eligible_for_accrual"`
	Employee             *user.User           `json:"employee,omitempty"`
	LeaveType            *leavetype.LeaveType `json:"leave_type,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// Validate checks the balance invariants against today's date.
func (b *EmployeeBalance) Validate(today time.Time) error {
	v := validation.NewValidator()
	v.Field("current_balance", b.CurrentBalance).NonNegativeDecimal().Digits(2, amount.Scale)
	v.Field("max_balance", b.MaxBalance).PositiveDecimal().Digits(3, amount.Scale)
	if b.MaxBalance != nil {
		v.Rule(!b.CurrentBalance.GreaterThan(*b.MaxBalance), "current_balance",
			"current balance exceeds maximum balance", internal.ErrCodeBalanceExceedsMax)
	}
	v.Field("last_accrual_date", b.LastAccrualDate).NotAfter(today)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Adjust applies delta, refusing results that are negative or above the maximum.
func (b *EmployeeBalance) Adjust(delta decimal.Decimal) error {
	next := amount.Round(b.CurrentBalance.Add(delta))
	if next.IsNegative() {
		return internal.NewInvalidBalanceError("balance cannot be negative", internal.ErrCodeBalanceNegative)
	}
	if b.MaxBalance != nil && next.GreaterThan(*b.MaxBalance) {
		return internal.NewInvalidBalanceError("balance would exceed maximum balance of "+b.MaxBalance.StringFixed(2),
			internal.ErrCodeBalanceExceedsMax)
	}
	b.CurrentBalance = next
	return nil
}

// SetMax replaces the maximum; nil removes the cap.
func (b *EmployeeBalance) SetMax(newMax *decimal.Decimal) error {
	if newMax != nil {
		if !newMax.IsPositive() {
			return internal.NewValidationFieldError("max_balance", "maximum balance must be greater than zero", internal.ErrCodeInvalidMaxBalance)
		}
		if b.CurrentBalance.GreaterThan(*newMax) {
			return internal.NewInvalidBalanceError("current balance exceeds new maximum balance", internal.ErrCodeInvalidMaxBalance)
		}
		rounded := amount.Round(*newMax)
		newMax = &rounded
	}
	b.MaxBalance = newMax
	return nil
}

// TotalAllowance is the type's max duration, falling back to the balance cap.
func (b *EmployeeBalance) TotalAllowance() decimal.Decimal {
	if b.LeaveType != nil && b.LeaveType.MaxDuration != nil {
		return amount.FromInt(*b.LeaveType.MaxDuration)
	}
	if b.MaxBalance != nil {
		return *b.MaxBalance
	}
	return decimal.Zero
}

// AccruesNow combines the stored flag with the employee and leave type state.
func (b *EmployeeBalance) AccruesNow() bool {
	if !b.IsEligibleForAccrual || b.Employee == nil || b.LeaveType == nil {
		return false
	}
	return b.Employee.IsActive() && b.LeaveType.IsEligibleForAccrual()
}

// New builds the initial balance for an employee and leave type.
func New(employee *user.User, lt *leavetype.LeaveType) *EmployeeBalance {
	b := &EmployeeBalance{
		EmployeeID:           employee.ID,
		LeaveTypeID:          lt.ID,
		CurrentBalance:       decimal.Zero,
		IsEligibleForAccrual: employee.IsActive() && lt.AccrualBased,
		Employee:             employee,
		LeaveType:            lt,
	}
	if lt.MaxDuration != nil {
		b.MaxBalance = amount.Ptr(amount.FromInt(*lt.MaxDuration))
	}
	return b
}

func ToDataModel(b *EmployeeBalance) *balanceDatamodel.EmployeeBalance {
	return &balanceDatamodel.EmployeeBalance{
		ID:                   b.ID,
		EmployeeID:           b.EmployeeID,
		LeaveTypeID:          b.LeaveTypeID,
		CurrentBalance:       b.CurrentBalance,
		MaxBalance:           amount.Nullable(b.MaxBalance),
		LastAccrualDate:      b.LastAccrualDate,
		IsEligibleForAccrual: b.IsEligibleForAccrual,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
}

func FromDataModel(b *balanceDatamodel.EmployeeBalance) *EmployeeBalance {
	if b == nil {
		return nil
	}
	out := &EmployeeBalance{
		ID:                   b.ID,
		EmployeeID:           b.EmployeeID,
		LeaveTypeID:          b.LeaveTypeID,
		CurrentBalance:       amount.Round(b.CurrentBalance),
		MaxBalance:           amount.FromNullable(b.MaxBalance),
		LastAccrualDate:      b.LastAccrualDate,
		IsEligibleForAccrual: b.IsEligibleForAccrual,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
	if b.Employee.ID != 0 {
		out.Employee = user.FromDataModel(&b.Employee)
	}
	if b.LeaveType.ID != 0 {
		out.LeaveType = leavetype.FromDataModel(&b.LeaveType)
	}
	return out
}

func FromDataModelSlice(balances []*balanceDatamodel.EmployeeBalance) []*EmployeeBalance {
	result := make([]*EmployeeBalance, len(balances))
	for i, b := range balances {
		result[i] = FromDataModel(b)
	}
	return result
}
