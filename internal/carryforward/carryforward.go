package carryforward

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/amount"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	carryforwardDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/carryforward"
)

// LeaveCarryForward records one year transition of a balance.
type LeaveCarryForward struct {
	ID                   int64           `json:"id"`
	EmployeeBalanceID    int64           `json:"employee_balance_id"`
	EmployeeID           int64           `json:"employee_id,omitempty"`
	EmployeeName         string          `json:"employee_name,omitempty"`
	LeaveTypeID          int64           `json:"leave_type_id,omitempty"`
	LeaveTypeName        string          `json:"leave_type_name,omitempty"`
	FromYear             int             `json:"from_year"`
	ToYear               int             `json:"to_year"`
	CarryForwardDate     time.Time       `json:"carry_forward_date"`
	OriginalBalance      decimal.Decimal `json:"original_balance"`
	CarriedForwardAmount decimal.Decimal `json:"carried_forward_amount"`
	ForfeitedAmount      decimal.Decimal `json:"forfeited_amount"`
	CreatedAt            time.Time       `json:"created_at"`
}

// Split caps the balance: carried = min(original, limit), forfeited = the rest.
func Split(original, limit decimal.Decimal) (carried, forfeited decimal.Decimal) {
	original = amount.Round(original)
	carried = decimal.Min(original, amount.Round(limit))
	if carried.IsNegative() {
		carried = decimal.Zero
	}
	return carried, original.Sub(carried)
}

// Validate checks that carried and forfeited add up to the original balance.
func (c *LeaveCarryForward) Validate() error {
	v := validation.NewValidator()
	v.Field("original_balance", c.OriginalBalance).NonNegativeDecimal()
	v.Field("carried_forward_amount", c.CarriedForwardAmount).NonNegativeDecimal()
	v.Field("forfeited_amount", c.ForfeitedAmount).NonNegativeDecimal()
	v.Rule(c.CarriedForwardAmount.Add(c.ForfeitedAmount).Equal(c.OriginalBalance), "forfeited_amount",
		"carried forward and forfeited amounts must add up to the original balance", internal.ErrCodeInvalidAmount)
	v.Rule(c.ToYear > c.FromYear, "to_year", "to_year must be after from_year", internal.ErrCodeInvalidPeriod)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Projection is what a carry-forward would do to a balance today.
type Projection struct {
	EmployeeBalanceID    int64           `json:"employee_balance_id"`
	EmployeeID           int64           `json:"employee_id"`
	EmployeeName         string          `json:"employee_name"`
	LeaveTypeName        string          `json:"leave_type_name"`
	CurrentBalance       decimal.Decimal `json:"current_balance"`
	CarryForwardCap      decimal.Decimal `json:"carry_forward_cap"`
	CarriedForwardAmount decimal.Decimal `json:"carried_forward_amount"`
	ForfeitedAmount      decimal.Decimal `json:"forfeited_amount"`
}

type BatchFailure struct {
	EmployeeBalanceID int64  `json:"employee_balance_id"`
	Error             string `json:"error"`
}

type BatchResult struct {
	FromYear  int                  `json:"from_year"`
	ToYear    int                  `json:"to_year"`
	Processed []*LeaveCarryForward `json:"processed"`
	Skipped   int                  `json:"skipped"`
	Failures  []BatchFailure       `json:"failures"`
}

func ToDataModel(c *LeaveCarryForward) *carryforwardDatamodel.LeaveCarryForward {
	return &carryforwardDatamodel.LeaveCarryForward{
		ID:                   c.ID,
		EmployeeBalanceID:    c.EmployeeBalanceID,
		FromYear:             c.FromYear,
		ToYear:               c.ToYear,
		CarryForwardDate:     c.CarryForwardDate,
		OriginalBalance:      c.OriginalBalance,
		CarriedForwardAmount: c.CarriedForwardAmount,
		ForfeitedAmount:      c.ForfeitedAmount,
		CreatedAt:            c.CreatedAt,
	}
}

func FromDataModel(c *carryforwardDatamodel.LeaveCarryForward) *LeaveCarryForward {
	if c == nil {
		return nil
	}
	out := &LeaveCarryForward{
		ID:                   c.ID,
		EmployeeBalanceID:    c.EmployeeBalanceID,
		FromYear:             c.FromYear,
		ToYear:               c.ToYear,
		CarryForwardDate:     c.CarryForwardDate,
		OriginalBalance:      amount.Round(c.OriginalBalance),
		CarriedForwardAmount: amount.Round(c.CarriedForwardAmount),
		ForfeitedAmount:      amount.Round(c.ForfeitedAmount),
		CreatedAt:            c.CreatedAt,
	}
	if b := c.EmployeeBalance; b.ID != 0 {
		out.EmployeeID = b.EmployeeID
		out.LeaveTypeID = b.LeaveTypeID
		if b.Employee.ID != 0 {
			out.EmployeeName = b.Employee.FirstName + " " + b.Employee.LastName
		}
		out.LeaveTypeName = b.LeaveType.Name
	}
	return out
}

func FromDataModelSlice(records []*carryforwardDatamodel.LeaveCarryForward) []*LeaveCarryForward {
	result := make([]*LeaveCarryForward, len(records))
	for i, c := range records {
		result[i] = FromDataModel(c)
	}
	return result
}
