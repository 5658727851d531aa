package balance

import "github.com/shopspring/decimal"

type CreateBalanceDTO struct {
	EmployeeID  int64 `json:"employee_id"`
	LeaveTypeID int64 `json:"leave_type_id"`
}

type AdjustBalanceDTO struct {
	Delta decimal.Decimal `json:"delta"`
}

type SetMaxBalanceDTO struct {
	MaxBalance *decimal.Decimal `json:"max_balance"`
}

type AccrualEligibilityDTO struct {
	Eligible bool `json:"eligible"`
}

type BalancesResponse struct {
	Balances []*EmployeeBalance `json:"balances"`
}

type TotalAllowanceResponse struct {
	BalanceID      int64           `json:"balance_id"`
	TotalAllowance decimal.Decimal `json:"total_allowance"`
}
