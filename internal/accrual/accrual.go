package accrual

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal/core/common/amount"
	accrualDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/accrual"
	"github.com/frahmantamala/leave-management/internal/core/period"
)

// LeaveAccrual is the immutable record of one monthly accrual on a balance.
type LeaveAccrual struct {
	ID                int64            `json:"id"`
	EmployeeBalanceID int64            `json:"employee_balance_id"`
	EmployeeID        int64            `json:"employee_id,omitempty"`
	EmployeeName      string           `json:"employee_name,omitempty"`
	LeaveTypeID       int64            `json:"leave_type_id,omitempty"`
	LeaveTypeName     string           `json:"leave_type_name,omitempty"`
	Period            period.YearMonth `json:"-"`
	YearMonth         string           `json:"year_month"`
	AccrualDate       time.Time        `json:"accrual_date"`
	Amount            decimal.Decimal  `json:"amount"`
	IsProrated        bool             `json:"is_prorated"`
	CreatedAt         time.Time        `json:"created_at"`
}

type BatchFailure struct {
	EmployeeBalanceID int64  `json:"employee_balance_id"`
	EmployeeID        int64  `json:"employee_id"`
	Error             string `json:"error"`
}

// BatchResult reports a run over many balances. A failing balance never
// stops the others.
type BatchResult struct {
	YearMonth string          `json:"year_month"`
	Processed []*LeaveAccrual `json:"processed"`
	Skipped   int             `json:"skipped"`
	Failures  []BatchFailure  `json:"failures"`
}

const (
	SummaryStatusCompleted = "COMPLETED"
	SummaryStatusPartial   = "PARTIAL"
	SummaryStatusFailed    = "FAILED"
)

// PeriodSummary aggregates the accruals of one month.
type PeriodSummary struct {
	Year          int             `json:"year" db:"accrual_year"`
	Month         int             `json:"month" db:"accrual_month"`
	Label         string          `json:"period" db:"-"`
	EmployeeCount int64           `json:"employee_count" db:"employee_count"`
	TotalDays     decimal.Decimal `json:"total_days" db:"total_days"`
	ZeroCount     int64           `json:"-" db:"zero_count"`
	ProratedCount int64           `json:"-" db:"prorated_count"`
	Status        string          `json:"status" db:"-"`
}

// Resolve fills the label and status once the aggregate row is loaded.
func (p *PeriodSummary) Resolve() {
	p.Label = period.YearMonth{Year: p.Year, Month: time.Month(p.Month)}.Label()
	p.TotalDays = amount.Round(p.TotalDays)
	switch {
	case p.ZeroCount > 0:
		p.Status = SummaryStatusFailed
	case p.ProratedCount > 0:
		p.Status = SummaryStatusPartial
	default:
		p.Status = SummaryStatusCompleted
	}
}

func ToDataModel(a *LeaveAccrual) *accrualDatamodel.LeaveAccrual {
	return &accrualDatamodel.LeaveAccrual{
		ID:                a.ID,
		EmployeeBalanceID: a.EmployeeBalanceID,
		AccrualYear:       a.Period.Year,
		AccrualMonth:      int(a.Period.Month),
		AccrualDate:       a.AccrualDate,
		Amount:            a.Amount,
		IsProrated:        a.IsProrated,
		CreatedAt:         a.CreatedAt,
	}
}

func FromDataModel(a *accrualDatamodel.LeaveAccrual) *LeaveAccrual {
	if a == nil {
		return nil
	}
	ym := period.YearMonth{Year: a.AccrualYear, Month: time.Month(a.AccrualMonth)}
	out := &LeaveAccrual{
		ID:                a.ID,
		EmployeeBalanceID: a.EmployeeBalanceID,
		Period:            ym,
		YearMonth:         ym.String(),
		AccrualDate:       a.AccrualDate,
		Amount:            amount.Round(a.Amount),
		IsProrated:        a.IsProrated,
		CreatedAt:         a.CreatedAt,
	}
	if b := a.EmployeeBalance; b.ID != 0 {
		out.EmployeeID = b.EmployeeID
		out.LeaveTypeID = b.LeaveTypeID
		if b.Employee.ID != 0 {
			out.EmployeeName = b.Employee.FirstName + " " + b.Employee.LastName
		}
		out.LeaveTypeName = b.LeaveType.Name
	}
	return out
}

func FromDataModelSlice(accruals []*accrualDatamodel.LeaveAccrual) []*LeaveAccrual {
	result := make([]*LeaveAccrual, len(accruals))
	for i, a := range accruals {
		result[i] = FromDataModel(a)
	}
	return result
}
