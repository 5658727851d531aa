package accrual

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal/core/common/amount"
	"github.com/frahmantamala/leave-management/internal/core/period"
)

// CalculateAmount returns the accrual for one month given the monthly rate
// and the employee's join date:
//
//	joined before the month   -> the full rate
//	joined after the month    -> zero
//	joined within the month   -> rate * daysRemaining / daysInMonth, rounded to 2 places
func CalculateAmount(rate decimal.Decimal, joined time.Time, ym period.YearMonth) decimal.Decimal {
	joinedDay := period.EpochDay(joined)
	start := period.EpochDay(ym.Start())
	end := period.EpochDay(ym.End())

	switch {
	case joinedDay < start:
		return amount.Round(rate)
	case joinedDay > end:
		return decimal.Zero
	}

	worked := decimal.NewFromInt(end - joinedDay + 1)
	days := decimal.NewFromInt(end - start + 1)
	return amount.Round(rate.Mul(worked).Div(days))
}

// IsProrated reports whether the employee joined during ym.
func IsProrated(joined time.Time, ym period.YearMonth) bool {
	return ym.Contains(joined)
}

// PreviousMonth is the period a run on today settles.
func PreviousMonth(today time.Time) period.YearMonth {
	return period.Of(today).Previous()
}
