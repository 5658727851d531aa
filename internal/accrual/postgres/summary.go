package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/leave-management/internal/accrual"
)

const historySummaryQuery = `
SELECT
	a.accrual_year,
	a.accrual_month,
	COUNT(DISTINCT b.employee_id) AS employee_count,
	COALESCE(SUM(a.amount), 0) AS total_days,
	SUM(CASE WHEN a.amount = 0 THEN 1 ELSE 0 END) AS zero_count,
	SUM(CASE WHEN a.is_prorated THEN 1 ELSE 0 END) AS prorated_count
FROM leave_accruals a
JOIN employee_balances b ON b.id = a.employee_balance_id
GROUP BY a.accrual_year, a.accrual_month
ORDER BY a.accrual_year DESC, a.accrual_month DESC`

// SummaryRepository runs the reporting aggregate over plain SQL.
type SummaryRepository struct {
	db *sqlx.DB
}

func NewSummaryRepository(db *sqlx.DB) accrual.SummaryReader {
	return &SummaryRepository{db: db}
}

func (r *SummaryRepository) HistorySummary(ctx context.Context) ([]*accrual.PeriodSummary, error) {
	summaries := make([]*accrual.PeriodSummary, 0)
	if err := r.db.SelectContext(ctx, &summaries, historySummaryQuery); err != nil {
		return nil, err
	}
	return summaries, nil
}
