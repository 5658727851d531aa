package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/leave-management/internal/leaverequest"
)

const departmentLeaveCountsQuery = `
SELECT
	d.id AS department_id,
	d.name AS department_name,
	COUNT(DISTINCT lr.employee_id) AS employees_on_leave,
	COUNT(lr.id) AS request_count
FROM departments d
LEFT JOIN users u ON u.department_id = d.id
LEFT JOIN leave_requests lr
	ON lr.employee_id = u.id
	AND lr.status = ?
	AND lr.start_date <= ?
	AND lr.end_date >= ?
GROUP BY d.id, d.name
ORDER BY d.name ASC`

// CalendarRepository aggregates approved leave per department over plain SQL.
type CalendarRepository struct {
	db *sqlx.DB
}

func NewCalendarRepository(db *sqlx.DB) leaverequest.CalendarReader {
	return &CalendarRepository{db: db}
}

func (r *CalendarRepository) DepartmentLeaveCounts(ctx context.Context, from, to time.Time) ([]*leaverequest.DepartmentLeaveCount, error) {
	counts := make([]*leaverequest.DepartmentLeaveCount, 0)
	query := r.db.Rebind(departmentLeaveCountsQuery)
	if err := r.db.SelectContext(ctx, &counts, query, leaverequest.StatusApproved, to, from); err != nil {
		return nil, err
	}
	return counts, nil
}
