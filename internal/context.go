package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

const (
	RoleAdmin    = "ADMIN"
	RoleManager  = "MANAGER"
	RoleEmployee = "EMPLOYEE"
)

const (
	PermManageLeaveTypes = "manage_leave_types"
	PermManageBalances   = "manage_balances"
	PermRunAccruals      = "run_accruals"
	PermRunCarryForward  = "run_carry_forward"
	PermApproveLeave     = "approve_leave"
	PermManageHolidays   = "manage_holidays"
	PermViewReports      = "view_reports"
	PermViewAllRequests  = "view_all_requests"
)

// User is the authenticated principal attached to a request context.
type User struct {
	ID           int64    `json:"id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	DepartmentID *int64   `json:"department_id,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanActFor reports whether the principal may read data owned by employeeID.
func (u *User) CanActFor(employeeID int64, permission string) bool {
	return u.ID == employeeID || u.IsAdmin() || u.HasPermission(permission)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok && u != nil
}

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
