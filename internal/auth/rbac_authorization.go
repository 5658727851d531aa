package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/transport"
)

var allPermissions = []string{
	internal.PermManageLeaveTypes,
	internal.PermManageBalances,
	internal.PermRunAccruals,
	internal.PermRunCarryForward,
	internal.PermApproveLeave,
	internal.PermManageHolidays,
	internal.PermViewReports,
	internal.PermViewAllRequests,
}

var rolePermissions = map[string][]string{
	internal.RoleAdmin:    allPermissions,
	internal.RoleManager:  {internal.PermApproveLeave},
	internal.RoleEmployee: {},
}

// PermissionsForRole returns a copy of the permissions granted to role.
// Unknown roles get none.
func PermissionsForRole(role string) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

// Require lets the request through when the principal holds any of permissions.
func (ra *RBACAuthorization) Require(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := internal.UserFromContext(r.Context())
			if !ok {
				ra.Logger.Warn("authorization check failed: user not found in context")
				ra.WriteAppError(w, internal.NewUnauthorizedError("authentication required", internal.ErrCodeInvalidToken))
				return
			}

			for _, p := range permissions {
				if user.HasPermission(p) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"user_id", user.ID,
				"required_permissions", permissions,
				"user_permissions", user.Permissions)
			ra.WriteAppError(w, internal.ErrUnauthorizedAccess)
		})
	}
}
