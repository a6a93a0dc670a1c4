package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/access-approval/internal"
	"github.com/frahmantamala/access-approval/internal/transport"
)

// RoleChecker answers whether a user holds a grant for a role on any service.
type RoleChecker interface {
	HoldsRole(ctx context.Context, userID, roleID int64) (bool, error)
}

var errNotAdministrator = internal.NewForbiddenError("caller is not an administrator", internal.ErrCodeNotAdministrator)

type RoleAuthorization struct {
	*transport.BaseHandler
	checker RoleChecker
}

func NewRoleAuthorization(baseHandler *transport.BaseHandler, checker RoleChecker) *RoleAuthorization {
	return &RoleAuthorization{
		BaseHandler: baseHandler,
		checker:     checker,
	}
}

// RequireAdmin rejects callers without at least one grant for the admin role. It must run after AuthMiddleware.
func (ra *RoleAuthorization) RequireAdmin(roleID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := ra.CallerID(w, r)
			if !ok {
				return
			}

			holds, err := ra.checker.HoldsRole(r.Context(), userID, roleID)
			if err != nil {
				ra.HandleServiceError(w, err)
				return
			}
			if !holds {
				ra.Logger.WarnContext(r.Context(), "access denied: role grant missing", "user_id", userID, "role_id", roleID)
				ra.HandleServiceError(w, errNotAdministrator)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
