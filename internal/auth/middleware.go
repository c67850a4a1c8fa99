package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/web"
)

// AdminRole bypasses all permission checks.
const AdminRole = "admin"

// AccountChecker confirms the token's staff member is still active and
// resolves their current role. Tokens outlive role changes, so the role in
// the claims is advisory only.
type AccountChecker interface {
	ActiveRole(ctx context.Context, staffID int64) (string, error)
}

// PermissionChecker answers whether a role holds a named permission.
type PermissionChecker interface {
	HasPermission(ctx context.Context, role, permission string) (bool, error)
}

// Require returns middleware that verifies the bearer token and confirms
// the account is still active. The verified claims, with the role refreshed
// from storage, are stored on the request context.
func Require(mgr *Manager, accounts AccountChecker, respond *web.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				respond.Error(w, apperror.Unauthorized("missing authorization header"))
				return
			}
			claims, err := mgr.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				respond.Error(w, apperror.Unauthorized("invalid or expired token"))
				return
			}
			role, err := accounts.ActiveRole(r.Context(), claims.StaffID)
			if err != nil {
				respond.Error(w, err)
				return
			}
			if role == "" {
				respond.Error(w, apperror.Unauthorized("account not found or deactivated"))
				return
			}
			claims.Role = role
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// PermitCRUD maps the HTTP method onto the entity's CRUD permissions
// (view_x, create_x, update_x, delete_x) and enforces the result.
func PermitCRUD(perms PermissionChecker, entity string, respond *web.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var prefix string
			switch r.Method {
			case http.MethodGet, http.MethodHead:
				prefix = "view_"
			case http.MethodPost:
				prefix = "create_"
			case http.MethodPut, http.MethodPatch:
				prefix = "update_"
			case http.MethodDelete:
				prefix = "delete_"
			default:
				prefix = "view_"
			}
			Permit(perms, prefix+entity, respond)(next).ServeHTTP(w, r)
		})
	}
}

// Permit returns middleware that requires the named permission. Admins hold
// every permission implicitly.
func Permit(perms PermissionChecker, permission string, respond *web.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := FromContext(r.Context())
			if !ok {
				respond.Error(w, apperror.Unauthorized("authentication required"))
				return
			}
			if claims.Role != AdminRole {
				allowed, err := perms.HasPermission(r.Context(), claims.Role, permission)
				if err != nil {
					respond.Error(w, err)
					return
				}
				if !allowed {
					respond.Error(w, apperror.Forbidden("permission denied"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
