package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type contextKey string

const identityKey contextKey = "identity"

// Header names set by the upstream identity provider. Requests reach this
// service only through the proxy, which strips any client-supplied values.
const (
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
	HeaderUserRoles = "X-User-Roles"
)

// Identity describes the caller as asserted by the upstream identity provider
type Identity struct {
	Email string
	Name  string
	Roles []string
}

// IsStaff reports whether the identity carries a staff role
func (i Identity) IsStaff() bool {
	for _, role := range i.Roles {
		if role == "staff" || role == "admin" {
			return true
		}
	}
	return false
}

// IdentityMiddleware extracts the upstream-asserted identity into the request
// context. Anonymous requests pass through without an identity.
func IdentityMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := r.Header.Get(HeaderUserEmail)
			if email == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity := Identity{
				Email: email,
				Name:  r.Header.Get(HeaderUserName),
				Roles: parseRoles(r.Header.Get(HeaderUserRoles)),
			}

			logger.Debug("Identified request",
				zap.String("email", identity.Email),
				zap.Strings("roles", identity.Roles),
			)

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff ensures the caller has a staff or admin role
func RequireStaff(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := GetIdentity(r.Context())
			if !ok {
				logger.Debug("Unidentified request to staff endpoint",
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !identity.IsStaff() {
				logger.Warn("Non-staff user attempted to access staff endpoint",
					zap.String("email", identity.Email),
					zap.Strings("roles", identity.Roles),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentity extracts the caller identity from the request context
func GetIdentity(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

func parseRoles(raw string) []string {
	if raw == "" {
		return nil
	}

	var roles []string
	for _, part := range strings.Split(raw, ",") {
		if role := strings.TrimSpace(part); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}
