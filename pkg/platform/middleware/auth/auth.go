package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	id "registro/pkg/domain"
	"registro/pkg/requestcontext"
)

// JWTValidator validates bearer access tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// UserStatusChecker reports whether a user may still act. Deactivated users
// lose access before their access token expires.
type UserStatusChecker interface {
	IsActive(ctx context.Context, userID id.UserID) (bool, error)
}

// JWTClaims represents the claims the middleware needs from the validator.
type JWTClaims struct {
	UserID string
	Role   string
	JTI    string
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth validates the bearer token and stores the caller's principal
// in the request context. statusChecker may be nil.
func RequireAuth(validator JWTValidator, statusChecker UserStatusChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token", "request_id", requestID)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token", "error", err, "request_id", requestID)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			principal, err := parseClaims(claims)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed token claims", "error", err, "request_id", requestID)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			if statusChecker != nil {
				active, err := statusChecker.IsActive(ctx, principal.UserID)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check user status", "error", err, "request_id", requestID)
					writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to validate token")
					return
				}
				if !active {
					logger.WarnContext(ctx, "unauthorized access - inactive user", "user_id", principal.UserID, "request_id", requestID)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "User is inactive")
					return
				}
			}

			ctx = requestcontext.WithPrincipal(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseClaims(claims *JWTClaims) (requestcontext.AuthPrincipal, error) {
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return requestcontext.AuthPrincipal{}, fmt.Errorf("invalid user_id: %w", err)
	}
	if userID.IsNil() {
		return requestcontext.AuthPrincipal{}, fmt.Errorf("nil user_id")
	}
	role, err := id.ParseRole(claims.Role)
	if err != nil {
		return requestcontext.AuthPrincipal{}, fmt.Errorf("invalid role: %w", err)
	}
	return requestcontext.AuthPrincipal{UserID: userID, Role: role}, nil
}

// RequireRole rejects callers whose role is not listed. It must run after RequireAuth.
func RequireRole(logger *slog.Logger, roles ...id.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := requestcontext.Principal(ctx)
			if principal.IsZero() {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			if !slices.Contains(roles, principal.Role) {
				logger.WarnContext(ctx, "forbidden - role not allowed",
					"user_id", principal.UserID,
					"role", principal.Role,
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireWriterOnMutations lets every authenticated role read but limits
// POST/PUT/PATCH/DELETE to roles that can write.
func RequireWriterOnMutations(logger *slog.Logger) func(http.Handler) http.Handler {
	writers := RequireRole(logger, id.RoleAdmin, id.RoleEditor)
	return func(next http.Handler) http.Handler {
		guarded := writers(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				guarded.ServeHTTP(w, r)
			}
		})
	}
}
