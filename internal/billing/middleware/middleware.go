// Package middleware gates premium routes on an active subscription.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
	"registro/pkg/requestcontext"
)

// SubscriptionChecker reports whether a user currently holds an active
// subscription.
type SubscriptionChecker interface {
	HasActiveSubscription(ctx context.Context, userID id.UserID) (bool, error)
}

var errSubscriptionRequired = dErrors.New(dErrors.CodePaymentRequired, "se requiere una suscripcion activa")

// RequireActiveSubscription answers 402 to callers without an active
// subscription. Admins bypass the check. It must run after RequireAuth.
func RequireActiveSubscription(checker SubscriptionChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := requestcontext.Principal(ctx)
			if principal.IsZero() {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "autenticacion requerida"))
				return
			}
			if principal.IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}

			ok, err := checker.HasActiveSubscription(ctx, principal.UserID)
			if err != nil {
				logger.ErrorContext(ctx, "subscription check failed", "error", err, "request_id", requestcontext.RequestID(ctx))
				httputil.WriteError(w, err)
				return
			}
			if !ok {
				logger.InfoContext(ctx, "subscription required",
					"user_id", principal.UserID.String(),
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx))
				httputil.WriteError(w, errSubscriptionRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
