// Package operator guards operator-only routes with a shared token.
package operator

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"registrar/pkg/requestcontext"
)

const (
	Header = "X-Operator-Token"

	ActorOperator = "operator"
	ActorAttendee = "attendee"
)

// RequireOperatorToken admits requests carrying expectedToken and records the
// operator as the request actor. With an empty expectedToken every request is
// admitted as the attendee.
func RequireOperatorToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if expectedToken == "" {
				next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, ActorAttendee)))
				return
			}
			token := r.Header.Get(Header)
			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "operator token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"client_ip", requestcontext.ClientIP(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"operator token required"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, ActorOperator)))
		})
	}
}
