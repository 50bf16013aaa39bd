package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/montecristo/sales-api/internal/auth"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/logger"
	"go.uber.org/zap"
)

// Recovery turns a panic in a handler into a 500 problem response.
// The stack trace is logged, never returned to the caller.
func Recovery(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				reqLog := logger.WithRequest(log, r.Method, r.URL.Path, RequestIDFromContext(r.Context()))
				if userCtx, ok := auth.FromContext(r.Context()); ok {
					reqLog = logger.WithUser(reqLog, userCtx.UserID.String(), userCtx.DisplayName, string(userCtx.Role))
				}
				reqLog.Error("panic recovered",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(domain.APIError{
					Type:   domain.ErrorTypeInternal,
					Title:  http.StatusText(http.StatusInternalServerError),
					Status: http.StatusInternalServerError,
					Detail: "An unexpected error occurred",
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
