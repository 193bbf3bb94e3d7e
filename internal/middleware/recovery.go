package middleware

import (
	"net/http"

	"github.com/creatorkit/backend/internal/domain"
	"github.com/creatorkit/backend/internal/handler"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Recovery catches panics and returns a 500 error instead of crashing the server.
func Recovery(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic",
						zap.Any("panic", rec),
						zap.String("request_id", middleware.GetReqID(r.Context())),
						zap.Stack("stack"),
					)
					handler.Error(w, domain.ErrInternal("internal server error", nil))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
