package middleware

import (
	"log/slog"
	"net/http"

	"github.com/alicecomoura/hook-shopping-cart/pkg/logger"
)

// RequestLogger stores a logger tagged with the request method and path in
// the request context. Correlation and trace IDs are added per record by
// the logger's handler, so mount it after RequestLogging and Tracing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base.With(
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			next.ServeHTTP(w, r.WithContext(logger.NewContext(r.Context(), l)))
		})
	}
}
