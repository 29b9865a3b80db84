// internal/middleware/scope.go
//
// Request-scope middleware.
//
// Builds the per-request core.Context: request ID, scoped logger, and the
// RequestInfo attached upstream by requestinfo.Enrich.  The scoped logger is
// also handed to the action boundary, so an action failure log line carries
// the same request_id as the access log line.  One access log entry is
// written per request, after the handler returns.

package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/formaction/internal/action"
	"github.com/yanizio/formaction/internal/core"
	"github.com/yanizio/formaction/internal/requestinfo"
)

// RequestIDHeader is read from requests and echoed on responses.
const RequestIDHeader = "X-Request-ID"

// Scope returns the request-scope middleware.
func Scope(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > 64 {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			fields := []zap.Field{
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			}
			info := requestinfo.FromContext(r.Context())
			if info != nil && info.IP != nil {
				fields = append(fields, zap.String("ip", info.IP.String()))
			}
			log := base.With(fields...)

			cc := &core.Context{RequestID: id, Log: log, Info: info}
			ctx := core.WithContext(r.Context(), cc)
			ctx = action.ContextWithLogger(ctx, log)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info("request",
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
