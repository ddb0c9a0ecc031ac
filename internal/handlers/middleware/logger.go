package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/sims/internal/handlers/userctx"
)

const headerRequestID = "X-Request-ID"

type logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type logWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *logWriter) Write(p []byte) (int, error) {
	size, err := w.ResponseWriter.Write(p)
	w.size += size
	return size, err
}

func (w *logWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.status = statusCode
}

// LoggerMiddleware logs every request with its request id and the user that made it.
// Request id sent by the client is kept, otherwise a new one is issued; either way it is echoed back
func LoggerMiddleware(l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(headerRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
				r.Header.Set(headerRequestID, requestID)
			}
			w.Header().Set(headerRequestID, requestID)

			ctx, authenticated := userctx.Track(r.Context())
			lw := &logWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(lw, r.WithContext(ctx))

			args := []any{
				"method", r.Method,
				"uri", r.RequestURI,
				"request_id", requestID,
				"duration", time.Since(start),
				"status", lw.status,
				"size", lw.size,
			}
			if u, ok := authenticated(); ok {
				args = append(args, "user_id", u.ID, "role", u.Role)
			}

			switch {
			case lw.status >= http.StatusInternalServerError:
				l.Error("HTTP request failed", args...)
			case lw.status == http.StatusUnauthorized, lw.status == http.StatusForbidden:
				l.Warn("HTTP request rejected", args...)
			default:
				l.Info("got HTTP request", args...)
			}
		})
	}
}
