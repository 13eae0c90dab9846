package logging

import (
	"context"
	"net/http"
	"time"
)

type contextKey string

const loggerKey contextKey = "logger"

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from the context.
// If no logger is found, returns the default logger.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(loggerKey).(*Logger)
	if !ok || logger == nil {
		return Default()
	}
	return logger
}

// statusRecorder remembers the response status for the access log. Flush is
// forwarded so event streams keep working behind the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware attaches a request-scoped logger to the context and writes one
// access log line per request once the handler returns.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestLogger := logger.With(Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			})

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(WithLogger(r.Context(), requestLogger)))

			requestLogger.Debug("request completed", Fields{
				"status":   rec.status,
				"duration": time.Since(start).String(),
			})
		})
	}
}
