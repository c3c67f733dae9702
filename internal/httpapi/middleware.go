package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

type loggerKey struct{}

// LoggerFrom returns the request-scoped logger, or the default logger.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// RequestTrace tags every request with a UUID, exposes it in the response
// headers and logs the outcome.
func RequestTrace(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.NewRandom()
		if err != nil {
			if err := RenderError(w, http.StatusInternalServerError, err.Error()); err != nil {
				logger.Error("error writing response", "error", err)
			}
			return
		}
		requestID := id.String()
		reqLogger := logger.With("request_id", requestID)
		w.Header().Set(RequestIDHeader, requestID)

		ctx := WithLogger(r.Context(), reqLogger)
		m := httpsnoop.CaptureMetrics(next, w, r.WithContext(ctx))
		reqLogger.Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"time_taken", m.Duration,
		)
	})
}

// Recover converts a panic in next into a 500 JSON error.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				LoggerFrom(r.Context()).Error("panic while handling request", "panic", rec)
				if err := RenderError(w, http.StatusInternalServerError, fmt.Sprint(rec)); err != nil {
					LoggerFrom(r.Context()).Error("error writing response", "error", err)
				}
			}
		}()
		next.ServeHTTP(w, r)
	})
}
