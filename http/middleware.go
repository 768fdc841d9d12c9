package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sagarc03/filegate"
)

const (
	// HeaderUserID identifies the caller. It is trusted as-is.
	HeaderUserID = "X-User-Id"
	// HeaderRequestID carries the request id in and out.
	HeaderRequestID = "X-Request-Id"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	requestIDKey
)

// WithUserID returns a copy of ctx carrying the caller's user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFrom returns the user id stored by UserIDMiddleware, or "".
func UserIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// RequestIDFrom returns the request id stored by RequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// RequestID reuses an incoming X-Request-Id or generates one, and echoes it
// on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// AccessLog logs one line per request once the response is written.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", RequestIDFrom(r.Context()),
			"user_id", strings.TrimSpace(r.Header.Get(HeaderUserID)),
		)
	})
}

// UserIDMiddleware rejects requests without a non-blank X-User-Id header
// with 401, and ids containing "/" with 400. It stores the trimmed id in the
// request context.
func UserIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if err := filegate.CheckUserID(userID); err != nil {
			HandleError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
