package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rsilvagit/tutorfind/internal/metrics"
)

type contextKey string

const userIDKey = contextKey("userID")

// UserHeader carries the caller's UUID.
const UserHeader = "X-User-ID"

func loggerMiddleware(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

			log.Info("request finished",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}

// userFromRequest parses the optional user header. ok is false when the
// header is absent; err is set when it is present but malformed.
func userFromRequest(r *http.Request) (user uuid.UUID, ok bool, err error) {
	raw := r.Header.Get(UserHeader)
	if raw == "" {
		return uuid.Nil, false, nil
	}
	user, err = uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, err
	}
	return user, true, nil
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok, err := userFromRequest(r)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "Invalid X-User-ID header format")
			return
		}
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "X-User-ID header is missing")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) (uuid.UUID, bool) {
	user, ok := ctx.Value(userIDKey).(uuid.UUID)
	return user, ok
}
