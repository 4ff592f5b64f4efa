package adminapi

import (
	"context"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/bitechdev/furniture-admin/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID returns the id assigned to the request by the router, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID reuses an incoming X-Request-ID or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// instrument writes the access log line and records request metrics. The
// route label is the mux path template, never the raw path.
func instrument(metrics *Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := "unmatched"
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}

			if metrics != nil {
				metrics.inFlight.Inc()
				defer metrics.inFlight.Dec()
			}

			m := httpsnoop.CaptureMetrics(next, w, r)

			if metrics != nil {
				metrics.observe(r.Method, route, m.Code, m.Duration.Seconds())
			}
			logger.With(
				"request_id", RequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", m.Code,
				"duration", m.Duration.String(),
				"bytes", m.Written,
			).Info("request completed")
		})
	}
}

// recovery turns a panic in any handler into a 500 response.
func (h *Handler) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.handlePanic(w, r.Method+" "+r.URL.Path, err)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
