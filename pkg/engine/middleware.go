package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cohdi/cdimock/pkg/httputil"
)

// RequestIDHeader carries the request ID on every response.
const RequestIDHeader = "X-Request-ID"

type requestInfoKey struct{}

// requestInfo is filled in while a request travels through the middleware
// chain and read back by the access log.
type requestInfo struct {
	ID    string
	Route string
}

func requestInfoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// RequestID returns the ID assigned to the request carried by ctx, or "".
func RequestID(ctx context.Context) string {
	if info := requestInfoFrom(ctx); info != nil {
		return info.ID
	}
	return ""
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// withMiddleware wraps h as: request ID -> access log -> recovery -> h.
func withMiddleware(h http.Handler, log *slog.Logger) http.Handler {
	return requestIDMiddleware(accessLogMiddleware(recoverMiddleware(h, log), log))
}

// requestIDMiddleware assigns each request an ID, reusing a valid inbound
// X-Request-ID so callers can correlate their own logs.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestInfoKey{}, &requestInfo{ID: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLogMiddleware logs one line per request.
func accessLogMiddleware(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.statusCode,
			"duration", time.Since(start),
		}
		if info := requestInfoFrom(r.Context()); info != nil {
			attrs = append(attrs, "request_id", info.ID, "route", info.Route)
		}
		log.Log(r.Context(), level, "request", attrs...)
	})
}

// recoverMiddleware turns a handler panic into a 500 JSON response.
func recoverMiddleware(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				log.Error("handler panic",
					"path", r.URL.Path,
					"request_id", RequestID(r.Context()),
					"panic", fmt.Sprint(v),
				)
				httputil.WriteInternalError(w, "internal_error", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
