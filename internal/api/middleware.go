package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/slok/todochat/internal/auth"
	"github.com/slok/todochat/internal/conventions"
	"github.com/slok/todochat/internal/log"
)

// requestIDMiddleware sets a request ID on the context logger values and echoes it back.
func (h handler) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(conventions.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(conventions.RequestIDHeader, id)

		ctx := h.logger.SetValuesOnCtx(r.Context(), log.Kv{"request-id": id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoveryMiddleware catches panics in handlers, logs the stack trace and returns 500.
func (h handler) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				h.logger.WithCtxValues(r.Context()).Errorf("http handler panic on %s: %v\n%s", r.URL.Path, rv, buf[:n])
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		h.logger.WithCtxValues(r.Context()).WithValues(log.Kv{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debugf("HTTP request handled")
	})
}

func bodySizeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// authenticated only calls the handler when the request has an owner, the owner
// is set on the context.
func (h handler) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, err := h.authn.Authenticate(r)
		if err != nil {
			h.logger.WithCtxValues(r.Context()).Debugf("request rejected: %s", err)
			writeError(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}

		ctx := auth.ContextWithOwner(r.Context(), owner)
		ctx = h.logger.SetValuesOnCtx(ctx, log.Kv{"owner": owner})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
