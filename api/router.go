package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/trailsum/trailsum/api/metrics"
)

type (
	logResponseWriter struct {
		sync.Once
		http.ResponseWriter

		statusCode int
	}

	ctxKey int
)

const ctxKeyRequestID ctxKey = iota

func (lrw *logResponseWriter) WriteHeader(code int) {
	lrw.Do(func() {
		lrw.statusCode = code
		lrw.ResponseWriter.WriteHeader(code)
	})
}

func setRequestID(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// generate random UUIDv4
		id, _ := uuid.NewRandom()

		// set request id into response header
		w.Header().Set(hdrAmzRequestID, id.String())

		r = r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id.String()))

		h.ServeHTTP(w, r)
	})
}

func logErrorResponse(l *zap.Logger) mux.MiddlewareFunc {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lw := &logResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			// pass execution:
			h.ServeHTTP(lw, r)

			// Ignore <300 status codes
			if lw.statusCode >= http.StatusMultipleChoices {
				l.Error("something went wrong",
					zap.Int("status", lw.statusCode),
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("description", http.StatusText(lw.statusCode)))

				return
			}

			l.Info("call method",
				zap.Int("status", lw.statusCode),
				zap.String("request_id", GetRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
		})
	}
}

// GetRequestID returns the request ID attached to the context by the request
// id middleware.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// Attach adds the integrity gateway handler h to r wrapped with request-id,
// logging and metrics middleware.
func Attach(r *mux.Router, h http.Handler, log *zap.Logger) {
	api := r.PathPrefix("/").Subrouter()

	api.Use(
		// -- prepare request
		setRequestID,

		// -- logging error requests
		logErrorResponse(log),

		// -- request statistics
		metrics.APIStats,
	)

	api.PathPrefix("/").Handler(h)
}
