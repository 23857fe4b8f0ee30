package webui

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/fardiff/pkg/utils"
)

// requestLogger logs each request at debug level.
func requestLogger(logger utils.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.WithFields(map[string]interface{}{
				"request_id": middleware.GetReqID(r.Context()),
				"status":     sw.status,
				"ms":         time.Since(start).Milliseconds(),
			}).Debug("%s %s", r.Method, r.URL.Path)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
