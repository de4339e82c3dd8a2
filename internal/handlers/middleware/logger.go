package middleware

import (
	"net/http"
	"time"
)

type logger interface {
	Info(msg string, args ...any)
}

// statusWriter captures what the handler wrote so the request can be logged
// after the fact
type statusWriter struct {
	http.ResponseWriter

	status int
	size   int
}

func (w *statusWriter) Write(p []byte) (int, error) {
	n, err := w.ResponseWriter.Write(p)
	w.size += n
	return n, err
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.status = statusCode
}

// LoggerMiddleware logs every served request with its status, response size
// and duration
func LoggerMiddleware(l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			l.Info(
				"HTTP request served",
				"method", r.Method,
				"uri", r.RequestURI,
				"status", sw.status,
				"size", sw.size,
				"duration", time.Since(start),
			)
		})
	}
}
