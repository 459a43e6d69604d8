package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"linkhub-gateway/internal/logger"
	"linkhub-gateway/internal/metrics"
)

// LoggingMiddleware records one request and one response event per call and
// observes latency per route template.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		requestID := RequestID(r.Context())
		l := logger.GetLogger()
		l.LogAPIRequest(r.Method, r.URL.Path, r.UserAgent(), getClientIP(r), requestID)

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		l.LogAPIResponse(r.Method, r.URL.Path, wrapper.statusCode, duration, requestID)
		metrics.ObserveHTTP(routeTemplate(r), r.Method, wrapper.statusCode, duration)
	})
}

// routeTemplate keeps usernames out of metric labels.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// responseWrapper captures the status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWrapper) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWrapper) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// getClientIP returns the caller's address, preferring proxy headers.
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip := r.RemoteAddr
	if colonIndex := strings.LastIndex(ip, ":"); colonIndex != -1 {
		ip = ip[:colonIndex]
	}

	return ip
}
