package middleware

import (
    "net/http"
    "strconv"
    "time"
)

const corsMaxAge = 24 * time.Hour

// CorsMiddleware allows any origin. Agents call the gateway from arbitrary
// hosts and never rely on cookies, so no credentials are allowed.
func CorsMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        h := w.Header()
        h.Set("Access-Control-Allow-Origin", "*")
        h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
        h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Mcp-Session-Id, X-Request-ID")
        h.Set("Access-Control-Expose-Headers", "Content-Type, X-Request-ID")

        if r.Method == http.MethodOptions {
            h.Set("Access-Control-Max-Age", strconv.Itoa(int(corsMaxAge.Seconds())))
            w.WriteHeader(http.StatusNoContent)
            return
        }

        next.ServeHTTP(w, r)
    })
}
