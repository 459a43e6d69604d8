package middleware

import (
    "context"
    "net/http"

    "github.com/google/uuid"
)

type ctxKey string

const RequestIDKey ctxKey = "request_id"

// RequestIDMiddleware attaches a request_id to context and response header.
func RequestIDMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        reqID := r.Header.Get("X-Request-ID")
        if reqID == "" || len(reqID) > 128 { reqID = uuid.NewString() }
        w.Header().Set("X-Request-ID", reqID)
        ctx := context.WithValue(r.Context(), RequestIDKey, reqID)
        next.ServeHTTP(w, r.WithContext(ctx))
    })
}

// RequestID returns the id set by RequestIDMiddleware, or "".
func RequestID(ctx context.Context) string {
    id, _ := ctx.Value(RequestIDKey).(string)
    return id
}
