package middleware

import (
    "encoding/json"
    "fmt"
    "net/http"

    derrors "linkhub-gateway/internal/domain/errors"
    "linkhub-gateway/internal/logger"
)

// ErrorHandlerMiddleware recovers from panics and writes unified JSON errors.
func ErrorHandlerMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if rec := recover(); rec != nil {
                if rec == http.ErrAbortHandler { panic(rec) }
                details := map[string]interface{}{"path": r.URL.Path, "request_id": RequestID(r.Context())}
                switch v := rec.(type) {
                case derrors.DomainError:
                    writeJSONError(w, http.StatusBadRequest, v)
                case error:
                    logger.GetLogger().LogError("panic in handler", v, details)
                    writeJSONError(w, http.StatusInternalServerError, derrors.ErrInternal)
                default:
                    logger.GetLogger().LogError("panic in handler", fmt.Errorf("%#v", v), details)
                    writeJSONError(w, http.StatusInternalServerError, derrors.ErrInternal)
                }
            }
        }()
        next.ServeHTTP(w, r)
    })
}

func writeJSONError(w http.ResponseWriter, status int, derr derrors.DomainError) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(map[string]interface{}{
        "success": false,
        "error":   derr.Message,
        "code":    derr.Code,
        "details": derr.Details,
    })
}
