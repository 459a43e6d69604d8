package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"linkhub-gateway/internal/domain/entities"
	derrors "linkhub-gateway/internal/domain/errors"
	"linkhub-gateway/internal/domain/repositories"
	"linkhub-gateway/internal/logger"
)

const ownerCtxKey ctxKey = "owner"

// OwnerFromContext returns the profile authenticated by RequireOwner.
func OwnerFromContext(ctx context.Context) *entities.Profile {
	p, _ := ctx.Value(ownerCtxKey).(*entities.Profile)
	return p
}

// RequireOwner authenticates the profile owner with HTTP Basic credentials.
// The Basic username must equal the {username} route variable and the
// password is checked against the stored bcrypt hash.
func RequireOwner(profiles repositories.ProfileRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target := mux.Vars(r)["username"]
			user, pass, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="linkhub"`)
				writeOwnerAuthError(w, "UNAUTHORIZED", "Authentication required")
				return
			}
			if subtle.ConstantTimeCompare([]byte(user), []byte(target)) != 1 {
				writeOwnerAuthError(w, "INSUFFICIENT_PRIVILEGES", "Credentials do not belong to this profile")
				return
			}

			hash, err := profiles.PasswordHash(r.Context(), target)
			if err != nil && !errors.Is(err, derrors.ErrProfileNotFound) {
				logger.GetLogger().LogError("owner lookup failed", err, map[string]interface{}{"username": target})
				writeOwnerAuthError(w, "AUTHORIZATION_ERROR", "Failed to check credentials")
				return
			}
			if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass)) != nil {
				logger.GetLogger().Warn(logger.EventAuthFailure, "owner login rejected", map[string]interface{}{
					"username":   target,
					"request_id": RequestID(r.Context()),
				})
				writeOwnerAuthError(w, "UNAUTHORIZED", "Invalid username or password")
				return
			}

			profile, err := profiles.GetByUsername(r.Context(), target)
			if err != nil {
				writeOwnerAuthError(w, "AUTHORIZATION_ERROR", "Failed to load profile")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerCtxKey, profile)))
		})
	}
}

// writeOwnerAuthError writes a structured authorization error response
func writeOwnerAuthError(w http.ResponseWriter, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")

	statusCode := http.StatusUnauthorized
	if errorType == "INSUFFICIENT_PRIVILEGES" {
		statusCode = http.StatusForbidden
	} else if errorType == "AUTHORIZATION_ERROR" {
		statusCode = http.StatusInternalServerError
	}

	w.WriteHeader(statusCode)

	response := map[string]interface{}{
		"success": false,
		"error":   message,
		"code":    errorType,
	}

	json.NewEncoder(w).Encode(response)
}
