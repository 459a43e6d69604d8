package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"linkhub-gateway/internal/apikey"
	domainerrors "linkhub-gateway/internal/domain/errors"
	"linkhub-gateway/internal/domain/repositories"
	"linkhub-gateway/internal/logger"
	"linkhub-gateway/internal/metrics"
	"linkhub-gateway/internal/ratelimit"
)

// AuthResult is the outcome of validating one Authorization header.
type AuthResult struct {
	Valid       bool
	KeyID       string
	ProfileID   string
	Permissions []string
	RateLimit   int
	RateLimited bool
	// Internal marks a key store failure; the request gets -32603, not 401.
	Internal bool
	Error    string
}

// Has reports whether the key holds permission.
func (a *AuthResult) Has(permission string) bool {
	return a != nil && a.Valid && apikey.HasPermission(a.Permissions, permission)
}

func invalid(msg string) *AuthResult {
	return &AuthResult{Error: msg}
}

// Validator resolves bearer secrets to keys and applies per-key quotas.
type Validator struct {
	keys    repositories.APIKeyRepository
	limiter ratelimit.Limiter
	bg      *Background
	log     *logger.Logger
}

func NewValidator(keys repositories.APIKeyRepository, limiter ratelimit.Limiter, bg *Background, log *logger.Logger) *Validator {
	return &Validator{keys: keys, limiter: limiter, bg: bg, log: log}
}

// ParseBearer extracts the token from "Bearer <token>". The scheme is
// matched case-insensitively.
func ParseBearer(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errors.New("Authorization header must use the Bearer scheme")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("Missing bearer token")
	}
	return token, nil
}

// Validate checks header and, on success, consumes one request from the
// key's quota and schedules the usage touch. The secret is never logged.
func (v *Validator) Validate(ctx context.Context, header string) *AuthResult {
	token, err := ParseBearer(header)
	if err != nil {
		return v.reject(err.Error(), "")
	}
	if !apikey.ValidateAPIKeyFormat(token) {
		return v.reject("Invalid API key", "")
	}

	key, err := v.keys.GetByHash(ctx, apikey.HashAPIKey(token))
	if err != nil {
		if !errors.Is(err, domainerrors.ErrAPIKeyNotFound) {
			v.log.LogError("api key lookup failed", err, nil)
			return &AuthResult{Internal: true, Error: "key store unavailable"}
		}
		return v.reject("Invalid API key", "")
	}
	if !key.IsActive {
		return v.reject("API key is inactive", key.ID)
	}

	quota := key.RateLimit
	if quota <= 0 {
		quota = apikey.DefaultRateLimit
	}
	if v.limiter != nil {
		decision, err := v.limiter.Allow(ctx, key.ID, quota)
		if err != nil {
			v.log.Warn(logger.EventRateLimited, "rate limiter unavailable, allowing request", map[string]interface{}{
				"key_id": key.ID,
				"error":  err.Error(),
			})
		} else if !decision.Allowed {
			metrics.ObserveRateLimited()
			v.log.Warn(logger.EventRateLimited, "api key over quota", map[string]interface{}{
				"key_id":      key.ID,
				"limit":       decision.Limit,
				"reset_after": decision.ResetAfter.String(),
			})
			return &AuthResult{
				KeyID:       key.ID,
				ProfileID:   key.ProfileID,
				RateLimit:   quota,
				RateLimited: true,
				Error:       fmt.Sprintf("Rate limit exceeded: %d requests per window, retry in %s", quota, decision.ResetAfter.Round(time.Second)),
			}
		}
	}

	keyID := key.ID
	v.bg.Go("touch_api_key", func(ctx context.Context) error {
		return v.keys.TouchLastUsed(ctx, keyID)
	})

	return &AuthResult{
		Valid:       true,
		KeyID:       key.ID,
		ProfileID:   key.ProfileID,
		Permissions: key.Permissions,
		RateLimit:   quota,
	}
}

func (v *Validator) reject(msg, keyID string) *AuthResult {
	details := map[string]interface{}{"reason": msg}
	if keyID != "" {
		details["key_id"] = keyID
	}
	v.log.Warn(logger.EventAuthFailure, "api key rejected", details)
	return invalid(msg)
}
