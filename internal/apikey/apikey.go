package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Prefix marks gateway secrets so operators can recognise them in configs and
// logs. It carries no authorization weight; only the hash lookup does.
const Prefix = "lh"

// DisplayPrefixLen is how many leading characters of a secret are kept for UI display.
const DisplayPrefixLen = 10

// Permission names a capability a key may hold.
const (
	PermissionRead    = "read"
	PermissionWrite   = "write"
	PermissionInquire = "inquire"
)

// AllowedRateLimits are the per-window request quotas an owner may choose from.
var AllowedRateLimits = []int{50, 100, 500, 1000}

// DefaultRateLimit is applied when a key is created without an explicit quota.
const DefaultRateLimit = 100

// GenerateAPIKey returns a new secret of the form lh_<64 hex> and its storage hash.
func GenerateAPIKey() (string, string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	fullKey := fmt.Sprintf("%s_%s", Prefix, hex.EncodeToString(bytes))
	return fullKey, HashAPIKey(fullKey), nil
}

// HashAPIKey generates the SHA-256 hex digest used to look keys up.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// ValidateAPIKeyFormat reports whether key looks like a gateway secret.
func ValidateAPIKeyFormat(key string) bool {
	keyPart, ok := strings.CutPrefix(key, Prefix+"_")
	if !ok || len(keyPart) != 64 {
		return false
	}
	for _, char := range keyPart {
		if !((char >= '0' && char <= '9') || (char >= 'a' && char <= 'f') || (char >= 'A' && char <= 'F')) {
			return false
		}
	}
	return true
}

// DisplayPrefix returns the first characters of a secret for listing in the dashboard.
func DisplayPrefix(key string) string {
	if len(key) <= DisplayPrefixLen {
		return key
	}
	return key[:DisplayPrefixLen]
}

// ValidatePermissions validates API key permissions
func ValidatePermissions(permissions []string) bool {
	validPermissions := map[string]bool{
		PermissionRead:    true,
		PermissionWrite:   true,
		PermissionInquire: true,
	}

	for _, perm := range permissions {
		if !validPermissions[perm] {
			return false
		}
	}

	return true
}

// ValidateRateLimit reports whether limit is one of AllowedRateLimits.
func ValidateRateLimit(limit int) bool {
	for _, allowed := range AllowedRateLimits {
		if limit == allowed {
			return true
		}
	}
	return false
}

// HasPermission checks if a set of permissions includes a specific permission
func HasPermission(permissions []string, required string) bool {
	for _, perm := range permissions {
		if perm == required {
			return true
		}
	}
	return false
}

// NormalizePermissions drops duplicates while keeping the caller's order.
func NormalizePermissions(permissions []string) []string {
	seen := make(map[string]bool, len(permissions))
	out := make([]string, 0, len(permissions))
	for _, p := range permissions {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
