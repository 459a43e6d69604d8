package entities

import "time"

// APIKey is a profile owner's credential for the agent gateway. The raw
// secret is only carried in Secret on the creation path and is never
// loaded back from storage.
type APIKey struct {
    ID          string     `json:"id"`
    ProfileID   string     `json:"profile_id"`
    Name        string     `json:"name"`
    KeyPrefix   string     `json:"key_prefix"`
    Secret      string     `json:"-"`
    Permissions []string   `json:"permissions"`
    RateLimit   int        `json:"rate_limit"`
    IsActive    bool       `json:"is_active"`
    UsageCount  int64      `json:"usage_count"`
    LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
    CreatedAt   time.Time  `json:"created_at"`
    UpdatedAt   time.Time  `json:"updated_at"`
}
