package validation

import (
    "net/url"
    "regexp"
    "strconv"
    "strings"
    "time"
)

// Pagination holds parsed pagination params.
type Pagination struct {
    Page  int
    Limit int
}

// Offset is the index of the first item on the page.
func (p Pagination) Offset() int { return (p.Page - 1) * p.Limit }

// ParsePagination parses page/limit from query with sensible defaults and bounds.
// Defaults: page=1, limit=defaultLimit. maxLimit applies an upper bound if >0.
// Returns the parsed Pagination and a details map for validation errors (if any).
func ParsePagination(q url.Values, defaultLimit, maxLimit int) (Pagination, map[string]interface{}) {
    page := 1
    limit := defaultLimit
    details := map[string]interface{}{}

    if v := q.Get("page"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            page = n
        } else {
            details["page"] = "must be a positive integer"
        }
    }
    if v := q.Get("limit"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            limit = n
        } else {
            details["limit"] = "must be a positive integer"
        }
    }
    if maxLimit > 0 && limit > maxLimit {
        details["limit"] = map[string]interface{}{
            "max": maxLimit,
        }
        limit = maxLimit
    }
    return Pagination{Page: page, Limit: limit}, details
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail reports whether email looks like a deliverable address.
func ValidateEmail(email string) bool {
    if len(email) > 254 { return false }
    return emailPattern.MatchString(email)
}

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,29}$`)

// ValidateUsername accepts lowercase handles of 2-30 characters.
func ValidateUsername(username string) bool {
    return usernamePattern.MatchString(username)
}

// ParseTimeRange turns "24h", "7d", "30d" or "90d" into a window ending now.
// Empty means 7d.
func ParseTimeRange(value string, now time.Time) (time.Time, time.Time, bool) {
    value = strings.TrimSpace(value)
    if value == "" { value = "7d" }
    var d time.Duration
    switch value {
    case "24h", "1d":
        d = 24 * time.Hour
    case "7d":
        d = 7 * 24 * time.Hour
    case "30d":
        d = 30 * 24 * time.Hour
    case "90d":
        d = 90 * 24 * time.Hour
    default:
        return time.Time{}, time.Time{}, false
    }
    return now.Add(-d), now, true
}
