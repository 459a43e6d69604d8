package validation

import (
	"net/url"
	"testing"
	"time"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"ada@example.com", true},
		{"first.last+tag@sub.example.co", true},
		{"no-at-sign.example.com", false},
		{"ada@localhost", false},
		{"ada@@example.com", false},
		{"ada @example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidateEmail(tt.email); got != tt.want {
			t.Errorf("ValidateEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestParsePagination(t *testing.T) {
	p, details := ParsePagination(url.Values{"page": {"3"}, "limit": {"500"}}, 20, 100)
	if p.Page != 3 || p.Limit != 100 {
		t.Errorf("unexpected pagination %+v", p)
	}
	if _, ok := details["limit"]; !ok {
		t.Error("expected limit detail when over max")
	}
	if p.Offset() != 200 {
		t.Errorf("Offset = %d, want 200", p.Offset())
	}

	p, details = ParsePagination(url.Values{"page": {"zero"}}, 20, 100)
	if p.Page != 1 || p.Limit != 20 || details["page"] == nil {
		t.Errorf("unexpected defaults %+v %v", p, details)
	}
}

func TestParseTimeRange(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	start, end, ok := ParseTimeRange("", now)
	if !ok || !end.Equal(now) || !start.Equal(now.Add(-7*24*time.Hour)) {
		t.Errorf("default range = %v..%v ok=%v", start, end, ok)
	}
	if _, _, ok := ParseTimeRange("2w", now); ok {
		t.Error("expected unsupported range to be rejected")
	}
}

func TestValidateUsername(t *testing.T) {
	for name, want := range map[string]bool{"alice": true, "a_b-1": true, "A": false, "-x": false, "": false} {
		if got := ValidateUsername(name); got != want {
			t.Errorf("ValidateUsername(%q) = %v, want %v", name, got, want)
		}
	}
}
