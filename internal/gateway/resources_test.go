package gateway

import (
	"testing"

	"linkhub-gateway/internal/domain/entities"
)

func TestParseResourceURI(t *testing.T) {
	tests := []struct {
		uri      string
		user     string
		kind     string
		wantFail bool
	}{
		{"linkhub://alice/links", "alice", "links", false},
		{"linkhub://alice/profile", "alice", "profile", false},
		{"linkhub://alice", "", "", true},
		{"linkhub:///links", "", "", true},
		{"linkhub://alice/links/extra", "", "", true},
		{"http://alice/links", "", "", true},
	}
	for _, tt := range tests {
		user, kind, err := ParseResourceURI(tt.uri)
		if (err != nil) != tt.wantFail || user != tt.user || kind != tt.kind {
			t.Errorf("ParseResourceURI(%q) = %q, %q, %v", tt.uri, user, kind, err)
		}
	}
}

func TestPricingDisplay(t *testing.T) {
	tests := []struct {
		svc  entities.Service
		want string
	}{
		{entities.Service{PriceCents: 15000, Currency: "USD", PriceType: entities.PriceFixed}, "$150.00"},
		{entities.Service{PriceCents: 8050, Currency: "EUR", PriceType: entities.PriceHourly}, "€80.50/hour"},
		{entities.Service{PriceCents: 50000, Currency: "USD", PriceType: entities.PriceStartingAt}, "From $500.00"},
		{entities.Service{PriceType: entities.PriceQuote}, "Contact for quote"},
		{entities.Service{PriceCents: 999, Currency: "JPY"}, "JPY 9.99"},
	}
	for _, tt := range tests {
		if got := pricing(tt.svc).Display; got != tt.want {
			t.Errorf("pricing(%+v) = %q, want %q", tt.svc, got, tt.want)
		}
	}
}

func TestResourceCatalogMatchesTemplates(t *testing.T) {
	r := NewResolver(NewProfiles(nil, ""), "https://linkhub.test")
	var templates []string
	for _, k := range r.Kinds() {
		templates = append(templates, k.URITemplate())
	}
	want := []string{
		"linkhub://{username}/profile",
		"linkhub://{username}/links",
		"linkhub://{username}/services",
		"linkhub://{username}/social",
	}
	if len(templates) != len(want) {
		t.Fatalf("templates = %v", templates)
	}
	for i := range want {
		if templates[i] != want[i] {
			t.Errorf("template %d = %q, want %q", i, templates[i], want[i])
		}
	}
}
