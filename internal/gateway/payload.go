package gateway

import (
	"fmt"
	"strings"

	"linkhub-gateway/internal/domain/entities"
)

// ProfilePayload is the public view of a profile shared by get_profile and
// the profile resource.
type ProfilePayload struct {
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	Bio           string `json:"bio"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	ProfileURL    string `json:"profile_url"`
	LinksCount    int    `json:"links_count"`
	ServicesCount int    `json:"services_count"`
}

type LinkPayload struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type PricingPayload struct {
	Type     string  `json:"type"`
	Amount   float64 `json:"amount,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Display  string  `json:"display"`
}

type ServicePayload struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category,omitempty"`
	Pricing     PricingPayload `json:"pricing"`
}

type SocialPayload struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type linksEnvelope struct {
	Links []LinkPayload `json:"links"`
}

type servicesEnvelope struct {
	Services []ServicePayload `json:"services"`
}

type socialEnvelope struct {
	Social []SocialPayload `json:"social"`
}

func profilePayload(b *entities.ProfileBundle, baseURL string) ProfilePayload {
	return ProfilePayload{
		Username:      b.Profile.Username,
		DisplayName:   b.Profile.DisplayName,
		Bio:           b.Profile.Bio,
		AvatarURL:     b.Profile.AvatarURL,
		ProfileURL:    strings.TrimRight(baseURL, "/") + "/" + b.Profile.Username,
		LinksCount:    len(b.Links),
		ServicesCount: len(b.Services),
	}
}

func linksPayload(b *entities.ProfileBundle) linksEnvelope {
	out := make([]LinkPayload, 0, len(b.Links))
	for _, l := range b.Links {
		out = append(out, LinkPayload{Title: l.Title, URL: l.URL})
	}
	return linksEnvelope{Links: out}
}

func servicesPayload(b *entities.ProfileBundle) servicesEnvelope {
	out := make([]ServicePayload, 0, len(b.Services))
	for _, s := range b.Services {
		out = append(out, ServicePayload{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			Category:    s.Category,
			Pricing:     pricing(s),
		})
	}
	return servicesEnvelope{Services: out}
}

func socialPayload(b *entities.ProfileBundle) socialEnvelope {
	out := make([]SocialPayload, 0, len(b.Social))
	for _, s := range b.Social {
		out = append(out, SocialPayload{Platform: s.Platform, URL: s.URL})
	}
	return socialEnvelope{Social: out}
}

func pricing(s entities.Service) PricingPayload {
	p := PricingPayload{Type: string(s.PriceType)}
	if s.PriceType == entities.PriceQuote {
		p.Display = "Contact for quote"
		return p
	}
	p.Amount = float64(s.PriceCents) / 100
	p.Currency = s.Currency
	amount := formatMoney(s.PriceCents, s.Currency)
	switch s.PriceType {
	case entities.PriceHourly:
		p.Display = amount + "/hour"
	case entities.PriceStartingAt:
		p.Display = "From " + amount
	default:
		p.Type = string(entities.PriceFixed)
		p.Display = amount
	}
	return p
}

func formatMoney(cents int64, currency string) string {
	value := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	switch strings.ToUpper(currency) {
	case "", "USD":
		return "$" + value
	case "EUR":
		return "€" + value
	case "GBP":
		return "£" + value
	default:
		return strings.ToUpper(currency) + " " + value
	}
}
