package gateway

import (
	"time"

	"linkhub-gateway/internal/domain/entities"
)

// DefaultDemoUsername is served from memory so agents can try the gateway
// without a real profile.
const DefaultDemoUsername = "demo"

const demoProfileID = "00000000-0000-0000-0000-00000000demo"

// DemoBundle returns the built-in sample profile under username.
func DemoBundle(username string) *entities.ProfileBundle {
	return &entities.ProfileBundle{
		Profile: entities.Profile{
			ID:          demoProfileID,
			Username:    username,
			DisplayName: "Demo Creator",
			Bio:         "Designer and developer helping small brands ship. This is a sample profile for trying the agent gateway.",
			AvatarURL:   "https://api.dicebear.com/7.x/initials/svg?seed=Demo",
			CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Links: []entities.Link{
			{ID: "demo-link-1", ProfileID: demoProfileID, Title: "Portfolio", URL: "https://example.com/portfolio", Position: 0, IsActive: true},
			{ID: "demo-link-2", ProfileID: demoProfileID, Title: "Blog", URL: "https://example.com/blog", Position: 1, IsActive: true},
			{ID: "demo-link-3", ProfileID: demoProfileID, Title: "Newsletter", URL: "https://example.com/newsletter", Position: 2, IsActive: true},
		},
		Services: []entities.Service{
			{
				ID: "demo-service-1", ProfileID: demoProfileID, Title: "Logo Design",
				Description: "A custom logo with two revision rounds and source files.",
				Category:    "design", PriceCents: 50000, Currency: "USD", PriceType: entities.PriceStartingAt,
				Position: 0, IsActive: true,
			},
			{
				ID: "demo-service-2", ProfileID: demoProfileID, Title: "Website Consulting",
				Description: "Hands-on help with site structure, performance and launch.",
				Category:    "consulting", PriceCents: 12000, Currency: "USD", PriceType: entities.PriceHourly,
				Position: 1, IsActive: true,
			},
			{
				ID: "demo-service-3", ProfileID: demoProfileID, Title: "Brand Strategy Workshop",
				Description: "A half-day workshop tailored to your team.",
				Category:    "consulting", PriceType: entities.PriceQuote,
				Position: 2, IsActive: true,
			},
		},
		Social: []entities.SocialLink{
			{ID: "demo-social-1", ProfileID: demoProfileID, Platform: "twitter", URL: "https://twitter.com/example", Position: 0},
			{ID: "demo-social-2", ProfileID: demoProfileID, Platform: "github", URL: "https://github.com/example", Position: 1},
		},
	}
}
