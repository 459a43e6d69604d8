// Package migration imports profiles described in YAML manifests into the
// database, for seeding and for moving profiles between instances.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"linkhub-gateway/internal/database"
	"linkhub-gateway/internal/domain/entities"
	"linkhub-gateway/internal/presentation/http/validation"
)

// ProfileManifest is the on-disk description of one profile.
type ProfileManifest struct {
	Username    string            `yaml:"username"`
	DisplayName string            `yaml:"display_name"`
	Bio         string            `yaml:"bio"`
	AvatarURL   string            `yaml:"avatar_url"`
	Password    string            `yaml:"password"`
	Links       []LinkManifest    `yaml:"links"`
	Services    []ServiceManifest `yaml:"services"`
	Social      []SocialManifest  `yaml:"social"`
}

type LinkManifest struct {
	Title  string `yaml:"title"`
	URL    string `yaml:"url"`
	Active *bool  `yaml:"active"`
}

type ServiceManifest struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	PriceCents  int64  `yaml:"price_cents"`
	Currency    string `yaml:"currency"`
	PriceType   string `yaml:"price_type"`
	Active      *bool  `yaml:"active"`
}

type SocialManifest struct {
	Platform string `yaml:"platform"`
	URL      string `yaml:"url"`
}

// ErrProfileExists is returned when the manifest's username is taken.
var ErrProfileExists = errors.New("profile already exists")

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*ProfileManifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m ProfileManifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest before anything is written.
func (m *ProfileManifest) Validate() error {
	m.Username = strings.ToLower(strings.TrimSpace(m.Username))
	if !validation.ValidateUsername(m.Username) {
		return fmt.Errorf("invalid username %q", m.Username)
	}
	if strings.TrimSpace(m.DisplayName) == "" {
		m.DisplayName = m.Username
	}
	for i, l := range m.Links {
		if strings.TrimSpace(l.Title) == "" {
			return fmt.Errorf("links[%d]: title is required", i)
		}
		if !isWebURL(l.URL) {
			return fmt.Errorf("links[%d]: url must be http(s), got %q", i, l.URL)
		}
	}
	for i, s := range m.Services {
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("services[%d]: title is required", i)
		}
		switch entities.PriceType(s.PriceType) {
		case "", entities.PriceFixed, entities.PriceHourly, entities.PriceStartingAt, entities.PriceQuote:
		default:
			return fmt.Errorf("services[%d]: unknown price_type %q", i, s.PriceType)
		}
		if s.PriceCents < 0 {
			return fmt.Errorf("services[%d]: price_cents must not be negative", i)
		}
	}
	for i, s := range m.Social {
		if strings.TrimSpace(s.Platform) == "" || !isWebURL(s.URL) {
			return fmt.Errorf("social[%d]: platform and http(s) url are required", i)
		}
	}
	return nil
}

// ImportFile loads the manifest at path and imports it.
func ImportFile(ctx context.Context, db *database.Database, path string) (*database.ProfileRecord, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return ImportProfile(ctx, db, m)
}

// ImportProfile creates the profile with its links, services and social
// links. Positions follow manifest order.
func ImportProfile(ctx context.Context, db *database.Database, m *ProfileManifest) (*database.ProfileRecord, error) {
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	if _, err := db.GetProfileByUsername(ctx, m.Username); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileExists, m.Username)
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	p := &database.ProfileRecord{
		ID:          uuid.NewString(),
		Username:    m.Username,
		DisplayName: m.DisplayName,
		Bio:         m.Bio,
		AvatarURL:   m.AvatarURL,
	}
	if m.Password != "" {
		hash, err := HashPassword(m.Password)
		if err != nil {
			return nil, err
		}
		p.PasswordHash = hash
	}
	if err := db.CreateProfile(ctx, p); err != nil {
		return nil, err
	}

	for i, l := range m.Links {
		rec := &database.LinkRecord{
			ID:        uuid.NewString(),
			ProfileID: p.ID,
			Title:     l.Title,
			URL:       l.URL,
			Position:  i,
			IsActive:  l.Active == nil || *l.Active,
		}
		if err := db.InsertLink(ctx, rec); err != nil {
			return nil, fmt.Errorf("insert link %q: %w", l.Title, err)
		}
	}
	for i, s := range m.Services {
		rec := &database.ServiceRecord{
			ID:          uuid.NewString(),
			ProfileID:   p.ID,
			Title:       s.Title,
			Description: s.Description,
			Category:    s.Category,
			PriceCents:  s.PriceCents,
			Currency:    strings.ToUpper(s.Currency),
			PriceType:   s.PriceType,
			Position:    i,
			IsActive:    s.Active == nil || *s.Active,
		}
		if err := db.InsertService(ctx, rec); err != nil {
			return nil, fmt.Errorf("insert service %q: %w", s.Title, err)
		}
	}
	for i, s := range m.Social {
		rec := &database.SocialLinkRecord{
			ID:        uuid.NewString(),
			ProfileID: p.ID,
			Platform:  strings.ToLower(s.Platform),
			URL:       s.URL,
			Position:  i,
		}
		if err := db.InsertSocialLink(ctx, rec); err != nil {
			return nil, fmt.Errorf("insert social link %q: %w", s.Platform, err)
		}
	}

	log.Printf("Imported profile %s: %d links, %d services, %d social links",
		p.Username, len(m.Links), len(m.Services), len(m.Social))
	return p, nil
}

// HashPassword returns the bcrypt hash stored for owner authentication.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// SetPassword replaces the owner password of username.
func SetPassword(ctx context.Context, db *database.Database, username, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return db.SetPasswordHash(ctx, username, hash)
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
