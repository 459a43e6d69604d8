// Package testutil builds throwaway SQLite databases seeded with profiles.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"linkhub-gateway/internal/database"
)

// OwnerPassword is the password SeedProfile sets for every owner.
const OwnerPassword = "correct horse battery staple"

// OpenDB opens a fresh database in the test's temp dir.
func OpenDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "linkhub.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SeedOptions controls what SeedProfile creates.
type SeedOptions struct {
	WithServices bool
}

// SeedProfile inserts a profile with links (inserted out of order, one
// inactive), a social link and optionally services.
func SeedProfile(t *testing.T, db *database.Database, username string, opts SeedOptions) *database.ProfileRecord {
	t.Helper()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte(OwnerPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	p := &database.ProfileRecord{
		ID:           uuid.NewString(),
		Username:     username,
		DisplayName:  "Display " + username,
		Bio:          "Bio of " + username,
		PasswordHash: string(hash),
	}
	if err := db.CreateProfile(ctx, p); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	links := []database.LinkRecord{
		{Title: "Second", URL: "https://example.com/2", Position: 2, IsActive: true},
		{Title: "Hidden", URL: "https://example.com/hidden", Position: 0, IsActive: false},
		{Title: "First", URL: "https://example.com/1", Position: 1, IsActive: true},
	}
	for i := range links {
		links[i].ID = uuid.NewString()
		links[i].ProfileID = p.ID
		if err := db.InsertLink(ctx, &links[i]); err != nil {
			t.Fatalf("insert link: %v", err)
		}
	}

	if err := db.InsertSocialLink(ctx, &database.SocialLinkRecord{
		ID: uuid.NewString(), ProfileID: p.ID, Platform: "github", URL: "https://github.com/" + username,
	}); err != nil {
		t.Fatalf("insert social link: %v", err)
	}

	if opts.WithServices {
		services := []database.ServiceRecord{
			{Title: "Consulting", Description: "Hourly help", Category: "consulting", PriceCents: 15000, PriceType: "hourly", Position: 0, IsActive: true},
			{Title: "Retired", Description: "No longer offered", Category: "design", PriceCents: 1000, Position: 1, IsActive: false},
		}
		for i := range services {
			services[i].ID = uuid.NewString()
			services[i].ProfileID = p.ID
			if err := db.InsertService(ctx, &services[i]); err != nil {
				t.Fatalf("insert service: %v", err)
			}
		}
	}
	return p
}
