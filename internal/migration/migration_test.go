package migration_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	repo "linkhub-gateway/internal/infrastructure/repository/sqlite"
	"linkhub-gateway/internal/migration"
	"linkhub-gateway/internal/testutil"
)

const manifest = `
username: Carol
display_name: Carol C.
bio: Illustrator
password: hunter2hunter2
links:
  - title: Portfolio
    url: https://carol.example
  - title: Old shop
    url: https://shop.carol.example
    active: false
services:
  - title: Portrait
    description: One character, full colour
    category: illustration
    price_cents: 25000
    currency: eur
    price_type: starting_at
  - title: Custom work
    price_type: quote
social:
  - platform: Instagram
    url: https://instagram.com/carol
`

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestImportFile(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()

	p, err := migration.ImportFile(ctx, db, writeManifest(t, manifest))
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if p.Username != "carol" {
		t.Errorf("username not normalised: %q", p.Username)
	}

	bundle, err := repo.NewProfileRepo(db).GetBundle(ctx, "carol")
	if err != nil {
		t.Fatalf("GetBundle: %v", err)
	}
	if len(bundle.Links) != 1 || bundle.Links[0].Title != "Portfolio" {
		t.Errorf("expected only the active link, got %+v", bundle.Links)
	}
	if len(bundle.Services) != 2 || bundle.Services[0].Currency != "EUR" || bundle.Services[0].Position != 0 {
		t.Errorf("unexpected services: %+v", bundle.Services)
	}
	if len(bundle.Social) != 1 || bundle.Social[0].Platform != "instagram" {
		t.Errorf("unexpected social links: %+v", bundle.Social)
	}

	hash, err := repo.NewProfileRepo(db).PasswordHash(ctx, "carol")
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2hunter2")) != nil {
		t.Errorf("password not stored as bcrypt hash: %v", err)
	}

	if _, err := migration.ImportFile(ctx, db, writeManifest(t, manifest)); !errors.Is(err, migration.ErrProfileExists) {
		t.Errorf("expected ErrProfileExists, got %v", err)
	}
}

func TestManifestValidation(t *testing.T) {
	cases := map[string]string{
		"bad username":   "username: '!x'\n",
		"link scheme":    "username: dave\nlinks:\n  - title: x\n    url: ftp://x\n",
		"price type":     "username: dave\nservices:\n  - title: x\n    price_type: monthly\n",
		"negative price": "username: dave\nservices:\n  - title: x\n    price_cents: -1\n",
		"social url":     "username: dave\nsocial:\n  - platform: x\n    url: nope\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := migration.LoadManifest(writeManifest(t, body)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSetPassword(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	testutil.SeedProfile(t, db, "erin", testutil.SeedOptions{})

	if err := migration.SetPassword(ctx, db, "erin", "short"); err == nil {
		t.Error("expected short password to be rejected")
	}
	if err := migration.SetPassword(ctx, db, "erin", "a much longer secret"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	hash, _ := repo.NewProfileRepo(db).PasswordHash(ctx, "erin")
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("a much longer secret")) != nil {
		t.Error("new password does not verify")
	}
	if err := migration.SetPassword(ctx, db, "nobody", "a much longer secret"); err == nil {
		t.Error("expected error for unknown profile")
	}
}
