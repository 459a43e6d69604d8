package usecases_test

import (
    "context"
    "errors"
    "strings"
    "testing"

    "linkhub-gateway/internal/application/usecases"
    derrors "linkhub-gateway/internal/domain/errors"
    repo "linkhub-gateway/internal/infrastructure/repository/sqlite"
    "linkhub-gateway/internal/testutil"
)

func TestAPIKeyUseCase_SecretReturnedOnce(t *testing.T) {
    db := testutil.OpenDB(t)
    owner := testutil.SeedProfile(t, db, "alice", testutil.SeedOptions{})
    uc := usecases.NewAPIKeyUseCase(repo.NewAPIKeyRepo(db))
    ctx := context.Background()

    key, err := uc.Create(ctx, owner.ID, usecases.CreateAPIKeyInput{Name: "agent", Permissions: []string{"read", "inquire"}, RateLimit: 50})
    if err != nil { t.Fatalf("create key: %v", err) }
    if !strings.HasPrefix(key.Secret, "lh_") { t.Fatalf("expected raw secret on create, got %q", key.Secret) }
    if !strings.HasPrefix(key.Secret, key.KeyPrefix) { t.Fatalf("prefix %q is not a prefix of the secret", key.KeyPrefix) }

    keys, err := uc.List(ctx, owner.ID)
    if err != nil { t.Fatalf("list keys: %v", err) }
    if len(keys) != 1 { t.Fatalf("expected 1 key, got %d", len(keys)) }
    if keys[0].Secret != "" { t.Fatal("listing must never carry the secret") }
    if keys[0].KeyPrefix != key.KeyPrefix { t.Errorf("prefix mismatch: %q vs %q", keys[0].KeyPrefix, key.KeyPrefix) }
    if keys[0].RateLimit != 50 || len(keys[0].Permissions) != 2 { t.Errorf("unexpected stored key: %+v", keys[0]) }
}

func TestAPIKeyUseCase_Validation(t *testing.T) {
    db := testutil.OpenDB(t)
    owner := testutil.SeedProfile(t, db, "alice", testutil.SeedOptions{})
    uc := usecases.NewAPIKeyUseCase(repo.NewAPIKeyRepo(db))
    ctx := context.Background()

    cases := []usecases.CreateAPIKeyInput{
        {Name: "", Permissions: []string{"read"}},
        {Name: "bad perm", Permissions: []string{"admin"}},
        {Name: "bad limit", Permissions: []string{"read"}, RateLimit: 75},
    }
    for _, in := range cases {
        if _, err := uc.Create(ctx, owner.ID, in); !errors.Is(err, derrors.ErrValidation) {
            t.Errorf("Create(%+v) error = %v, want validation error", in, err)
        }
    }

    key, err := uc.Create(ctx, owner.ID, usecases.CreateAPIKeyInput{Name: "defaults"})
    if err != nil { t.Fatalf("create with defaults: %v", err) }
    if key.RateLimit != 100 || len(key.Permissions) != 1 || key.Permissions[0] != "read" {
        t.Errorf("unexpected defaults: %+v", key)
    }
}

func TestAPIKeyUseCase_UpdateAndOwnership(t *testing.T) {
    db := testutil.OpenDB(t)
    alice := testutil.SeedProfile(t, db, "alice", testutil.SeedOptions{})
    bob := testutil.SeedProfile(t, db, "bob", testutil.SeedOptions{})
    uc := usecases.NewAPIKeyUseCase(repo.NewAPIKeyRepo(db))
    ctx := context.Background()

    key, err := uc.Create(ctx, alice.ID, usecases.CreateAPIKeyInput{Name: "agent"})
    if err != nil { t.Fatalf("create key: %v", err) }

    inactive := false
    limit := 1000
    perms := []string{"read", "write"}
    updated, err := uc.Update(ctx, alice.ID, key.ID, usecases.APIKeyUpdatePatch{IsActive: &inactive, RateLimit: &limit, Permissions: &perms})
    if err != nil { t.Fatalf("update: %v", err) }
    if updated.IsActive || updated.RateLimit != 1000 || len(updated.Permissions) != 2 {
        t.Errorf("update not applied: %+v", updated)
    }

    if _, err := uc.Update(ctx, bob.ID, key.ID, usecases.APIKeyUpdatePatch{IsActive: &inactive}); !errors.Is(err, derrors.ErrAPIKeyNotFound) {
        t.Errorf("foreign update error = %v, want not found", err)
    }
    if err := uc.Delete(ctx, bob.ID, key.ID); !errors.Is(err, derrors.ErrAPIKeyNotFound) {
        t.Errorf("foreign delete error = %v, want not found", err)
    }
    if err := uc.Delete(ctx, alice.ID, key.ID); err != nil { t.Fatalf("delete: %v", err) }
    if _, err := uc.Get(ctx, alice.ID, key.ID); !errors.Is(err, derrors.ErrAPIKeyNotFound) {
        t.Errorf("get after delete error = %v, want not found", err)
    }
}
