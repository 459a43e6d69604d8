package sqlite_test

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/google/uuid"

    "linkhub-gateway/internal/apikey"
    "linkhub-gateway/internal/database"
    "linkhub-gateway/internal/domain/entities"
    derrors "linkhub-gateway/internal/domain/errors"
    "linkhub-gateway/internal/domain/repositories"
    repo "linkhub-gateway/internal/infrastructure/repository/sqlite"
    "linkhub-gateway/internal/testutil"
)

func TestProfileRepo_Bundle(t *testing.T) {
    db := testutil.OpenDB(t)
    testutil.SeedProfile(t, db, "alice", testutil.SeedOptions{WithServices: true})
    profiles := repo.NewProfileRepo(db)
    ctx := context.Background()

    b, err := profiles.GetBundle(ctx, "alice")
    if err != nil {
        t.Fatalf("GetBundle: %v", err)
    }
    if len(b.Links) != 2 || b.Links[0].Title != "First" || b.Links[1].Title != "Second" {
        t.Errorf("links must be active and ordered by position: %+v", b.Links)
    }
    if len(b.Services) != 1 || b.Services[0].PriceType != entities.PriceHourly {
        t.Errorf("unexpected services: %+v", b.Services)
    }
    if len(b.Social) != 1 {
        t.Errorf("unexpected social links: %+v", b.Social)
    }

    if _, err := profiles.GetBundle(ctx, "ghost"); !errors.Is(err, derrors.ErrProfileNotFound) {
        t.Errorf("expected ErrProfileNotFound, got %v", err)
    }
}

func TestAPIKeyRepo_Lifecycle(t *testing.T) {
    db := testutil.OpenDB(t)
    p := testutil.SeedProfile(t, db, "alice", testutil.SeedOptions{})
    keys := repo.NewAPIKeyRepo(db)
    ctx := context.Background()

    secret, hash, err := apikey.GenerateAPIKey()
    if err != nil {
        t.Fatalf("GenerateAPIKey: %v", err)
    }
    k := &entities.APIKey{
        ID:          uuid.NewString(),
        ProfileID:   p.ID,
        Name:        "agent",
        KeyPrefix:   apikey.DisplayPrefix(secret),
        Permissions: []string{"read", "inquire"},
        RateLimit:   50,
        IsActive:    true,
    }
    if err := keys.Create(ctx, k, hash); err != nil {
        t.Fatalf("Create: %v", err)
    }

    got, err := keys.GetByHash(ctx, apikey.HashAPIKey(secret))
    if err != nil || got.ID != k.ID {
        t.Fatalf("GetByHash: %v %+v", err, got)
    }
    if !apikey.HasPermission(got.Permissions, "inquire") || got.RateLimit != 50 {
        t.Errorf("fields not round-tripped: %+v", got)
    }

    if err := keys.TouchLastUsed(ctx, k.ID); err != nil {
        t.Fatalf("TouchLastUsed: %v", err)
    }
    got, _ = keys.GetByID(ctx, k.ID)
    if got.UsageCount != 1 || got.LastUsedAt == nil {
        t.Errorf("usage not recorded: %+v", got)
    }

    inactive, limit := false, 500
    if err := keys.Update(ctx, k.ID, repositories.APIKeyUpdate{IsActive: &inactive, RateLimit: &limit}); err != nil {
        t.Fatalf("Update: %v", err)
    }
    got, _ = keys.GetByID(ctx, k.ID)
    if got.IsActive || got.RateLimit != 500 || got.Name != "agent" {
        t.Errorf("partial update wrong: %+v", got)
    }

    list, err := keys.ListByProfile(ctx, p.ID)
    if err != nil || len(list) != 1 {
        t.Fatalf("ListByProfile: %v %d", err, len(list))
    }

    if err := keys.Delete(ctx, k.ID); err != nil {
        t.Fatalf("Delete: %v", err)
    }
    if _, err := keys.GetByID(ctx, k.ID); !errors.Is(err, derrors.ErrAPIKeyNotFound) {
        t.Errorf("expected ErrAPIKeyNotFound, got %v", err)
    }
}

func TestInquiryAndVisitRepos(t *testing.T) {
    db := testutil.OpenDB(t)
    p := testutil.SeedProfile(t, db, "alice", testutil.SeedOptions{})
    ctx := context.Background()
    inquiries := repo.NewInquiryRepo(db)
    visits := repo.NewVisitRepo(db)

    base := time.Now().UTC().Add(-time.Hour)
    for i, name := range []string{"older", "newer"} {
        err := inquiries.Create(ctx, &entities.ServiceInquiry{
            ID:        uuid.NewString(),
            ProfileID: p.ID,
            Name:      name,
            Email:     name + "@example.com",
            Source:    entities.InquirySourceAgent,
            Status:    entities.InquiryStatusNew,
            CreatedAt: base.Add(time.Duration(i) * time.Minute),
        })
        if err != nil {
            t.Fatalf("Create inquiry: %v", err)
        }
    }
    list, err := inquiries.ListByProfile(ctx, p.ID)
    if err != nil || len(list) != 2 || list[0].Name != "newer" {
        t.Fatalf("expected newest first, got %v %+v", err, list)
    }

    for _, agent := range []string{"Claude", "Claude", "ChatGPT"} {
        err := visits.Record(ctx, &entities.AgentVisit{
            ID: uuid.NewString(), ProfileID: p.ID, AgentName: agent, Method: "tools/list", Source: "mcp", CreatedAt: base,
        })
        if err != nil {
            t.Fatalf("Record visit: %v", err)
        }
    }

    a, err := db.GetVisitAnalytics(ctx, p.ID, database.AnalyticsTimeRange{Start: base.Add(-time.Minute), End: time.Now().UTC()})
    if err != nil {
        t.Fatalf("GetVisitAnalytics: %v", err)
    }
    if a.TotalVisits != 3 || a.Inquiries != 2 {
        t.Errorf("totals wrong: %+v", a)
    }
    if len(a.Agents) != 2 || a.Agents[0].AgentName != "Claude" || a.Agents[0].Visits != 2 {
        t.Errorf("agent breakdown wrong: %+v", a.Agents)
    }
    if len(a.Methods) != 1 || a.Methods[0].Count != 3 || len(a.DailyTrends) == 0 {
        t.Errorf("method/trend breakdown wrong: %+v %+v", a.Methods, a.DailyTrends)
    }
}
