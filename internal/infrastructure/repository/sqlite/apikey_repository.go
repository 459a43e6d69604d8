package sqlite

import (
    "context"

    dbpkg "linkhub-gateway/internal/database"
    "linkhub-gateway/internal/domain/entities"
    derrors "linkhub-gateway/internal/domain/errors"
    "linkhub-gateway/internal/domain/repositories"
)

type APIKeyRepo struct {
    db *dbpkg.Database
}

var _ repositories.APIKeyRepository = (*APIKeyRepo)(nil)

func NewAPIKeyRepo(db *dbpkg.Database) *APIKeyRepo { return &APIKeyRepo{db: db} }

func mapDBToEntity(k *dbpkg.APIKeyRecord) *entities.APIKey {
    if k == nil { return nil }
    return &entities.APIKey{
        ID:          k.ID,
        ProfileID:   k.ProfileID,
        Name:        k.Name,
        KeyPrefix:   k.KeyPrefix,
        Permissions: k.Permissions,
        RateLimit:   k.RateLimit,
        IsActive:    k.IsActive,
        UsageCount:  k.UsageCount,
        LastUsedAt:  k.LastUsedAt,
        CreatedAt:   k.CreatedAt,
        UpdatedAt:   k.UpdatedAt,
    }
}

func (r *APIKeyRepo) Create(ctx context.Context, key *entities.APIKey, keyHash string) error {
    db, err := handle(r.db)
    if err != nil { return err }
    rec := &dbpkg.APIKeyRecord{
        ID:          key.ID,
        ProfileID:   key.ProfileID,
        Name:        key.Name,
        KeyHash:     keyHash,
        KeyPrefix:   key.KeyPrefix,
        Permissions: key.Permissions,
        RateLimit:   key.RateLimit,
        IsActive:    key.IsActive,
        CreatedAt:   key.CreatedAt,
    }
    if err := db.CreateAPIKey(ctx, rec); err != nil { return err }
    key.CreatedAt, key.UpdatedAt = rec.CreatedAt, rec.UpdatedAt
    return nil
}

func (r *APIKeyRepo) GetByID(ctx context.Context, id string) (*entities.APIKey, error) {
    db, err := handle(r.db)
    if err != nil { return nil, err }
    k, err := db.GetAPIKeyByID(ctx, id)
    if err != nil { return nil, mapNotFound(err, derrors.ErrAPIKeyNotFound) }
    return mapDBToEntity(k), nil
}

func (r *APIKeyRepo) GetByHash(ctx context.Context, keyHash string) (*entities.APIKey, error) {
    db, err := handle(r.db)
    if err != nil { return nil, err }
    k, err := db.GetAPIKeyByHash(ctx, keyHash)
    if err != nil { return nil, mapNotFound(err, derrors.ErrAPIKeyNotFound) }
    return mapDBToEntity(k), nil
}

func (r *APIKeyRepo) ListByProfile(ctx context.Context, profileID string) ([]entities.APIKey, error) {
    db, err := handle(r.db)
    if err != nil { return nil, err }
    ks, err := db.ListAPIKeysByProfile(ctx, profileID)
    if err != nil { return nil, err }
    out := make([]entities.APIKey, 0, len(ks))
    for i := range ks {
        out = append(out, *mapDBToEntity(&ks[i]))
    }
    return out, nil
}

func (r *APIKeyRepo) Update(ctx context.Context, id string, upd repositories.APIKeyUpdate) error {
    db, err := handle(r.db)
    if err != nil { return err }
    err = db.UpdateAPIKeyFields(ctx, id, upd.Name, upd.Permissions, upd.RateLimit, upd.IsActive)
    return mapNotFound(err, derrors.ErrAPIKeyNotFound)
}

func (r *APIKeyRepo) TouchLastUsed(ctx context.Context, id string) error {
    db, err := handle(r.db)
    if err != nil { return err }
    return db.UpdateAPIKeyUsage(ctx, id)
}

func (r *APIKeyRepo) Delete(ctx context.Context, id string) error {
    db, err := handle(r.db)
    if err != nil { return err }
    return mapNotFound(db.DeleteAPIKey(ctx, id), derrors.ErrAPIKeyNotFound)
}
