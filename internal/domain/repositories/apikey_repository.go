package repositories

import (
    "context"

    "linkhub-gateway/internal/domain/entities"
)

// APIKeyUpdate carries optional field changes; nil means unchanged.
type APIKeyUpdate struct {
    Name        *string
    Permissions *[]string
    RateLimit   *int
    IsActive    *bool
}

type APIKeyRepository interface {
    Create(ctx context.Context, key *entities.APIKey, keyHash string) error
    GetByID(ctx context.Context, id string) (*entities.APIKey, error)
    GetByHash(ctx context.Context, keyHash string) (*entities.APIKey, error)
    ListByProfile(ctx context.Context, profileID string) ([]entities.APIKey, error)
    Update(ctx context.Context, id string, upd APIKeyUpdate) error
    TouchLastUsed(ctx context.Context, id string) error
    Delete(ctx context.Context, id string) error
}
