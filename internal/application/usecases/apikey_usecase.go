package usecases

import (
    "context"
    "strings"
    "time"

    "github.com/google/uuid"

    "linkhub-gateway/internal/apikey"
    "linkhub-gateway/internal/domain/entities"
    derrors "linkhub-gateway/internal/domain/errors"
    "linkhub-gateway/internal/domain/repositories"
)

// APIKeyUseCase is the owner-facing key lifecycle. Every operation is scoped
// to the calling owner's profile.
type APIKeyUseCase struct {
    repo repositories.APIKeyRepository
    now  func() time.Time
}

func NewAPIKeyUseCase(r repositories.APIKeyRepository) *APIKeyUseCase {
    return &APIKeyUseCase{repo: r, now: time.Now}
}

type CreateAPIKeyInput struct {
    Name        string
    Permissions []string
    RateLimit   int
}

// Create generates and stores a new API key. The returned entity carries
// the raw secret in Secret; it is not recoverable afterwards.
func (uc *APIKeyUseCase) Create(ctx context.Context, profileID string, in CreateAPIKeyInput) (*entities.APIKey, error) {
    name := strings.TrimSpace(in.Name)
    if name == "" {
        return nil, validationError("name", "is required")
    }
    perms := apikey.NormalizePermissions(in.Permissions)
    if len(perms) == 0 {
        perms = []string{apikey.PermissionRead}
    }
    if !apikey.ValidatePermissions(perms) {
        return nil, validationError("permissions", "must be drawn from read, write, inquire")
    }
    limit := in.RateLimit
    if limit == 0 { limit = apikey.DefaultRateLimit }
    if !apikey.ValidateRateLimit(limit) {
        return nil, validationError("rate_limit", "must be one of 50, 100, 500, 1000")
    }

    fullKey, keyHash, err := apikey.GenerateAPIKey()
    if err != nil { return nil, err }

    now := uc.now().UTC()
    ent := &entities.APIKey{
        ID:          uuid.NewString(),
        ProfileID:   profileID,
        Name:        name,
        KeyPrefix:   apikey.DisplayPrefix(fullKey),
        Secret:      fullKey,
        Permissions: perms,
        RateLimit:   limit,
        IsActive:    true,
        CreatedAt:   now,
        UpdatedAt:   now,
    }
    if err := uc.repo.Create(ctx, ent, keyHash); err != nil { return nil, err }
    return ent, nil
}

// List returns the owner's keys. Secrets are never populated.
func (uc *APIKeyUseCase) List(ctx context.Context, profileID string) ([]entities.APIKey, error) {
    return uc.repo.ListByProfile(ctx, profileID)
}

// Get loads a key, hiding keys owned by other profiles.
func (uc *APIKeyUseCase) Get(ctx context.Context, profileID, id string) (*entities.APIKey, error) {
    k, err := uc.repo.GetByID(ctx, id)
    if err != nil { return nil, err }
    if k.ProfileID != profileID { return nil, derrors.ErrAPIKeyNotFound }
    return k, nil
}

type APIKeyUpdatePatch struct {
    Name        *string
    Permissions *[]string
    RateLimit   *int
    IsActive    *bool
}

// Update applies patch and returns the stored key.
func (uc *APIKeyUseCase) Update(ctx context.Context, profileID, id string, patch APIKeyUpdatePatch) (*entities.APIKey, error) {
    if _, err := uc.Get(ctx, profileID, id); err != nil { return nil, err }

    upd := repositories.APIKeyUpdate{RateLimit: patch.RateLimit, IsActive: patch.IsActive}
    if patch.Name != nil {
        name := strings.TrimSpace(*patch.Name)
        if name == "" { return nil, validationError("name", "must not be empty") }
        upd.Name = &name
    }
    if patch.Permissions != nil {
        perms := apikey.NormalizePermissions(*patch.Permissions)
        if len(perms) == 0 || !apikey.ValidatePermissions(perms) {
            return nil, validationError("permissions", "must be drawn from read, write, inquire")
        }
        upd.Permissions = &perms
    }
    if patch.RateLimit != nil && !apikey.ValidateRateLimit(*patch.RateLimit) {
        return nil, validationError("rate_limit", "must be one of 50, 100, 500, 1000")
    }

    if err := uc.repo.Update(ctx, id, upd); err != nil { return nil, err }
    return uc.repo.GetByID(ctx, id)
}

func (uc *APIKeyUseCase) Delete(ctx context.Context, profileID, id string) error {
    if _, err := uc.Get(ctx, profileID, id); err != nil { return err }
    return uc.repo.Delete(ctx, id)
}

func validationError(field, msg string) error {
    return derrors.New(derrors.ErrValidation.Code, field+" "+msg, map[string]interface{}{field: msg})
}
