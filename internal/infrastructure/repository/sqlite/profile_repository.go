package sqlite

import (
    "context"

    dbpkg "linkhub-gateway/internal/database"
    "linkhub-gateway/internal/domain/entities"
    derrors "linkhub-gateway/internal/domain/errors"
    "linkhub-gateway/internal/domain/repositories"
)

type ProfileRepo struct {
    db *dbpkg.Database
}

var _ repositories.ProfileRepository = (*ProfileRepo)(nil)

func NewProfileRepo(db *dbpkg.Database) *ProfileRepo { return &ProfileRepo{db: db} }

func (r *ProfileRepo) GetByUsername(ctx context.Context, username string) (*entities.Profile, error) {
    db, err := handle(r.db)
    if err != nil { return nil, err }
    p, err := db.GetProfileByUsername(ctx, username)
    if err != nil { return nil, mapNotFound(err, derrors.ErrProfileNotFound) }
    return &entities.Profile{
        ID:          p.ID,
        Username:    p.Username,
        DisplayName: p.DisplayName,
        Bio:         p.Bio,
        AvatarURL:   p.AvatarURL,
        CreatedAt:   p.CreatedAt,
    }, nil
}

func (r *ProfileRepo) GetBundle(ctx context.Context, username string) (*entities.ProfileBundle, error) {
    profile, err := r.GetByUsername(ctx, username)
    if err != nil { return nil, err }
    db, err := handle(r.db)
    if err != nil { return nil, err }

    bundle := &entities.ProfileBundle{Profile: *profile}

    links, err := db.GetActiveLinks(ctx, profile.ID)
    if err != nil { return nil, err }
    for _, l := range links {
        bundle.Links = append(bundle.Links, entities.Link{
            ID: l.ID, ProfileID: l.ProfileID, Title: l.Title, URL: l.URL, Position: l.Position, IsActive: l.IsActive,
        })
    }

    services, err := db.GetActiveServices(ctx, profile.ID)
    if err != nil { return nil, err }
    for _, s := range services {
        bundle.Services = append(bundle.Services, entities.Service{
            ID:          s.ID,
            ProfileID:   s.ProfileID,
            Title:       s.Title,
            Description: s.Description,
            Category:    s.Category,
            PriceCents:  s.PriceCents,
            Currency:    s.Currency,
            PriceType:   entities.PriceType(s.PriceType),
            Position:    s.Position,
            IsActive:    s.IsActive,
        })
    }

    social, err := db.GetSocialLinks(ctx, profile.ID)
    if err != nil { return nil, err }
    for _, s := range social {
        bundle.Social = append(bundle.Social, entities.SocialLink{
            ID: s.ID, ProfileID: s.ProfileID, Platform: s.Platform, URL: s.URL, Position: s.Position,
        })
    }
    return bundle, nil
}

func (r *ProfileRepo) PasswordHash(ctx context.Context, username string) (string, error) {
    db, err := handle(r.db)
    if err != nil { return "", err }
    p, err := db.GetProfileByUsername(ctx, username)
    if err != nil { return "", mapNotFound(err, derrors.ErrProfileNotFound) }
    return p.PasswordHash, nil
}
