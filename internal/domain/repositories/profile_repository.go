package repositories

import (
    "context"

    "linkhub-gateway/internal/domain/entities"
)

type ProfileRepository interface {
    GetByUsername(ctx context.Context, username string) (*entities.Profile, error)
    // GetBundle loads the profile with its active links and services, ordered by position.
    GetBundle(ctx context.Context, username string) (*entities.ProfileBundle, error)
    PasswordHash(ctx context.Context, username string) (string, error)
}

type InquiryRepository interface {
    Create(ctx context.Context, inq *entities.ServiceInquiry) error
    // ListByProfile returns inquiries newest first.
    ListByProfile(ctx context.Context, profileID string) ([]entities.ServiceInquiry, error)
}

type VisitRepository interface {
    Record(ctx context.Context, visit *entities.AgentVisit) error
}
