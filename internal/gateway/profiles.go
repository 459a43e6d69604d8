package gateway

import (
	"context"

	"linkhub-gateway/internal/domain/entities"
	domainerrors "linkhub-gateway/internal/domain/errors"
	"linkhub-gateway/internal/domain/repositories"
)

// Profiles loads bundles from storage, answering the demo username from memory.
type Profiles struct {
	repo         repositories.ProfileRepository
	demoUsername string
}

func NewProfiles(repo repositories.ProfileRepository, demoUsername string) *Profiles {
	if demoUsername == "" {
		demoUsername = DefaultDemoUsername
	}
	return &Profiles{repo: repo, demoUsername: demoUsername}
}

func (p *Profiles) IsDemo(username string) bool {
	return username == p.demoUsername
}

// Load returns the bundle for username and whether it is the demo profile.
func (p *Profiles) Load(ctx context.Context, username string) (*entities.ProfileBundle, bool, error) {
	if p.IsDemo(username) {
		return DemoBundle(username), true, nil
	}
	if username == "" || p.repo == nil {
		return nil, false, domainerrors.ErrProfileNotFound
	}
	b, err := p.repo.GetBundle(ctx, username)
	if err != nil {
		return nil, false, err
	}
	return b, false, nil
}

// ProfileID resolves only the id, skipping the demo profile.
func (p *Profiles) ProfileID(ctx context.Context, username string) (string, error) {
	if p.IsDemo(username) || p.repo == nil {
		return "", domainerrors.ErrProfileNotFound
	}
	profile, err := p.repo.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return profile.ID, nil
}
