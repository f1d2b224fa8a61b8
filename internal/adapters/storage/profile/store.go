package profile

import (
	"context"

	domain "coachdesk/internal/domain/profile"
)

// Store persists Profile state.
type Store interface {
	GetByUID(ctx context.Context, uid string) (domain.Profile, error)
	Save(ctx context.Context, value domain.Profile) error
	ListByRole(ctx context.Context, role string) ([]domain.Profile, error)
}
