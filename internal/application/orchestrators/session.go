package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"coachdesk/internal/domain/profile"
)

// ProfileStoreForSession defines the store interface needed to ensure a profile.
type ProfileStoreForSession interface {
	GetByUID(ctx context.Context, uid string) (profile.Profile, error)
	Save(ctx context.Context, p profile.Profile) error
}

// EnsureProfileInput carries the signed-in identity.
type EnsureProfileInput struct {
	UID   string
	Email string
}

// EnsureProfileDeps holds dependencies for EnsureProfile.
type EnsureProfileDeps struct {
	ProfileStore ProfileStoreForSession
	Now          func() time.Time
}

// ExecuteEnsureProfile creates the profile of a first-time user with the
// default role, or refreshes the sign-in fields of an existing one.
// PRE: input.UID is non-empty
// POST: A profile exists for UID
// INVARIANT: An existing profile's role and subscription are never changed
func ExecuteEnsureProfile(ctx context.Context, input EnsureProfileInput, deps EnsureProfileDeps) (profile.Profile, error) {
	if input.UID == "" {
		return profile.Profile{}, profile.ErrEmptyUID
	}
	now := deps.Now()

	existing, err := deps.ProfileStore.GetByUID(ctx, input.UID)
	switch {
	case err == nil:
		existing.RefreshFromSignIn(input.Email, now)
		if err := deps.ProfileStore.Save(ctx, existing); err != nil {
			return profile.Profile{}, err
		}
		return existing, nil
	case errors.Is(err, sql.ErrNoRows):
		p := profile.New(input.UID, input.Email, now)
		if err := deps.ProfileStore.Save(ctx, p); err != nil {
			return profile.Profile{}, err
		}
		slog.Info("auth_event", "event", "profile_created", "uid", input.UID, "role", p.Role)
		return p, nil
	default:
		return profile.Profile{}, err
	}
}
