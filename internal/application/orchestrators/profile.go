package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"coachdesk/internal/domain/profile"
	"coachdesk/internal/domain/subscription"
)

// ProfileStoreForProfile defines the store interface needed by profile updates.
type ProfileStoreForProfile interface {
	GetByUID(ctx context.Context, uid string) (profile.Profile, error)
	Save(ctx context.Context, p profile.Profile) error
}

// UpdateProfileInput carries a self-service name change.
type UpdateProfileInput struct {
	UID       string
	FirstName string
	LastName  string
}

// UpdateProfileDeps holds dependencies for UpdateProfile.
type UpdateProfileDeps struct {
	ProfileStore ProfileStoreForProfile
	Now          func() time.Time
}

// ExecuteUpdateProfile changes the caller's own names.
// PRE: input.UID is the signed-in user
// POST: First and last name are updated
// INVARIANT: Role and subscription are untouched
func ExecuteUpdateProfile(ctx context.Context, input UpdateProfileInput, deps UpdateProfileDeps) (profile.Profile, error) {
	p, err := deps.ProfileStore.GetByUID(ctx, input.UID)
	if err != nil {
		return profile.Profile{}, err
	}
	if err := p.SetNames(input.FirstName, input.LastName, deps.Now()); err != nil {
		return profile.Profile{}, err
	}
	if err := deps.ProfileStore.Save(ctx, p); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

// SetSubscriptionInput carries a coach's expiry change. Clear removes the expiry.
type SetSubscriptionInput struct {
	AthleteUID string
	Date       string // YYYY-MM-DD
	Clear      bool
}

// SetSubscriptionDeps holds dependencies for SetSubscription.
type SetSubscriptionDeps struct {
	ProfileStore ProfileStoreForProfile
	Now          func() time.Time
	Location     *time.Location
}

var ErrNotAthlete = errors.New("subscriptions can only be set on athletes")

// ExecuteSetSubscription sets or clears an athlete's subscription expiry.
// The date is interpreted as local midnight in deps.Location.
// PRE: caller is a coach
// POST: Profile expiry is an Instant, or Unset when cleared
func ExecuteSetSubscription(ctx context.Context, input SetSubscriptionInput, deps SetSubscriptionDeps) (profile.Profile, error) {
	var expiry subscription.Expiry = subscription.Unset{}
	if !input.Clear {
		loc := deps.Location
		if loc == nil {
			loc = time.Local
		}
		at, err := subscription.FromDate(input.Date, loc)
		if err != nil {
			return profile.Profile{}, err
		}
		expiry = at
	}

	p, err := deps.ProfileStore.GetByUID(ctx, input.AthleteUID)
	if err != nil {
		return profile.Profile{}, err
	}
	if p.Role != profile.RoleAthlete {
		return profile.Profile{}, ErrNotAthlete
	}

	p.SetSubscription(expiry, deps.Now())
	if err := deps.ProfileStore.Save(ctx, p); err != nil {
		return profile.Profile{}, err
	}

	slog.Info("subscription_event", "event", "expiry_set", "athlete_uid", p.UID, "cleared", input.Clear, "date", input.Date)
	return p, nil
}
