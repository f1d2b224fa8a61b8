// Package session holds the per-request view of who is signed in.
package session

import (
	"context"

	"coachdesk/internal/domain/access"
	"coachdesk/internal/domain/profile"
)

// User is the authenticated identity.
type User struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Handle is the read-only session state resolved for one request.
// Profile is nil when it has not been loaded; Loading is true only before the
// resolver is installed.
type Handle struct {
	User    *User            `json:"user"`
	Profile *profile.Profile `json:"profile"`
	Loading bool             `json:"loading"`
}

// Identity is the resolved caller handed to gated views.
type Identity struct {
	User    User
	Profile profile.Profile
}

// Role returns the caller's role. A missing profile reads as athlete.
func (h Handle) Role() string {
	if h.Profile == nil {
		return profile.DefaultRole
	}
	return h.Profile.Role
}

// Subject converts the handle into the input of an access decision.
func (h Handle) Subject() access.Subject {
	return access.Subject{
		Loading:       h.Loading,
		Authenticated: h.User != nil,
		ProfileLoaded: h.Profile != nil,
		Role:          h.Role(),
	}
}

// Identity returns the resolved identity. ok is false unless both the user
// and the profile are present.
func (h Handle) Identity() (Identity, bool) {
	if h.User == nil || h.Profile == nil {
		return Identity{}, false
	}
	return Identity{User: *h.User, Profile: *h.Profile}, true
}

type contextKey struct{}

// WithHandle stores h in ctx.
func WithHandle(ctx context.Context, h Handle) context.Context {
	return context.WithValue(ctx, contextKey{}, h)
}

// FromContext returns the handle stored in ctx. A context without one yields
// a loading handle.
func FromContext(ctx context.Context) Handle {
	h, ok := ctx.Value(contextKey{}).(Handle)
	if !ok {
		return Handle{Loading: true}
	}
	return h
}
