package profile

import (
	"errors"
	"strings"
	"time"

	"coachdesk/internal/domain/subscription"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Role constants
const (
	RoleCoach   = "coach"
	RoleAthlete = "athlete"
)

// DefaultRole is assigned to profiles created at first sign-in.
const DefaultRole = RoleAthlete

// fallbackDisplayName is shown when a profile has neither names nor email.
const fallbackDisplayName = "Athlete"

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleCoach, RoleAthlete}

// Domain errors
var (
	ErrEmptyUID       = errors.New("profile uid is required")
	ErrInvalidRole    = errors.New("role must be one of: coach, athlete")
	ErrEmptyFirstName = errors.New("first name is required")
	ErrEmptyLastName  = errors.New("last name is required")
	ErrNameTooLong    = errors.New("names cannot exceed 100 characters")
)

// Profile is the per-user document carrying role, names and subscription.
type Profile struct {
	UID                   string
	Email                 string
	Role                  string
	FirstName             string
	LastName              string
	SubscriptionExpiresAt subscription.Expiry
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// New returns the profile synthesised at a user's first sign-in.
// PRE: uid is non-empty
// POST: Role is DefaultRole, subscription unset
func New(uid, email string, now time.Time) Profile {
	return Profile{
		UID:                   uid,
		Email:                 email,
		Role:                  DefaultRole,
		SubscriptionExpiresAt: subscription.Unset{},
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// Validate checks if the Profile has valid data.
// PRE: Profile struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Profile) Validate() error {
	if p.UID == "" {
		return ErrEmptyUID
	}
	if !IsValidRole(p.Role) {
		return ErrInvalidRole
	}
	if len(p.FirstName) > MaxNameLength || len(p.LastName) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// RefreshFromSignIn updates the fields a sign-in is allowed to touch.
// INVARIANT: Role and subscription are never modified
func (p *Profile) RefreshFromSignIn(email string, now time.Time) {
	if email != "" {
		p.Email = email
	}
	p.UpdatedAt = now
}

// SetNames replaces the first and last name after trimming.
// PRE: both names non-empty after trimming
// POST: names set, UpdatedAt bumped
func (p *Profile) SetNames(first, last string, now time.Time) error {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" {
		return ErrEmptyFirstName
	}
	if last == "" {
		return ErrEmptyLastName
	}
	if len(first) > MaxNameLength || len(last) > MaxNameLength {
		return ErrNameTooLong
	}
	p.FirstName = first
	p.LastName = last
	p.UpdatedAt = now
	return nil
}

// SetSubscription replaces the subscription expiry.
// POST: SubscriptionExpiresAt is raw (Unset when nil), UpdatedAt bumped
func (p *Profile) SetSubscription(raw subscription.Expiry, now time.Time) {
	if raw == nil {
		raw = subscription.Unset{}
	}
	p.SubscriptionExpiresAt = raw
	p.UpdatedAt = now
}

// DisplayName returns "First Last", else the email, else a generic label.
// INVARIANT: Profile fields are not mutated
func (p Profile) DisplayName() string {
	if p.FirstName != "" && p.LastName != "" {
		return p.FirstName + " " + p.LastName
	}
	if p.Email != "" {
		return p.Email
	}
	return fallbackDisplayName
}

// IsCoach returns true if the profile has the coach role.
// INVARIANT: Profile fields are not mutated
func (p Profile) IsCoach() bool {
	return p.Role == RoleCoach
}

// SubscriptionExpired reports whether the subscription has lapsed at now.
// INVARIANT: Profile fields are not mutated
func (p Profile) SubscriptionExpired(now time.Time) bool {
	return subscription.IsExpired(p.SubscriptionExpiresAt, now)
}

// IsValidRole reports whether role is a known role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
