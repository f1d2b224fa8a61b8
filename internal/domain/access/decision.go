package access

import "coachdesk/internal/domain/profile"

// Home paths per role.
const (
	AthleteHome = "/athlete/weeks"
	CoachHome   = "/coach/program"
	LoginPath   = "/login"
)

// Decision is the outcome of checking a session against a required role.
type Decision int

// Decision values, in the order the gate evaluates them.
const (
	Loading Decision = iota
	MustLogIn
	ProfileNotLoaded
	Granted
	Unauthorized
)

// String returns the wire name of the decision.
func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case MustLogIn:
		return "must_log_in"
	case ProfileNotLoaded:
		return "profile_not_loaded"
	case Granted:
		return "granted"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Subject is what the gate knows about the caller.
type Subject struct {
	Loading       bool
	Authenticated bool
	ProfileLoaded bool
	Role          string
}

// Decide maps a subject to a gate decision for the required role.
// PRE: required is a valid role
// POST: returns exactly one Decision
func Decide(required string, s Subject) Decision {
	switch {
	case s.Loading:
		return Loading
	case !s.Authenticated:
		return MustLogIn
	case !s.ProfileLoaded:
		return ProfileNotLoaded
	case Satisfies(s.Role, required):
		return Granted
	default:
		return Unauthorized
	}
}

// Satisfies reports whether actual grants access to pages requiring required.
// Coach is a superset of athlete.
func Satisfies(actual, required string) bool {
	if actual == required {
		return true
	}
	return actual == profile.RoleCoach && required == profile.RoleAthlete
}

// HomePath returns the landing page for a role. Unknown roles land on the athlete area.
func HomePath(role string) string {
	if role == profile.RoleCoach {
		return CoachHome
	}
	return AthleteHome
}

// NavOption is a manual navigation escape hatch shown on the unauthorized panel.
type NavOption struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// NavigationOptions lists the escape hatches for a caller with the given role,
// their own area first.
func NavigationOptions(role string) []NavOption {
	return []NavOption{
		{Label: "Go to my area", Href: HomePath(role)},
		{Label: "Athlete area", Href: AthleteHome},
		{Label: "Coach area", Href: CoachHome},
	}
}
