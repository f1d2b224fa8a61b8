package session

import (
	"context"
	"testing"
	"time"

	"coachdesk/internal/domain/access"
	"coachdesk/internal/domain/profile"
)

// TestHandle_Subject tests the mapping to access decisions.
func TestHandle_Subject(t *testing.T) {
	coach := profile.New("c1", "c@coachdesk.app", time.Now())
	coach.Role = profile.RoleCoach

	tests := []struct {
		name   string
		handle Handle
		want   access.Decision
	}{
		{"loading", Handle{Loading: true}, access.Loading},
		{"anonymous", Handle{}, access.MustLogIn},
		{"no profile", Handle{User: &User{UID: "u1"}}, access.ProfileNotLoaded},
		{"coach", Handle{User: &User{UID: "c1"}, Profile: &coach}, access.Granted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := access.Decide(profile.RoleCoach, tt.handle.Subject()); got != tt.want {
				t.Errorf("Decide = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestHandle_RoleDefaultsToAthlete tests the nil-profile role fallback.
func TestHandle_RoleDefaultsToAthlete(t *testing.T) {
	h := Handle{User: &User{UID: "u1"}}
	if h.Role() != profile.RoleAthlete {
		t.Errorf("Role() = %q", h.Role())
	}
	if _, ok := h.Identity(); ok {
		t.Error("identity must not resolve without a profile")
	}
}

// TestFromContext tests context round trips.
func TestFromContext(t *testing.T) {
	if !FromContext(context.Background()).Loading {
		t.Error("empty context should read as loading")
	}
	ctx := WithHandle(context.Background(), Handle{User: &User{UID: "u1"}})
	h := FromContext(ctx)
	if h.Loading || h.User == nil || h.User.UID != "u1" {
		t.Errorf("FromContext = %+v", h)
	}
}
