package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coachdesk/internal/application/session"
	"coachdesk/internal/domain/access"
	domainProfile "coachdesk/internal/domain/profile"
	"coachdesk/internal/domain/subscription"
)

func handleFor(role string) session.Handle {
	p := domainProfile.New("u-"+role, role+"@coachdesk.app", fixedTime)
	p.Role = role
	return session.Handle{User: &session.User{UID: p.UID, Email: p.Email}, Profile: &p}
}

func gatedRequest(h *session.Handle, accept string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/templates", nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if h != nil {
		req = req.WithContext(session.WithHandle(req.Context(), *h))
	}
	return req
}

var okView = StaticView{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})}

// TestGate_Decisions verifies the response for every gate decision.
func TestGate_Decisions(t *testing.T) {
	coach := handleFor(domainProfile.RoleCoach)
	athlete := handleFor(domainProfile.RoleAthlete)
	anonymous := session.Handle{}
	noProfile := session.Handle{User: &session.User{UID: "u1"}}

	tests := []struct {
		name         string
		required     string
		handle       *session.Handle
		accept       string
		wantStatus   int
		wantLocation string
	}{
		{"loading", domainProfile.RoleCoach, nil, "", http.StatusServiceUnavailable, ""},
		{"anonymous json", domainProfile.RoleCoach, &anonymous, "", http.StatusUnauthorized, ""},
		{"anonymous html", domainProfile.RoleCoach, &anonymous, "text/html", http.StatusSeeOther, access.LoginPath},
		{"profile not loaded", domainProfile.RoleAthlete, &noProfile, "", http.StatusServiceUnavailable, ""},
		{"coach passes athlete gate", domainProfile.RoleAthlete, &coach, "", http.StatusTeapot, ""},
		{"coach passes coach gate", domainProfile.RoleCoach, &coach, "", http.StatusTeapot, ""},
		{"athlete fails coach gate json", domainProfile.RoleCoach, &athlete, "", http.StatusForbidden, access.AthleteHome},
		{"athlete fails coach gate html", domainProfile.RoleCoach, &athlete, "text/html", http.StatusSeeOther, access.AthleteHome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Gate(tt.required, okView).ServeHTTP(rr, gatedRequest(tt.handle, tt.accept))
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := rr.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
		})
	}
}

// TestGate_UnauthorizedPanel verifies the manual navigation options.
func TestGate_UnauthorizedPanel(t *testing.T) {
	athlete := handleFor(domainProfile.RoleAthlete)
	rr := httptest.NewRecorder()
	Gate(domainProfile.RoleCoach, okView).ServeHTTP(rr, gatedRequest(&athlete, "application/json"))

	var panel Panel
	if err := json.NewDecoder(rr.Body).Decode(&panel); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if panel.Reason != "unauthorized" || panel.Redirect != access.AthleteHome || len(panel.Options) != 3 {
		t.Errorf("panel = %+v", panel)
	}
	if panel.Options[0].Href != access.AthleteHome || panel.Options[2].Href != access.CoachHome {
		t.Errorf("options = %+v", panel.Options)
	}
}

// TestGate_ViewFactoryReceivesIdentity verifies the factory form of a gated view.
func TestGate_ViewFactoryReceivesIdentity(t *testing.T) {
	coach := handleFor(domainProfile.RoleCoach)
	var seen session.Identity
	view := ViewFactory(func(id session.Identity) http.Handler {
		seen = id
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	})

	Gate(domainProfile.RoleCoach, view).ServeHTTP(httptest.NewRecorder(), gatedRequest(&coach, ""))
	if seen.User.UID != coach.User.UID || seen.Profile.Role != domainProfile.RoleCoach {
		t.Errorf("identity = %+v", seen)
	}
}

// TestRequireActiveSubscription verifies expired athletes are blocked.
func TestRequireActiveSubscription(t *testing.T) {
	active := handleFor(domainProfile.RoleAthlete)
	expired := handleFor(domainProfile.RoleAthlete)
	expired.Profile.SubscriptionExpiresAt = subscription.Instant{At: fixedTime.Add(-24 * time.Hour)}

	mw := RequireActiveSubscription(func() time.Time { return fixedTime })
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	for _, tc := range []struct {
		name   string
		handle session.Handle
		want   int
	}{
		{"active", active, http.StatusNoContent},
		{"expired", expired, http.StatusForbidden},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/me/weeks", nil)
			req = req.WithContext(session.WithHandle(context.Background(), tc.handle))
			mw(next).ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Errorf("status = %d, want %d", rr.Code, tc.want)
			}
		})
	}
}
