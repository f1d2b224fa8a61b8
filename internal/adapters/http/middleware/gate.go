package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"coachdesk/internal/application/session"
	"coachdesk/internal/domain/access"
)

// GatedView is the region a gate protects: either a StaticView that ignores
// the caller or a ViewFactory that is built from the resolved identity.
type GatedView interface {
	build(id session.Identity) http.Handler
}

// StaticView is a gated region that consumes nothing from the session.
type StaticView struct {
	Handler http.Handler
}

func (v StaticView) build(session.Identity) http.Handler { return v.Handler }

// ViewFactory builds the gated region from the resolved identity.
type ViewFactory func(id session.Identity) http.Handler

func (f ViewFactory) build(id session.Identity) http.Handler { return f(id) }

// Panel is the JSON body shown in place of a gated region.
type Panel struct {
	Reason   string             `json:"reason"`
	Message  string             `json:"message"`
	Redirect string             `json:"redirect,omitempty"`
	Options  []access.NavOption `json:"options,omitempty"`
}

// Gate returns a handler that renders view only for callers holding required.
// PRE: the request passed through Auth
// POST: exactly one of view, a redirect or a Panel is written
func Gate(required string, view GatedView) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := session.FromContext(r.Context())
		decision := access.Decide(required, h.Subject())

		switch decision {
		case access.Loading:
			WritePanel(w, http.StatusServiceUnavailable, Panel{Reason: decision.String(), Message: "session is loading"})
		case access.MustLogIn:
			if WantsHTML(r) {
				http.Redirect(w, r, access.LoginPath, http.StatusSeeOther)
				return
			}
			WritePanel(w, http.StatusUnauthorized, Panel{Reason: decision.String(), Message: "please log in", Redirect: access.LoginPath})
		case access.ProfileNotLoaded:
			WritePanel(w, http.StatusServiceUnavailable, Panel{Reason: decision.String(), Message: "profile not loaded"})
		case access.Unauthorized:
			role := h.Role()
			home := access.HomePath(role)
			slog.Warn("auth_denied", "account_id", h.User.UID, "role", role, "required", required, "path", r.URL.Path)
			if WantsHTML(r) {
				http.Redirect(w, r, home, http.StatusSeeOther)
				return
			}
			w.Header().Set("Location", home)
			WritePanel(w, http.StatusForbidden, Panel{
				Reason:   decision.String(),
				Message:  "you do not have access to this area",
				Redirect: home,
				Options:  access.NavigationOptions(role),
			})
		case access.Granted:
			id, _ := h.Identity()
			view.build(id).ServeHTTP(w, r)
		}
	})
}

// ReasonSubscriptionExpired is the panel reason for a lapsed subscription.
const ReasonSubscriptionExpired = "subscription_expired"

// RequireActiveSubscription blocks callers whose subscription has expired at now().
// Callers without a loaded profile pass through; the gate handles them.
func RequireActiveSubscription(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := session.FromContext(r.Context())
			if h.Profile != nil && h.Profile.SubscriptionExpired(now()) {
				slog.Info("subscription_event", "event", "access_blocked", "athlete_uid", h.Profile.UID, "path", r.URL.Path)
				WritePanel(w, http.StatusForbidden, Panel{
					Reason:  ReasonSubscriptionExpired,
					Message: "your subscription has expired; contact your coach to renew",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WritePanel writes p as JSON with the given status.
func WritePanel(w http.ResponseWriter, status int, p Panel) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("panel_write_failed", "error", err)
	}
}

// WantsHTML reports whether the client prefers an HTML response.
func WantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
