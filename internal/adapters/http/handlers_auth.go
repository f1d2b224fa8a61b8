package web

import (
	"log/slog"
	"net/http"
	"time"

	"coachdesk/internal/adapters/http/middleware"
	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/application/session"
	"coachdesk/internal/domain/access"
	"coachdesk/internal/domain/profile"
	"coachdesk/internal/domain/subscription"
)

// profileView is the JSON form of a profile.
type profileView struct {
	UID          string              `json:"uid"`
	Email        string              `json:"email"`
	Role         string              `json:"role"`
	FirstName    string              `json:"firstName"`
	LastName     string              `json:"lastName"`
	Name         string              `json:"name"`
	Subscription subscription.Status `json:"subscription"`
}

func newProfileView(p profile.Profile) profileView {
	return profileView{
		UID:          p.UID,
		Email:        p.Email,
		Role:         p.Role,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Name:         p.DisplayName(),
		Subscription: subscription.Evaluate(p.SubscriptionExpiresAt, timeNow()),
	}
}

// sessionView is what GET /api/session returns.
type sessionView struct {
	State   string             `json:"state"`
	User    *session.User      `json:"user,omitempty"`
	Profile *profileView       `json:"profile,omitempty"`
	Home    string             `json:"home,omitempty"`
	Options []access.NavOption `json:"options,omitempty"`
}

type credentialsRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	RememberMe bool   `json:"rememberMe"`
}

// countLogin increments the login counter when metrics are enabled.
func countLogin(outcome string) {
	if metricsManager != nil {
		metricsManager.CounterLogins.WithLabelValues(outcome).Inc()
	}
}

// startSession creates a session and sets its cookie.
// PRE: accountID identifies an existing account
// POST: cookie lifetime matches the session TTL
func startSession(w http.ResponseWriter, r *http.Request, accountID, email string, rememberMe bool) error {
	ttl := sessionTTL
	if rememberMe {
		ttl = rememberMeTTL
	}
	token, err := sessions.Create(r.Context(), accountID, email, ttl)
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(w, token, ttl, secureCookies)
	return nil
}

// handleRegister handles POST /api/register.
func handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if err := strictDecode(r, &req); err != nil {
		badRequest(w)
		return
	}

	res, err := orchestrators.ExecuteRegister(r.Context(), orchestrators.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, orchestrators.RegisterDeps{
		AccountStore: stores.AccountStore,
		ProfileStore: stores.ProfileStore,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if err := startSession(w, r, res.AccountID, res.Email, req.RememberMe); err != nil {
		internalError(w, err)
		return
	}
	countLogin("registered")
	writeJSON(w, http.StatusCreated, newProfileView(res.Profile))
}

// handleLogin handles POST /api/login.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req credentialsRequest
	if err := strictDecode(r, &req); err != nil {
		badRequest(w)
		return
	}

	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{
		AccountStore: stores.AccountStore,
		ProfileStore: stores.ProfileStore,
		Now:          timeNow,
	})
	if err != nil {
		countLogin("failed")
		writeError(w, err)
		return
	}
	if err := startSession(w, r, res.AccountID, res.Email, req.RememberMe); err != nil {
		internalError(w, err)
		return
	}
	countLogin("succeeded")

	view := sessionView{State: "signed_in", User: &session.User{UID: res.AccountID, Email: res.Email}}
	if res.Profile != nil {
		pv := newProfileView(*res.Profile)
		view.Profile = &pv
		view.Home = access.HomePath(res.Profile.Role)
	}
	writeJSON(w, http.StatusOK, view)
}

// handleLogout handles POST /api/logout.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if token, ok := middleware.SessionToken(r); ok {
		if err := sessions.Delete(r.Context(), token); err != nil {
			slog.Warn("auth_event", "event", "logout_delete_failed", "error", err)
		}
	}
	middleware.ClearSessionCookie(w, secureCookies)
	w.WriteHeader(http.StatusNoContent)
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleToken handles POST /api/token: credentials in, bearer JWT out.
func handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if tokens == nil {
		writeJSONError(w, http.StatusNotFound, "bearer tokens are disabled")
		return
	}
	var req credentialsRequest
	if err := strictDecode(r, &req); err != nil {
		badRequest(w)
		return
	}

	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{
		AccountStore: stores.AccountStore,
		ProfileStore: stores.ProfileStore,
		Now:          timeNow,
	})
	if err != nil {
		countLogin("failed")
		writeError(w, err)
		return
	}
	raw, expires, err := tokens.Issue(res.AccountID, res.Email)
	if err != nil {
		internalError(w, err)
		return
	}
	countLogin("token")
	slog.Info("auth_event", "event", "token_issued", "account_id", res.AccountID)
	writeJSON(w, http.StatusOK, tokenResponse{Token: raw, ExpiresAt: expires})
}

// handleSession handles GET /api/session: the resolved session handle.
func handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	h := session.FromContext(r.Context())
	view := sessionView{State: "signed_out"}
	if h.User != nil {
		view.State = "profile_not_loaded"
		view.User = h.User
	}
	if h.User != nil && h.Profile != nil {
		pv := newProfileView(*h.Profile)
		view.State = "signed_in"
		view.Profile = &pv
		view.Home = access.HomePath(h.Profile.Role)
		view.Options = access.NavigationOptions(h.Profile.Role)
	}
	writeJSON(w, http.StatusOK, view)
}

type profileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// profileHandler serves PUT /api/profile for the signed-in user.
func profileHandler(id session.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			methodNotAllowed(w)
			return
		}
		var req profileRequest
		if err := strictDecode(r, &req); err != nil {
			badRequest(w)
			return
		}
		p, err := orchestrators.ExecuteUpdateProfile(r.Context(), orchestrators.UpdateProfileInput{
			UID:       id.User.UID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		}, orchestrators.UpdateProfileDeps{
			ProfileStore: stores.ProfileStore,
			Now:          timeNow,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newProfileView(p))
	})
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// passwordHandler serves PUT /api/me/password.
func passwordHandler(id session.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			methodNotAllowed(w)
			return
		}
		var req passwordRequest
		if err := strictDecode(r, &req); err != nil {
			badRequest(w)
			return
		}
		err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
			AccountID:       id.User.UID,
			CurrentPassword: req.CurrentPassword,
			NewPassword:     req.NewPassword,
		}, orchestrators.ChangePasswordDeps{AccountStore: stores.AccountStore})
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
