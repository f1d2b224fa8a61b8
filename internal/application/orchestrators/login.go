package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"coachdesk/internal/domain/account"
	"coachdesk/internal/domain/profile"
)

// AccountStoreForLogin defines the store interface needed by Login.
type AccountStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the result of a successful login. Profile is nil when
// it could not be loaded; the session is still valid.
type LoginResult struct {
	AccountID string
	Email     string
	Profile   *profile.Profile
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStoreForLogin
	ProfileStore ProfileStoreForSession
	Now          func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
)

// ExecuteLogin validates credentials and ensures the user's profile exists.
// PRE: Valid email and password provided
// POST: Returns account info on success, records failed login on failure
// INVARIANT: Account must not be locked
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	email := account.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	now := deps.Now()

	acct, err := deps.AccountStore.GetByEmail(ctx, email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}

	if acct.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "email", email, "reason", "locked")
		return LoginResult{}, ErrAccountLocked
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin(now)
		_ = deps.AccountStore.Save(ctx, acct)
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		return LoginResult{}, ErrInvalidCredentials
	}

	if acct.FailedLogins > 0 || !acct.LockedUntil.IsZero() {
		acct.ResetFailedLogins()
		_ = deps.AccountStore.Save(ctx, acct)
	}

	result := LoginResult{AccountID: acct.ID, Email: acct.Email}
	p, err := ExecuteEnsureProfile(ctx, EnsureProfileInput{UID: acct.ID, Email: acct.Email}, EnsureProfileDeps{
		ProfileStore: deps.ProfileStore,
		Now:          deps.Now,
	})
	if err != nil {
		slog.Warn("profile_ensure_failed", "uid", acct.ID, "error", err)
	} else {
		result.Profile = &p
	}

	slog.Info("auth_event", "event", "login_success", "email", email)
	return result, nil
}
