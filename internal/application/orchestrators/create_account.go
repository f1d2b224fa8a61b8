package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"coachdesk/internal/domain/account"
	"coachdesk/internal/domain/profile"
)

// AccountStoreForCreate defines the store interface needed by Register and SeedCoach.
type AccountStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context) (int, error)
}

// RegisterInput carries input for self-service registration.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// RegisterDeps holds dependencies for Register and SeedCoach.
type RegisterDeps struct {
	AccountStore AccountStoreForCreate
	ProfileStore ProfileStoreForSession
	GenerateID   func() string
	Now          func() time.Time
}

// RegisterResult carries the created identity.
type RegisterResult struct {
	AccountID string
	Email     string
	Profile   profile.Profile
}

var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// ExecuteRegister creates an account and its athlete profile.
// PRE: Valid email, password >= 12 chars, first and last name
// POST: Account created with hashed password; profile created with role athlete
// INVARIANT: Email must be unique
func ExecuteRegister(ctx context.Context, input RegisterInput, deps RegisterDeps) (RegisterResult, error) {
	now := deps.Now()
	acct := account.Account{
		ID:        deps.GenerateID(),
		Email:     account.NormalizeEmail(input.Email),
		CreatedAt: now,
	}
	if err := acct.Validate(); err != nil {
		return RegisterResult{}, err
	}

	p := profile.New(acct.ID, acct.Email, now)
	if err := p.SetNames(input.FirstName, input.LastName, now); err != nil {
		return RegisterResult{}, err
	}

	if _, err := deps.AccountStore.GetByEmail(ctx, acct.Email); err == nil {
		return RegisterResult{}, ErrEmailAlreadyExists
	}

	if err := acct.SetPassword(input.Password); err != nil {
		return RegisterResult{}, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return RegisterResult{}, err
	}
	if err := deps.ProfileStore.Save(ctx, p); err != nil {
		return RegisterResult{}, err
	}

	slog.Info("auth_event", "event", "account_created", "email", acct.Email, "role", p.Role)
	return RegisterResult{AccountID: acct.ID, Email: acct.Email, Profile: p}, nil
}

// ExecuteSeedCoach creates the first coach account when no accounts exist.
// PRE: Database is initialized
// POST: Coach account and profile created if count == 0 and credentials are set
func ExecuteSeedCoach(ctx context.Context, email, password string, deps RegisterDeps) error {
	if email == "" || password == "" {
		return nil
	}
	count, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := deps.Now()
	acct := account.Account{
		ID:        deps.GenerateID(),
		Email:     account.NormalizeEmail(email),
		CreatedAt: now,
	}
	if err := acct.Validate(); err != nil {
		return err
	}
	if err := acct.SetPassword(password); err != nil {
		return err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return err
	}

	p := profile.New(acct.ID, acct.Email, now)
	p.Role = profile.RoleCoach
	if err := deps.ProfileStore.Save(ctx, p); err != nil {
		return err
	}

	slog.Info("auth_event", "event", "coach_seeded", "email", acct.Email)
	return nil
}
