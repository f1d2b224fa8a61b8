package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coachdesk/internal/adapters/storage"
	domain "coachdesk/internal/domain/profile"
	"coachdesk/internal/domain/subscription"
)

const selectColumns = `SELECT uid, email, role, first_name, last_name,
	subscription_kind, subscription_value, created_at, updated_at FROM profile`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ProfileStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByUID retrieves a Profile by account uid.
// PRE: uid is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByUID(ctx context.Context, uid string) (domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE uid = ?", uid)
	entity, err := scanProfile(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, fmt.Errorf("profile not found: %w", err)
	}
	return entity, err
}

// Save persists a Profile to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Profile) error {
	expiry := entity.SubscriptionExpiresAt
	if expiry == nil {
		expiry = subscription.Unset{}
	}
	kind, value := expiry.Encode()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile (uid, email, role, first_name, last_name,
			subscription_kind, subscription_value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			email=excluded.email,
			role=excluded.role,
			first_name=excluded.first_name,
			last_name=excluded.last_name,
			subscription_kind=excluded.subscription_kind,
			subscription_value=excluded.subscription_value,
			updated_at=excluded.updated_at`,
		entity.UID,
		entity.Email,
		entity.Role,
		entity.FirstName,
		entity.LastName,
		string(kind),
		value,
		storage.FormatTime(entity.CreatedAt),
		storage.FormatTime(entity.UpdatedAt),
	)
	return err
}

// ListByRole retrieves every Profile with the given role, ordered by name then email.
// PRE: role is a valid role
// POST: Returns matching entities
func (s *SQLiteStore) ListByRole(ctx context.Context, role string) ([]domain.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" WHERE role = ? ORDER BY last_name, first_name, email", role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Profile
	for rows.Next() {
		entity, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// scanProfile extracts a Profile from a row scanner function.
func scanProfile(scan func(dest ...any) error) (domain.Profile, error) {
	var entity domain.Profile
	var kind, value, createdAt, updatedAt string
	err := scan(
		&entity.UID,
		&entity.Email,
		&entity.Role,
		&entity.FirstName,
		&entity.LastName,
		&kind,
		&value,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Profile{}, err
	}
	entity.SubscriptionExpiresAt = subscription.Decode(subscription.Kind(kind), value)
	entity.CreatedAt, _ = storage.ParseTime(createdAt)
	entity.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return entity, nil
}
