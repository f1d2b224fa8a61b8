package week

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coachdesk/internal/adapters/storage"
	domain "coachdesk/internal/domain/week"
)

const selectColumns = "SELECT id, athlete_uid, template_id, title, created_at FROM week"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new WeekStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts a new Week.
// PRE: entity has been validated
// POST: Week is persisted, or ErrDuplicate when (athlete, template) already exists
func (s *SQLiteStore) Create(ctx context.Context, entity domain.Week) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO week (id, athlete_uid, template_id, title, created_at) VALUES (?, ?, ?, ?, ?)",
		entity.ID, entity.AthleteUID, entity.TemplateID, entity.Title, storage.FormatTime(entity.CreatedAt),
	)
	if storage.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// Save updates the mutable fields of an existing Week.
// PRE: entity exists
// POST: Title is updated
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Week) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE week SET title = ? WHERE id = ? AND athlete_uid = ?",
		entity.Title, entity.ID, entity.AthleteUID,
	)
	return err
}

// Delete removes one Week of an athlete.
// PRE: athleteUID and weekID are non-empty
// POST: Week is removed, or a not-found error is returned
func (s *SQLiteStore) Delete(ctx context.Context, athleteUID, weekID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM week WHERE id = ? AND athlete_uid = ?", weekID, athleteUID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("week not found: %w", sql.ErrNoRows)
	}
	return nil
}

// GetByID retrieves a Week of an athlete.
// PRE: athleteUID and weekID are non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, athleteUID, weekID string) (domain.Week, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ? AND athlete_uid = ?", weekID, athleteUID)
	entity, err := scanWeek(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Week{}, fmt.Errorf("week not found: %w", err)
	}
	return entity, err
}

// ListByAthlete retrieves an athlete's Weeks newest first.
// PRE: athleteUID is non-empty
// POST: Returns matching entities
func (s *SQLiteStore) ListByAthlete(ctx context.Context, athleteUID string) ([]domain.Week, error) {
	return s.list(ctx, selectColumns+" WHERE athlete_uid = ? ORDER BY created_at DESC, id", athleteUID)
}

// ListByTemplate retrieves every Week referencing a template, across all athletes.
// PRE: templateID is non-empty
// POST: Returns matching entities
func (s *SQLiteStore) ListByTemplate(ctx context.Context, templateID string) ([]domain.Week, error) {
	return s.list(ctx, selectColumns+" WHERE template_id = ? ORDER BY athlete_uid, id", templateID)
}

// ExistsForTemplate reports whether the athlete already holds a Week for templateID.
// PRE: athleteUID and templateID are non-empty
// POST: Returns true iff a matching week exists
func (s *SQLiteStore) ExistsForTemplate(ctx context.Context, athleteUID, templateID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM week WHERE athlete_uid = ? AND template_id = ?",
		athleteUID, templateID,
	).Scan(&n)
	return n > 0, err
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Week, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Week
	for rows.Next() {
		entity, err := scanWeek(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// scanWeek extracts a Week from a row scanner function.
func scanWeek(scan func(dest ...any) error) (domain.Week, error) {
	var entity domain.Week
	var createdAt string
	if err := scan(&entity.ID, &entity.AthleteUID, &entity.TemplateID, &entity.Title, &createdAt); err != nil {
		return domain.Week{}, err
	}
	entity.CreatedAt, _ = storage.ParseTime(createdAt)
	return entity, nil
}
