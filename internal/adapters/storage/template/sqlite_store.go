package template

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"coachdesk/internal/adapters/storage"
	domain "coachdesk/internal/domain/template"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new TemplateStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Template by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Template, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, title, created_at, updated_at FROM template WHERE id = ?", id)
	entity, err := scanTemplate(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Template{}, fmt.Errorf("template not found: %w", err)
	}
	return entity, err
}

// Save persists a Template to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Template) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO template (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title=excluded.title, updated_at=excluded.updated_at`,
		entity.ID, entity.Title, storage.FormatTime(entity.CreatedAt), storage.NullTime(entity.UpdatedAt),
	)
	return err
}

// Delete removes a Template row. Days and weeks are removed by the caller.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM template WHERE id = ?", id)
	return err
}

// List retrieves Templates newest first, optionally filtered by a
// case-insensitive title search.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Template, error) {
	where, args := filterClause(filter)
	query := "SELECT id, title, created_at, updated_at FROM template" + where + " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Template
	for rows.Next() {
		entity, err := scanTemplate(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Count returns the number of Templates matching the filter's search.
// PRE: none
// POST: Returns count ignoring Limit and Offset
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := filterClause(filter)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM template"+where, args...).Scan(&count)
	return count, err
}

// ListDays retrieves the Days of a template sorted by order.
// PRE: templateID is non-empty
// POST: Returns days in display order (ties keep insertion order)
func (s *SQLiteStore) ListDays(ctx context.Context, templateID string) ([]domain.Day, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, template_id, day_order, workout FROM template_day WHERE template_id = ? ORDER BY rowid",
		templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []domain.Day
	for rows.Next() {
		var d domain.Day
		if err := rows.Scan(&d.ID, &d.TemplateID, &d.Order, &d.Workout); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	domain.SortDays(days)
	return days, nil
}

// GetDay retrieves a single Day of a template.
// PRE: templateID and dayID are non-empty
// POST: Returns the day or an error if not found
func (s *SQLiteStore) GetDay(ctx context.Context, templateID, dayID string) (domain.Day, error) {
	var d domain.Day
	err := s.db.QueryRowContext(ctx,
		"SELECT id, template_id, day_order, workout FROM template_day WHERE template_id = ? AND id = ?",
		templateID, dayID,
	).Scan(&d.ID, &d.TemplateID, &d.Order, &d.Workout)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Day{}, fmt.Errorf("day not found: %w", err)
	}
	return d, err
}

// SaveDay persists a Day.
// PRE: value has been validated
// POST: Day is persisted (insert or update)
func (s *SQLiteStore) SaveDay(ctx context.Context, d domain.Day) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO template_day (id, template_id, day_order, workout) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET day_order=excluded.day_order, workout=excluded.workout`,
		d.ID, d.TemplateID, d.Order, d.Workout,
	)
	return err
}

// DeleteDay removes one Day of a template.
// PRE: templateID and dayID are non-empty
// POST: Day is removed
func (s *SQLiteStore) DeleteDay(ctx context.Context, templateID, dayID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM template_day WHERE template_id = ? AND id = ?", templateID, dayID)
	return err
}

// DeleteDays removes every Day of a template.
// PRE: templateID is non-empty
// POST: No days remain for templateID
func (s *SQLiteStore) DeleteDays(ctx context.Context, templateID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM template_day WHERE template_id = ?", templateID)
	return err
}

func filterClause(filter ListFilter) (string, []any) {
	search := strings.TrimSpace(filter.Search)
	if search == "" {
		return "", nil
	}
	return " WHERE title LIKE ? COLLATE NOCASE", []any{"%" + search + "%"}
}

// scanTemplate extracts a Template from a row scanner function.
func scanTemplate(scan func(dest ...any) error) (domain.Template, error) {
	var entity domain.Template
	var createdAt string
	var updatedAt sql.NullString
	if err := scan(&entity.ID, &entity.Title, &createdAt, &updatedAt); err != nil {
		return domain.Template{}, err
	}
	entity.CreatedAt, _ = storage.ParseTime(createdAt)
	if updatedAt.Valid && updatedAt.String != "" {
		entity.UpdatedAt, _ = storage.ParseTime(updatedAt.String)
	}
	return entity, nil
}
