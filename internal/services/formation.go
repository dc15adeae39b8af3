package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/tabula/pkg/models"
)

// FormationRepository provides access to training formations.
type FormationRepository interface {
	// Snapshot returns every formation, published or not.
	Snapshot(ctx context.Context) ([]models.Formation, error)

	// Get returns a single formation by ID.
	Get(ctx context.Context, id string) (*models.Formation, error)

	// Upsert inserts or replaces a formation. If formation.ID is empty, a UUID is generated.
	Upsert(ctx context.Context, formation *models.Formation) error

	// Count returns the number of formations.
	Count(ctx context.Context) (int, error)
}

// Compile-time interface guard.
var _ FormationRepository = (*SQLiteFormationRepository)(nil)

// SQLiteFormationRepository implements FormationRepository using SQLite.
type SQLiteFormationRepository struct {
	db *sql.DB
}

// NewSQLiteFormationRepository creates a FormationRepository.
func NewSQLiteFormationRepository(db *sql.DB) *SQLiteFormationRepository {
	return &SQLiteFormationRepository{db: db}
}

var formationColumns = []string{
	"id", "title", "description", "category", "level", "instructor",
	"price", "duration_hours", "published", "featured", "start_date", "updated_at",
}

func (r *SQLiteFormationRepository) Snapshot(ctx context.Context) ([]models.Formation, error) {
	query, args, err := builder.Select(formationColumns...).From("formations").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build formation snapshot: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list formations: %w", err)
	}
	defer rows.Close()

	formations := []models.Formation{}
	for rows.Next() {
		f, err := scanFormation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan formation: %w", err)
		}
		formations = append(formations, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate formations: %w", err)
	}
	return formations, nil
}

func (r *SQLiteFormationRepository) Get(ctx context.Context, id string) (*models.Formation, error) {
	query, args, err := builder.Select(formationColumns...).From("formations").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get formation: %w", err)
	}

	f, err := scanFormation(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get formation %q: %w", id, err)
	}
	return f, nil
}

func (r *SQLiteFormationRepository) Upsert(ctx context.Context, f *models.Formation) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = time.Now().UTC()
	}

	var start sql.NullTime
	if f.StartDate != nil {
		start = sql.NullTime{Time: *f.StartDate, Valid: true}
	}

	query, args, err := builder.Replace("formations").Columns(formationColumns...).Values(
		f.ID, f.Title, f.Description, f.Category, string(f.Level), f.Instructor,
		f.Price, f.DurationHours, f.Published, f.Featured, start, f.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert formation: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert formation %q: %w", f.ID, err)
	}
	return nil
}

func (r *SQLiteFormationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM formations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count formations: %w", err)
	}
	return n, nil
}

func scanFormation(row rowScanner) (*models.Formation, error) {
	var f models.Formation
	var level string
	var start sql.NullTime
	err := row.Scan(
		&f.ID, &f.Title, &f.Description, &f.Category, &level, &f.Instructor,
		&f.Price, &f.DurationHours, &f.Published, &f.Featured, &start, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.Level = models.Level(level)
	if start.Valid {
		t := start.Time
		f.StartDate = &t
	}
	return &f, nil
}
