package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/tabula/pkg/models"
)

// ProjectRepository provides access to catalog projects.
type ProjectRepository interface {
	// Snapshot returns every project in insertion-independent id order.
	Snapshot(ctx context.Context) ([]models.Project, error)

	// Get returns a single project by ID.
	Get(ctx context.Context, id string) (*models.Project, error)

	// Upsert inserts or replaces a project. If project.ID is empty, a UUID is generated.
	Upsert(ctx context.Context, project *models.Project) error

	// Count returns the number of projects.
	Count(ctx context.Context) (int, error)
}

// Compile-time interface guard.
var _ ProjectRepository = (*SQLiteProjectRepository)(nil)

// SQLiteProjectRepository implements ProjectRepository using SQLite.
type SQLiteProjectRepository struct {
	db *sql.DB
}

// NewSQLiteProjectRepository creates a ProjectRepository. The projects table
// must already exist (see Migrations).
func NewSQLiteProjectRepository(db *sql.DB) *SQLiteProjectRepository {
	return &SQLiteProjectRepository{db: db}
}

var projectColumns = []string{
	"id", "title", "description", "category", "complexity", "status",
	"technologies", "stars", "featured", "repo_url", "updated_at",
}

func (r *SQLiteProjectRepository) Snapshot(ctx context.Context) ([]models.Project, error) {
	query, args, err := builder.Select(projectColumns...).From("projects").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build project snapshot: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func (r *SQLiteProjectRepository) Get(ctx context.Context, id string) (*models.Project, error) {
	query, args, err := builder.Select(projectColumns...).From("projects").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get project: %w", err)
	}

	p, err := scanProject(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project %q: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteProjectRepository) Upsert(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	techJSON, _ := json.Marshal(p.Technologies)
	if p.Technologies == nil {
		techJSON = []byte("[]")
	}

	var stars sql.NullInt64
	if p.Stars != nil {
		stars = sql.NullInt64{Int64: int64(*p.Stars), Valid: true}
	}

	query, args, err := builder.Replace("projects").Columns(projectColumns...).Values(
		p.ID, p.Title, p.Description, p.Category, string(p.Complexity), string(p.Status),
		string(techJSON), stars, p.Featured, p.RepoURL, p.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert project: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert project %q: %w", p.ID, err)
	}
	return nil
}

func (r *SQLiteProjectRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var complexity, status, techJSON string
	var stars sql.NullInt64
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Category, &complexity, &status,
		&techJSON, &stars, &p.Featured, &p.RepoURL, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Complexity = models.Complexity(complexity)
	p.Status = models.ProjectStatus(status)
	if stars.Valid {
		n := int(stars.Int64)
		p.Stars = &n
	}
	_ = json.Unmarshal([]byte(techJSON), &p.Technologies)
	return &p, nil
}
