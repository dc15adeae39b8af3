package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/tabula/pkg/models"
)

// RegistrationRepository provides access to formation enrollments.
type RegistrationRepository interface {
	// Snapshot returns every registration with its formation title resolved.
	Snapshot(ctx context.Context) ([]models.Registration, error)

	// Get returns a single registration by ID.
	Get(ctx context.Context, id string) (*models.Registration, error)

	// Create inserts a pending registration. Returns ErrNotFound when the
	// formation does not exist and ErrAlreadyExists when the email is
	// already enrolled in it.
	Create(ctx context.Context, reg *models.Registration) error

	// UpdateStatus moves a registration to status.
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error

	// Delete removes a registration by ID.
	Delete(ctx context.Context, id string) error
}

// Compile-time interface guard.
var _ RegistrationRepository = (*SQLiteRegistrationRepository)(nil)

// SQLiteRegistrationRepository implements RegistrationRepository using SQLite.
type SQLiteRegistrationRepository struct {
	db *sql.DB
}

// NewSQLiteRegistrationRepository creates a RegistrationRepository.
func NewSQLiteRegistrationRepository(db *sql.DB) *SQLiteRegistrationRepository {
	return &SQLiteRegistrationRepository{db: db}
}

var registrationSelect = builder.Select(
	"r.id", "r.formation_id", "COALESCE(f.title, '')", "r.full_name", "r.email",
	"r.phone", "r.status", "r.created_at",
).From("registrations r").LeftJoin("formations f ON f.id = r.formation_id")

func (r *SQLiteRegistrationRepository) Snapshot(ctx context.Context) ([]models.Registration, error) {
	query, args, err := registrationSelect.OrderBy("r.created_at", "r.id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build registration snapshot: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	regs := []models.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return regs, nil
}

func (r *SQLiteRegistrationRepository) Get(ctx context.Context, id string) (*models.Registration, error) {
	query, args, err := registrationSelect.Where("r.id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get registration: %w", err)
	}

	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registration %q: %w", id, err)
	}
	return reg, nil
}

func (r *SQLiteRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	if reg.ID == "" {
		reg.ID = uuid.New().String()
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}
	if reg.Status == "" {
		reg.Status = models.RegistrationPending
	}
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))

	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM formations WHERE id = ?`, reg.FormationID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check formation %q: %w", reg.FormationID, err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	var dup int
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE formation_id = ? AND email = ?`,
		reg.FormationID, reg.Email).Scan(&dup)
	if err != nil {
		return fmt.Errorf("check duplicate registration: %w", err)
	}
	if dup > 0 {
		return ErrAlreadyExists
	}

	query, args, err := builder.Insert("registrations").
		Columns("id", "formation_id", "full_name", "email", "phone", "status", "created_at").
		Values(reg.ID, reg.FormationID, reg.FullName, reg.Email, reg.Phone, string(reg.Status), reg.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build create registration: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

func (r *SQLiteRegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error {
	query, args, err := builder.Update("registrations").
		Set("status", string(status)).
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update registration: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update registration %q: %w", id, err)
	}
	return affectedOne(res, "update registration")
}

func (r *SQLiteRegistrationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete registration %q: %w", id, err)
	}
	return affectedOne(res, "delete registration")
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var reg models.Registration
	var status string
	err := row.Scan(
		&reg.ID, &reg.FormationID, &reg.FormationTitle, &reg.FullName, &reg.Email,
		&reg.Phone, &status, &reg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	reg.Status = models.RegistrationStatus(status)
	return &reg, nil
}
