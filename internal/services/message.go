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

// MessageRepository provides access to the contact inbox.
type MessageRepository interface {
	// Snapshot returns every message, oldest first.
	Snapshot(ctx context.Context) ([]models.Message, error)

	// Get returns a single message by ID.
	Get(ctx context.Context, id string) (*models.Message, error)

	// Create stores a new message with status "new".
	Create(ctx context.Context, msg *models.Message) error

	// MarkRead moves a "new" message to "read". Replied messages keep their status.
	MarkRead(ctx context.Context, id string) error

	// Reply records the admin's reply and marks the message replied.
	Reply(ctx context.Context, id, reply string, at time.Time) error

	// Delete removes a message by ID.
	Delete(ctx context.Context, id string) error
}

// Compile-time interface guard.
var _ MessageRepository = (*SQLiteMessageRepository)(nil)

// SQLiteMessageRepository implements MessageRepository using SQLite.
type SQLiteMessageRepository struct {
	db *sql.DB
}

// NewSQLiteMessageRepository creates a MessageRepository.
func NewSQLiteMessageRepository(db *sql.DB) *SQLiteMessageRepository {
	return &SQLiteMessageRepository{db: db}
}

var messageColumns = []string{
	"id", "name", "email", "subject", "body", "status", "reply", "created_at", "replied_at",
}

func (r *SQLiteMessageRepository) Snapshot(ctx context.Context) ([]models.Message, error) {
	query, args, err := builder.Select(messageColumns...).From("messages").OrderBy("created_at", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build message snapshot: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

func (r *SQLiteMessageRepository) Get(ctx context.Context, id string) (*models.Message, error) {
	query, args, err := builder.Select(messageColumns...).From("messages").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get message: %w", err)
	}

	m, err := scanMessage(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get message %q: %w", id, err)
	}
	return m, nil
}

func (r *SQLiteMessageRepository) Create(ctx context.Context, m *models.Message) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.Status = models.MessageNew
	m.Reply = ""
	m.RepliedAt = nil

	query, args, err := builder.Insert("messages").
		Columns("id", "name", "email", "subject", "body", "status", "created_at").
		Values(m.ID, m.Name, m.Email, m.Subject, m.Body, string(m.Status), m.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build create message: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (r *SQLiteMessageRepository) MarkRead(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET status = ? WHERE id = ? AND status = ?`,
		string(models.MessageRead), id, string(models.MessageNew))
	if err != nil {
		return fmt.Errorf("mark message %q read: %w", id, err)
	}
	return nil
}

func (r *SQLiteMessageRepository) Reply(ctx context.Context, id, reply string, at time.Time) error {
	query, args, err := builder.Update("messages").
		Set("reply", reply).
		Set("status", string(models.MessageReplied)).
		Set("replied_at", at.UTC()).
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reply message: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("reply to message %q: %w", id, err)
	}
	return affectedOne(res, "reply to message")
}

func (r *SQLiteMessageRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message %q: %w", id, err)
	}
	return affectedOne(res, "delete message")
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var m models.Message
	var status string
	var repliedAt sql.NullTime
	err := row.Scan(
		&m.ID, &m.Name, &m.Email, &m.Subject, &m.Body, &status, &m.Reply, &m.CreatedAt, &repliedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Status = models.MessageStatus(status)
	if repliedAt.Valid {
		t := repliedAt.Time
		m.RepliedAt = &t
	}
	return &m, nil
}
