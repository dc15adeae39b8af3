package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/HerbHall/tabula/pkg/plugin"
)

func TestMigrate_AppliesOnce(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	calls := 0
	migrations := []plugin.Migration{{
		Version:     1,
		Description: "create widgets",
		Up: func(tx *sql.Tx) error {
			calls++
			_, err := tx.Exec(`CREATE TABLE widgets (id TEXT PRIMARY KEY)`)
			return err
		},
	}}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := s.Migrate(ctx, "test", migrations); err != nil {
			t.Fatalf("Migrate #%d: %v", i+1, err)
		}
	}
	if calls != 1 {
		t.Errorf("migration ran %d times, want 1", calls)
	}

	if _, err := s.DB().ExecContext(ctx, `INSERT INTO widgets (id) VALUES ('w1')`); err != nil {
		t.Fatalf("insert into migrated table: %v", err)
	}
}

func TestMigrate_FailureRollsBack(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	boom := errors.New("boom")
	err = s.Migrate(context.Background(), "test", []plugin.Migration{{
		Version:     1,
		Description: "half applied",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`CREATE TABLE half (id TEXT)`); err != nil {
				return err
			}
			return boom
		},
	}})
	if !errors.Is(err, boom) {
		t.Fatalf("Migrate error = %v, want %v", err, boom)
	}

	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'half'`).Scan(&n); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if n != 0 {
		t.Error("table from failed migration survived rollback")
	}
}

func TestTx_Commit(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	if _, err := s.DB().ExecContext(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	err = s.Tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES ('a', '1')`)
		return err
	})
	if err != nil {
		t.Fatalf("Tx: %v", err)
	}

	var v string
	if err := s.DB().QueryRowContext(ctx, `SELECT v FROM kv WHERE k = 'a'`).Scan(&v); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v != "1" {
		t.Errorf("v = %q, want 1", v)
	}
}
