package services

import (
	"database/sql"

	"github.com/HerbHall/tabula/pkg/plugin"
)

// Migrations creates the dataset tables. They are registered under the
// "datasets" name in the shared _migrations table.
func Migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create projects table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE projects (
						id           TEXT PRIMARY KEY,
						title        TEXT NOT NULL,
						description  TEXT NOT NULL DEFAULT '',
						category     TEXT NOT NULL DEFAULT '',
						complexity   TEXT NOT NULL DEFAULT 'beginner',
						status       TEXT NOT NULL DEFAULT 'planned',
						technologies TEXT NOT NULL DEFAULT '[]',
						stars        INTEGER,
						featured     INTEGER NOT NULL DEFAULT 0,
						repo_url     TEXT NOT NULL DEFAULT '',
						updated_at   DATETIME NOT NULL
					)`)
				return err
			},
		},
		{
			Version:     2,
			Description: "create formations table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE formations (
						id             TEXT PRIMARY KEY,
						title          TEXT NOT NULL,
						description    TEXT NOT NULL DEFAULT '',
						category       TEXT NOT NULL DEFAULT '',
						level          TEXT NOT NULL DEFAULT 'beginner',
						instructor     TEXT NOT NULL DEFAULT '',
						price          REAL NOT NULL DEFAULT 0,
						duration_hours INTEGER NOT NULL DEFAULT 0,
						published      INTEGER NOT NULL DEFAULT 0,
						featured       INTEGER NOT NULL DEFAULT 0,
						start_date     DATETIME,
						updated_at     DATETIME NOT NULL
					)`)
				return err
			},
		},
		{
			Version:     3,
			Description: "create registrations table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE registrations (
						id           TEXT PRIMARY KEY,
						formation_id TEXT NOT NULL REFERENCES formations(id) ON DELETE CASCADE,
						full_name    TEXT NOT NULL,
						email        TEXT NOT NULL,
						phone        TEXT NOT NULL DEFAULT '',
						status       TEXT NOT NULL DEFAULT 'pending',
						created_at   DATETIME NOT NULL,
						UNIQUE (formation_id, email)
					)`)
				if err != nil {
					return err
				}
				_, err = tx.Exec(`CREATE INDEX idx_registrations_formation ON registrations(formation_id)`)
				return err
			},
		},
		{
			Version:     4,
			Description: "create messages table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE messages (
						id         TEXT PRIMARY KEY,
						name       TEXT NOT NULL,
						email      TEXT NOT NULL,
						subject    TEXT NOT NULL DEFAULT '',
						body       TEXT NOT NULL,
						status     TEXT NOT NULL DEFAULT 'new',
						reply      TEXT NOT NULL DEFAULT '',
						created_at DATETIME NOT NULL,
						replied_at DATETIME
					)`)
				return err
			},
		},
	}
}
