package models

import "time"

// Level is the audience level of a formation.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Formation is a training course offered in the catalog.
type Formation struct {
	ID            string     `json:"id" yaml:"id"`
	Title         string     `json:"title" yaml:"title"`
	Description   string     `json:"description" yaml:"description"`
	Category      string     `json:"category" yaml:"category"`
	Level         Level      `json:"level" yaml:"level"`
	Instructor    string     `json:"instructor,omitempty" yaml:"instructor"`
	Price         float64    `json:"price" yaml:"price"`
	DurationHours int        `json:"duration_hours" yaml:"duration_hours"`
	Published     bool       `json:"published" yaml:"published"`
	Featured      bool       `json:"featured" yaml:"featured"`
	StartDate     *time.Time `json:"start_date,omitempty" yaml:"start_date"`
	UpdatedAt     time.Time  `json:"updated_at" yaml:"updated_at"`
}
