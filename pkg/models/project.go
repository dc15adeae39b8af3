// Package models holds the row types of the tabula datasets.
package models

import "time"

// ProjectStatus is the delivery state of a catalog project.
type ProjectStatus string

const (
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusInProgress ProjectStatus = "in-progress"
	ProjectStatusPlanned    ProjectStatus = "planned"
)

// Complexity grades how demanding a project is.
type Complexity string

const (
	ComplexityBeginner     Complexity = "beginner"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
)

// Project is a portfolio entry shown in the public project catalog.
type Project struct {
	ID           string        `json:"id" yaml:"id"`
	Title        string        `json:"title" yaml:"title"`
	Description  string        `json:"description" yaml:"description"`
	Category     string        `json:"category" yaml:"category"`
	Complexity   Complexity    `json:"complexity" yaml:"complexity"`
	Status       ProjectStatus `json:"status" yaml:"status"`
	Technologies []string      `json:"technologies" yaml:"technologies"`
	Stars        *int          `json:"stars,omitempty" yaml:"stars"`
	Featured     bool          `json:"featured" yaml:"featured"`
	RepoURL      string        `json:"repo_url,omitempty" yaml:"repo_url"`
	UpdatedAt    time.Time     `json:"updated_at" yaml:"updated_at"`
}
