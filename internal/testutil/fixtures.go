package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/tabula/pkg/models"
)

// fixtureTime is the fixed timestamp fixtures are stamped with.
var fixtureTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// NewProject returns a Project with sensible defaults, suitable for test fixtures.
// Override individual fields with options.
func NewProject(opts ...func(*models.Project)) models.Project {
	p := models.Project{
		ID:           uuid.New().String(),
		Title:        "Test Project",
		Description:  "A project used in tests.",
		Category:     "Web Apps",
		Complexity:   models.ComplexityBeginner,
		Status:       models.ProjectStatusCompleted,
		Technologies: []string{"Go"},
		UpdatedAt:    fixtureTime,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithProjectID sets the project ID.
func WithProjectID(id string) func(*models.Project) {
	return func(p *models.Project) { p.ID = id }
}

// WithTitle sets the project title.
func WithTitle(title string) func(*models.Project) {
	return func(p *models.Project) { p.Title = title }
}

// WithCategory sets the project category.
func WithCategory(c string) func(*models.Project) {
	return func(p *models.Project) { p.Category = c }
}

// WithStars sets the project star count.
func WithStars(n int) func(*models.Project) {
	return func(p *models.Project) { p.Stars = &n }
}

// WithFeatured marks the project featured.
func WithFeatured() func(*models.Project) {
	return func(p *models.Project) { p.Featured = true }
}

// WithTechnologies sets the project technologies.
func WithTechnologies(tech ...string) func(*models.Project) {
	return func(p *models.Project) { p.Technologies = tech }
}

// WithUpdatedAt sets the project's updated_at timestamp.
func WithUpdatedAt(t time.Time) func(*models.Project) {
	return func(p *models.Project) { p.UpdatedAt = t }
}

// NewFormation returns a published Formation with sensible defaults.
func NewFormation(opts ...func(*models.Formation)) models.Formation {
	f := models.Formation{
		ID:            uuid.New().String(),
		Title:         "Test Formation",
		Description:   "A formation used in tests.",
		Category:      "Web Development",
		Level:         models.LevelBeginner,
		Instructor:    "Test Instructor",
		Price:         100,
		DurationHours: 10,
		Published:     true,
		UpdatedAt:     fixtureTime,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// NewRegistration returns a pending Registration for formationID.
func NewRegistration(formationID string, opts ...func(*models.Registration)) models.Registration {
	r := models.Registration{
		ID:          uuid.New().String(),
		FormationID: formationID,
		FullName:    "Test Student",
		Email:       "student@example.com",
		Status:      models.RegistrationPending,
		CreatedAt:   fixtureTime,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// NewMessage returns a new contact Message.
func NewMessage(opts ...func(*models.Message)) models.Message {
	m := models.Message{
		ID:        uuid.New().String(),
		Name:      "Test Sender",
		Email:     "sender@example.com",
		Subject:   "Hello",
		Body:      "Message body used in tests.",
		Status:    models.MessageNew,
		CreatedAt: fixtureTime,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}
