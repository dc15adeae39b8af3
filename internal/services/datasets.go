package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/tabula/pkg/models"
)

// Dataset names used as cache keys, metric labels and CLI arguments.
const (
	DatasetProjects      = "projects"
	DatasetFormations    = "formations"
	DatasetRegistrations = "registrations"
	DatasetMessages      = "messages"
)

// Datasets groups the repositories with the snapshot caches in front of
// them. Every mutation goes through Datasets so that the caches it affects
// are invalidated before the call returns.
type Datasets struct {
	projects      ProjectRepository
	formations    FormationRepository
	registrations RegistrationRepository
	messages      MessageRepository

	projectCache      *SnapshotCache[models.Project]
	formationCache    *SnapshotCache[models.Formation]
	registrationCache *SnapshotCache[models.Registration]
	messageCache      *SnapshotCache[models.Message]

	logger *zap.Logger
}

// NewDatasets builds the repositories on db with snapshot caches that live
// for ttl. The dataset tables must already exist (see Migrations).
func NewDatasets(db *sql.DB, ttl time.Duration, logger *zap.Logger) *Datasets {
	d := &Datasets{
		projects:      NewSQLiteProjectRepository(db),
		formations:    NewSQLiteFormationRepository(db),
		registrations: NewSQLiteRegistrationRepository(db),
		messages:      NewSQLiteMessageRepository(db),
		logger:        logger,
	}
	d.projectCache = NewSnapshotCache[models.Project](DatasetProjects, d.projects, ttl)
	d.formationCache = NewSnapshotCache[models.Formation](DatasetFormations, d.formations, ttl)
	d.registrationCache = NewSnapshotCache[models.Registration](DatasetRegistrations, d.registrations, ttl)
	d.messageCache = NewSnapshotCache[models.Message](DatasetMessages, d.messages, ttl)
	return d
}

// Projects returns the cached project snapshot source.
func (d *Datasets) Projects() Snapshotter[models.Project] { return d.projectCache }

// Formations returns the cached formation snapshot source.
func (d *Datasets) Formations() Snapshotter[models.Formation] { return d.formationCache }

// Registrations returns the cached registration snapshot source.
func (d *Datasets) Registrations() Snapshotter[models.Registration] { return d.registrationCache }

// Messages returns the cached message snapshot source.
func (d *Datasets) Messages() Snapshotter[models.Message] { return d.messageCache }

// Project returns one project.
func (d *Datasets) Project(ctx context.Context, id string) (*models.Project, error) {
	return d.projects.Get(ctx, id)
}

// Formation returns one formation.
func (d *Datasets) Formation(ctx context.Context, id string) (*models.Formation, error) {
	return d.formations.Get(ctx, id)
}

// Registration returns one registration.
func (d *Datasets) Registration(ctx context.Context, id string) (*models.Registration, error) {
	return d.registrations.Get(ctx, id)
}

// Message returns one message.
func (d *Datasets) Message(ctx context.Context, id string) (*models.Message, error) {
	return d.messages.Get(ctx, id)
}

// UpsertProject stores p.
func (d *Datasets) UpsertProject(ctx context.Context, p *models.Project) error {
	defer d.projectCache.Invalidate()
	return d.projects.Upsert(ctx, p)
}

// UpsertFormation stores f. Registrations carry the formation title, so
// their snapshot is invalidated too.
func (d *Datasets) UpsertFormation(ctx context.Context, f *models.Formation) error {
	defer d.formationCache.Invalidate()
	defer d.registrationCache.Invalidate()
	return d.formations.Upsert(ctx, f)
}

// CreateRegistration records a sign-up. It returns ErrNotFound when the
// formation does not exist and ErrAlreadyExists for a repeated email.
func (d *Datasets) CreateRegistration(ctx context.Context, reg *models.Registration) error {
	defer d.registrationCache.Invalidate()
	return d.registrations.Create(ctx, reg)
}

// UpdateRegistrationStatus moves a registration to status.
func (d *Datasets) UpdateRegistrationStatus(ctx context.Context, id string, status models.RegistrationStatus) error {
	defer d.registrationCache.Invalidate()
	return d.registrations.UpdateStatus(ctx, id, status)
}

// DeleteRegistration removes a registration.
func (d *Datasets) DeleteRegistration(ctx context.Context, id string) error {
	defer d.registrationCache.Invalidate()
	return d.registrations.Delete(ctx, id)
}

// CreateMessage stores a contact message with status new.
func (d *Datasets) CreateMessage(ctx context.Context, m *models.Message) error {
	defer d.messageCache.Invalidate()
	return d.messages.Create(ctx, m)
}

// MarkMessageRead moves a new message to read.
func (d *Datasets) MarkMessageRead(ctx context.Context, id string) error {
	defer d.messageCache.Invalidate()
	return d.messages.MarkRead(ctx, id)
}

// ReplyMessage stores a reply sent at.
func (d *Datasets) ReplyMessage(ctx context.Context, id, reply string, at time.Time) error {
	defer d.messageCache.Invalidate()
	return d.messages.Reply(ctx, id, reply, at)
}

// DeleteMessage removes a message.
func (d *Datasets) DeleteMessage(ctx context.Context, id string) error {
	defer d.messageCache.Invalidate()
	return d.messages.Delete(ctx, id)
}

// Seed stores projects and formations when their tables are empty. Tables
// that already hold rows are left alone.
func (d *Datasets) Seed(ctx context.Context, projects []models.Project, formations []models.Formation) error {
	n, err := d.projects.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		for i := range projects {
			if err := d.UpsertProject(ctx, &projects[i]); err != nil {
				return fmt.Errorf("seed project %q: %w", projects[i].ID, err)
			}
		}
		d.logger.Info("seeded projects", zap.Int("count", len(projects)))
	}

	n, err = d.formations.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		for i := range formations {
			if err := d.UpsertFormation(ctx, &formations[i]); err != nil {
				return fmt.Errorf("seed formation %q: %w", formations[i].ID, err)
			}
		}
		d.logger.Info("seeded formations", zap.Int("count", len(formations)))
	}
	return nil
}
