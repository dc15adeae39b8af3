package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/tabula/internal/services"
	"github.com/HerbHall/tabula/internal/testutil"
	"github.com/HerbHall/tabula/pkg/models"
)

func TestProjectRepository_UpsertAndSnapshot(t *testing.T) {
	db := testutil.NewDatasetStore(t)
	repo := services.NewSQLiteProjectRepository(db.DB())
	ctx := context.Background()

	withStars := testutil.NewProject(testutil.WithProjectID("b"), testutil.WithStars(7), testutil.WithTechnologies("React", "Go"))
	noStars := testutil.NewProject(testutil.WithProjectID("a"))
	require.NoError(t, repo.Upsert(ctx, &withStars))
	require.NoError(t, repo.Upsert(ctx, &noStars))

	got, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Nil(t, got[0].Stars)
	require.NotNil(t, got[1].Stars)
	assert.Equal(t, 7, *got[1].Stars)
	assert.Equal(t, []string{"React", "Go"}, got[1].Technologies)

	withStars.Title = "Renamed"
	require.NoError(t, repo.Upsert(ctx, &withStars))
	p, err := repo.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Title)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestProjectRepository_GetMissing(t *testing.T) {
	db := testutil.NewDatasetStore(t)
	repo := services.NewSQLiteProjectRepository(db.DB())

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestFormationRepository_StartDateRoundTrip(t *testing.T) {
	db := testutil.NewDatasetStore(t)
	repo := services.NewSQLiteFormationRepository(db.DB())
	ctx := context.Background()

	start := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	f := testutil.NewFormation(func(f *models.Formation) { f.StartDate = &start })
	undated := testutil.NewFormation()
	require.NoError(t, repo.Upsert(ctx, &f))
	require.NoError(t, repo.Upsert(ctx, &undated))

	got, err := repo.Get(ctx, f.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StartDate)
	assert.True(t, got.StartDate.Equal(start))

	got, err = repo.Get(ctx, undated.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StartDate)
}

func TestRegistrationRepository_Lifecycle(t *testing.T) {
	db := testutil.NewDatasetStore(t)
	ctx := context.Background()
	formations := services.NewSQLiteFormationRepository(db.DB())
	regs := services.NewSQLiteRegistrationRepository(db.DB())

	f := testutil.NewFormation(func(f *models.Formation) { f.Title = "React from Zero" })
	require.NoError(t, formations.Upsert(ctx, &f))

	reg := models.Registration{FormationID: f.ID, FullName: "Lina", Email: " Lina@Example.com "}
	require.NoError(t, regs.Create(ctx, &reg))
	assert.NotEmpty(t, reg.ID)
	assert.Equal(t, models.RegistrationPending, reg.Status)
	assert.Equal(t, "lina@example.com", reg.Email)

	dup := models.Registration{FormationID: f.ID, FullName: "Lina again", Email: "lina@example.com"}
	assert.ErrorIs(t, regs.Create(ctx, &dup), services.ErrAlreadyExists)

	orphan := models.Registration{FormationID: "nope", FullName: "X", Email: "x@example.com"}
	assert.ErrorIs(t, regs.Create(ctx, &orphan), services.ErrNotFound)

	require.NoError(t, regs.UpdateStatus(ctx, reg.ID, models.RegistrationConfirmed))
	snap, err := regs.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, models.RegistrationConfirmed, snap[0].Status)
	assert.Equal(t, "React from Zero", snap[0].FormationTitle)

	require.NoError(t, regs.Delete(ctx, reg.ID))
	assert.ErrorIs(t, regs.Delete(ctx, reg.ID), services.ErrNotFound)
	assert.ErrorIs(t, regs.UpdateStatus(ctx, reg.ID, models.RegistrationCancelled), services.ErrNotFound)
}

func TestMessageRepository_ReadAndReply(t *testing.T) {
	db := testutil.NewDatasetStore(t)
	ctx := context.Background()
	repo := services.NewSQLiteMessageRepository(db.DB())

	m := testutil.NewMessage()
	m.Status = models.MessageReplied // Create always resets to new.
	require.NoError(t, repo.Create(ctx, &m))
	assert.Equal(t, models.MessageNew, m.Status)

	require.NoError(t, repo.MarkRead(ctx, m.ID))
	got, err := repo.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageRead, got.Status)

	at := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Reply(ctx, m.ID, "Thanks, see you soon.", at))
	got, err = repo.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageReplied, got.Status)
	assert.Equal(t, "Thanks, see you soon.", got.Reply)
	require.NotNil(t, got.RepliedAt)
	assert.True(t, got.RepliedAt.Equal(at))

	// Reading a replied message keeps it replied.
	require.NoError(t, repo.MarkRead(ctx, m.ID))
	got, err = repo.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageReplied, got.Status)

	assert.ErrorIs(t, repo.MarkRead(ctx, "missing"), services.ErrNotFound)
	assert.ErrorIs(t, repo.Reply(ctx, "missing", "x", at), services.ErrNotFound)
}

type countingSource struct {
	calls int
	rows  []string
	err   error
}

func (s *countingSource) Snapshot(context.Context) ([]string, error) {
	s.calls++
	return s.rows, s.err
}

func TestSnapshotCache(t *testing.T) {
	src := &countingSource{rows: []string{"a", "b"}}
	cache := services.NewSnapshotCache[string]("letters", src, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := cache.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)
	}
	assert.Equal(t, 1, src.calls)

	cache.Invalidate()
	_, err := cache.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestSnapshotCache_Disabled(t *testing.T) {
	src := &countingSource{rows: []string{"a"}}
	cache := services.NewSnapshotCache[string]("letters", src, 0)

	_, _ = cache.Snapshot(context.Background())
	_, _ = cache.Snapshot(context.Background())
	assert.Equal(t, 2, src.calls)
}

func TestSnapshotCache_ErrorNotCached(t *testing.T) {
	boom := errors.New("boom")
	src := &countingSource{err: boom}
	cache := services.NewSnapshotCache[string]("letters", src, time.Minute)

	_, err := cache.Snapshot(context.Background())
	assert.ErrorIs(t, err, boom)

	src.err = nil
	src.rows = []string{"ok"}
	got, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, got)
}

func TestSnapshotCache_InvalidateDuringLoad(t *testing.T) {
	var cache *services.SnapshotCache[string]
	calls := 0
	src := services.SnapshotFunc[string](func(context.Context) ([]string, error) {
		calls++
		if calls == 1 {
			// A mutation lands while the first load is still reading.
			cache.Invalidate()
			return []string{"stale"}, nil
		}
		return []string{"fresh"}, nil
	})
	cache = services.NewSnapshotCache[string]("letters", src, time.Minute)
	ctx := context.Background()

	got, err := cache.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, got)

	got, err = cache.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, got, "rows loaded before Invalidate must not be cached")
	assert.Equal(t, 2, calls)

	_, err = cache.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "fresh rows are cached")
}

func TestDatasets_MutationsInvalidateCaches(t *testing.T) {
	d := testutil.NewDatasets(t)
	ctx := context.Background()

	f := testutil.NewFormation()
	require.NoError(t, d.UpsertFormation(ctx, &f))

	regs, err := d.Registrations().Snapshot(ctx)
	require.NoError(t, err)
	require.Empty(t, regs)

	reg := testutil.NewRegistration(f.ID)
	require.NoError(t, d.CreateRegistration(ctx, &reg))

	regs, err = d.Registrations().Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, f.Title, regs[0].FormationTitle)

	f.Title = "Renamed"
	require.NoError(t, d.UpsertFormation(ctx, &f))
	regs, err = d.Registrations().Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", regs[0].FormationTitle)

	require.NoError(t, d.UpdateRegistrationStatus(ctx, reg.ID, models.RegistrationConfirmed))
	regs, _ = d.Registrations().Snapshot(ctx)
	assert.Equal(t, models.RegistrationConfirmed, regs[0].Status)

	require.NoError(t, d.DeleteRegistration(ctx, reg.ID))
	regs, _ = d.Registrations().Snapshot(ctx)
	assert.Empty(t, regs)
}

func TestDatasets_MessageLifecycle(t *testing.T) {
	d := testutil.NewDatasets(t)
	ctx := context.Background()

	m := testutil.NewMessage()
	require.NoError(t, d.CreateMessage(ctx, &m))
	msgs, err := d.Messages().Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	require.NoError(t, d.MarkMessageRead(ctx, m.ID))
	msgs, _ = d.Messages().Snapshot(ctx)
	assert.Equal(t, models.MessageRead, msgs[0].Status)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, d.ReplyMessage(ctx, m.ID, "Thanks!", at))
	msgs, _ = d.Messages().Snapshot(ctx)
	assert.Equal(t, models.MessageReplied, msgs[0].Status)
	assert.Equal(t, "Thanks!", msgs[0].Reply)

	require.NoError(t, d.DeleteMessage(ctx, m.ID))
	msgs, _ = d.Messages().Snapshot(ctx)
	assert.Empty(t, msgs)

	assert.True(t, errors.Is(d.DeleteMessage(ctx, m.ID), services.ErrNotFound))
}

func TestDatasets_SeedOnlyEmptyTables(t *testing.T) {
	d := testutil.NewDatasets(t)
	ctx := context.Background()

	existing := testutil.NewProject(testutil.WithProjectID("mine"))
	require.NoError(t, d.UpsertProject(ctx, &existing))

	seedProjects := []models.Project{
		testutil.NewProject(testutil.WithProjectID("seed-1")),
		testutil.NewProject(testutil.WithProjectID("seed-2")),
	}
	seedFormations := []models.Formation{testutil.NewFormation()}
	require.NoError(t, d.Seed(ctx, seedProjects, seedFormations))

	projects, err := d.Projects().Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1, "non-empty projects table is left alone")
	assert.Equal(t, "mine", projects[0].ID)

	formations, err := d.Formations().Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, formations, 1)
}
