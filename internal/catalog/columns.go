package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/HerbHall/tabula/internal/dataset"
	"github.com/HerbHall/tabula/pkg/models"
	"github.com/HerbHall/tabula/pkg/table"
)

// Sort strategies offered by the catalog datasets.
const (
	StrategyFeatured = "featured"
	StrategyPopular  = "popular"
	StrategyUpcoming = "upcoming"
)

// ProjectRegistry describes the project columns. Search covers title,
// description and technologies.
func ProjectRegistry() *table.Registry[models.Project] {
	reg := table.NewRegistry(func(p models.Project) string { return p.ID },
		table.Column[models.Project]{Key: "title", Searchable: true, Sortable: true, Value: func(p models.Project) any { return p.Title }},
		table.Column[models.Project]{Key: "description", Searchable: true, Value: func(p models.Project) any { return p.Description }},
		table.Column[models.Project]{Key: "technologies", Searchable: true, Value: func(p models.Project) any { return p.Technologies }},
		table.Column[models.Project]{Key: "category", Sortable: true, Value: func(p models.Project) any { return p.Category }},
		table.Column[models.Project]{Key: "complexity", Value: func(p models.Project) any { return p.Complexity }},
		table.Column[models.Project]{Key: "status", Value: func(p models.Project) any { return p.Status }},
		table.Column[models.Project]{Key: "featured", Value: func(p models.Project) any { return p.Featured }},
		table.Column[models.Project]{Key: "stars", Sortable: true, Value: func(p models.Project) any { return p.Stars }},
		table.Column[models.Project]{Key: "updated_at", Sortable: true, Value: func(p models.Project) any { return p.UpdatedAt }},
	)

	byID := table.By(func(p models.Project) any { return p.ID })
	byTitle := table.By(func(p models.Project) any { return p.Title })

	reg.WithStrategy(StrategyFeatured, table.Chain(
		table.ByDesc(func(p models.Project) any { return p.Featured }),
		table.ByDesc(func(p models.Project) any { return p.UpdatedAt }),
		byTitle,
		byID,
	))
	reg.WithStrategy(StrategyPopular, table.Chain(
		table.ByDesc(func(p models.Project) any { return p.Stars }),
		byTitle,
		byID,
	))
	return reg
}

// FormationRegistry describes the formation columns. Search covers title,
// description and instructor.
func FormationRegistry() *table.Registry[models.Formation] {
	reg := table.NewRegistry(func(f models.Formation) string { return f.ID },
		table.Column[models.Formation]{Key: "title", Searchable: true, Sortable: true, Value: func(f models.Formation) any { return f.Title }},
		table.Column[models.Formation]{Key: "description", Searchable: true, Value: func(f models.Formation) any { return f.Description }},
		table.Column[models.Formation]{Key: "instructor", Searchable: true, Sortable: true, Value: func(f models.Formation) any { return f.Instructor }},
		table.Column[models.Formation]{Key: "category", Sortable: true, Value: func(f models.Formation) any { return f.Category }},
		table.Column[models.Formation]{Key: "level", Value: func(f models.Formation) any { return f.Level }},
		table.Column[models.Formation]{Key: "published", Value: func(f models.Formation) any { return f.Published }},
		table.Column[models.Formation]{Key: "featured", Value: func(f models.Formation) any { return f.Featured }},
		table.Column[models.Formation]{Key: "price", Sortable: true, Value: func(f models.Formation) any { return f.Price }},
		table.Column[models.Formation]{Key: "duration_hours", Sortable: true, Value: func(f models.Formation) any { return f.DurationHours }},
		table.Column[models.Formation]{Key: "start_date", Sortable: true, Value: func(f models.Formation) any { return f.StartDate }},
		table.Column[models.Formation]{Key: "updated_at", Sortable: true, Value: func(f models.Formation) any { return f.UpdatedAt }},
	)

	byID := table.By(func(f models.Formation) any { return f.ID })
	byTitle := table.By(func(f models.Formation) any { return f.Title })
	byStart := table.By(func(f models.Formation) any { return f.StartDate })

	reg.WithStrategy(StrategyFeatured, table.Chain(
		table.ByDesc(func(f models.Formation) any { return f.Featured }),
		table.ByDesc(func(f models.Formation) any { return f.UpdatedAt }),
		byTitle,
		byID,
	))
	reg.WithStrategy(StrategyUpcoming, table.Chain(byStart, byTitle, byID))
	return reg
}

// ProjectExport is the CSV form of a project.
var ProjectExport = dataset.Exporter[models.Project]{
	Header: []string{
		"id", "title", "category", "complexity", "status", "technologies",
		"stars", "featured", "repo_url", "updated_at",
	},
	Row: func(p models.Project) []string {
		return []string{
			p.ID,
			p.Title,
			p.Category,
			string(p.Complexity),
			string(p.Status),
			strings.Join(p.Technologies, ";"),
			optionalInt(p.Stars),
			strconv.FormatBool(p.Featured),
			p.RepoURL,
			p.UpdatedAt.Format(time.RFC3339),
		}
	},
}

// FormationExport is the CSV form of a formation.
var FormationExport = dataset.Exporter[models.Formation]{
	Header: []string{
		"id", "title", "category", "level", "instructor", "price",
		"duration_hours", "published", "featured", "start_date",
	},
	Row: func(f models.Formation) []string {
		return []string{
			f.ID,
			f.Title,
			f.Category,
			string(f.Level),
			f.Instructor,
			strconv.FormatFloat(f.Price, 'f', 2, 64),
			strconv.Itoa(f.DurationHours),
			strconv.FormatBool(f.Published),
			strconv.FormatBool(f.Featured),
			optionalTime(f.StartDate),
		}
	},
}

func optionalInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
