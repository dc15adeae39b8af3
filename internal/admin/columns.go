package admin

import (
	"cmp"
	"time"

	"github.com/HerbHall/tabula/internal/dataset"
	"github.com/HerbHall/tabula/pkg/models"
	"github.com/HerbHall/tabula/pkg/table"
)

// Sort strategies offered by the admin datasets.
const (
	StrategyRecent = "recent"
	StrategyTriage = "triage"
	StrategyInbox  = "inbox"
)

var registrationRank = map[models.RegistrationStatus]int{
	models.RegistrationPending:   0,
	models.RegistrationConfirmed: 1,
	models.RegistrationCancelled: 2,
}

var messageRank = map[models.MessageStatus]int{
	models.MessageNew:     0,
	models.MessageRead:    1,
	models.MessageReplied: 2,
}

// RegistrationRegistry describes the registration columns. Status sorts in
// workflow order rather than alphabetically.
func RegistrationRegistry() *table.Registry[models.Registration] {
	var byStatus table.Comparator[models.Registration] = func(a, b models.Registration) int {
		return cmp.Compare(registrationRank[a.Status], registrationRank[b.Status])
	}

	reg := table.NewRegistry(func(r models.Registration) string { return r.ID },
		table.Column[models.Registration]{Key: "full_name", Searchable: true, Sortable: true, Value: func(r models.Registration) any { return r.FullName }},
		table.Column[models.Registration]{Key: "email", Searchable: true, Sortable: true, Value: func(r models.Registration) any { return r.Email }},
		table.Column[models.Registration]{Key: "phone", Searchable: true, Value: func(r models.Registration) any { return r.Phone }},
		table.Column[models.Registration]{Key: "formation_title", Searchable: true, Sortable: true, Value: func(r models.Registration) any { return r.FormationTitle }},
		table.Column[models.Registration]{Key: "formation_id", Value: func(r models.Registration) any { return r.FormationID }},
		table.Column[models.Registration]{Key: "status", Sortable: true, Value: func(r models.Registration) any { return r.Status }, Compare: byStatus},
		table.Column[models.Registration]{Key: "created_at", Sortable: true, Value: func(r models.Registration) any { return r.CreatedAt }},
	)

	byID := table.By(func(r models.Registration) any { return r.ID })
	newest := table.ByDesc(func(r models.Registration) any { return r.CreatedAt })

	reg.WithStrategy(StrategyRecent, table.Chain(newest, byID))
	reg.WithStrategy(StrategyTriage, table.Chain(byStatus, newest, byID))
	return reg
}

// MessageRegistry describes the inbox columns.
func MessageRegistry() *table.Registry[models.Message] {
	var byStatus table.Comparator[models.Message] = func(a, b models.Message) int {
		return cmp.Compare(messageRank[a.Status], messageRank[b.Status])
	}

	reg := table.NewRegistry(func(m models.Message) string { return m.ID },
		table.Column[models.Message]{Key: "name", Searchable: true, Sortable: true, Value: func(m models.Message) any { return m.Name }},
		table.Column[models.Message]{Key: "email", Searchable: true, Sortable: true, Value: func(m models.Message) any { return m.Email }},
		table.Column[models.Message]{Key: "subject", Searchable: true, Sortable: true, Value: func(m models.Message) any { return m.Subject }},
		table.Column[models.Message]{Key: "body", Searchable: true, Value: func(m models.Message) any { return m.Body }},
		table.Column[models.Message]{Key: "status", Sortable: true, Value: func(m models.Message) any { return m.Status }, Compare: byStatus},
		table.Column[models.Message]{Key: "created_at", Sortable: true, Value: func(m models.Message) any { return m.CreatedAt }},
		table.Column[models.Message]{Key: "replied_at", Sortable: true, Value: func(m models.Message) any { return m.RepliedAt }},
	)

	byID := table.By(func(m models.Message) any { return m.ID })
	newest := table.ByDesc(func(m models.Message) any { return m.CreatedAt })

	reg.WithStrategy(StrategyRecent, table.Chain(newest, byID))
	reg.WithStrategy(StrategyInbox, table.Chain(byStatus, newest, byID))
	return reg
}

// RegistrationExport is the CSV form of a registration.
var RegistrationExport = dataset.Exporter[models.Registration]{
	Header: []string{"id", "formation_id", "formation_title", "full_name", "email", "phone", "status", "created_at"},
	Row: func(r models.Registration) []string {
		return []string{
			r.ID,
			r.FormationID,
			r.FormationTitle,
			r.FullName,
			r.Email,
			r.Phone,
			string(r.Status),
			r.CreatedAt.Format(time.RFC3339),
		}
	},
}

// MessageExport is the CSV form of a message.
var MessageExport = dataset.Exporter[models.Message]{
	Header: []string{"id", "name", "email", "subject", "body", "status", "created_at", "replied_at"},
	Row: func(m models.Message) []string {
		replied := ""
		if m.RepliedAt != nil {
			replied = m.RepliedAt.Format(time.RFC3339)
		}
		return []string{
			m.ID,
			m.Name,
			m.Email,
			m.Subject,
			m.Body,
			string(m.Status),
			m.CreatedAt.Format(time.RFC3339),
			replied,
		}
	},
}
