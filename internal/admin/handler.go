package admin

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/tabula/internal/auth"
	"github.com/HerbHall/tabula/internal/server"
	"github.com/HerbHall/tabula/internal/services"
	"github.com/HerbHall/tabula/pkg/models"
	"github.com/HerbHall/tabula/pkg/table"
)

// StatusRequest changes a registration's status.
type StatusRequest struct {
	Status models.RegistrationStatus `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// ReplyRequest records a reply to a contact message.
type ReplyRequest struct {
	Reply string `json:"reply" validate:"required,max=5000"`
}

// SummaryResponse holds the dashboard header counters.
type SummaryResponse struct {
	Registrations       int           `json:"registrations"`
	RegistrationsStatus []table.Facet `json:"registrations_by_status"`
	Messages            int           `json:"messages"`
	MessagesStatus      []table.Facet `json:"messages_by_status"`
	Formations          int           `json:"formations"`
}

// handleSummary returns row counts and status breakdowns.
//
//	@Summary	Dashboard summary
//	@Tags		admin
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200 {object} SummaryResponse
//	@Failure	401 {object} server.Problem
//	@Router		/admin/summary [get]
func (m *Module) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regs, err := m.datasets.Registrations().Snapshot(ctx)
	if err != nil {
		m.fail(w, r, "load registrations", err)
		return
	}
	msgs, err := m.datasets.Messages().Snapshot(ctx)
	if err != nil {
		m.fail(w, r, "load messages", err)
		return
	}
	forms, err := m.datasets.Formations().Snapshot(ctx)
	if err != nil {
		m.fail(w, r, "load formations", err)
		return
	}

	server.WriteJSON(w, http.StatusOK, SummaryResponse{
		Registrations:       len(regs),
		RegistrationsStatus: table.Facets(regs, table.Query{}, RegistrationRegistry(), "status"),
		Messages:            len(msgs),
		MessagesStatus:      table.Facets(msgs, table.Query{}, MessageRegistry(), "status"),
		Formations:          len(forms),
	})
}

// handleUpdateStatus confirms, cancels or reopens a registration.
//
//	@Summary	Update registration status
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id path string true "Registration ID"
//	@Param		request body StatusRequest true "New status"
//	@Success	200 {object} models.Registration
//	@Failure	400 {object} server.Problem
//	@Failure	404 {object} server.Problem
//	@Router		/admin/registrations/{id}/status [patch]
func (m *Module) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req StatusRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	if err := m.datasets.UpdateRegistrationStatus(r.Context(), id, req.Status); err != nil {
		m.failLookup(w, r, "registration", id, err)
		return
	}
	reg, err := m.datasets.Registration(r.Context(), id)
	if err != nil {
		m.failLookup(w, r, "registration", id, err)
		return
	}

	m.logger.Info("registration status changed",
		zap.String("id", id),
		zap.String("status", string(req.Status)),
		zap.String("by", actor(r)),
	)
	server.WriteJSON(w, http.StatusOK, reg)
}

// handleDeleteRegistration removes a registration.
//
//	@Summary	Delete registration
//	@Tags		admin
//	@Security	BearerAuth
//	@Param		id path string true "Registration ID"
//	@Success	204
//	@Failure	404 {object} server.Problem
//	@Router		/admin/registrations/{id} [delete]
func (m *Module) handleDeleteRegistration(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := m.datasets.DeleteRegistration(r.Context(), id); err != nil {
		m.failLookup(w, r, "registration", id, err)
		return
	}
	m.logger.Info("registration deleted", zap.String("id", id), zap.String("by", actor(r)))
	w.WriteHeader(http.StatusNoContent)
}

// handleGetMessage returns a message and marks it read.
//
//	@Summary	Open message
//	@Tags		admin
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id path string true "Message ID"
//	@Success	200 {object} models.Message
//	@Failure	404 {object} server.Problem
//	@Router		/admin/messages/{id} [get]
func (m *Module) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := m.datasets.MarkMessageRead(r.Context(), id); err != nil {
		m.failLookup(w, r, "message", id, err)
		return
	}
	msg, err := m.datasets.Message(r.Context(), id)
	if err != nil {
		m.failLookup(w, r, "message", id, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, msg)
}

// handleReply records a reply to a message.
//
//	@Summary	Reply to message
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id path string true "Message ID"
//	@Param		request body ReplyRequest true "Reply"
//	@Success	200 {object} models.Message
//	@Failure	400 {object} server.Problem
//	@Failure	404 {object} server.Problem
//	@Router		/admin/messages/{id}/reply [post]
func (m *Module) handleReply(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req ReplyRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	if err := m.datasets.ReplyMessage(r.Context(), id, req.Reply, m.now()); err != nil {
		m.failLookup(w, r, "message", id, err)
		return
	}
	msg, err := m.datasets.Message(r.Context(), id)
	if err != nil {
		m.failLookup(w, r, "message", id, err)
		return
	}

	m.logger.Info("message replied", zap.String("id", id), zap.String("by", actor(r)))
	server.WriteJSON(w, http.StatusOK, msg)
}

// handleDeleteMessage removes a message.
//
//	@Summary	Delete message
//	@Tags		admin
//	@Security	BearerAuth
//	@Param		id path string true "Message ID"
//	@Success	204
//	@Failure	404 {object} server.Problem
//	@Router		/admin/messages/{id} [delete]
func (m *Module) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := m.datasets.DeleteMessage(r.Context(), id); err != nil {
		m.failLookup(w, r, "message", id, err)
		return
	}
	m.logger.Info("message deleted", zap.String("id", id), zap.String("by", actor(r)))
	w.WriteHeader(http.StatusNoContent)
}

// -- helpers --

func (m *Module) failLookup(w http.ResponseWriter, r *http.Request, kind, id string, err error) {
	if errors.Is(err, services.ErrNotFound) {
		server.NotFound(w, kind+" "+id+" not found", r.URL.Path)
		return
	}
	m.fail(w, r, kind+" "+id, err)
}

func (m *Module) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	m.logger.Error("admin request failed", zap.String("op", op), zap.Error(err))
	server.InternalError(w, "internal error", r.URL.Path)
}

func actor(r *http.Request) string {
	if c, ok := auth.ClaimsFrom(r.Context()); ok {
		return c.Subject
	}
	return ""
}
