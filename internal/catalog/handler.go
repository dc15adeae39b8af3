package catalog

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/tabula/internal/server"
	"github.com/HerbHall/tabula/internal/services"
	"github.com/HerbHall/tabula/pkg/models"
)

// RegistrationRequest is the body of a formation sign-up.
type RegistrationRequest struct {
	FullName string `json:"full_name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone" validate:"omitempty,max=40"`
}

// ContactRequest is the body of a contact-form message.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"required,max=200"`
	Body    string `json:"body" validate:"required,max=5000"`
}

// handleGetProject returns a single project.
//
//	@Summary	Get project
//	@Tags		catalog
//	@Produce	json
//	@Param		id path string true "Project ID"
//	@Success	200 {object} models.Project
//	@Failure	404 {object} server.Problem
//	@Router		/catalog/projects/{id} [get]
func (m *Module) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := m.datasets.Project(r.Context(), id)
	switch {
	case errors.Is(err, services.ErrNotFound):
		server.NotFound(w, "project "+id+" not found", r.URL.Path)
		return
	case err != nil:
		m.logger.Error("get project", zap.String("id", id), zap.Error(err))
		server.InternalError(w, "failed to load project", r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, p)
}

// handleGetFormation returns a single published formation.
//
//	@Summary	Get formation
//	@Tags		catalog
//	@Produce	json
//	@Param		id path string true "Formation ID"
//	@Success	200 {object} models.Formation
//	@Failure	404 {object} server.Problem
//	@Router		/catalog/formations/{id} [get]
func (m *Module) handleGetFormation(w http.ResponseWriter, r *http.Request) {
	f, ok := m.publishedFormation(w, r)
	if !ok {
		return
	}
	server.WriteJSON(w, http.StatusOK, f)
}

// handleRegister enrolls a visitor in a published formation.
//
//	@Summary	Register for a formation
//	@Tags		catalog
//	@Accept		json
//	@Produce	json
//	@Param		id path string true "Formation ID"
//	@Param		request body RegistrationRequest true "Registration"
//	@Success	201 {object} models.Registration
//	@Failure	400 {object} server.Problem
//	@Failure	404 {object} server.Problem
//	@Failure	409 {object} server.Problem
//	@Router		/catalog/formations/{id}/registrations [post]
func (m *Module) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegistrationRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	f, ok := m.publishedFormation(w, r)
	if !ok {
		return
	}

	reg := models.Registration{
		FormationID: f.ID,
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		Status:      models.RegistrationPending,
		CreatedAt:   m.now().UTC(),
	}
	err := m.datasets.CreateRegistration(r.Context(), &reg)
	switch {
	case errors.Is(err, services.ErrNotFound):
		server.NotFound(w, "formation "+f.ID+" not found", r.URL.Path)
		return
	case errors.Is(err, services.ErrAlreadyExists):
		server.Conflict(w, "this email is already registered for the formation", r.URL.Path)
		return
	case err != nil:
		m.logger.Error("create registration", zap.String("formation_id", f.ID), zap.Error(err))
		server.InternalError(w, "failed to save registration", r.URL.Path)
		return
	}

	m.logger.Info("registration received",
		zap.String("id", reg.ID),
		zap.String("formation_id", f.ID),
	)
	reg.FormationTitle = f.Title
	server.WriteJSON(w, http.StatusCreated, reg)
}

// handleContact stores a contact-form message for the admin inbox.
//
//	@Summary	Send a contact message
//	@Tags		catalog
//	@Accept		json
//	@Produce	json
//	@Param		request body ContactRequest true "Message"
//	@Success	201 {object} map[string]string
//	@Failure	400 {object} server.Problem
//	@Router		/catalog/messages [post]
func (m *Module) handleContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	msg := models.Message{
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Body:      req.Body,
		CreatedAt: m.now().UTC(),
	}
	if err := m.datasets.CreateMessage(r.Context(), &msg); err != nil {
		m.logger.Error("create message", zap.Error(err))
		server.InternalError(w, "failed to save message", r.URL.Path)
		return
	}

	server.WriteJSON(w, http.StatusCreated, map[string]string{
		"id":     msg.ID,
		"status": string(msg.Status),
	})
}

// publishedFormation loads the formation named by the id path value and
// writes a 404 unless it exists and is published.
func (m *Module) publishedFormation(w http.ResponseWriter, r *http.Request) (*models.Formation, bool) {
	id := r.PathValue("id")
	f, err := m.datasets.Formation(r.Context(), id)
	switch {
	case errors.Is(err, services.ErrNotFound) || (err == nil && !f.Published):
		server.NotFound(w, "formation "+id+" not found", r.URL.Path)
		return nil, false
	case err != nil:
		m.logger.Error("get formation", zap.String("id", id), zap.Error(err))
		server.InternalError(w, "failed to load formation", r.URL.Path)
		return nil, false
	}
	return f, true
}
