package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	apiContext "helpdesk/internal/api/context"
	apiErrors "helpdesk/internal/pkg/errors"
	"helpdesk/internal/pkg/pagination"
	"helpdesk/internal/pkg/validation"
	"helpdesk/internal/platform/models"
	"helpdesk/internal/platform/repositories"
)

type TicketHandler struct {
	ticketRepo *repositories.TicketRepository
}

func NewTicketHandler(ticketRepo *repositories.TicketRepository) *TicketHandler {
	return &TicketHandler{ticketRepo: ticketRepo}
}

type listTicketsQuery struct {
	Status string `json:"status" validate:"omitempty,oneof=open pending resolved closed"`
}

// List returns tickets scoped by role: ADMIN sees all, SUPPORT its
// company, NORMAL only its own.
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)

	query := listTicketsQuery{Status: r.URL.Query().Get("status")}
	if fieldErrors := validation.Struct(query); fieldErrors != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Validation failed", fieldErrors)
		return
	}

	params := pagination.Parse(r.URL.Query())
	filter := repositories.TicketFilter{
		State:  query.Status,
		Search: r.URL.Query().Get("search"),
		Limit:  params.Limit,
		Offset: params.Offset(),
	}

	switch identity.UserType {
	case models.RoleAdmin:
	case models.RoleSupport:
		filter.CompanyID = identity.CompanyID
	default:
		filter.PersonID = identity.ID
	}

	tickets, err := h.ticketRepo.List(filter)
	if err != nil {
		writeInternal(w, err, "tickets: list")
		return
	}
	totalCount, err := h.ticketRepo.Count(filter)
	if err != nil {
		writeInternal(w, err, "tickets: count")
		return
	}
	if tickets == nil {
		tickets = []*models.Ticket{}
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Tickets retrieved successfully", map[string]interface{}{
		"tickets":    tickets,
		"pagination": pagination.NewMeta(params, totalCount),
	})
}

type CreateTicketRequest struct {
	Subject string `json:"subject" validate:"required,min=3,max=200"`
	Details string `json:"details" validate:"omitempty"`
	State   string `json:"state" validate:"omitempty,oneof=open pending resolved closed"`
}

func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)

	var req CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if fieldErrors := validation.Struct(req); fieldErrors != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Validation failed", fieldErrors)
		return
	}

	state := req.State
	if state == "" {
		state = models.TicketOpen
	}

	now := time.Now().Unix()
	ticket := &models.Ticket{
		ID:        "tkt_" + uuid.NewString(),
		Subject:   req.Subject,
		Details:   req.Details,
		State:     state,
		PersonID:  identity.ID,
		CompanyID: identity.CompanyID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.ticketRepo.Create(ticket); err != nil {
		writeInternal(w, err, "tickets: create")
		return
	}

	ticket.Person = &models.PersonRef{ID: identity.ID, FullName: identity.FullName, Email: identity.Email}
	if identity.Company != nil {
		ticket.Company = &models.CompanyRef{ID: identity.Company.ID, Title: identity.Company.Title}
	}

	apiErrors.WriteSuccess(w, http.StatusCreated, "Ticket created successfully", map[string]interface{}{
		"ticket": ticket,
	})
}

func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticket := ticketFrom(r)

	apiErrors.WriteSuccess(w, http.StatusOK, "Ticket retrieved successfully", map[string]interface{}{
		"ticket": ticket,
	})
}

type UpdateTicketRequest struct {
	Subject *string `json:"subject" validate:"omitempty,min=3,max=200"`
	Details *string `json:"details"`
	State   *string `json:"state" validate:"omitempty,oneof=open pending resolved closed"`
}

func (h *TicketHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	ticket := ticketFrom(r)

	var req UpdateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if fieldErrors := validation.Struct(req); fieldErrors != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Validation failed", fieldErrors)
		return
	}

	// ADMIN and SUPPORT may update any in-scope ticket; NORMAL only
	// tickets they authored. Needs the loaded ticket, so it lives here
	// rather than in a route guard.
	canUpdate := identity.UserType == models.RoleAdmin ||
		identity.UserType == models.RoleSupport ||
		ticket.PersonID == identity.ID

	if !canUpdate {
		apiErrors.WriteError(w, http.StatusForbidden, apiErrors.ErrCodeUpdateDenied, "Insufficient permissions to update this ticket", nil)
		return
	}

	if req.Subject != nil {
		ticket.Subject = *req.Subject
	}
	if req.Details != nil {
		ticket.Details = *req.Details
	}
	if req.State != nil {
		ticket.State = *req.State
	}
	ticket.UpdatedAt = time.Now().Unix()

	if err := h.ticketRepo.Update(ticket); err != nil {
		writeInternal(w, err, "tickets: update")
		return
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Ticket updated successfully", map[string]interface{}{
		"ticket": ticket,
	})
}

func (h *TicketHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ticket := ticketFrom(r)

	if err := h.ticketRepo.Delete(ticket.ID); err != nil {
		writeInternal(w, err, "tickets: delete")
		return
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Ticket deleted successfully", nil)
}

func (h *TicketHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)

	companyID := ""
	if identity.UserType == models.RoleSupport {
		companyID = identity.CompanyID
	}

	stats, err := h.ticketRepo.StatsSummary(companyID)
	if err != nil {
		writeInternal(w, err, "tickets: stats")
		return
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Ticket statistics retrieved successfully", map[string]interface{}{
		"summary": stats,
	})
}

func identityFrom(r *http.Request) *models.Person {
	person, _ := r.Context().Value(apiContext.Identity).(*models.Person)
	return person
}

func ticketFrom(r *http.Request) *models.Ticket {
	ticket, _ := r.Context().Value(apiContext.Ticket).(*models.Ticket)
	return ticket
}

func pathParam(r *http.Request, name string) string {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}
