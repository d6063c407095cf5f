package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	apiErrors "helpdesk/internal/pkg/errors"
	"helpdesk/internal/pkg/validation"
	"helpdesk/internal/platform/models"
	"helpdesk/internal/platform/repositories"
)

type CompanyHandler struct {
	companyRepo *repositories.CompanyRepository
}

func NewCompanyHandler(companyRepo *repositories.CompanyRepository) *CompanyHandler {
	return &CompanyHandler{companyRepo: companyRepo}
}

// companyView decorates a company with its member and ticket counts.
type companyView struct {
	*models.Company
	UserCount   int `json:"userCount"`
	TicketCount int `json:"ticketCount"`
}

func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companyRepo.List()
	if err != nil {
		writeInternal(w, err, "companies: list")
		return
	}

	views := make([]*companyView, 0, len(companies))
	for _, company := range companies {
		members, tickets, err := h.companyRepo.Counts(company.ID)
		if err != nil {
			writeInternal(w, err, "companies: counts")
			return
		}
		views = append(views, &companyView{Company: company, UserCount: members, TicketCount: tickets})
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Companies retrieved successfully", map[string]interface{}{
		"companies": views,
	})
}

func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	company, err := h.companyRepo.GetByID(pathParam(r, "id"))
	if err != nil {
		writeInternal(w, err, "companies: get")
		return
	}
	if company == nil {
		apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeCompanyNotFound, "Company not found", nil)
		return
	}

	members, err := h.companyRepo.Members(company.ID)
	if err != nil {
		writeInternal(w, err, "companies: members")
		return
	}
	tickets, err := h.companyRepo.RecentTickets(company.ID, 10)
	if err != nil {
		writeInternal(w, err, "companies: tickets")
		return
	}
	memberCount, ticketCount, err := h.companyRepo.Counts(company.ID)
	if err != nil {
		writeInternal(w, err, "companies: counts")
		return
	}
	if members == nil {
		members = []*models.Person{}
	}
	if tickets == nil {
		tickets = []*models.Ticket{}
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Company retrieved successfully", map[string]interface{}{
		"company": &companyView{Company: company, UserCount: memberCount, TicketCount: ticketCount},
		"users":   members,
		"tickets": tickets,
	})
}

type CompanyRequest struct {
	Title string `json:"title" validate:"required,min=2"`
}

func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if fieldErrors := validation.Struct(req); fieldErrors != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Validation failed", fieldErrors)
		return
	}

	existing, err := h.companyRepo.GetByTitle(req.Title)
	if err != nil {
		writeInternal(w, err, "companies: title lookup")
		return
	}
	if existing != nil {
		apiErrors.WriteError(w, http.StatusConflict, apiErrors.ErrCodeCompanyExists, "Company already exists", nil)
		return
	}

	now := time.Now().Unix()
	company := &models.Company{
		ID:        "com_" + uuid.NewString(),
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.companyRepo.Create(company); err != nil {
		writeInternal(w, err, "companies: create")
		return
	}

	apiErrors.WriteSuccess(w, http.StatusCreated, "Company created successfully", map[string]interface{}{
		"company": company,
	})
}

func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req CompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if fieldErrors := validation.Struct(req); fieldErrors != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Validation failed", fieldErrors)
		return
	}

	company, err := h.companyRepo.GetByID(pathParam(r, "id"))
	if err != nil {
		writeInternal(w, err, "companies: update lookup")
		return
	}
	if company == nil {
		apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeCompanyNotFound, "Company not found", nil)
		return
	}

	taken, err := h.companyRepo.GetByTitle(req.Title)
	if err != nil {
		writeInternal(w, err, "companies: title check")
		return
	}
	if taken != nil && taken.ID != company.ID {
		apiErrors.WriteError(w, http.StatusConflict, apiErrors.ErrCodeCompanyNameExists, "Company name already in use", nil)
		return
	}

	company.Title = req.Title
	company.UpdatedAt = time.Now().Unix()
	if err := h.companyRepo.Update(company); err != nil {
		writeInternal(w, err, "companies: update")
		return
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Company updated successfully", map[string]interface{}{
		"company": company,
	})
}

func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	company, err := h.companyRepo.GetByID(pathParam(r, "id"))
	if err != nil {
		writeInternal(w, err, "companies: delete lookup")
		return
	}
	if company == nil {
		apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeCompanyNotFound, "Company not found", nil)
		return
	}

	members, tickets, err := h.companyRepo.Counts(company.ID)
	if err != nil {
		writeInternal(w, err, "companies: counts")
		return
	}
	if members > 0 || tickets > 0 {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeCompanyHasData, "Cannot delete company with existing users or tickets", map[string]int{
			"userCount":   members,
			"ticketCount": tickets,
		})
		return
	}

	if err := h.companyRepo.Delete(company.ID); err != nil {
		writeInternal(w, err, "companies: delete")
		return
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Company deleted successfully", nil)
}

func (h *CompanyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.companyRepo.StatsSummary()
	if err != nil {
		writeInternal(w, err, "companies: stats")
		return
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Company statistics retrieved successfully", map[string]interface{}{
		"summary": stats,
	})
}
