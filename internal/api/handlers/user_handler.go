package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	apiErrors "helpdesk/internal/pkg/errors"
	"helpdesk/internal/pkg/pagination"
	"helpdesk/internal/pkg/validation"
	"helpdesk/internal/platform/models"
	"helpdesk/internal/platform/repositories"
)

type UserHandler struct {
	personRepo  *repositories.PersonRepository
	companyRepo *repositories.CompanyRepository
	bcryptCost  int
}

func NewUserHandler(personRepo *repositories.PersonRepository, companyRepo *repositories.CompanyRepository, bcryptCost int) *UserHandler {
	return &UserHandler{
		personRepo:  personRepo,
		companyRepo: companyRepo,
		bcryptCost:  bcryptCost,
	}
}

type listUsersQuery struct {
	UserType string `json:"userType" validate:"omitempty,oneof=NORMAL SUPPORT ADMIN"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	query := listUsersQuery{UserType: r.URL.Query().Get("userType")}
	if fieldErrors := validation.Struct(query); fieldErrors != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Validation failed", fieldErrors)
		return
	}

	params := pagination.Parse(r.URL.Query())
	filter := repositories.PersonFilter{
		UserType:  query.UserType,
		CompanyID: r.URL.Query().Get("companyId"),
		Limit:     params.Limit,
		Offset:    params.Offset(),
	}

	users, err := h.personRepo.List(filter)
	if err != nil {
		writeInternal(w, err, "users: list")
		return
	}
	totalCount, err := h.personRepo.Count(filter)
	if err != nil {
		writeInternal(w, err, "users: count")
		return
	}
	if users == nil {
		users = []*models.Person{}
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Users retrieved successfully", map[string]interface{}{
		"users":      users,
		"pagination": pagination.NewMeta(params, totalCount),
	})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	person, err := h.personRepo.GetByID(pathParam(r, "id"))
	if err != nil {
		writeInternal(w, err, "users: get")
		return
	}
	if person == nil {
		apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeUserNotFound, "User not found", nil)
		return
	}

	company, err := h.companyRepo.GetByID(person.CompanyID)
	if err != nil {
		log.Warn().Err(err).Str("company_id", person.CompanyID).Msg("failed to load company")
	} else {
		person.Company = company
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "User retrieved successfully", map[string]interface{}{
		"user": person,
	})
}

type CreateUserRequest struct {
	FullName  string `json:"fullName" validate:"required,min=2"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	UserType  string `json:"userType" validate:"omitempty,oneof=NORMAL SUPPORT ADMIN"`
	CompanyID string `json:"companyId" validate:"required"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if fieldErrors := validation.Struct(req); fieldErrors != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Validation failed", fieldErrors)
		return
	}

	existing, err := h.personRepo.GetByEmail(req.Email)
	if err != nil {
		writeInternal(w, err, "users: email lookup")
		return
	}
	if existing != nil {
		apiErrors.WriteError(w, http.StatusConflict, apiErrors.ErrCodeUserExists, "User already exists", nil)
		return
	}

	company, err := h.companyRepo.GetByID(req.CompanyID)
	if err != nil {
		writeInternal(w, err, "users: company lookup")
		return
	}
	if company == nil {
		apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeCompanyNotFound, "Company not found", nil)
		return
	}

	userType := req.UserType
	if userType == "" {
		userType = models.RoleNormal
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		writeInternal(w, err, "users: password hash")
		return
	}

	now := time.Now().Unix()
	person := &models.Person{
		ID:           "usr_" + uuid.NewString(),
		FullName:     req.FullName,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		UserType:     userType,
		CompanyID:    company.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.personRepo.Create(person); err != nil {
		writeInternal(w, err, "users: create")
		return
	}
	person.Company = company

	apiErrors.WriteSuccess(w, http.StatusCreated, "User created successfully", map[string]interface{}{
		"user": person,
	})
}

type UpdateUserRequest struct {
	FullName  *string `json:"fullName" validate:"omitempty,min=2"`
	Email     *string `json:"email" validate:"omitempty,email"`
	UserType  *string `json:"userType" validate:"omitempty,oneof=NORMAL SUPPORT ADMIN"`
	CompanyID *string `json:"companyId"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if fieldErrors := validation.Struct(req); fieldErrors != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Validation failed", fieldErrors)
		return
	}

	person, err := h.personRepo.GetByID(pathParam(r, "id"))
	if err != nil {
		writeInternal(w, err, "users: update lookup")
		return
	}
	if person == nil {
		apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeUserNotFound, "User not found", nil)
		return
	}

	if req.Email != nil && !strings.EqualFold(*req.Email, person.Email) {
		taken, err := h.personRepo.GetByEmail(*req.Email)
		if err != nil {
			writeInternal(w, err, "users: email check")
			return
		}
		if taken != nil {
			apiErrors.WriteError(w, http.StatusConflict, apiErrors.ErrCodeEmailExists, "Email already in use", nil)
			return
		}
		person.Email = strings.ToLower(*req.Email)
	}

	if req.CompanyID != nil && *req.CompanyID != person.CompanyID {
		company, err := h.companyRepo.GetByID(*req.CompanyID)
		if err != nil {
			writeInternal(w, err, "users: company check")
			return
		}
		if company == nil {
			apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeCompanyNotFound, "Company not found", nil)
			return
		}
		person.CompanyID = company.ID
	}

	if req.FullName != nil {
		person.FullName = *req.FullName
	}
	if req.UserType != nil {
		person.UserType = *req.UserType
	}
	person.UpdatedAt = time.Now().Unix()

	if err := h.personRepo.Update(person); err != nil {
		writeInternal(w, err, "users: update")
		return
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "User updated successfully", map[string]interface{}{
		"user": person,
	})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)

	person, err := h.personRepo.GetByID(pathParam(r, "id"))
	if err != nil {
		writeInternal(w, err, "users: delete lookup")
		return
	}
	if person == nil {
		apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeUserNotFound, "User not found", nil)
		return
	}

	if person.ID == identity.ID {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeSelfDeletion, "Cannot delete your own account", nil)
		return
	}

	// Cascades to the person's tickets, messages and session tokens.
	if err := h.personRepo.Delete(person.ID); err != nil {
		writeInternal(w, err, "users: delete")
		return
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "User deleted successfully", nil)
}

func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	activeSince := time.Now().Add(-7 * 24 * time.Hour).Unix()

	stats, err := h.personRepo.StatsSummary(activeSince)
	if err != nil {
		writeInternal(w, err, "users: stats")
		return
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "User statistics retrieved successfully", map[string]interface{}{
		"summary": stats,
	})
}
