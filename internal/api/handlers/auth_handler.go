package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	apiContext "helpdesk/internal/api/context"
	apiErrors "helpdesk/internal/pkg/errors"
	"helpdesk/internal/pkg/validation"
	"helpdesk/internal/platform/auth"
	"helpdesk/internal/platform/models"
	"helpdesk/internal/platform/repositories"
)

type AuthHandler struct {
	personRepo  *repositories.PersonRepository
	companyRepo *repositories.CompanyRepository
	tokenRepo   *repositories.TokenRepository
	tokenSvc    *auth.TokenService
	bcryptCost  int
}

func NewAuthHandler(personRepo *repositories.PersonRepository, companyRepo *repositories.CompanyRepository, tokenRepo *repositories.TokenRepository, tokenSvc *auth.TokenService, bcryptCost int) *AuthHandler {
	return &AuthHandler{
		personRepo:  personRepo,
		companyRepo: companyRepo,
		tokenRepo:   tokenRepo,
		tokenSvc:    tokenSvc,
		bcryptCost:  bcryptCost,
	}
}

type RegisterRequest struct {
	FullName  string `json:"fullName" validate:"required,min=2"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	CompanyID string `json:"companyId" validate:"required"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
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
		writeInternal(w, err, "register: email lookup")
		return
	}
	if existing != nil {
		apiErrors.WriteError(w, http.StatusConflict, apiErrors.ErrCodeUserExists, "User already exists", nil)
		return
	}

	company, err := h.companyRepo.GetByID(req.CompanyID)
	if err != nil {
		writeInternal(w, err, "register: company lookup")
		return
	}
	if company == nil {
		apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeCompanyNotFound, "Company not found", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		writeInternal(w, err, "register: password hash")
		return
	}

	now := time.Now().Unix()
	person := &models.Person{
		ID:           "usr_" + uuid.NewString(),
		FullName:     req.FullName,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		UserType:     models.RoleNormal,
		CompanyID:    company.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.personRepo.Create(person); err != nil {
		writeInternal(w, err, "register: create person")
		return
	}
	person.Company = company

	tokens, err := h.issueTokens(person)
	if err != nil {
		writeInternal(w, err, "register: issue tokens")
		return
	}

	apiErrors.WriteSuccess(w, http.StatusCreated, "User registered successfully", map[string]interface{}{
		"user":   person,
		"tokens": tokens,
	})
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if fieldErrors := validation.Struct(req); fieldErrors != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Validation failed", fieldErrors)
		return
	}

	person, err := h.personRepo.GetByEmail(req.Email)
	if err != nil {
		writeInternal(w, err, "login: email lookup")
		return
	}
	if person == nil {
		apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeInvalidCreds, "Invalid credentials", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(person.PasswordHash), []byte(req.Password)); err != nil {
		apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeInvalidCreds, "Invalid credentials", nil)
		return
	}

	tokens, err := h.issueTokens(person)
	if err != nil {
		writeInternal(w, err, "login: issue tokens")
		return
	}

	if err := h.personRepo.UpdateLastSeen(person.ID, time.Now().Unix()); err != nil {
		log.Warn().Err(err).Str("person_id", person.ID).Msg("failed to update last seen")
	}

	company, err := h.companyRepo.GetByID(person.CompanyID)
	if err != nil {
		log.Warn().Err(err).Str("company_id", person.CompanyID).Msg("failed to load company")
	} else {
		person.Company = company
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Login successful", map[string]interface{}{
		"user":   person,
		"tokens": tokens,
	})
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if req.RefreshToken == "" {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeRefreshMissing, "Refresh token required", nil)
		return
	}

	if _, err := h.tokenSvc.ValidateToken(req.RefreshToken); err != nil {
		apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeRefreshInvalid, "Invalid or expired refresh token", nil)
		return
	}

	session, err := h.tokenRepo.FindLive(req.RefreshToken, time.Now().Unix())
	if err != nil {
		writeInternal(w, err, "refresh: session lookup")
		return
	}
	if session == nil {
		apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeRefreshInvalid, "Invalid or expired refresh token", nil)
		return
	}

	person, err := h.personRepo.GetByID(session.PersonID)
	if err != nil {
		writeInternal(w, err, "refresh: person lookup")
		return
	}
	if person == nil {
		apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeRefreshInvalid, "Invalid or expired refresh token", nil)
		return
	}

	// A new access token is minted; the refresh token itself is not
	// rotated.
	accessToken, err := h.tokenSvc.IssueAccessToken(person)
	if err != nil {
		writeInternal(w, err, "refresh: issue access token")
		return
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Token refreshed successfully", map[string]interface{}{
		"accessToken": accessToken,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	person, ok := r.Context().Value(apiContext.Identity).(*models.Person)
	if !ok {
		apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeTokenInvalid, "No authentication identity found", nil)
		return
	}

	// The middleware has already verified the header shape.
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 {
		apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeTokenInvalid, "Invalid authorization header format", nil)
		return
	}

	if err := h.tokenRepo.Revoke(person.ID, parts[1]); err != nil {
		writeInternal(w, err, "logout: revoke token")
		return
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Logout successful", nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	person, ok := r.Context().Value(apiContext.Identity).(*models.Person)
	if !ok {
		apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeTokenInvalid, "No authentication identity found", nil)
		return
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Profile retrieved successfully", map[string]interface{}{
		"user": person,
	})
}

func (h *AuthHandler) issueTokens(person *models.Person) (*tokenPair, error) {
	accessToken, err := h.tokenSvc.IssueAccessToken(person)
	if err != nil {
		return nil, err
	}
	refreshToken, err := h.tokenSvc.IssueRefreshToken(person)
	if err != nil {
		return nil, err
	}
	return &tokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// writeInternal logs the failure server-side and returns a generic
// body; internal detail never reaches the client.
func writeInternal(w http.ResponseWriter, err error, context string) {
	log.Error().Err(err).Str("op", context).Msg("internal error")
	apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Internal server error", nil)
}
