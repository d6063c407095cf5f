package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	apiContext "helpdesk/internal/api/context"
	apiErrors "helpdesk/internal/pkg/errors"
	"helpdesk/internal/platform/auth"
	"helpdesk/internal/platform/repositories"
)

type AuthMiddleware struct {
	tokenSvc    *auth.TokenService
	personRepo  *repositories.PersonRepository
	companyRepo *repositories.CompanyRepository
	tokenRepo   *repositories.TokenRepository
}

func NewAuthMiddleware(tokenSvc *auth.TokenService, personRepo *repositories.PersonRepository, companyRepo *repositories.CompanyRepository, tokenRepo *repositories.TokenRepository) *AuthMiddleware {
	return &AuthMiddleware{
		tokenSvc:    tokenSvc,
		personRepo:  personRepo,
		companyRepo: companyRepo,
		tokenRepo:   tokenRepo,
	}
}

// Handle resolves the request identity from the bearer token. Signature
// and expiry are checked first (no I/O), then the store is consulted
// for a live session row matching the literal token string, so a
// revoked session fails even while its signature is still valid.
func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeTokenMissing, "Access token required", nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeTokenInvalid, "Invalid authorization header format", nil)
			return
		}
		tokenString := parts[1]

		claims, err := m.tokenSvc.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeTokenExpired, "Token expired", nil)
				return
			}
			apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeTokenInvalid, "Invalid token", nil)
			return
		}

		session, err := m.tokenRepo.FindLive(tokenString, time.Now().Unix())
		if err != nil {
			apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Authentication failed", nil)
			return
		}
		if session == nil {
			apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeTokenInvalid, "Invalid or expired token", nil)
			return
		}

		person, err := m.personRepo.GetByID(claims.PersonID())
		if err != nil {
			apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Authentication failed", nil)
			return
		}
		if person == nil {
			apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeTokenInvalid, "Invalid or expired token", nil)
			return
		}

		company, err := m.companyRepo.GetByID(person.CompanyID)
		if err != nil {
			apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Authentication failed", nil)
			return
		}
		person.Company = company

		// Best effort, off the request path
		go func(id string) {
			if err := m.personRepo.UpdateLastSeen(id, time.Now().Unix()); err != nil {
				log.Warn().Err(err).Str("person_id", id).Msg("failed to update last seen")
			}
		}(person.ID)

		ctx := context.WithValue(r.Context(), apiContext.Identity, person)
		next(w, r.WithContext(ctx))
	}
}
