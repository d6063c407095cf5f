package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"helpdesk/internal/platform/config"
	"helpdesk/internal/platform/models"
	"helpdesk/internal/platform/repositories"
)

type Claims struct {
	UserID    string `json:"uid,omitempty"`
	CompanyID string `json:"cid,omitempty"`
	Role      string `json:"role,omitempty"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// PersonID returns the person the claims identify: access tokens carry
// uid, refresh tokens only the registered subject.
func (c *Claims) PersonID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// TokenService signs bearer credentials and records every issued token
// as a session row, so revocation can invalidate a token before its
// signature expiry.
type TokenService struct {
	config config.JWTConfig
	tokens *repositories.TokenRepository
}

func NewTokenService(cfg config.JWTConfig, tokens *repositories.TokenRepository) *TokenService {
	return &TokenService{config: cfg, tokens: tokens}
}

func (s *TokenService) IssueAccessToken(person *models.Person) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    person.ID,
		CompanyID: person.CompanyID,
		Role:      person.UserType,
		Email:     person.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "helpdesk",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", err
	}

	if err := s.store(signed, person.ID, now, s.config.AccessTokenTTL); err != nil {
		return "", err
	}
	return signed, nil
}

func (s *TokenService) IssueRefreshToken(person *models.Person) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   person.ID,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.RefreshTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    "helpdesk",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", err
	}

	if err := s.store(signed, person.ID, now, s.config.RefreshTokenTTL); err != nil {
		return "", err
	}
	return signed, nil
}

func (s *TokenService) store(value, personID string, now time.Time, ttl time.Duration) error {
	return s.tokens.Create(&models.SessionToken{
		ID:        "tok_" + uuid.NewString(),
		Value:     value,
		PersonID:  personID,
		ExpiresOn: now.Add(ttl).Unix(),
		CreatedAt: now.Unix(),
	})
}

// ValidateToken verifies signature and expiry only; it does not touch
// the store. Expired tokens surface jwt.ErrTokenExpired so callers can
// distinguish the two failure modes.
func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
