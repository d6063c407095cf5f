package middleware

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apiContext "helpdesk/internal/api/context"
	"helpdesk/internal/platform/auth"
	"helpdesk/internal/platform/config"
	"helpdesk/internal/platform/models"
	"helpdesk/internal/platform/repositories"
)

type authFixture struct {
	mid       *AuthMiddleware
	tokenSvc  *auth.TokenService
	tokenRepo *repositories.TokenRepository
	person    *models.Person
}

func setupAuthFixture(t *testing.T, jwtCfg config.JWTConfig) *authFixture {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE companies (
		id TEXT PRIMARY KEY, title TEXT NOT NULL,
		created_at INTEGER NOT NULL, updated_at INTEGER NOT NULL
	);
	CREATE TABLE persons (
		id TEXT PRIMARY KEY, full_name TEXT NOT NULL, email TEXT NOT NULL,
		password_hash TEXT NOT NULL, user_type TEXT NOT NULL,
		company_id TEXT NOT NULL, last_seen_at INTEGER,
		created_at INTEGER NOT NULL, updated_at INTEGER NOT NULL
	);
	CREATE TABLE session_tokens (
		id TEXT PRIMARY KEY, value TEXT NOT NULL, person_id TEXT NOT NULL,
		expires_on INTEGER NOT NULL, revoked INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	personRepo := repositories.NewPersonRepository(db)
	companyRepo := repositories.NewCompanyRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)
	tokenSvc := auth.NewTokenService(jwtCfg, tokenRepo)

	now := time.Now().Unix()
	if err := companyRepo.Create(&models.Company{ID: "com_1", Title: "Acme", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("Failed to seed company: %v", err)
	}
	person := &models.Person{
		ID: "usr_1", FullName: "Alice", Email: "alice@example.com",
		PasswordHash: "x", UserType: models.RoleNormal, CompanyID: "com_1",
		CreatedAt: now, UpdatedAt: now,
	}
	if err := personRepo.Create(person); err != nil {
		t.Fatalf("Failed to seed person: %v", err)
	}

	return &authFixture{
		mid:       NewAuthMiddleware(tokenSvc, personRepo, companyRepo, tokenRepo),
		tokenSvc:  tokenSvc,
		tokenRepo: tokenRepo,
		person:    person,
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	return body.Code
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour, RefreshTokenTTL: 24 * time.Hour}

	t.Run("valid token", func(t *testing.T) {
		f := setupAuthFixture(t, cfg)
		token, err := f.tokenSvc.IssueAccessToken(f.person)
		if err != nil {
			t.Fatalf("IssueAccessToken failed: %v", err)
		}

		req := httptest.NewRequest("GET", "/api/tickets", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rr := httptest.NewRecorder()
		handler := f.mid.Handle(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := r.Context().Value(apiContext.Identity).(*models.Person)
			if identity == nil || identity.ID != "usr_1" {
				t.Errorf("expected identity usr_1, got %+v", identity)
			}
			if identity.Company == nil || identity.Company.Title != "Acme" {
				t.Errorf("expected company loaded, got %+v", identity.Company)
			}
			w.WriteHeader(http.StatusOK)
		})

		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("got status %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
		}
	})

	t.Run("missing header", func(t *testing.T) {
		f := setupAuthFixture(t, cfg)

		rr := httptest.NewRecorder()
		f.mid.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		}).ServeHTTP(rr, httptest.NewRequest("GET", "/api/tickets", nil))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
		}
		if code := errorCode(t, rr); code != "TOKEN_MISSING" {
			t.Errorf("got code %q, want TOKEN_MISSING", code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		f := setupAuthFixture(t, cfg)

		req := httptest.NewRequest("GET", "/api/tickets", nil)
		req.Header.Set("Authorization", "Basic abc")

		rr := httptest.NewRecorder()
		f.mid.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		}).ServeHTTP(rr, req)

		if code := errorCode(t, rr); code != "TOKEN_INVALID" {
			t.Errorf("got code %q, want TOKEN_INVALID", code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		f := setupAuthFixture(t, config.JWTConfig{Secret: "test-secret", AccessTokenTTL: -time.Minute})
		token, err := f.tokenSvc.IssueAccessToken(f.person)
		if err != nil {
			t.Fatalf("IssueAccessToken failed: %v", err)
		}

		req := httptest.NewRequest("GET", "/api/tickets", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rr := httptest.NewRecorder()
		f.mid.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		}).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
		}
		if code := errorCode(t, rr); code != "TOKEN_EXPIRED" {
			t.Errorf("got code %q, want TOKEN_EXPIRED", code)
		}
	})

	t.Run("revoked token", func(t *testing.T) {
		f := setupAuthFixture(t, cfg)
		token, err := f.tokenSvc.IssueAccessToken(f.person)
		if err != nil {
			t.Fatalf("IssueAccessToken failed: %v", err)
		}
		if err := f.tokenRepo.Revoke(f.person.ID, token); err != nil {
			t.Fatalf("Revoke failed: %v", err)
		}

		req := httptest.NewRequest("GET", "/api/tickets", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rr := httptest.NewRecorder()
		f.mid.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		}).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
		}
		if code := errorCode(t, rr); code != "TOKEN_INVALID" {
			t.Errorf("got code %q, want TOKEN_INVALID", code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		f := setupAuthFixture(t, cfg)

		req := httptest.NewRequest("GET", "/api/tickets", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")

		rr := httptest.NewRecorder()
		f.mid.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		}).ServeHTTP(rr, req)

		if code := errorCode(t, rr); code != "TOKEN_INVALID" {
			t.Errorf("got code %q, want TOKEN_INVALID", code)
		}
	})
}
