package workers

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"helpdesk/internal/platform/models"
	"helpdesk/internal/platform/repositories"
)

func setupTokenRepo(t *testing.T) (*repositories.TokenRepository, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
	CREATE TABLE session_tokens (
		id         TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		person_id  TEXT NOT NULL,
		expires_on INTEGER NOT NULL,
		revoked    INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);`)
	if err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return repositories.NewTokenRepository(db), db
}

func TestPurgeSessionTokens_KeepsRecentlyRevokedTokens(t *testing.T) {
	repo, db := setupTokenRepo(t)
	retention := 7 * 24 * time.Hour
	now := time.Now()

	// Logged out an hour ago, signature valid for another week: the
	// row must stay so the revocation stays enforceable.
	err := repo.Create(&models.SessionToken{
		ID: "tok_fresh", Value: "fresh", PersonID: "usr_1",
		ExpiresOn: now.Add(retention).Unix(),
		CreatedAt: now.Add(-time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Revoke("usr_1", "fresh"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	// Dead for over two retention windows.
	err = repo.Create(&models.SessionToken{
		ID: "tok_ancient", Value: "ancient", PersonID: "usr_1",
		ExpiresOn: now.Add(-2 * retention).Unix(),
		CreatedAt: now.Add(-3 * retention).Unix(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := PurgeSessionTokens(repo, retention); err != nil {
		t.Fatalf("PurgeSessionTokens failed: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM session_tokens WHERE value = ?`, "ancient").Scan(&count); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if count != 0 {
		t.Error("long-dead token should be purged")
	}

	// The revoked row itself must still exist even though FindLive
	// excludes it.
	if err := db.QueryRow(`SELECT COUNT(*) FROM session_tokens WHERE value = ?`, "fresh").Scan(&count); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if count != 1 {
		t.Error("recently revoked token must survive the purge")
	}
}
