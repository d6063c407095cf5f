package repositories

import (
	"database/sql"

	"helpdesk/internal/platform/models"
)

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(token *models.SessionToken) error {
	_, err := r.db.Exec(`
		INSERT INTO session_tokens (id, value, person_id, expires_on, revoked, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, token.ID, token.Value, token.PersonID, token.ExpiresOn, token.CreatedAt)
	return err
}

// FindLive returns the non-revoked, unexpired row matching the literal
// token string, or nil when no such row exists.
func (r *TokenRepository) FindLive(value string, now int64) (*models.SessionToken, error) {
	token := &models.SessionToken{}
	var revoked int
	err := r.db.QueryRow(`
		SELECT id, value, person_id, expires_on, revoked, created_at
		FROM session_tokens
		WHERE value = ? AND revoked = 0 AND expires_on > ?
	`, value, now).Scan(&token.ID, &token.Value, &token.PersonID, &token.ExpiresOn, &revoked, &token.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	token.Revoked = revoked != 0
	return token, nil
}

// Revoke marks rows matching the person and literal token string as
// revoked. Rows are never mutated otherwise.
func (r *TokenRepository) Revoke(personID, value string) error {
	_, err := r.db.Exec(`
		UPDATE session_tokens SET revoked = 1 WHERE person_id = ? AND value = ?
	`, personID, value)
	return err
}

// PurgeStale deletes rows that expired before the cutoff, plus revoked
// rows created before it. Callers pass a cutoff in the past so recently
// dead rows survive a grace window. Used by the background worker only;
// request paths never delete token rows.
func (r *TokenRepository) PurgeStale(cutoff int64) (int64, error) {
	res, err := r.db.Exec(`
		DELETE FROM session_tokens
		WHERE expires_on < ? OR (revoked = 1 AND created_at < ?)
	`, cutoff, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
