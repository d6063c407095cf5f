package workers

import (
	"time"

	"github.com/rs/zerolog/log"

	"helpdesk/internal/platform/repositories"
)

// PurgeSessionTokens deletes session rows that have been dead for
// longer than the retention window. Revocation alone never deletes a
// row: a just-revoked token stays on record until it ages past
// retention, so the purge can never race a token that is still inside
// its signed lifetime. Retention is the refresh-token TTL, the longest
// lifetime any issued token can have.
func PurgeSessionTokens(tokens *repositories.TokenRepository, retention time.Duration) error {
	cutoff := time.Now().Add(-retention).Unix()
	removed, err := tokens.PurgeStale(cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("purged stale session tokens")
	}
	return nil
}
