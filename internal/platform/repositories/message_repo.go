package repositories

import (
	"database/sql"

	"helpdesk/internal/platform/models"
)

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *models.Message) error {
	_, err := r.db.Exec(`
		INSERT INTO messages (id, ticket_id, person_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, message.ID, message.TicketID, message.PersonID, message.Content, message.CreatedAt)
	return err
}

// ListByTicket returns the ticket's messages oldest first, each with
// its sender attached.
func (r *MessageRepository) ListByTicket(ticketID string) ([]*models.Message, error) {
	rows, err := r.db.Query(`
		SELECT m.id, m.ticket_id, m.person_id, m.content, m.created_at,
		       p.id, p.full_name, p.email
		FROM messages m
		JOIN persons p ON p.id = m.person_id
		WHERE m.ticket_id = ?
		ORDER BY m.created_at ASC, m.rowid ASC
	`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		message := &models.Message{Person: &models.PersonRef{}}
		err := rows.Scan(
			&message.ID, &message.TicketID, &message.PersonID, &message.Content, &message.CreatedAt,
			&message.Person.ID, &message.Person.FullName, &message.Person.Email,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}
