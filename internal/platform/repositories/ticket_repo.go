package repositories

import (
	"database/sql"

	"helpdesk/internal/platform/models"
)

type TicketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ticket *models.Ticket) error {
	_, err := r.db.Exec(`
		INSERT INTO tickets (id, subject, details, state, person_id, company_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ticket.ID, ticket.Subject, ticket.Details, ticket.State, ticket.PersonID, ticket.CompanyID, ticket.CreatedAt, ticket.UpdatedAt)
	return err
}

func (r *TicketRepository) GetByID(id string) (*models.Ticket, error) {
	row := r.db.QueryRow(ticketSelect+` WHERE t.id = ?`, id)

	ticket, err := scanTicket(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return ticket, nil
}

func (r *TicketRepository) Update(ticket *models.Ticket) error {
	_, err := r.db.Exec(`
		UPDATE tickets SET subject = ?, details = ?, state = ?, updated_at = ?
		WHERE id = ?
	`, ticket.Subject, ticket.Details, ticket.State, ticket.UpdatedAt, ticket.ID)
	return err
}

func (r *TicketRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM tickets WHERE id = ?`, id)
	return err
}

type TicketFilter struct {
	PersonID  string
	CompanyID string
	State     string
	Search    string
	Limit     int
	Offset    int
}

func (f TicketFilter) where() (string, []interface{}) {
	clause := "1=1"
	var args []interface{}

	if f.PersonID != "" {
		clause += " AND t.person_id = ?"
		args = append(args, f.PersonID)
	}
	if f.CompanyID != "" {
		clause += " AND t.company_id = ?"
		args = append(args, f.CompanyID)
	}
	if f.State != "" {
		clause += " AND t.state = ?"
		args = append(args, f.State)
	}
	if f.Search != "" {
		clause += " AND (t.subject LIKE ? OR t.details LIKE ?)"
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}
	return clause, args
}

func (r *TicketRepository) List(filter TicketFilter) ([]*models.Ticket, error) {
	clause, args := filter.where()
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ticketSelect+`
		WHERE `+clause+`
		ORDER BY t.created_at DESC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

func (r *TicketRepository) Count(filter TicketFilter) (int, error) {
	clause, args := filter.where()

	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM tickets t WHERE `+clause, args...).Scan(&count)
	return count, err
}

type TicketStats struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Pending  int `json:"pending"`
	Resolved int `json:"resolved"`
	Closed   int `json:"closed"`
}

// StatsSummary counts tickets by state, scoped to a company when
// companyID is non-empty.
func (r *TicketRepository) StatsSummary(companyID string) (*TicketStats, error) {
	clause := "1=1"
	var args []interface{}
	if companyID != "" {
		clause = "company_id = ?"
		args = append(args, companyID)
	}

	stats := &TicketStats{}
	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN state = 'open' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN state = 'pending' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN state = 'resolved' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN state = 'closed' THEN 1 ELSE 0 END), 0)
		FROM tickets WHERE `+clause,
		args...).Scan(&stats.Total, &stats.Open, &stats.Pending, &stats.Resolved, &stats.Closed)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

const ticketSelect = `
	SELECT t.id, t.subject, t.details, t.state, t.person_id, t.company_id,
	       t.created_at, t.updated_at,
	       p.id, p.full_name, p.email,
	       c.id, c.title
	FROM tickets t
	JOIN persons p ON p.id = t.person_id
	JOIN companies c ON c.id = t.company_id`

func scanTicket(s interface {
	Scan(dest ...interface{}) error
}) (*models.Ticket, error) {
	ticket := &models.Ticket{
		Person:  &models.PersonRef{},
		Company: &models.CompanyRef{},
	}
	var details sql.NullString

	err := s.Scan(
		&ticket.ID, &ticket.Subject, &details, &ticket.State,
		&ticket.PersonID, &ticket.CompanyID,
		&ticket.CreatedAt, &ticket.UpdatedAt,
		&ticket.Person.ID, &ticket.Person.FullName, &ticket.Person.Email,
		&ticket.Company.ID, &ticket.Company.Title,
	)
	if err != nil {
		return nil, err
	}
	if details.Valid {
		ticket.Details = details.String
	}
	return ticket, nil
}
