package repositories

import (
	"database/sql"

	"helpdesk/internal/platform/models"
)

type PersonRepository struct {
	db *sql.DB
}

func NewPersonRepository(db *sql.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

func (r *PersonRepository) Create(person *models.Person) error {
	_, err := r.db.Exec(`
		INSERT INTO persons (id, full_name, email, password_hash, user_type, company_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, person.ID, person.FullName, person.Email, person.PasswordHash, person.UserType, person.CompanyID, person.CreatedAt, person.UpdatedAt)
	return err
}

func (r *PersonRepository) GetByID(id string) (*models.Person, error) {
	row := r.db.QueryRow(`
		SELECT id, full_name, email, password_hash, user_type, company_id, last_seen_at, created_at, updated_at
		FROM persons WHERE id = ?
	`, id)
	return scanPerson(row)
}

func (r *PersonRepository) GetByEmail(email string) (*models.Person, error) {
	row := r.db.QueryRow(`
		SELECT id, full_name, email, password_hash, user_type, company_id, last_seen_at, created_at, updated_at
		FROM persons WHERE email = ?
	`, email)
	return scanPerson(row)
}

func (r *PersonRepository) UpdateLastSeen(id string, timestamp int64) error {
	_, err := r.db.Exec(`UPDATE persons SET last_seen_at = ? WHERE id = ?`, timestamp, id)
	return err
}

func (r *PersonRepository) Update(person *models.Person) error {
	_, err := r.db.Exec(`
		UPDATE persons SET full_name = ?, email = ?, user_type = ?, company_id = ?, updated_at = ?
		WHERE id = ?
	`, person.FullName, person.Email, person.UserType, person.CompanyID, person.UpdatedAt, person.ID)
	return err
}

// Delete removes the person row; session tokens, tickets and messages
// cascade via foreign keys.
func (r *PersonRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM persons WHERE id = ?`, id)
	return err
}

type PersonFilter struct {
	UserType  string
	CompanyID string
	Limit     int
	Offset    int
}

func (f PersonFilter) where() (string, []interface{}) {
	clause := "1=1"
	var args []interface{}

	if f.UserType != "" {
		clause += " AND p.user_type = ?"
		args = append(args, f.UserType)
	}
	if f.CompanyID != "" {
		clause += " AND p.company_id = ?"
		args = append(args, f.CompanyID)
	}
	return clause, args
}

func (r *PersonRepository) List(filter PersonFilter) ([]*models.Person, error) {
	clause, args := filter.where()
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(`
		SELECT p.id, p.full_name, p.email, p.password_hash, p.user_type, p.company_id,
		       p.last_seen_at, p.created_at, p.updated_at,
		       c.id, c.title, c.created_at, c.updated_at
		FROM persons p
		JOIN companies c ON c.id = p.company_id
		WHERE `+clause+`
		ORDER BY p.created_at DESC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var persons []*models.Person
	for rows.Next() {
		person := &models.Person{Company: &models.Company{}}
		var lastSeen sql.NullInt64
		err := rows.Scan(
			&person.ID, &person.FullName, &person.Email, &person.PasswordHash,
			&person.UserType, &person.CompanyID, &lastSeen,
			&person.CreatedAt, &person.UpdatedAt,
			&person.Company.ID, &person.Company.Title,
			&person.Company.CreatedAt, &person.Company.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if lastSeen.Valid {
			val := lastSeen.Int64
			person.LastSeenAt = &val
		}
		persons = append(persons, person)
	}
	return persons, rows.Err()
}

func (r *PersonRepository) Count(filter PersonFilter) (int, error) {
	clause, args := filter.where()

	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM persons p WHERE `+clause, args...).Scan(&count)
	return count, err
}

type PersonStats struct {
	Total   int `json:"total"`
	Normal  int `json:"normal"`
	Support int `json:"support"`
	Admin   int `json:"admin"`
	Active  int `json:"active"`
}

func (r *PersonRepository) StatsSummary(activeSince int64) (*PersonStats, error) {
	stats := &PersonStats{}
	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN user_type = 'NORMAL' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN user_type = 'SUPPORT' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN user_type = 'ADMIN' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN last_seen_at >= ? THEN 1 ELSE 0 END), 0)
		FROM persons
	`, activeSince).Scan(&stats.Total, &stats.Normal, &stats.Support, &stats.Admin, &stats.Active)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func scanPerson(row *sql.Row) (*models.Person, error) {
	person := &models.Person{}
	var lastSeen sql.NullInt64

	err := row.Scan(
		&person.ID, &person.FullName, &person.Email, &person.PasswordHash,
		&person.UserType, &person.CompanyID, &lastSeen,
		&person.CreatedAt, &person.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if lastSeen.Valid {
		val := lastSeen.Int64
		person.LastSeenAt = &val
	}
	return person, nil
}

type CompanyRepository struct {
	db *sql.DB
}

func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(company *models.Company) error {
	_, err := r.db.Exec(`
		INSERT INTO companies (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, company.ID, company.Title, company.CreatedAt, company.UpdatedAt)
	return err
}

func (r *CompanyRepository) GetByID(id string) (*models.Company, error) {
	company := &models.Company{}
	err := r.db.QueryRow(`
		SELECT id, title, created_at, updated_at FROM companies WHERE id = ?
	`, id).Scan(&company.ID, &company.Title, &company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return company, nil
}

// GetByTitle matches case-insensitively; the title column carries
// COLLATE NOCASE.
func (r *CompanyRepository) GetByTitle(title string) (*models.Company, error) {
	company := &models.Company{}
	err := r.db.QueryRow(`
		SELECT id, title, created_at, updated_at FROM companies WHERE title = ?
	`, title).Scan(&company.ID, &company.Title, &company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return company, nil
}

func (r *CompanyRepository) List() ([]*models.Company, error) {
	rows, err := r.db.Query(`
		SELECT id, title, created_at, updated_at FROM companies ORDER BY title ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		company := &models.Company{}
		if err := rows.Scan(&company.ID, &company.Title, &company.CreatedAt, &company.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

func (r *CompanyRepository) Update(company *models.Company) error {
	_, err := r.db.Exec(`
		UPDATE companies SET title = ?, updated_at = ? WHERE id = ?
	`, company.Title, company.UpdatedAt, company.ID)
	return err
}

func (r *CompanyRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM companies WHERE id = ?`, id)
	return err
}

// Counts returns how many persons and tickets reference the company.
func (r *CompanyRepository) Counts(id string) (members int, tickets int, err error) {
	err = r.db.QueryRow(`
		SELECT (SELECT COUNT(*) FROM persons WHERE company_id = ?),
		       (SELECT COUNT(*) FROM tickets WHERE company_id = ?)
	`, id, id).Scan(&members, &tickets)
	return members, tickets, err
}

func (r *CompanyRepository) Members(companyID string) ([]*models.Person, error) {
	rows, err := r.db.Query(`
		SELECT id, full_name, email, user_type, last_seen_at, created_at
		FROM persons WHERE company_id = ?
		ORDER BY full_name ASC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var persons []*models.Person
	for rows.Next() {
		person := &models.Person{CompanyID: companyID}
		var lastSeen sql.NullInt64
		err := rows.Scan(&person.ID, &person.FullName, &person.Email, &person.UserType, &lastSeen, &person.CreatedAt)
		if err != nil {
			return nil, err
		}
		if lastSeen.Valid {
			val := lastSeen.Int64
			person.LastSeenAt = &val
		}
		persons = append(persons, person)
	}
	return persons, rows.Err()
}

func (r *CompanyRepository) RecentTickets(companyID string, limit int) ([]*models.Ticket, error) {
	rows, err := r.db.Query(`
		SELECT id, subject, state, person_id, created_at
		FROM tickets WHERE company_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		ticket := &models.Ticket{CompanyID: companyID}
		if err := rows.Scan(&ticket.ID, &ticket.Subject, &ticket.State, &ticket.PersonID, &ticket.CreatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

type CompanyStats struct {
	Total       int `json:"total"`
	WithMembers int `json:"withMembers"`
	WithTickets int `json:"withTickets"`
}

func (r *CompanyRepository) StatsSummary() (*CompanyStats, error) {
	stats := &CompanyStats{}
	err := r.db.QueryRow(`
		SELECT (SELECT COUNT(*) FROM companies),
		       (SELECT COUNT(DISTINCT company_id) FROM persons),
		       (SELECT COUNT(DISTINCT company_id) FROM tickets)
	`).Scan(&stats.Total, &stats.WithMembers, &stats.WithTickets)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
