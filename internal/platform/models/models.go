package models

const (
	RoleNormal  = "NORMAL"
	RoleSupport = "SUPPORT"
	RoleAdmin   = "ADMIN"
)

const (
	TicketOpen     = "open"
	TicketPending  = "pending"
	TicketResolved = "resolved"
	TicketClosed   = "closed"
)

type Company struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

type Person struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	UserType     string `json:"userType"`
	CompanyID    string `json:"companyId"`
	LastSeenAt   *int64 `json:"lastSeenAt,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`

	Company *Company `json:"company,omitempty"`
}

// SessionToken rows are append-only: the only mutation ever applied is
// setting revoked.
type SessionToken struct {
	ID        string `json:"id"`
	Value     string `json:"-"`
	PersonID  string `json:"personId"`
	ExpiresOn int64  `json:"expiresOn"`
	Revoked   bool   `json:"revoked"`
	CreatedAt int64  `json:"createdAt"`
}

type Ticket struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Details   string `json:"details,omitempty"`
	State     string `json:"state"`
	PersonID  string `json:"personId"`
	CompanyID string `json:"companyId"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`

	Person  *PersonRef  `json:"person,omitempty"`
	Company *CompanyRef `json:"company,omitempty"`
}

// PersonRef and CompanyRef are the slim shapes embedded in ticket and
// message payloads.
type PersonRef struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type CompanyRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Message struct {
	ID        string `json:"id"`
	TicketID  string `json:"ticketId"`
	PersonID  string `json:"personId"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`

	Person *PersonRef `json:"person,omitempty"`
}
