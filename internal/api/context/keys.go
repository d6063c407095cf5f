package context

type Key string

const (
	Identity Key = "identity"
	Ticket   Key = "ticket"
	Params   Key = "params"
)
