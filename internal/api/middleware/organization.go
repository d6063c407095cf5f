package middleware

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "helpdesk/internal/api/context"
	apiErrors "helpdesk/internal/pkg/errors"
	"helpdesk/internal/platform/models"
	"helpdesk/internal/platform/repositories"
)

type TicketAccessMiddleware struct {
	ticketRepo *repositories.TicketRepository
}

func NewTicketAccessMiddleware(ticketRepo *repositories.TicketRepository) *TicketAccessMiddleware {
	return &TicketAccessMiddleware{ticketRepo: ticketRepo}
}

// Handle loads the ticket named by the :id path parameter and enforces
// organization scoping: ADMIN passes everywhere, everyone else only
// within their own company. A missing ticket is reported before any
// permission outcome, and the loaded ticket is attached to the request
// context so handlers do not fetch it again.
func (m *TicketAccessMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := r.Context().Value(apiContext.Params).(httprouter.Params)
		if !ok {
			apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Access control check failed", nil)
			return
		}

		ticket, err := m.ticketRepo.GetByID(params.ByName("id"))
		if err != nil {
			apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Access control check failed", nil)
			return
		}
		if ticket == nil {
			apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeTicketNotFound, "Ticket not found", nil)
			return
		}

		identity, ok := r.Context().Value(apiContext.Identity).(*models.Person)
		if !ok {
			apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeTokenInvalid, "No authentication identity found", nil)
			return
		}

		if identity.UserType != models.RoleAdmin && ticket.CompanyID != identity.CompanyID {
			apiErrors.WriteError(w, http.StatusForbidden, apiErrors.ErrCodeAccessDenied, "Access denied to this ticket", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Ticket, ticket)
		next(w, r.WithContext(ctx))
	}
}
