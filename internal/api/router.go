package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "helpdesk/internal/api/context"
	"helpdesk/internal/api/handlers"
	"helpdesk/internal/api/middleware"
	"helpdesk/internal/pkg/errors"
	"helpdesk/internal/platform/models"
)

type Dependencies struct {
	AuthHandler    *handlers.AuthHandler
	TicketHandler  *handlers.TicketHandler
	MessageHandler *handlers.MessageHandler
	UserHandler    *handlers.UserHandler
	CompanyHandler *handlers.CompanyHandler
	HealthHandler  *handlers.HealthHandler

	AuthMiddleware   *middleware.AuthMiddleware
	TicketMiddleware *middleware.TicketAccessMiddleware
	RateLimiter      *middleware.RateLimiter

	AuthRequestsPerMinute int
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	authMid := deps.AuthMiddleware
	ticketMid := deps.TicketMiddleware
	limit := deps.RateLimiter.Limit(deps.AuthRequestsPerMinute)

	router.GET("/api/health", wrap(deps.HealthHandler.Check))

	// Authentication
	router.POST("/api/auth/register", chain(deps.AuthHandler.Register, limit))
	router.POST("/api/auth/login", chain(deps.AuthHandler.Login, limit))
	router.POST("/api/auth/refresh", chain(deps.AuthHandler.Refresh, limit))
	router.POST("/api/auth/logout", chain(deps.AuthHandler.Logout, authMid.Handle))
	router.GET("/api/auth/me", chain(deps.AuthHandler.Me, authMid.Handle))

	// Tickets
	router.GET("/api/tickets", chain(deps.TicketHandler.List, authMid.Handle))
	router.POST("/api/tickets", chain(deps.TicketHandler.Create, authMid.Handle))
	router.GET("/api/tickets/:id",
		chain(deps.TicketHandler.Get, authMid.Handle, ticketMid.Handle))
	router.PATCH("/api/tickets/:id",
		chain(deps.TicketHandler.Update, authMid.Handle, ticketMid.Handle))
	router.DELETE("/api/tickets/:id",
		chain(deps.TicketHandler.Delete, authMid.Handle, requireRole(models.RoleAdmin), ticketMid.Handle))

	// Ticket messages
	router.GET("/api/tickets/:id/messages",
		chain(deps.MessageHandler.List, authMid.Handle, ticketMid.Handle))
	router.POST("/api/tickets/:id/messages",
		chain(deps.MessageHandler.Create, authMid.Handle, ticketMid.Handle))

	// User management (admin only)
	router.GET("/api/users",
		chain(deps.UserHandler.List, authMid.Handle, requireRole(models.RoleAdmin)))
	router.POST("/api/users",
		chain(deps.UserHandler.Create, authMid.Handle, requireRole(models.RoleAdmin)))
	router.GET("/api/users/:id",
		chain(deps.UserHandler.Get, authMid.Handle, requireRole(models.RoleAdmin)))
	router.PATCH("/api/users/:id",
		chain(deps.UserHandler.Update, authMid.Handle, requireRole(models.RoleAdmin)))
	router.DELETE("/api/users/:id",
		chain(deps.UserHandler.Delete, authMid.Handle, requireRole(models.RoleAdmin)))

	// Company management (admin only)
	router.GET("/api/companies",
		chain(deps.CompanyHandler.List, authMid.Handle, requireRole(models.RoleAdmin)))
	router.POST("/api/companies",
		chain(deps.CompanyHandler.Create, authMid.Handle, requireRole(models.RoleAdmin)))
	router.GET("/api/companies/:id",
		chain(deps.CompanyHandler.Get, authMid.Handle, requireRole(models.RoleAdmin)))
	router.PATCH("/api/companies/:id",
		chain(deps.CompanyHandler.Update, authMid.Handle, requireRole(models.RoleAdmin)))
	router.DELETE("/api/companies/:id",
		chain(deps.CompanyHandler.Delete, authMid.Handle, requireRole(models.RoleAdmin)))

	// Statistics. Grouped under /api/stats because httprouter cannot
	// register /api/tickets/stats next to /api/tickets/:id.
	router.GET("/api/stats/tickets",
		chain(deps.TicketHandler.Stats, authMid.Handle, requireRole(models.RoleSupport, models.RoleAdmin)))
	router.GET("/api/stats/users",
		chain(deps.UserHandler.Stats, authMid.Handle, requireRole(models.RoleAdmin)))
	router.GET("/api/stats/companies",
		chain(deps.CompanyHandler.Stats, authMid.Handle, requireRole(models.RoleAdmin)))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

func requireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identity, _ := r.Context().Value(apiContext.Identity).(*models.Person)
			if identity == nil {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeTokenMissing, "Access token required", nil)
				return
			}

			allowed := false
			for _, role := range roles {
				if identity.UserType == role {
					allowed = true
					break
				}
			}

			if !allowed {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeInsufficientPerms, "Insufficient permissions", nil)
				return
			}

			next(w, r)
		}
	}
}
