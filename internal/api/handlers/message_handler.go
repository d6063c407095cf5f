package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	apiErrors "helpdesk/internal/pkg/errors"
	"helpdesk/internal/platform/models"
	"helpdesk/internal/platform/repositories"
)

type MessageHandler struct {
	messageRepo *repositories.MessageRepository
}

func NewMessageHandler(messageRepo *repositories.MessageRepository) *MessageHandler {
	return &MessageHandler{messageRepo: messageRepo}
}

// List returns a ticket's chat thread; the organization guard has
// already loaded the ticket and checked scope.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ticket := ticketFrom(r)

	messages, err := h.messageRepo.ListByTicket(ticket.ID)
	if err != nil {
		writeInternal(w, err, "messages: list")
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}

	apiErrors.WriteSuccess(w, http.StatusOK, "Messages retrieved successfully", map[string]interface{}{
		"messages": messages,
	})
}

type CreateMessageRequest struct {
	Content string `json:"content"`
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	ticket := ticketFrom(r)

	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeValidation, "Validation failed", []map[string]string{
			{"field": "content", "message": "content must not be empty"},
		})
		return
	}

	if ticket.State == models.TicketClosed {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeTicketClosed, "Cannot add messages to a closed ticket", nil)
		return
	}

	message := &models.Message{
		ID:        "msg_" + uuid.NewString(),
		TicketID:  ticket.ID,
		PersonID:  identity.ID,
		Content:   strings.TrimSpace(req.Content),
		CreatedAt: time.Now().Unix(),
	}
	if err := h.messageRepo.Create(message); err != nil {
		writeInternal(w, err, "messages: create")
		return
	}

	message.Person = &models.PersonRef{ID: identity.ID, FullName: identity.FullName, Email: identity.Email}

	apiErrors.WriteSuccess(w, http.StatusCreated, "Message created successfully", map[string]interface{}{
		"message": message,
	})
}
