package errors

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeTokenMissing      = "TOKEN_MISSING"
	ErrCodeTokenInvalid      = "TOKEN_INVALID"
	ErrCodeTokenExpired      = "TOKEN_EXPIRED"
	ErrCodeInvalidCreds      = "INVALID_CREDENTIALS"
	ErrCodeRefreshMissing    = "REFRESH_TOKEN_MISSING"
	ErrCodeRefreshInvalid    = "INVALID_REFRESH_TOKEN"
	ErrCodeInsufficientPerms = "INSUFFICIENT_PERMISSIONS"
	ErrCodeAccessDenied      = "ACCESS_DENIED"
	ErrCodeUpdateDenied      = "UPDATE_PERMISSION_DENIED"
	ErrCodeSelfDeletion      = "SELF_DELETION_NOT_ALLOWED"
	ErrCodeUserExists        = "USER_EXISTS"
	ErrCodeEmailExists       = "EMAIL_EXISTS"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeCompanyExists     = "COMPANY_EXISTS"
	ErrCodeCompanyNameExists = "COMPANY_NAME_EXISTS"
	ErrCodeCompanyNotFound   = "COMPANY_NOT_FOUND"
	ErrCodeCompanyHasData    = "COMPANY_HAS_DATA"
	ErrCodeTicketNotFound    = "TICKET_NOT_FOUND"
	ErrCodeTicketClosed      = "TICKET_CLOSED"
	ErrCodeRateLimited       = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(SuccessResponse{
		Message: message,
		Data:    data,
	})
}
