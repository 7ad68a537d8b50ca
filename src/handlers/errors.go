package handlers

import (
	"errors"
	"log"
	"net/http"

	"budgetguard-server/src/auth"
	"budgetguard-server/src/plaid"
	"budgetguard-server/src/vault"
)

// ErrorResponse is the error envelope every handler returns. Upstream detail
// is included only outside production.
type ErrorResponse struct {
	Error      string            `json:"error"`
	Message    string            `json:"message"`
	PlaidError *plaid.PlaidError `json:"plaid_error,omitempty"`
	HTTPStatus int               `json:"http_status,omitempty"`
}

// WriteError translates a typed error from the core into an HTTP response.
// This is the single place status codes and redaction policy live.
func WriteError(w http.ResponseWriter, err error, isProduction bool) {
	var authErr *auth.AuthenticationError
	var argErr *vault.InvalidArgumentError
	var apiErr *plaid.APIError
	var unavailableErr *plaid.UnavailableError

	switch {
	case errors.As(err, &authErr):
		log.Printf("ERROR: Invalid Auth0 token: %v", authErr)
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "Invalid Auth0 token",
			Message: pick(isProduction, "Authentication failed.", authErr.Error()),
		})

	case errors.As(err, &argErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: argErr.Msg,
		})

	case errors.As(err, &apiErr):
		log.Printf("ERROR: Plaid API error: %v", apiErr)
		resp := ErrorResponse{
			Error:      "Plaid API Error",
			Message:    pick(isProduction, "An error occurred while processing your request. Please try again later.", apiErr.Message),
			HTTPStatus: apiErr.Status,
		}
		if !isProduction {
			resp.PlaidError = apiErr.PlaidError
		}
		respondJSON(w, apiErr.Status, resp)

	case errors.As(err, &unavailableErr):
		log.Printf("ERROR: Plaid API unreachable: %v", unavailableErr)
		respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "Service Unavailable",
			Message: pick(isProduction, "Service temporarily unavailable. Please try again later.", unavailableErr.Error()),
		})

	default:
		log.Printf("ERROR: Unexpected error: %v", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal Server Error",
			Message: pick(isProduction, "An unexpected error occurred. Please contact support if the problem persists.", err.Error()),
		})
	}
}

func pick(isProduction bool, productionMsg, detailMsg string) string {
	if isProduction {
		return productionMsg
	}
	return detailMsg
}
