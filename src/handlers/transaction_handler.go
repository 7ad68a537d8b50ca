package handlers

import (
	"encoding/json"
	"net/http"

	"budgetguard-server/src/models"
	"budgetguard-server/src/service"
)

// GetUserTransactions fetches transactions for the authenticated user. A user
// with no linked institution gets an empty list, not an error.
func GetUserTransactions(svc *service.Service, isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.UserTransactionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		token := req.Auth0AccessToken
		if token == "" {
			token = bearerToken(r)
		}

		resp, err := svc.ListUserTransactions(r.Context(), token, req.StartDate, req.EndDate)
		if err != nil {
			WriteError(w, err, isProduction)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	}
}
