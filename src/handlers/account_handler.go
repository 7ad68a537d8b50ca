package handlers

import (
	"encoding/json"
	"net/http"

	"budgetguard-server/src/models"
	"budgetguard-server/src/service"
)

// GetUserAccounts aggregates accounts across all of the user's linked
// institutions. The bearer token arrives in the Authorization header (GET) or
// the request body (POST).
func GetUserAccounts(svc *service.Service, isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if r.Method == http.MethodPost && r.Body != nil {
			var req models.UserAccountsRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Auth0AccessToken != "" {
				token = req.Auth0AccessToken
			}
		}

		resp, err := svc.ListUserAccounts(r.Context(), token)
		if err != nil {
			WriteError(w, err, isProduction)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	}
}
