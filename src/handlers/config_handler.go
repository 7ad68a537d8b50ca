package handlers

import (
	"net/http"

	"budgetguard-server/src/config"
	"budgetguard-server/src/models"
)

// GetConfig serves the public configuration the frontend boots from. Secrets
// never appear here.
func GetConfig(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, models.ConfigResponse{
			Auth0: models.Auth0Config{
				Domain:      cfg.Auth0Domain,
				ClientID:    cfg.Auth0ClientID,
				RedirectURI: cfg.Auth0RedirectURI,
				Audience:    cfg.Auth0Audience,
			},
			API: models.APIConfig{
				BaseURL: cfg.APIBaseURL,
			},
			Features: models.FeaturesConfig{
				EnablePlaid: true,
			},
		})
	}
}
