package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"budgetguard-server/src/models"
	"budgetguard-server/src/service"
	"budgetguard-server/src/util"

	"github.com/go-chi/chi/v5"
	plaidsdk "github.com/plaid/plaid-go/v41/plaid"
)

func CreateLinkToken(svc *service.Service, isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := svc.CreateLinkToken(r.Context())
		if err != nil {
			WriteError(w, err, isProduction)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

func ExchangePublicToken(svc *service.Service, isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ExchangeTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.PublicToken == "" {
			http.Error(w, "public_token is required", http.StatusBadRequest)
			return
		}

		token := req.Auth0AccessToken
		if token == "" {
			token = bearerToken(r)
		}

		resp, err := svc.ExchangePublicToken(r.Context(), token, req.PublicToken)
		if err != nil {
			WriteError(w, err, isProduction)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

func GetItems(svc *service.Service, isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListItems(r.Context(), bearerToken(r))
		if err != nil {
			WriteError(w, err, isProduction)
			return
		}
		respondJSON(w, http.StatusOK, items)
	}
}

func DeleteItem(svc *service.Service, isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "item_id")
		if err := svc.RemoveItem(r.Context(), bearerToken(r), itemID); err != nil {
			WriteError(w, err, isProduction)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteAllItems(svc *service.Service, isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.RemoveAllItems(r.Context(), bearerToken(r)); err != nil {
			WriteError(w, err, isProduction)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func FireSandboxWebhook(svc *service.Service, isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.FireWebhookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		token := req.Auth0AccessToken
		if token == "" {
			token = bearerToken(r)
		}
		code := req.WebhookCode
		if code == "" {
			code = "DEFAULT_UPDATE"
		}

		resp, err := svc.FireSandboxWebhook(r.Context(), token, req.ItemID, code)
		if err != nil {
			WriteError(w, err, isProduction)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

type webhookPayload struct {
	WebhookType string `json:"webhook_type"`
	WebhookCode string `json:"webhook_code"`
	ItemID      string `json:"item_id"`
}

// PlaidWebhook receives Plaid's webhooks. The Plaid-Verification JWT is
// checked before the payload is trusted; the service keeps no transaction
// state, so receipt is just acknowledged and logged.
func PlaidWebhook(sdkClient *plaidsdk.APIClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		if err := util.VerifyWebhook(r.Context(), sdkClient, body, r.Header); err != nil {
			log.Printf("ERROR: Plaid webhook verification failed: %v", err)
			http.Error(w, "webhook verification failed", http.StatusUnauthorized)
			return
		}

		var payload webhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			http.Error(w, "invalid webhook payload", http.StatusBadRequest)
			return
		}

		log.Printf("INFO: Received Plaid webhook %s/%s for item %s", payload.WebhookType, payload.WebhookCode, payload.ItemID)
		respondJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}
