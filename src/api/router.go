package api

import (
	"budgetguard-server/src/config"
	"budgetguard-server/src/handlers"
	"budgetguard-server/src/middleware"
	"budgetguard-server/src/service"

	"github.com/go-chi/chi/v5"
	plaidsdk "github.com/plaid/plaid-go/v41/plaid"
)

func NewRouter(svc *service.Service, sdkClient *plaidsdk.APIClient, cfg config.Config) *chi.Mux {
	isProduction := cfg.IsProduction()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.Get("/", handlers.Health())
	r.Get("/health", handlers.Health())

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", handlers.GetConfig(cfg))

		// Plaid link + credential custody
		r.Post("/plaid/link-token/create", handlers.CreateLinkToken(svc, isProduction))
		r.Post("/plaid/access-token/exchange", handlers.ExchangePublicToken(svc, isProduction))
		r.Get("/plaid/items", handlers.GetItems(svc, isProduction))
		r.Delete("/plaid/items", handlers.DeleteAllItems(svc, isProduction))
		r.Delete("/plaid/items/{item_id}", handlers.DeleteItem(svc, isProduction))

		// Webhooks
		r.Post("/plaid/webhook", handlers.PlaidWebhook(sdkClient))
		if cfg.PlaidEnv == "sandbox" {
			r.Post("/plaid/sandbox/fire_webhook", handlers.FireSandboxWebhook(svc, isProduction))
		}

		// Aggregated user data
		r.Get("/user/accounts", handlers.GetUserAccounts(svc, isProduction))
		r.Post("/user/accounts", handlers.GetUserAccounts(svc, isProduction))
		r.Post("/user/transactions", handlers.GetUserTransactions(svc, isProduction))
	})

	return r
}
