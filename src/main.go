package main

import (
	"context"
	"log"
	"net/http"

	"budgetguard-server/src/api"
	"budgetguard-server/src/auth"
	"budgetguard-server/src/config"
	"budgetguard-server/src/db"
	"budgetguard-server/src/plaid"
	"budgetguard-server/src/secrets"
	"budgetguard-server/src/service"
	"budgetguard-server/src/vault"
)

func main() {
	cfg := config.Load()

	// Connect to database and apply migrations
	pool, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("DB migration failed: %v", err)
	}

	verifier, err := auth.NewVerifier(cfg.Auth0Domain)
	if err != nil {
		log.Fatalf("Auth0 verifier init failed: %v", err)
	}

	cipher := secrets.NewCipher(cfg.EncryptionPassword)
	directory := vault.NewDirectory(pool)
	credentialVault := vault.New(pool, cipher)

	plaidClient := plaid.NewClient(cfg.PlaidBaseURL, cfg.PlaidClientID, cfg.PlaidSecret)
	sdkClient, err := plaid.NewSDKClient(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv)
	if err != nil {
		log.Fatalf("Plaid SDK client init failed: %v", err)
	}

	logos, err := service.NewLogoCache()
	if err != nil {
		log.Fatalf("Logo cache init failed: %v", err)
	}

	svc := service.New(verifier, directory, credentialVault, plaidClient, logos)

	// Router
	router := api.NewRouter(svc, sdkClient, cfg)

	log.Println("API server running on port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}
