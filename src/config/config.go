package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string // "dev" or "production"
	DatabaseURL string

	PlaidClientID string
	PlaidSecret   string
	PlaidEnv      string // "sandbox" or "production"
	PlaidBaseURL  string

	Auth0Domain      string
	Auth0ClientID    string
	Auth0RedirectURI string
	Auth0Audience    string

	EncryptionPassword string

	APIBaseURL     string
	AllowedOrigins []string
}

func Load() Config {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		Environment:        getEnv("APP_ENV", "dev"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		PlaidClientID:      getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:        getEnv("PLAID_SECRET", ""),
		PlaidEnv:           getEnv("PLAID_ENV", "sandbox"),
		PlaidBaseURL:       getEnv("PLAID_BASE_URL", ""),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0ClientID:      getEnv("AUTH0_CLIENT_ID", ""),
		Auth0RedirectURI:   getEnv("AUTH0_REDIRECT_URI", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		EncryptionPassword: getEnv("ENCRYPTION_PASSWORD", ""),
		APIBaseURL:         getEnv("API_BASE_URL", "http://localhost:8080"),
		AllowedOrigins:     splitOrigins(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.PlaidClientID == "" || cfg.PlaidSecret == "" {
		log.Fatal("PLAID_CLIENT_ID and PLAID_SECRET are required")
	}
	if cfg.Auth0Domain == "" {
		log.Fatal("AUTH0_DOMAIN is required")
	}

	if cfg.PlaidBaseURL == "" {
		switch cfg.PlaidEnv {
		case "sandbox":
			cfg.PlaidBaseURL = "https://sandbox.plaid.com"
		case "production":
			cfg.PlaidBaseURL = "https://production.plaid.com"
		default:
			log.Fatalf("Invalid Plaid environment: %s", cfg.PlaidEnv)
		}
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
