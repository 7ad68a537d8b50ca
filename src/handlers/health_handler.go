package handlers

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// Health serves the liveness probe deployment platforms poll.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, healthResponse{
			Status:    "UP",
			Service:   "Payment Service",
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}
