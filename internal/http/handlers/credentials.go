package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

type setCredentialRequest struct {
	APIKey string `json:"api_key"`
}

// CredentialSet stores a new Gemini API key. This is the non-interactive half
// of key selection; the wizard's Setup step re-checks after the key lands.
func (a *App) CredentialSet(w http.ResponseWriter, r *http.Request) {
	var req setCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "api_key required")
		return
	}
	if err := a.Credentials.SetAPIKey(r.Context(), req.APIKey); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to store api key")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
