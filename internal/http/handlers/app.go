package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/infra/credentials"
	"server/internal/workflow"
)

// App bundles the dependencies shared by all handlers.
type App struct {
	Registry    *workflow.Registry
	Credentials credentials.Store
	Logger      *infra.Logger
}

func NewApp(registry *workflow.Registry, store credentials.Store, logger *infra.Logger) *App {
	return &App{Registry: registry, Credentials: store, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}

// fail maps workflow and provider errors onto HTTP responses. Generation
// failures are upstream faults, not client mistakes, so they map to 502.
func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrBusy):
		a.error(w, http.StatusConflict, "busy", err.Error())
	case errors.Is(err, domain.ErrLogoRequired),
		errors.Is(err, domain.ErrAnimationRequired),
		errors.Is(err, domain.ErrInvalidStep):
		a.error(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrInvalidPrompt):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrCredentialCheckFailed):
		a.error(w, http.StatusUnauthorized, "credential_check_failed", err.Error())
	case errors.Is(err, domain.ErrNoImageReturned):
		a.error(w, http.StatusBadGateway, "no_image", err.Error())
	case errors.Is(err, domain.ErrNoVideoReturned):
		a.error(w, http.StatusBadGateway, "no_video", err.Error())
	case errors.Is(err, domain.ErrDownloadFailed):
		a.error(w, http.StatusBadGateway, "download_failed", err.Error())
	default:
		var pe *domain.ProviderError
		if errors.As(err, &pe) {
			a.error(w, http.StatusBadGateway, "provider_error", pe.Message)
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	}
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
