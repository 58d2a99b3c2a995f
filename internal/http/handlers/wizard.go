package handlers

import (
	"encoding/json"
	"net/http"

	"server/internal/middleware"
)

type logoRequest struct {
	Description string `json:"description"`
}

type animationRequest struct {
	Motion string `json:"motion"`
}

func (a *App) CredentialCheck(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := ctrl.CheckCredential(r.Context()); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, stateView(ctrl, middleware.LocaleFromContext(r.Context())))
}

// LogoGenerate blocks until the image call settles. The response carries the
// full session state either way; transport-level errors surface as 502.
func (a *App) LogoGenerate(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	var req logoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := ctrl.SubmitLogoDescription(r.Context(), req.Description); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, stateView(ctrl, middleware.LocaleFromContext(r.Context())))
}

// AnimationGenerate blocks for the whole video generation, polling included.
// A stalled provider stalls this request; only client disconnect aborts it.
func (a *App) AnimationGenerate(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	var req animationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := ctrl.SubmitAnimationPrompt(r.Context(), req.Motion); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, stateView(ctrl, middleware.LocaleFromContext(r.Context())))
}
