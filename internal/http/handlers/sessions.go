package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/workflow"
)

type logoView struct {
	ImageURL     string `json:"image_url"`
	MimeType     string `json:"mime_type"`
	SourcePrompt string `json:"source_prompt"`
}

type animationView struct {
	VideoURL     string `json:"video_url"`
	MimeType     string `json:"mime_type"`
	SourcePrompt string `json:"source_prompt"`
}

type stateResponse struct {
	SessionID     string         `json:"session_id"`
	CurrentStep   domain.Step    `json:"current_step"`
	Logo          *logoView      `json:"logo,omitempty"`
	Animation     *animationView `json:"animation,omitempty"`
	Busy          bool           `json:"busy"`
	LastError     string         `json:"last_error,omitempty"`
	ImageQuality  string         `json:"image_quality"`
	FrameShape    string         `json:"frame_shape"`
	StatusMessage string         `json:"status_message,omitempty"`
	Locale        string         `json:"locale,omitempty"`
}

func stateView(ctrl *workflow.Controller, locale string) stateResponse {
	state := ctrl.Snapshot()
	resp := stateResponse{
		SessionID:     ctrl.ID(),
		CurrentStep:   state.CurrentStep,
		Busy:          state.Busy,
		LastError:     state.LastError,
		ImageQuality:  string(state.ImageQuality),
		FrameShape:    string(state.FrameShape),
		StatusMessage: state.StatusMessage,
		Locale:        locale,
	}
	if state.Logo != nil {
		resp.Logo = &logoView{
			ImageURL:     "/v1/sessions/" + ctrl.ID() + "/logo/image",
			MimeType:     state.Logo.MimeType,
			SourcePrompt: state.Logo.SourcePrompt,
		}
	}
	if state.Animation != nil {
		resp.Animation = &animationView{
			VideoURL:     state.Animation.VideoURL,
			MimeType:     state.Animation.MimeType,
			SourcePrompt: state.Animation.SourcePrompt,
		}
	}
	return resp
}

func (a *App) session(w http.ResponseWriter, r *http.Request) (*workflow.Controller, bool) {
	id := chi.URLParam(r, "session_id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "session_id required")
		return nil, false
	}
	ctrl, err := a.Registry.Get(id)
	if err != nil {
		a.fail(w, err)
		return nil, false
	}
	return ctrl, true
}

func (a *App) SessionCreate(w http.ResponseWriter, r *http.Request) {
	ctrl := a.Registry.Create()
	a.json(w, http.StatusCreated, stateView(ctrl, middleware.LocaleFromContext(r.Context())))
}

func (a *App) SessionState(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, stateView(ctrl, middleware.LocaleFromContext(r.Context())))
}

func (a *App) SessionDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session_id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "session_id required")
		return
	}
	a.Registry.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

type stepRequest struct {
	Step string `json:"step"`
}

func (a *App) SessionStep(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	var req stepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	step, err := domain.ParseStep(req.Step)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := ctrl.GoTo(step); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, stateView(ctrl, middleware.LocaleFromContext(r.Context())))
}

type optionsRequest struct {
	ImageQuality string `json:"image_quality,omitempty"`
	FrameShape   string `json:"frame_shape,omitempty"`
}

func (a *App) SessionOptions(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	var req optionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.ImageQuality != "" {
		quality, err := domain.ParseImageQuality(req.ImageQuality)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		if err := ctrl.SetImageQuality(quality); err != nil {
			a.fail(w, err)
			return
		}
	}
	if req.FrameShape != "" {
		shape, err := domain.ParseFrameShape(req.FrameShape)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		if err := ctrl.SetFrameShape(shape); err != nil {
			a.fail(w, err)
			return
		}
	}
	a.json(w, http.StatusOK, stateView(ctrl, middleware.LocaleFromContext(r.Context())))
}
