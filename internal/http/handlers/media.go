package handlers

import (
	"net/http"
)

// LogoImage serves the raw bytes of the session's generated logo.
func (a *App) LogoImage(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	state := ctrl.Snapshot()
	if state.Logo == nil {
		a.error(w, http.StatusNotFound, "not_found", "no logo generated yet")
		return
	}
	w.Header().Set("Content-Type", state.Logo.MimeType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(state.Logo.RawImage)
}

// AnimationVideo serves the downloaded animation, ready to bind to a video
// element.
func (a *App) AnimationVideo(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	state := ctrl.Snapshot()
	if state.Animation == nil {
		a.error(w, http.StatusNotFound, "not_found", "no animation generated yet")
		return
	}
	w.Header().Set("Content-Type", state.Animation.MimeType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(state.Animation.Video)
}
