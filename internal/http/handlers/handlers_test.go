package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/credentials"
	"server/internal/workflow"
)

type fakeMedia struct {
	logoErr error
	animErr error
}

func (f *fakeMedia) GenerateLogo(ctx context.Context, description string, quality domain.ImageQuality) (*domain.LogoAsset, error) {
	if f.logoErr != nil {
		return nil, f.logoErr
	}
	return &domain.LogoAsset{
		ImageURL:     "data:image/png;base64,AAAA",
		RawImage:     []byte("png-bytes"),
		MimeType:     "image/png",
		SourcePrompt: description,
	}, nil
}

func (f *fakeMedia) AnimateLogo(ctx context.Context, logo *domain.LogoAsset, motion string, shape domain.FrameShape) (*domain.AnimationAsset, error) {
	if f.animErr != nil {
		return nil, f.animErr
	}
	return &domain.AnimationAsset{
		Video:        []byte("mp4-bytes"),
		MimeType:     "video/mp4",
		SourcePrompt: motion,
	}, nil
}

type env struct {
	router http.Handler
	store  credentials.Store
	media  *fakeMedia
}

func newEnv(t *testing.T, apiKey string) *env {
	t.Helper()
	logger := zerolog.Nop()
	store := credentials.NewEnvStore(apiKey)
	media := &fakeMedia{}
	registry := workflow.NewRegistry(workflow.RegistryOptions{
		Media:       media,
		Creds:       credentials.NewStoreSelector(store, &logger),
		Logger:      &logger,
		DesignTick:  time.Millisecond,
		AnimateTick: time.Millisecond,
	})
	app := handlers.NewApp(registry, store, &logger)
	cfg := &infra.Config{
		AllowedOrigins:  []string{"http://localhost:5173"},
		RateLimitPerMin: 1000,
	}
	return &env{
		router: httpapi.NewRouter(app, cfg, nil),
		store:  store,
		media:  media,
	}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type stateResponse struct {
	SessionID   string `json:"session_id"`
	CurrentStep string `json:"current_step"`
	Logo        *struct {
		ImageURL     string `json:"image_url"`
		MimeType     string `json:"mime_type"`
		SourcePrompt string `json:"source_prompt"`
	} `json:"logo"`
	Animation *struct {
		VideoURL     string `json:"video_url"`
		MimeType     string `json:"mime_type"`
		SourcePrompt string `json:"source_prompt"`
	} `json:"animation"`
	Busy         bool   `json:"busy"`
	LastError    string `json:"last_error"`
	ImageQuality string `json:"image_quality"`
	FrameShape   string `json:"frame_shape"`
	Locale       string `json:"locale"`
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) stateResponse {
	t.Helper()
	var state stateResponse
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v (body %q)", err, rec.Body.String())
	}
	return state
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v (body %q)", err, rec.Body.String())
	}
	return payload.Error
}

func TestHealth(t *testing.T) {
	e := newEnv(t, "key")
	rec := e.do(t, http.MethodGet, "/v1/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code %d", rec.Code)
	}
}

func TestWizardHappyPath(t *testing.T) {
	e := newEnv(t, "key")

	rec := e.do(t, http.MethodPost, "/v1/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create code %d: %s", rec.Code, rec.Body.String())
	}
	state := decodeState(t, rec)
	if state.SessionID == "" || state.CurrentStep != "setup" {
		t.Fatalf("unexpected initial state: %+v", state)
	}
	if state.ImageQuality != "standard" || state.FrameShape != "square" {
		t.Fatalf("unexpected defaults: %+v", state)
	}
	base := "/v1/sessions/" + state.SessionID

	rec = e.do(t, http.MethodPost, base+"/credential/check", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("credential check code %d: %s", rec.Code, rec.Body.String())
	}
	if state = decodeState(t, rec); state.CurrentStep != "design" {
		t.Fatalf("step after check: %q", state.CurrentStep)
	}

	rec = e.do(t, http.MethodPut, base+"/options", map[string]string{
		"image_quality": "high",
		"frame_shape":   "landscape",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("options code %d: %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, base+"/logo", map[string]string{"description": "a community garden"})
	if rec.Code != http.StatusOK {
		t.Fatalf("logo code %d: %s", rec.Code, rec.Body.String())
	}
	state = decodeState(t, rec)
	if state.CurrentStep != "design" || state.Logo == nil {
		t.Fatalf("unexpected state after logo: %+v", state)
	}
	if state.Logo.ImageURL != base+"/logo/image" {
		t.Fatalf("logo image url: %q", state.Logo.ImageURL)
	}
	if state.Busy {
		t.Fatalf("busy after settle")
	}

	rec = e.do(t, http.MethodGet, base+"/logo/image", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logo image code %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("logo content type: %q", got)
	}
	if rec.Body.String() != "png-bytes" {
		t.Fatalf("logo bytes: %q", rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, base+"/step", map[string]string{"step": "animate"})
	if rec.Code != http.StatusOK {
		t.Fatalf("step code %d: %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, base+"/animation", map[string]string{"motion": "leaves sway"})
	if rec.Code != http.StatusOK {
		t.Fatalf("animation code %d: %s", rec.Code, rec.Body.String())
	}
	state = decodeState(t, rec)
	if state.CurrentStep != "view" || state.Animation == nil {
		t.Fatalf("unexpected state after animation: %+v", state)
	}
	if state.Animation.VideoURL != base+"/animation/video" {
		t.Fatalf("video url: %q", state.Animation.VideoURL)
	}

	rec = e.do(t, http.MethodGet, base+"/animation/video", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("video code %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Fatalf("video content type: %q", got)
	}
	if rec.Body.String() != "mp4-bytes" {
		t.Fatalf("video bytes: %q", rec.Body.String())
	}

	rec = e.do(t, http.MethodDelete, base+"/", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete code %d", rec.Code)
	}
	rec = e.do(t, http.MethodGet, base+"/state", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("state after delete: %d", rec.Code)
	}
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	e := newEnv(t, "key")
	rec := e.do(t, http.MethodGet, "/v1/sessions/ghost/state", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "not_found" {
		t.Fatalf("error code: %q", code)
	}
}

func TestCredentialCheckWithoutKeyFails(t *testing.T) {
	e := newEnv(t, "")
	state := decodeState(t, e.do(t, http.MethodPost, "/v1/sessions", nil))
	base := "/v1/sessions/" + state.SessionID

	rec := e.do(t, http.MethodPost, base+"/credential/check", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "credential_check_failed" {
		t.Fatalf("error code: %q", code)
	}

	// Supplying a key through the endpoint unblocks the check.
	rec = e.do(t, http.MethodPut, "/v1/credentials/gemini", map[string]string{"api_key": "fresh-key"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set key code %d: %s", rec.Code, rec.Body.String())
	}
	rec = e.do(t, http.MethodPost, base+"/credential/check", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("re-check code %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCredentialSetRejectsBlankKey(t *testing.T) {
	e := newEnv(t, "key")
	rec := e.do(t, http.MethodPut, "/v1/credentials/gemini", map[string]string{"api_key": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code %d", rec.Code)
	}
}

func TestLogoGenerateOutsideDesignConflicts(t *testing.T) {
	e := newEnv(t, "key")
	state := decodeState(t, e.do(t, http.MethodPost, "/v1/sessions", nil))
	base := "/v1/sessions/" + state.SessionID

	rec := e.do(t, http.MethodPost, base+"/logo", map[string]string{"description": "x"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "invalid_transition" {
		t.Fatalf("error code: %q", code)
	}
}

func TestLogoGenerateProviderFailure(t *testing.T) {
	e := newEnv(t, "key")
	state := decodeState(t, e.do(t, http.MethodPost, "/v1/sessions", nil))
	base := "/v1/sessions/" + state.SessionID
	e.do(t, http.MethodPost, base+"/credential/check", nil)

	e.media.logoErr = domain.ErrNoImageReturned
	rec := e.do(t, http.MethodPost, base+"/logo", map[string]string{"description": "x"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "no_image" {
		t.Fatalf("error code: %q", code)
	}

	// The session is still usable after the failure.
	e.media.logoErr = nil
	rec = e.do(t, http.MethodPost, base+"/logo", map[string]string{"description": "x"})
	if rec.Code != http.StatusOK {
		t.Fatalf("retry code %d: %s", rec.Code, rec.Body.String())
	}
}

func TestProviderErrorMapsToBadGateway(t *testing.T) {
	e := newEnv(t, "key")
	state := decodeState(t, e.do(t, http.MethodPost, "/v1/sessions", nil))
	base := "/v1/sessions/" + state.SessionID
	e.do(t, http.MethodPost, base+"/credential/check", nil)

	e.media.logoErr = &domain.ProviderError{Message: "model overloaded"}
	rec := e.do(t, http.MethodPost, base+"/logo", map[string]string{"description": "x"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "provider_error" {
		t.Fatalf("error code: %q", code)
	}
}

func TestStepValidation(t *testing.T) {
	e := newEnv(t, "key")
	state := decodeState(t, e.do(t, http.MethodPost, "/v1/sessions", nil))
	base := "/v1/sessions/" + state.SessionID
	e.do(t, http.MethodPost, base+"/credential/check", nil)

	rec := e.do(t, http.MethodPost, base+"/step", map[string]string{"step": "teleport"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, base+"/step", map[string]string{"step": "animate"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "invalid_transition" {
		t.Fatalf("error code: %q", code)
	}
}

func TestOptionsValidation(t *testing.T) {
	e := newEnv(t, "key")
	state := decodeState(t, e.do(t, http.MethodPost, "/v1/sessions", nil))
	base := "/v1/sessions/" + state.SessionID

	rec := e.do(t, http.MethodPut, base+"/options", map[string]string{"image_quality": "extreme"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPut, base+"/options", map[string]string{"frame_shape": "portrait"})
	if rec.Code != http.StatusOK {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeState(t, rec).FrameShape; got != "portrait" {
		t.Fatalf("frame shape: %q", got)
	}
}

func TestMediaEndpointsBeforeGeneration(t *testing.T) {
	e := newEnv(t, "key")
	state := decodeState(t, e.do(t, http.MethodPost, "/v1/sessions", nil))
	base := "/v1/sessions/" + state.SessionID

	if rec := e.do(t, http.MethodGet, base+"/logo/image", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("logo image code %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, base+"/animation/video", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("video code %d", rec.Code)
	}
}
