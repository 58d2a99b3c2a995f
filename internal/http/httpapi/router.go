package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/infra"
	"server/internal/middleware"
)

// NewRouter assembles the wizard API. Every mutating wizard operation is
// scoped to a session; the credential set endpoint is global.
func NewRouter(app *handlers.App, cfg *infra.Config, lookup middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(*app.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.I18N("en", lookup))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

	r.Get("/v1/healthz", app.Health)

	r.Put("/v1/credentials/gemini", app.CredentialSet)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", app.SessionCreate)
		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/state", app.SessionState)
			r.Delete("/", app.SessionDelete)
			r.Post("/credential/check", app.CredentialCheck)
			r.Post("/logo", app.LogoGenerate)
			r.Post("/animation", app.AnimationGenerate)
			r.Put("/options", app.SessionOptions)
			r.Post("/step", app.SessionStep)
			r.Get("/logo/image", app.LogoImage)
			r.Get("/animation/video", app.AnimationVideo)
		})
	})

	return r
}
