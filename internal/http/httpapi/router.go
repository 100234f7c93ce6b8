package httpapi

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"petai/internal/http/handlers"
	"petai/internal/infra"
	"petai/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	// Middlewares dasar
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(logger),
		chimw.Recoverer,
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.Referer(cfg.AppURL),
	)

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/styles", app.Styles)
		r.Get("/gallery", app.Gallery)

		// Generate: rate limited, dibatasi waktu
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
			r.Use(middleware.Deadline(cfg.HTTPWriteTimeout))
			r.Post("/generate-style", app.GenerateStyle)
			r.Post("/generate-image", app.GenerateImage)
			r.Post("/generate", app.Generate)
		})
	})

	// Static
	if cfg.StaticDir != "" {
		for _, dir := range []string{"examples", "thumbnails"} {
			prefix := "/" + dir + "/"
			fs := http.StripPrefix(prefix, http.FileServer(http.Dir(filepath.Join(cfg.StaticDir, dir))))
			r.Handle(prefix+"*", fs)
		}
	}

	return r
}
