package api

import (
	"net/http"
	"time"

	"dubbing-orchestrator/internal/config"
	"dubbing-orchestrator/internal/infra/api/apiv1"
	"dubbing-orchestrator/internal/infra/metrics"
	"dubbing-orchestrator/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter assembles the HTTP surface: middleware, health, metrics and
// the versioned API under cfg.APIV1Prefix.
func NewRouter(cfg *config.Config, jobs usecase.JobUseCase, auth *Authenticator, logger *zerolog.Logger) http.Handler {
	metrics.MustRegister()

	r := chi.NewRouter()
	r.Use(
		TraceID(),
		Recover(logger),
		RequestLog(logger),
		Metrics(),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.HTTP.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{traceHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	opts := apiv1.Options{
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes(),
		Logger:         logger,
	}
	if auth != nil && auth.Enabled() {
		opts.Auth = auth.Middleware
	}
	srv := apiv1.NewServer(jobs, opts)
	r.Route(cfg.APIV1Prefix, func(r chi.Router) {
		apiv1.RegisterAPIV1(r, srv)
	})
	return r
}

// NewHTTPServer wraps h with the configured listener settings.
func NewHTTPServer(cfg config.HTTPConfig, h http.Handler) *http.Server {
	rht := cfg.ReadHeaderTimeout
	if rht <= 0 {
		rht = 10 * time.Second
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: rht,
	}
}
