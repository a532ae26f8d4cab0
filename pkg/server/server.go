package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	chathandler "github.com/de-tools/ops-agent/pkg/handlers/chat"
	"github.com/de-tools/ops-agent/pkg/handlers/remedy"
	scanhandler "github.com/de-tools/ops-agent/pkg/handlers/scan"
	"github.com/de-tools/ops-agent/pkg/server/middleware"
)

type Dependencies struct {
	Scan   *scanhandler.Handler
	Remedy *remedy.Handler
	Chat   *chathandler.Handler
}

type Config struct {
	Addr            string
	APIKey          string
	RatePerSecond   float64
	RateBurst       int
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := chi.NewRouter()

	router.Use(middleware.Logger(&logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.RateLimit(config.RatePerSecond, config.RateBurst))
	router.Use(middleware.APIKey(config.APIKey))

	deps := config.Dependencies
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health)
		r.Get("/skills", deps.Scan.ListSkills)
		r.Post("/scans", deps.Scan.StartScan)
		r.Get("/jobs/{id}", deps.Scan.GetJob)
		r.Get("/jobs/{id}/results", deps.Scan.GetJobResults)
		r.Post("/org-scans", deps.Scan.StartOrgScan)
		r.Get("/org-scans/{id}", deps.Scan.GetOrgScan)
		r.Post("/remediations", deps.Remedy.Propose)
		r.Post("/remediations/{token}/confirm", deps.Remedy.Confirm)
		r.Post("/chat", deps.Chat.Chat)
	})

	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

// Router exposes the configured mux for tests.
func (w *WebAPI) Router() http.Handler { return w.router }

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
