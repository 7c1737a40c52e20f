package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	analysishandler "github.com/open-solucoes/gtia/pkg/handlers/analysis"
	gtiamiddleware "github.com/open-solucoes/gtia/pkg/server/middleware"
	"github.com/open-solucoes/gtia/pkg/services/recovery"
	"github.com/open-solucoes/gtia/pkg/services/tax"
)

type WebAPI struct {
	router *chi.Mux
	logger *zerolog.Logger
	server *http.Server

	shutdownTimeout time.Duration
}

type Dependencies struct {
	Engine   *tax.Engine
	Analyzer *recovery.Analyzer
	Recorder analysishandler.Recorder
	Logger   zerolog.Logger
}

type Config struct {
	Addr            string
	APIKey          string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

// ConfigureRouter builds the HTTP routing tree. Status and the CSV
// template are public; everything else sits behind the API key check.
func ConfigureRouter(config Config) *chi.Mux {
	deps := config.Dependencies
	handler := analysishandler.NewHandler(deps.Engine, deps.Analyzer, deps.Recorder)

	router := chi.NewRouter()

	router.Use(gtiamiddleware.Logger(&deps.Logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", handler.Status)
		r.Get("/analyze/template", handler.Template)

		r.Group(func(r chi.Router) {
			r.Use(gtiamiddleware.APIKey(config.APIKey))
			r.Post("/simulate", handler.Simulate)
			r.Post("/retentions", handler.Retentions)
			r.Post("/analyze", handler.Analyze)
			r.Post("/analyze/csv", handler.AnalyzeCSV)
		})
	})

	return router
}

func NewWebAPI(config Config) *WebAPI {
	router := ConfigureRouter(config)
	logger := config.Dependencies.Logger

	timeout := config.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
		shutdownTimeout: timeout,
	}
}

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
