// Package app wires configuration into a ready tailoring service.
package app

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/muhammadolammi/cvtailor/internal/config"
	"github.com/muhammadolammi/cvtailor/internal/database"
	"github.com/muhammadolammi/cvtailor/internal/events"
	"github.com/muhammadolammi/cvtailor/internal/generate"
	"github.com/muhammadolammi/cvtailor/internal/httpapi"
	"github.com/muhammadolammi/cvtailor/internal/render"
	"github.com/muhammadolammi/cvtailor/internal/tailor"
	"github.com/muhammadolammi/cvtailor/internal/templates"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Service *tailor.Service

	closers []func() error
}

// Build connects the optional run journal and status broker, then assembles
// the service. Either one failing to connect is logged and left out. Close
// releases whatever was opened.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	store, err := templates.NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	factory, err := generate.NewFactory(cfg)
	if err != nil {
		return nil, err
	}

	svcCfg := tailor.ServiceConfig{
		Store:               store,
		NewGenerator:        factory,
		Renderer:            render.New(cfg.RenderCommand, cfg.RenderFallback, logger),
		Logger:              logger,
		CVTemplate:          cfg.CVTemplate,
		CoverLetterTemplate: cfg.CoverLetterTemplate,
		CandidateFirstName:  cfg.CandidateFirstName,
		VerifyPDF:           cfg.VerifyPDF,
	}

	if cfg.DBUrl != "" {
		db, err := database.Open(ctx, cfg.DBUrl)
		if err != nil {
			logger.Warn("run journal unavailable, continuing without it", "error", err)
		} else {
			a.closers = append(a.closers, db.Close)
			svcCfg.Recorder = database.New(db)
			logger.Info("run journal enabled")
		}
	}

	if cfg.RabbitMQUrl != "" {
		pub, err := events.Dial(cfg.RabbitMQUrl)
		if err != nil {
			logger.Warn("status updates unavailable, continuing without them", "error", err)
		} else {
			a.closers = append(a.closers, pub.Close)
			svcCfg.Publisher = pub
			logger.Info("status updates enabled", "exchange", events.Exchange)
		}
	}

	a.Service = tailor.NewService(svcCfg)
	return a, nil
}

// Handler returns the HTTP handler. The credential is read from the
// environment on every request.
func (a *App) Handler() *httpapi.Handler {
	return httpapi.NewHandler(a.Service, func() string {
		return config.APIKey(os.Getenv)
	})
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
