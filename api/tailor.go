// Package handler is the serverless entry point for POST /api/tailor.
package handler

import (
	"net/http"
	"os"

	"github.com/muhammadolammi/cvtailor/internal/app"
	"github.com/muhammadolammi/cvtailor/internal/config"
	"github.com/muhammadolammi/cvtailor/internal/httpapi"
	"github.com/muhammadolammi/cvtailor/internal/logging"
)

// Handler answers invalid requests straight away, then builds the service for
// this invocation and serves the request.
func Handler(w http.ResponseWriter, r *http.Request) {
	apiKey := func() string {
		config.LoadDotEnv()
		return config.APIKey(os.Getenv)
	}
	if !httpapi.Precheck(w, r, apiKey) {
		return
	}

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		_ = httpapi.RenderError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger, err := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		_ = httpapi.RenderError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a, err := app.Build(r.Context(), cfg, logger)
	if err != nil {
		logger.Error("failed to build service", "error", err)
		_ = httpapi.RenderError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to close resources", "error", err)
		}
	}()

	h := a.Handler()
	httpapi.RequestTrace(logger, httpapi.Recover(http.HandlerFunc(h.Tailor))).ServeHTTP(w, r)
}
