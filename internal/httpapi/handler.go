package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/muhammadolammi/cvtailor/internal/bundle"
	"github.com/muhammadolammi/cvtailor/internal/render"
	"github.com/muhammadolammi/cvtailor/internal/tailor"
)

const maxBodyBytes = 1 << 20

type Tailorer interface {
	Tailor(ctx context.Context, req tailor.Request) (*tailor.Result, error)
}

// Handler serves the tailoring endpoint. APIKey is consulted on every request.
type Handler struct {
	Tailorer Tailorer
	APIKey   func() string
}

func NewHandler(t Tailorer, apiKey func() string) *Handler {
	return &Handler{Tailorer: t, APIKey: apiKey}
}

// AllowPost answers 405 for anything but POST and reports whether the request
// may proceed.
func AllowPost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodPost {
		return true
	}
	w.Header().Set("Allow", http.MethodPost)
	if err := RenderError(w, http.StatusMethodNotAllowed, "Method not allowed"); err != nil {
		LoggerFrom(r.Context()).Error("error writing response", "error", err)
	}
	return false
}

// Precheck answers the requests that need no service: wrong method, bad body,
// empty job ad and missing credential. apiKey is only called once the body is
// valid. When Precheck reports true the body has been rewound for the next
// handler.
func Precheck(w http.ResponseWriter, r *http.Request, apiKey func() string) bool {
	logger := LoggerFrom(r.Context())
	if !AllowPost(w, r) {
		return false
	}

	data, payload, err := decodeRequest(w, r)
	if err != nil {
		logger.Warn("failed to decode request body", "error", err)
		renderError(w, logger, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}

	var failure error
	switch {
	case strings.TrimSpace(payload.JobAd) == "":
		failure = tailor.ErrMissingJobAd
	case apiKey() == "":
		failure = tailor.ErrMissingAPIKey
	}
	if failure != nil {
		code, message := errorStatus(failure)
		logger.Warn("request rejected", "status", code, "error", failure)
		renderError(w, logger, code, message)
		return false
	}

	r.Body = io.NopCloser(bytes.NewReader(data))
	return true
}

// decodeRequest reads the whole body. An empty body is an empty request.
func decodeRequest(w http.ResponseWriter, r *http.Request) ([]byte, TailorRequest, error) {
	payload := TailorRequest{}
	if r.Body == nil {
		return nil, payload, nil
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, payload, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return data, payload, nil
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, payload, err
	}
	return data, payload, nil
}

func (h *Handler) Tailor(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFrom(r.Context())
	if !AllowPost(w, r) {
		return
	}

	_, payload, err := decodeRequest(w, r)
	if err != nil {
		logger.Warn("failed to decode request body", "error", err)
		renderError(w, logger, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	res, err := h.Tailorer.Tailor(r.Context(), tailor.Request{
		JobAd:  payload.JobAd,
		APIKey: h.APIKey(),
	})
	if err != nil {
		code, message := errorStatus(err)
		logger.Error("tailoring failed", "status", code, "error", err)
		renderError(w, logger, code, message)
		return
	}

	cv, letter := res.CV.Document, res.CoverLetter.Document
	zipped, err := bundle.Zip(cv.PDF, letter.PDF)
	if err != nil {
		renderError(w, logger, http.StatusInternalServerError, err.Error())
		return
	}

	resp := TailorResponse{
		CVPdf:               base64.StdEncoding.EncodeToString(cv.PDF),
		CoverLetterPdf:      base64.StdEncoding.EncodeToString(letter.PDF),
		CVFilename:          cv.Filename,
		CoverLetterFilename: letter.Filename,
		ZipFile:             base64.StdEncoding.EncodeToString(zipped),
		ZipFilename:         bundle.Filename,
	}
	if err := Render(w, http.StatusOK, resp); err != nil {
		logger.Error("error writing response", "error", err)
		return
	}
	logger.Info("documents tailored", "run_id", res.RunID, "cv_filename", cv.Filename, "cover_letter_filename", letter.Filename)
}

func renderError(w http.ResponseWriter, logger *slog.Logger, code int, message string) {
	if err := RenderError(w, code, message); err != nil {
		logger.Error("error writing response", "error", err)
	}
}

// errorStatus maps a pipeline error to its status code and client message.
func errorStatus(err error) (int, string) {
	var docErr *tailor.DocumentError
	var renderErr *render.Error
	switch {
	case errors.Is(err, tailor.ErrMissingJobAd):
		return http.StatusBadRequest, "Job ad is required"
	case errors.Is(err, tailor.ErrMissingAPIKey):
		return http.StatusInternalServerError, "GEMINI_API_KEY not configured"
	case errors.As(err, &docErr) && errors.As(err, &renderErr):
		return http.StatusInternalServerError, fmt.Sprintf("Failed to generate %s: %s", docErr.Kind.Label(), renderErr.Stderr)
	case errors.Is(err, tailor.ErrOutputsNotFound):
		return http.StatusInternalServerError, "Failed to find generated PDFs"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func GetHealth(w http.ResponseWriter, r *http.Request) {
	if err := Render(w, http.StatusOK, HealthResponse{Status: "ok"}); err != nil {
		LoggerFrom(r.Context()).Error("error writing response", "error", err)
	}
}

// NewMux registers the API routes behind the tracing and recovery middleware.
func NewMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tailor", h.Tailor)
	mux.HandleFunc("/api/health", GetHealth)
	return RequestTrace(logger, Recover(mux))
}
