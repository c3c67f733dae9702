package httpapi

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadolammi/cvtailor/internal/bundle"
	"github.com/muhammadolammi/cvtailor/internal/generate"
	"github.com/muhammadolammi/cvtailor/internal/pdftest"
	"github.com/muhammadolammi/cvtailor/internal/render"
	"github.com/muhammadolammi/cvtailor/internal/tailor"
	"github.com/muhammadolammi/cvtailor/internal/templates"
)

type fakeTailorer struct {
	calls int
	req   tailor.Request
	res   *tailor.Result
	err   error
}

func (f *fakeTailorer) Tailor(_ context.Context, req tailor.Request) (*tailor.Result, error) {
	f.calls++
	f.req = req
	return f.res, f.err
}

func staticKey(key string) func() string {
	return func() string { return key }
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestTailor_MethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			ft := &fakeTailorer{}
			keyCalls := 0
			h := NewHandler(ft, func() string { keyCalls++; return "key" })

			rec := httptest.NewRecorder()
			h.Tailor(rec, httptest.NewRequest(method, "/api/tailor", strings.NewReader(`{"jobAd":"x"}`)))

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, "Method not allowed", decodeError(t, rec))
			assert.Zero(t, ft.calls)
			assert.Zero(t, keyCalls)
		})
	}
}

func TestTailor_InvalidBody(t *testing.T) {
	ft := &fakeTailorer{}
	h := NewHandler(ft, staticKey("key"))

	rec := httptest.NewRecorder()
	h.Tailor(rec, httptest.NewRequest(http.MethodPost, "/api/tailor", strings.NewReader(`{"jobAd":`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec), "invalid request body")
	assert.Zero(t, ft.calls)
}

func TestTailor_PassesJobAdAndKey(t *testing.T) {
	ft := &fakeTailorer{err: tailor.ErrMissingJobAd}
	h := NewHandler(ft, staticKey("secret"))

	rec := httptest.NewRecorder()
	h.Tailor(rec, httptest.NewRequest(http.MethodPost, "/api/tailor", strings.NewReader(`{"jobAd":"Go developer"}`)))

	assert.Equal(t, 1, ft.calls)
	assert.Equal(t, tailor.Request{JobAd: "Go developer", APIKey: "secret"}, ft.req)
}

func TestTailor_EmptyBodyIsMissingJobAd(t *testing.T) {
	ft := &fakeTailorer{err: tailor.ErrMissingJobAd}
	h := NewHandler(ft, staticKey("key"))

	rec := httptest.NewRecorder()
	h.Tailor(rec, httptest.NewRequest(http.MethodPost, "/api/tailor", http.NoBody))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Job ad is required", decodeError(t, rec))
	assert.Equal(t, "", ft.req.JobAd)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"missing job ad", tailor.ErrMissingJobAd, http.StatusBadRequest, "Job ad is required"},
		{"missing key", tailor.ErrMissingAPIKey, http.StatusInternalServerError, "GEMINI_API_KEY not configured"},
		{
			"cv render",
			&tailor.DocumentError{Kind: tailor.KindCV, Stage: tailor.StageRender, Err: &render.Error{Command: "rendercv", ExitCode: 1, Stderr: "bad yaml"}},
			http.StatusInternalServerError,
			"Failed to generate CV: bad yaml",
		},
		{
			"cover letter render",
			&tailor.DocumentError{Kind: tailor.KindCoverLetter, Stage: tailor.StageRender, Err: &render.Error{Command: "rendercv", ExitCode: 2, Stderr: "boom"}},
			http.StatusInternalServerError,
			"Failed to generate cover letter: boom",
		},
		{
			"outputs not found",
			&tailor.DocumentError{Kind: tailor.KindCV, Stage: tailor.StageLocate, Err: fmt.Errorf("%w: %w", tailor.ErrOutputsNotFound, render.ErrNoOutput)},
			http.StatusInternalServerError,
			"Failed to find generated PDFs",
		},
		{"other", errors.New("quota exceeded"), http.StatusInternalServerError, "quota exceeded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, message := errorStatus(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestTailor_Success(t *testing.T) {
	cvPDF, letterPDF := pdftest.Minimal("cv"), pdftest.Minimal("letter")
	ft := &fakeTailorer{res: &tailor.Result{
		RunID:       "run-1",
		CV:          tailor.DocumentResult{Kind: tailor.KindCV, Document: &tailor.Document{Filename: "cv.pdf", PDF: cvPDF}},
		CoverLetter: tailor.DocumentResult{Kind: tailor.KindCoverLetter, Document: &tailor.Document{Filename: "cover_letter.pdf", PDF: letterPDF}},
	}}
	h := NewHandler(ft, staticKey("key"))

	rec := httptest.NewRecorder()
	h.Tailor(rec, httptest.NewRequest(http.MethodPost, "/api/tailor", strings.NewReader(`{"jobAd":"Go developer"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got TailorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

	cv, err := base64.StdEncoding.DecodeString(got.CVPdf)
	require.NoError(t, err)
	assert.Equal(t, cvPDF, cv)
	letter, err := base64.StdEncoding.DecodeString(got.CoverLetterPdf)
	require.NoError(t, err)
	assert.Equal(t, letterPDF, letter)

	zipped, err := base64.StdEncoding.DecodeString(got.ZipFile)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(zipped), int64(len(zipped)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{bundle.ResumeEntry, bundle.CoverLetterEntry}, names)

	got.CVPdf, got.CoverLetterPdf, got.ZipFile = "", "", ""
	want := TailorResponse{
		CVFilename:          "cv.pdf",
		CoverLetterFilename: "cover_letter.pdf",
		ZipFilename:         bundle.Filename,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	return "```yaml\ncv:\n  name: Test\n```", nil
}

// stubRenderer writes a PDF at the requested path.
type stubRenderer struct {
	stderr string
}

func (r stubRenderer) Render(_ context.Context, dir, input, pdfPath string) error {
	if r.stderr != "" {
		return &render.Error{Command: "rendercv", ExitCode: 1, Stderr: r.stderr}
	}
	if _, err := os.Stat(filepath.Join(dir, input)); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, pdfPath), pdftest.Minimal(input), 0o644)
}

func newTestService(t *testing.T, r tailor.DocumentRenderer) *tailor.Service {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cv.yaml"), []byte("cv:\n  name: Template\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "letter.yaml"), []byte("cv:\n  name: Template\n"), 0o644))

	return tailor.NewService(tailor.ServiceConfig{
		Store: templates.NewFileStore(dir),
		NewGenerator: func(context.Context, string) (generate.Generator, error) {
			return stubGenerator{}, nil
		},
		Renderer:            r,
		Logger:              slog.New(slog.NewTextHandler(io.Discard, nil)),
		CVTemplate:          "cv.yaml",
		CoverLetterTemplate: "letter.yaml",
		CandidateFirstName:  "test",
		VerifyPDF:           true,
		TempRoot:            t.TempDir(),
	})
}

func TestMux_EndToEnd(t *testing.T) {
	svc := newTestService(t, stubRenderer{})
	srv := httptest.NewServer(NewMux(NewHandler(svc, staticKey("key")), slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/tailor", "application/json", strings.NewReader(`{"jobAd":"Go developer"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var got TailorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "cv.pdf", got.CVFilename)
	assert.Equal(t, "cover_letter.pdf", got.CoverLetterFilename)

	cv, err := base64.StdEncoding.DecodeString(got.CVPdf)
	require.NoError(t, err)
	assert.Equal(t, pdftest.Minimal("tailored_cv.yaml"), cv)
}

func TestMux_EndToEndMissingKey(t *testing.T) {
	svc := newTestService(t, stubRenderer{})
	srv := httptest.NewServer(NewMux(NewHandler(svc, staticKey("")), slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/tailor", "application/json", strings.NewReader(`{"jobAd":"Go developer"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "GEMINI_API_KEY not configured", body.Error)
}

func TestMux_EndToEndRenderFailure(t *testing.T) {
	svc := newTestService(t, stubRenderer{stderr: "invalid theme"})
	srv := httptest.NewServer(NewMux(NewHandler(svc, staticKey("key")), slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/tailor", "application/json", strings.NewReader(`{"jobAd":"Go developer"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Failed to generate CV: invalid theme", body.Error)
}

func TestMux_Health(t *testing.T) {
	srv := httptest.NewServer(NewMux(NewHandler(&fakeTailorer{}, staticKey("")), slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
}

type panicTailorer struct{}

func (panicTailorer) Tailor(context.Context, tailor.Request) (*tailor.Result, error) {
	panic("exploded")
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(NewHandler(panicTailorer{}, staticKey("key")).Tailor))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tailor", strings.NewReader(`{"jobAd":"x"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "exploded", decodeError(t, rec))
}

func TestLoggerFrom_Default(t *testing.T) {
	assert.Same(t, slog.Default(), LoggerFrom(context.Background()))

	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Same(t, l, LoggerFrom(WithLogger(context.Background(), l)))
}

func TestPrecheck(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		body     string
		key      string
		ok       bool
		code     int
		message  string
		keyCalls int
	}{
		{"wrong method", http.MethodGet, `{"jobAd":"x"}`, "key", false, http.StatusMethodNotAllowed, "Method not allowed", 0},
		{"malformed body", http.MethodPost, `{"jobAd":`, "key", false, http.StatusBadRequest, "invalid request body", 0},
		{"empty job ad", http.MethodPost, `{"jobAd":" "}`, "", false, http.StatusBadRequest, "Job ad is required", 0},
		{"missing key", http.MethodPost, `{"jobAd":"Go developer"}`, "", false, http.StatusInternalServerError, "GEMINI_API_KEY not configured", 1},
		{"valid", http.MethodPost, `{"jobAd":"Go developer"}`, "key", true, http.StatusOK, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyCalls := 0
			apiKey := func() string { keyCalls++; return tt.key }

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/api/tailor", strings.NewReader(tt.body))
			ok := Precheck(rec, req, apiKey)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.keyCalls, keyCalls)
			if !tt.ok {
				assert.Equal(t, tt.code, rec.Code)
				assert.Contains(t, decodeError(t, rec), tt.message)
				return
			}
			rest, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(rest))
		})
	}
}

func TestPrecheck_ThenTailor(t *testing.T) {
	ft := &fakeTailorer{err: errors.New("stop")}
	h := NewHandler(ft, staticKey("key"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tailor", strings.NewReader(`{"jobAd":"Go developer"}`))
	require.True(t, Precheck(rec, req, staticKey("key")))
	h.Tailor(rec, req)

	assert.Equal(t, "Go developer", ft.req.JobAd)
}
