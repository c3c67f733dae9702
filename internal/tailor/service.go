package tailor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/cvtailor/internal/database"
	"github.com/muhammadolammi/cvtailor/internal/events"
	"github.com/muhammadolammi/cvtailor/internal/generate"
	"github.com/muhammadolammi/cvtailor/internal/prompt"
	"github.com/muhammadolammi/cvtailor/internal/render"
	"github.com/muhammadolammi/cvtailor/internal/templates"
)

// ErrSkipped marks a document that was not attempted because an earlier one
// failed.
var ErrSkipped = errors.New("skipped after an earlier failure")

const outputDir = "output"

// DocumentRenderer converts a YAML file into a PDF inside dir.
type DocumentRenderer interface {
	Render(ctx context.Context, dir, input, pdfPath string) error
}

// RunRecorder is the run journal; *database.Queries satisfies it.
type RunRecorder interface {
	CreateRun(ctx context.Context, arg database.CreateRunParams) error
	UpdateRunStatus(ctx context.Context, arg database.UpdateRunStatusParams) error
}

// StatusPublisher announces run status changes; *events.Publisher satisfies it.
type StatusPublisher interface {
	Publish(update events.Update) error
}

type ServiceConfig struct {
	Store        templates.Store
	NewGenerator generate.Factory
	Renderer     DocumentRenderer
	// Recorder and Publisher are optional.
	Recorder  RunRecorder
	Publisher StatusPublisher
	Logger    *slog.Logger

	CVTemplate          string
	CoverLetterTemplate string
	CandidateFirstName  string
	VerifyPDF           bool
	// TempRoot is where per-run directories are created; empty means os.TempDir.
	TempRoot string
}

type Service struct {
	cfg ServiceConfig
	now func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{cfg: cfg, now: time.Now}
}

// unit is one document's pipeline.
type unit struct {
	kind    Kind
	prompt  string
	input   string
	pdfPath string
	match   render.Matcher
}

// Tailor runs the whole pipeline for one job ad. When a document fails the
// returned error is that document's error and the Result still describes
// every document.
func (s *Service) Tailor(ctx context.Context, req Request) (*Result, error) {
	jobAd := strings.TrimSpace(req.JobAd)
	if jobAd == "" {
		return nil, ErrMissingJobAd
	}
	if req.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	runID := uuid.New()
	logger := s.cfg.Logger.With("run_id", runID.String())
	start := s.now()

	s.startRun(ctx, runID, len(jobAd), logger)
	result, err := s.run(ctx, runID, req, jobAd, logger)
	s.finishRun(ctx, runID, err, logger)

	if err != nil {
		logger.Error("tailoring failed", "error", err, "time_taken", time.Since(start))
		return result, err
	}
	logger.Info("tailoring finished", "time_taken", time.Since(start))
	return result, nil
}

func (s *Service) run(ctx context.Context, runID uuid.UUID, req Request, jobAd string, logger *slog.Logger) (*Result, error) {
	gen, err := s.cfg.NewGenerator(ctx, req.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to configure generator: %w", err)
	}

	logger.Info("loading templates", "cv", s.cfg.CVTemplate, "cover_letter", s.cfg.CoverLetterTemplate)
	pair, err := templates.LoadPair(ctx, s.cfg.Store, s.cfg.CVTemplate, s.cfg.CoverLetterTemplate)
	if err != nil {
		return nil, err
	}
	cvYAML, err := pair.CV.Dump()
	if err != nil {
		return nil, err
	}
	coverLetterYAML, err := pair.CoverLetter.Dump()
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(s.cfg.TempRoot, "rendercv-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
		}
	}()
	if err := os.Mkdir(filepath.Join(dir, outputDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	units := []unit{
		{
			kind:    KindCV,
			prompt:  prompt.CV(jobAd, cvYAML),
			input:   "tailored_cv.yaml",
			pdfPath: filepath.Join(outputDir, "cv.pdf"),
			match:   render.CVMatcher(s.cfg.CandidateFirstName),
		},
		{
			kind:    KindCoverLetter,
			prompt:  prompt.CoverLetter(jobAd, coverLetterYAML),
			input:   "tailored_cover_letter.yaml",
			pdfPath: filepath.Join(outputDir, "cover_letter.pdf"),
			match:   render.CoverLetterMatcher(),
		},
	}

	results := make([]DocumentResult, len(units))
	failed := false
	for i, u := range units {
		if failed && !req.Partial {
			results[i] = DocumentResult{Kind: u.kind, Err: &DocumentError{Kind: u.kind, Stage: StageGenerate, Err: ErrSkipped}}
			continue
		}
		results[i] = s.runDocument(ctx, gen, dir, u, logger.With("document", string(u.kind)))
		failed = failed || results[i].Err != nil
	}

	result := &Result{
		RunID:       runID.String(),
		CV:          results[0],
		CoverLetter: results[1],
	}
	return result, result.Err()
}

func (s *Service) runDocument(ctx context.Context, gen generate.Generator, dir string, u unit, logger *slog.Logger) DocumentResult {
	fail := func(stage string, err error) DocumentResult {
		return DocumentResult{Kind: u.kind, Err: &DocumentError{Kind: u.kind, Stage: stage, Err: err}}
	}

	tstart := s.now()
	logger.Info("generating document")
	response, err := gen.Generate(ctx, u.prompt)
	if err != nil {
		return fail(StageGenerate, err)
	}
	text := generate.ExtractYAML(response)
	logger.Debug("generated document", "response_length", len(response), "yaml_length", len(text), "time_taken", time.Since(tstart))

	if err := os.WriteFile(filepath.Join(dir, u.input), []byte(text), 0o600); err != nil {
		return fail(StageWrite, err)
	}

	rstart := s.now()
	if err := s.cfg.Renderer.Render(ctx, dir, u.input, u.pdfPath); err != nil {
		return fail(StageRender, err)
	}
	logger.Info("rendered document", "time_taken", time.Since(rstart))

	path, err := render.Resolve(dir, u.pdfPath, u.match)
	if err != nil {
		if errors.Is(err, render.ErrNoOutput) {
			err = fmt.Errorf("%w: %w", ErrOutputsNotFound, err)
		}
		return fail(StageLocate, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(StageRead, err)
	}

	pages := 0
	if s.cfg.VerifyPDF {
		if pages, err = render.Verify(data); err != nil {
			return fail(StageVerify, err)
		}
	}

	return DocumentResult{
		Kind: u.kind,
		Document: &Document{
			Kind:     u.kind,
			Filename: filepath.Base(path),
			PDF:      data,
			Pages:    pages,
			YAML:     text,
		},
	}
}

func (s *Service) startRun(ctx context.Context, id uuid.UUID, jobAdLength int, logger *slog.Logger) {
	if s.cfg.Recorder != nil {
		err := s.cfg.Recorder.CreateRun(ctx, database.CreateRunParams{
			ID:          id,
			Status:      StatusProcessing,
			JobAdLength: int32(jobAdLength),
		})
		if err != nil {
			logger.Warn("failed to record run", "error", err)
		}
	}
	s.publish(id, StatusProcessing, "tailoring started", logger)
}

func (s *Service) finishRun(ctx context.Context, id uuid.UUID, runErr error, logger *slog.Logger) {
	status, message := StatusCompleted, "tailoring completed"
	var errText sql.NullString
	if runErr != nil {
		status, message = StatusFailed, "tailoring failed"
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}
	if s.cfg.Recorder != nil {
		err := s.cfg.Recorder.UpdateRunStatus(context.WithoutCancel(ctx), database.UpdateRunStatusParams{
			Status: status,
			Error:  errText,
			ID:     id,
		})
		if err != nil {
			logger.Warn("failed to update run status", "status", status, "error", err)
		}
	}
	s.publish(id, status, message, logger)
}

func (s *Service) publish(id uuid.UUID, status, message string, logger *slog.Logger) {
	if s.cfg.Publisher == nil {
		return
	}
	err := s.cfg.Publisher.Publish(events.Update{
		RunID:     id.String(),
		Status:    status,
		Message:   message,
		Timestamp: s.now(),
	})
	if err != nil {
		logger.Warn("failed to publish update", "status", status, "error", err)
	}
}
