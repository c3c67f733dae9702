package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/muhammadolammi/cvtailor/internal/app"
	"github.com/muhammadolammi/cvtailor/internal/bundle"
	"github.com/muhammadolammi/cvtailor/internal/config"
	"github.com/muhammadolammi/cvtailor/internal/jobad"
	"github.com/muhammadolammi/cvtailor/internal/logging"
	"github.com/muhammadolammi/cvtailor/internal/tailor"
)

//nolint:gochecknoglobals // Cobra boilerplate
var jobAdPath string

//nolint:gochecknoglobals // Cobra boilerplate
var outDir string

//nolint:gochecknoglobals // Cobra boilerplate
var keepYAML bool

//nolint:gochecknoglobals // Cobra boilerplate
var tailorTimeout time.Duration

//nolint:gochecknoglobals // Cobra boilerplate
var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Tailor the CV and cover letter once and write the PDFs",
	Long: `Read a job ad from a text, Markdown, PDF or DOCX file (or "-" for stdin),
tailor both documents and write them to the output directory.

A failure in one document does not discard the other.

Example:
  cvtailor tailor --job-ad jd.pdf --out ./applications/acme
  pbpaste | cvtailor tailor --job-ad - --keep-yaml`,
	Args: cobra.NoArgs,
	RunE: runTailor,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(tailorCmd)
	tailorCmd.Flags().StringVar(&jobAdPath, "job-ad", "", "Job ad file, or - for stdin")
	tailorCmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	tailorCmd.Flags().BoolVar(&keepYAML, "keep-yaml", false, "Also write the tailored YAML next to each PDF")
	tailorCmd.Flags().DurationVar(&tailorTimeout, "timeout", 5*time.Minute, "Overall time limit")
	_ = tailorCmd.MarkFlagRequired("job-ad")
}

func runTailor(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	format := logging.FormatColor
	if logFormat != "" {
		format = logFormat
	}
	logger, err := logging.New(os.Stderr, format, cfg.LogLevel)
	if err != nil {
		return err
	}

	tStart := time.Now()
	logger.Info("reading job ad", "path", jobAdPath)
	text, err := jobad.ReadFile(jobAdPath, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), tailorTimeout)
	defer cancel()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to close resources", "error", err)
		}
	}()

	res, runErr := a.Service.Tailor(ctx, tailor.Request{
		JobAd:   text,
		APIKey:  cfg.APIKey,
		Partial: true,
	})
	if res == nil {
		return runErr
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	var errs []error
	for _, dr := range []tailor.DocumentResult{res.CV, res.CoverLetter} {
		if dr.Err != nil {
			logger.Error("document failed", "document", string(dr.Kind), "error", dr.Err)
			errs = append(errs, dr.Err)
			continue
		}
		if err := writeDocument(outDir, dr.Document, logger); err != nil {
			errs = append(errs, err)
		}
	}

	if res.CV.Document != nil && res.CoverLetter.Document != nil {
		zipped, err := bundle.Zip(res.CV.Document.PDF, res.CoverLetter.Document.PDF)
		if err != nil {
			errs = append(errs, err)
		} else if err := os.WriteFile(filepath.Join(outDir, bundle.Filename), zipped, 0o644); err != nil {
			errs = append(errs, err)
		} else {
			logger.Info("wrote bundle", "path", filepath.Join(outDir, bundle.Filename))
		}
	}

	logger.Info("done", "run_id", res.RunID, "time_taken", time.Since(tStart))
	return errors.Join(errs...)
}

func writeDocument(dir string, doc *tailor.Document, logger *slog.Logger) error {
	path := filepath.Join(dir, doc.Filename)
	if err := os.WriteFile(path, doc.PDF, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Info("wrote document", "document", string(doc.Kind), "path", path, "pages", doc.Pages)

	if !keepYAML {
		return nil
	}
	yamlPath := filepath.Join(dir, string(doc.Kind)+".yaml")
	if err := os.WriteFile(yamlPath, []byte(doc.YAML), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", yamlPath, err)
	}
	return nil
}
