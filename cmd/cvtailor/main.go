package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var logFormat string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "cvtailor",
	Short: "Tailor a CV and cover letter to a job ad",
	Long: `cvtailor rewrites a RenderCV CV and cover letter for a job ad with Gemini
and renders both to PDF.

Run it as an HTTP service with "serve" or once from the shell with "tailor".`,
	SilenceUsage: true,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json, text or color (default from LOG_FORMAT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
