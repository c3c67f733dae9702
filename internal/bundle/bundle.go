package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

const (
	Filename         = "Resume_and_Cover_Letter.zip"
	ResumeEntry      = "Resume.pdf"
	CoverLetterEntry = "Cover Letter.pdf"
)

// Zip packs the two PDFs under their download names.
func Zip(cvPDF, coverLetterPDF []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	entries := []struct {
		name string
		data []byte
	}{
		{ResumeEntry, cvPDF},
		{CoverLetterEntry, coverLetterPDF},
	}
	now := time.Now()
	for _, e := range entries {
		f, err := w.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to zip: %w", e.name, err)
		}
		if _, err := f.Write(e.data); err != nil {
			return nil, fmt.Errorf("failed to write %s to zip: %w", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalise zip: %w", err)
	}
	return buf.Bytes(), nil
}
