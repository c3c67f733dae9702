package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputDirs are the directories, relative to the working directory, where
// RenderCV leaves PDFs when no explicit path is honoured.
var OutputDirs = []string{"output", "rendercv_output"}

// ErrNoOutput is returned when no PDF matches the requested document.
var ErrNoOutput = errors.New("no matching PDF found")

// Matcher reports whether a lower-cased PDF file name belongs to a document.
type Matcher func(lowerName string) bool

// CVMatcher matches names containing "cv" or the candidate's first name,
// excluding anything that looks like a cover letter.
func CVMatcher(firstName string) Matcher {
	firstName = strings.ToLower(firstName)
	return func(name string) bool {
		if strings.Contains(name, "cover") {
			return false
		}
		return strings.Contains(name, "cv") || (firstName != "" && strings.Contains(name, firstName))
	}
}

// CoverLetterMatcher matches names containing "cover" or "letter".
func CoverLetterMatcher() Matcher {
	return func(name string) bool {
		return strings.Contains(name, "cover") || strings.Contains(name, "letter")
	}
}

// Locate returns the path of the first PDF, in directory then name order,
// accepted by match. Missing directories are skipped.
func Locate(root string, dirs []string, match Matcher) (string, error) {
	var seen []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(filepath.Join(root, dir))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to list %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				continue
			}
			seen = append(seen, e.Name())
			if match(strings.ToLower(e.Name())) {
				return filepath.Join(root, dir, e.Name()), nil
			}
		}
	}
	return "", fmt.Errorf("%w (found: %v)", ErrNoOutput, seen)
}

// Resolve returns expected if it exists, and otherwise falls back to Locate.
func Resolve(root, expected string, match Matcher) (string, error) {
	path := filepath.Join(root, expected)
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		return path, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat %s: %w", expected, err)
	}
	return Locate(root, OutputDirs, match)
}
