package templates

import (
	"bytes"
	"context"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is a parsed template.
type Document struct {
	Name string
	Tree map[string]any
}

// Dump re-serialises the parsed tree with two-space indentation.
func (d *Document) Dump() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.Tree); err != nil {
		return "", fmt.Errorf("failed to serialise template %s: %w", d.Name, err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to serialise template %s: %w", d.Name, err)
	}
	return buf.String(), nil
}

// Parse decodes a YAML template. An empty document is an error.
func Parse(name string, data []byte) (*Document, error) {
	tree := map[string]any{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	if len(tree) == 0 {
		return nil, fmt.Errorf("template %s is empty", name)
	}
	return &Document{Name: name, Tree: tree}, nil
}

// Pair is the candidate's CV and cover letter baseline.
type Pair struct {
	CV          *Document
	CoverLetter *Document
}

// LoadPair reads and parses both templates from the store.
func LoadPair(ctx context.Context, store Store, cvName, coverLetterName string) (*Pair, error) {
	cv, err := load(ctx, store, cvName)
	if err != nil {
		return nil, err
	}
	coverLetter, err := load(ctx, store, coverLetterName)
	if err != nil {
		return nil, err
	}
	return &Pair{CV: cv, CoverLetter: coverLetter}, nil
}

func load(ctx context.Context, store Store, name string) (*Document, error) {
	data, err := store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return Parse(name, data)
}
