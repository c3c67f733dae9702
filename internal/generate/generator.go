package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/muhammadolammi/cvtailor/internal/config"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Generator turns a prompt into a text completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Factory builds a Generator for one request. The credential is passed in
// explicitly so no client state outlives the request.
type Factory func(ctx context.Context, apiKey string) (Generator, error)

// NewFactory returns the factory for the configured backend.
func NewFactory(cfg *config.Config) (Factory, error) {
	var build Factory
	switch cfg.GeneratorBackend {
	case config.BackendGenai:
		build = func(ctx context.Context, apiKey string) (Generator, error) {
			return NewGenaiGenerator(ctx, apiKey, cfg.Model)
		}
	case config.BackendAgent:
		build = func(ctx context.Context, apiKey string) (Generator, error) {
			return NewAgentGenerator(ctx, apiKey, cfg.Model)
		}
	default:
		return nil, fmt.Errorf("unknown generator backend %q", cfg.GeneratorBackend)
	}
	return WithAttempts(build, cfg.GenerationAttempts), nil
}

// WithAttempts wraps every Generator built by f so each call is tried up to
// attempts times.
func WithAttempts(f Factory, attempts int) Factory {
	if attempts <= 1 {
		return f
	}
	return func(ctx context.Context, apiKey string) (Generator, error) {
		g, err := f(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		return &retryingGenerator{next: g, attempts: attempts}, nil
	}
}

type retryingGenerator struct {
	next     Generator
	attempts int
}

func (r *retryingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return retry(ctx, r.attempts, func() (string, error) {
		return r.next.Generate(ctx, prompt)
	})
}
