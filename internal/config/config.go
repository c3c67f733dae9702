package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendGenai = "genai"
	BackendAgent = "agent"

	SourceFile = "file"
	SourceR2   = "r2"
)

var errAttempts = errors.New("GENERATION_ATTEMPTS must be at least 1")

type R2Config struct {
	AccountID string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Config holds the runtime configuration of the tailoring service.
// APIKey is not validated here; a missing key is reported per request.
type Config struct {
	APIKey             string
	Model              string
	GeneratorBackend   string
	GenerationAttempts int

	CVTemplate          string
	CoverLetterTemplate string
	TemplateDir         string
	TemplateSource      string
	R2                  *R2Config

	RenderCommand      string
	RenderFallback     bool
	CandidateFirstName string
	VerifyPDF          bool

	DBUrl       string
	RabbitMQUrl string

	Addr      string
	LogFormat string
	LogLevel  string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	LoadDotEnv()
	return FromEnv(os.Getenv)
}

// LoadDotEnv copies .env into the process environment without overriding
// variables that are already set. A missing file is ignored.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// FromEnv builds a Config from the given lookup function and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		APIKey:              APIKey(getenv),
		Model:               getenv("GEMINI_MODEL"),
		GeneratorBackend:    strings.ToLower(getenv("GENERATOR_BACKEND")),
		CVTemplate:          getenv("CV_TEMPLATE"),
		CoverLetterTemplate: getenv("COVER_LETTER_TEMPLATE"),
		TemplateDir:         getenv("TEMPLATE_DIR"),
		TemplateSource:      strings.ToLower(getenv("TEMPLATE_SOURCE")),
		RenderCommand:       getenv("RENDER_COMMAND"),
		CandidateFirstName:  getenv("CANDIDATE_FIRST_NAME"),
		DBUrl:               getenv("DB_URL"),
		RabbitMQUrl:         getenv("RABBITMQ_URL"),
		Addr:                getenv("ADDR"),
		LogFormat:           getenv("LOG_FORMAT"),
		LogLevel:            getenv("LOG_LEVEL"),
	}
	if cfg.Addr == "" && getenv("PORT") != "" {
		cfg.Addr = ":" + getenv("PORT")
	}

	var err error
	if cfg.GenerationAttempts, err = intEnv(getenv, "GENERATION_ATTEMPTS", 1); err != nil {
		return nil, err
	}
	if cfg.GenerationAttempts < 1 {
		return nil, errAttempts
	}
	if cfg.RenderFallback, err = boolEnv(getenv, "RENDER_FALLBACK", true); err != nil {
		return nil, err
	}
	if cfg.VerifyPDF, err = boolEnv(getenv, "VERIFY_PDF", true); err != nil {
		return nil, err
	}

	if cfg.TemplateSource == SourceR2 {
		cfg.R2 = &R2Config{
			AccountID: getenv("R2_ACCOUNT_ID"),
			Bucket:    getenv("R2_BUCKET"),
			AccessKey: getenv("R2_ACCESS_KEY"),
			SecretKey: getenv("R2_SECRET_KEY"),
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// APIKey returns GEMINI_API_KEY, falling back to GOOGLE_API_KEY.
func APIKey(getenv func(string) string) string {
	if key := getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return getenv("GOOGLE_API_KEY")
}

// ApplyDefaults fills in every unset field. A zero GenerationAttempts counts as
// unset; FromEnv rejects an explicit GENERATION_ATTEMPTS=0 before this runs.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = "gemini-2.5-flash"
	}
	if c.GeneratorBackend == "" {
		c.GeneratorBackend = BackendGenai
	}
	if c.GenerationAttempts == 0 {
		c.GenerationAttempts = 1
	}
	if c.CVTemplate == "" {
		c.CVTemplate = "Kshitij_Dahal_CV.yaml"
	}
	if c.CoverLetterTemplate == "" {
		c.CoverLetterTemplate = "Kshitij_Dahal_Cover_Letter.yaml"
	}
	if c.TemplateDir == "" {
		c.TemplateDir = "."
	}
	if c.TemplateSource == "" {
		c.TemplateSource = SourceFile
	}
	if c.RenderCommand == "" {
		c.RenderCommand = "rendercv"
	}
	if c.CandidateFirstName == "" {
		c.CandidateFirstName = "kshitij"
	}
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate applies defaults and checks the settings needed at start-up.
func (c *Config) Validate() error {
	c.ApplyDefaults()

	switch c.GeneratorBackend {
	case BackendGenai, BackendAgent:
	default:
		return fmt.Errorf("unknown GENERATOR_BACKEND %q", c.GeneratorBackend)
	}

	if c.GenerationAttempts < 1 {
		return errAttempts
	}

	switch c.TemplateSource {
	case SourceFile:
	case SourceR2:
		if c.R2 == nil {
			return errors.New("missing R2 settings for TEMPLATE_SOURCE=r2")
		}
		if c.R2.AccountID == "" {
			return errors.New("empty R2_ACCOUNT_ID in environment")
		}
		if c.R2.Bucket == "" {
			return errors.New("empty R2_BUCKET in environment")
		}
		if c.R2.AccessKey == "" {
			return errors.New("empty R2_ACCESS_KEY in environment")
		}
		if c.R2.SecretKey == "" {
			return errors.New("empty R2_SECRET_KEY in environment")
		}
	default:
		return fmt.Errorf("unknown TEMPLATE_SOURCE %q", c.TemplateSource)
	}

	return nil
}

func intEnv(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func boolEnv(getenv func(string) string, key string, def bool) (bool, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
