package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Profile is the configuration to start the engine.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string `validate:"oneof=prod dev"`
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int `validate:"gte=1,lte=65535"`
	// Data is the data directory; relative store paths resolve against it
	Data string
	// Driver is the vector store driver (sqlite or postgres)
	Driver string `validate:"oneof=sqlite postgres"`
	// DSN points to where the vector store keeps its records
	DSN string
	// Collection is the name of the vector collection
	Collection string `validate:"required"`
	// Metric is the distance metric of the collection (cosine or l2)
	Metric string `validate:"oneof=cosine l2"`
	// Datasources is the directory scanned by ingestion
	Datasources string
	// Version is the current version of the engine
	Version string

	// AI Configuration
	OpenAIAPIKey        string  // RAGCONTEXT_OPENAI_API_KEY (fallback: OPENAI_API_KEY)
	OpenAIBaseURL       string  // RAGCONTEXT_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	EmbeddingModel      string  `validate:"required"`
	EmbeddingDimensions int     `validate:"gte=0"`
	ChatModel           string  `validate:"required"`
	Temperature         float32 `validate:"gte=0,lte=2"`
	MaxRetries          int     `validate:"gte=1"`
	Persona             string
	IntentClassifier    string `validate:"oneof=rule llm layered"`

	// Conversation Configuration
	HistoryCapacity int    `validate:"gte=1"`
	ContextWindow   int    `validate:"gte=0"`
	TopK            int    `validate:"gte=1"`
	MemoryBackend   string `validate:"oneof=memory redis"`
	RedisAddr       string
	RedisPassword   string // RAGCONTEXT_REDIS_PASSWORD

	// Document Extraction Configuration
	TikaServerURL string
	TikaJarPath   string

	// Server Configuration
	MaxConcurrentGenerations int     `validate:"gte=1"`
	RateLimit                float64 `validate:"gt=0"`
	RateBurst                int     `validate:"gte=1"`
}

// DefaultPersona frames the assistant when no persona is configured.
const DefaultPersona = "You are a stock market consultant. You are asked to provide information about investing in the stock market."

// Default returns a profile populated with the stock defaults.
func Default() *Profile {
	return &Profile{
		Mode:                     "dev",
		Port:                     5000,
		Data:                     ".",
		Driver:                   "sqlite",
		Collection:               "embeddings",
		Metric:                   "cosine",
		Datasources:              "datasources",
		EmbeddingModel:           "text-embedding-3-small",
		ChatModel:                "gpt-4o-mini",
		Temperature:              0,
		MaxRetries:               3,
		Persona:                  DefaultPersona,
		IntentClassifier:         "layered",
		HistoryCapacity:          5,
		ContextWindow:            3,
		TopK:                     3,
		MemoryBackend:            "memory",
		RedisAddr:                "localhost:6379",
		TikaServerURL:            "http://localhost:9998",
		MaxConcurrentGenerations: 4,
		RateLimit:                10,
		RateBurst:                20,
	}
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an API key or a custom base URL is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.OpenAIAPIKey != "" || (p.OpenAIBaseURL != "" && p.OpenAIBaseURL != DefaultOpenAIBaseURL)
}

// DefaultOpenAIBaseURL is the public OpenAI endpoint.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// FromEnv loads provider secrets from environment variables.
// Supports both RAGCONTEXT_* and the conventional unprefixed names.
func (p *Profile) FromEnv() {
	getEnvWithFallback := func(key, fallbackKey string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return os.Getenv(fallbackKey)
	}

	getEnvWithDefault := func(key, fallbackKey, defaultValue string) string {
		if val := getEnvWithFallback(key, fallbackKey); val != "" {
			return val
		}
		return defaultValue
	}

	if p.OpenAIAPIKey == "" {
		p.OpenAIAPIKey = getEnvWithFallback("RAGCONTEXT_OPENAI_API_KEY", "OPENAI_API_KEY")
	}
	if p.OpenAIBaseURL == "" {
		p.OpenAIBaseURL = getEnvWithDefault("RAGCONTEXT_OPENAI_BASE_URL", "OPENAI_BASE_URL", DefaultOpenAIBaseURL)
	}
	if p.RedisPassword == "" {
		p.RedisPassword = getEnvWithFallback("RAGCONTEXT_REDIS_PASSWORD", "REDIS_PASSWORD")
	}
}

func checkDataDir(dataDir string) (string, error) {
	if dataDir == "" {
		dataDir = "."
	}
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return "", err
	}

	// Trim trailing \ or / in case user supplies
	absDir = strings.TrimRight(absDir, "\\/")
	if absDir == "" {
		absDir = string(filepath.Separator)
	}
	if _, err := os.Stat(absDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", absDir)
	}
	return absDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}
	if p.Persona == "" {
		p.Persona = DefaultPersona
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" {
		if p.DSN == "" {
			p.DSN = filepath.Join("database", "ragcontext.db")
		}
		if p.DSN != ":memory:" && !strings.HasPrefix(p.DSN, "file:") && !filepath.IsAbs(p.DSN) {
			p.DSN = filepath.Join(dataDir, p.DSN)
		}
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}
	if p.Datasources != "" && !filepath.IsAbs(p.Datasources) {
		p.Datasources = filepath.Join(dataDir, p.Datasources)
	}
	if p.MemoryBackend == "redis" && p.RedisAddr == "" {
		return errors.New("redis address is required for the redis memory backend")
	}

	if err := validator.New().Struct(p); err != nil {
		return errors.Wrap(err, "invalid profile")
	}
	return nil
}

// SQLiteDir returns the directory that must exist before opening a sqlite DSN.
func (p *Profile) SQLiteDir() string {
	if p.Driver != "sqlite" || p.DSN == ":memory:" || strings.HasPrefix(p.DSN, "file:") {
		return ""
	}
	return filepath.Dir(p.DSN)
}

func (p *Profile) String() string {
	return fmt.Sprintf("mode=%s driver=%s collection=%s metric=%s embedding_model=%s chat_model=%s",
		p.Mode, p.Driver, p.Collection, p.Metric, p.EmbeddingModel, p.ChatModel)
}
