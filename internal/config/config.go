package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the application configuration. It is built once, passed by
// value, and never mutated; the With* methods return modified copies.
type Config struct {
	// Environment
	Environment string
	Port        string

	// LLM
	OpenAIAPIKey        string  // OpenAI API key for recommendations and embeddings
	GeminiAPIKey        string  // Google Gemini API key
	RecommendationModel string  // Model used for song recommendations
	MaxTokens           int     // Output token cap for recommendations
	Temperature         float64 // Sampling temperature for recommendations
	EmbeddingModel      string  // Model used to embed descriptive text
	DisableAPI          bool    // Force the disabled recommender even when a key exists

	// Files
	DataDir          string
	InputDir         string
	OutputDir        string
	DefaultAudioFile string
	SupportedFormats []string

	// Transcription
	TranscribeCommand string // Audio-to-MIDI command, invoked as <cmd> <outdir> <audio>

	// Similarity store
	StoreDSN     string // Postgres URL/DSN or SQLite file path
	StoreEnabled bool

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse

	// HTTP
	CORSOrigins []string

	// AWS
	AWSRegion string
}

// DefaultSupportedFormats are the audio extensions accepted for transcription
var DefaultSupportedFormats = []string{".mp3", ".wav", ".flac", ".m4a", ".aac", ".ogg", ".wma"}

const (
	DefaultRecommendationModel = "gpt-3.5-turbo"
	DefaultEmbeddingModel      = "text-embedding-3-small"
	DefaultMaxTokens           = 1500
	DefaultTemperature         = 0.7
)

// Load reads the configuration from the environment
func Load() Config {
	dataDir := getEnv("DATA_DIR", "data")

	return Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		Port:                getEnv("PORT", "8000"),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		RecommendationModel: getEnv("RECOMMENDATION_MODEL", DefaultRecommendationModel),
		MaxTokens:           getEnvInt("RECOMMENDATION_MAX_TOKENS", DefaultMaxTokens),
		Temperature:         getEnvFloat("RECOMMENDATION_TEMPERATURE", DefaultTemperature),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", DefaultEmbeddingModel),
		DataDir:             dataDir,
		InputDir:            getEnv("INPUT_DIR", filepath.Join(dataDir, "input")),
		OutputDir:           getEnv("OUTPUT_DIR", filepath.Join(dataDir, "output")),
		DefaultAudioFile:    getEnv("DEFAULT_AUDIO_FILE", "sample.mp3"),
		SupportedFormats:    getEnvList("SUPPORTED_FORMATS", DefaultSupportedFormats),
		TranscribeCommand:   getEnv("TRANSCRIBE_COMMAND", "basic-pitch"),
		StoreDSN:            getEnv("STORE_DSN", filepath.Join(dataDir, "vibify.db")),
		StoreEnabled:        getEnv("STORE_ENABLED", "true") == "true",
		SentryDSN:           getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:   getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:   getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:        getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:     getEnv("LANGFUSE_ENABLED", "false") == "true",
		CORSOrigins:         getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// IsProduction reports whether the service runs in production
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// RecommenderEnabled reports whether LLM recommendations can be requested
func (c Config) RecommenderEnabled() bool {
	if c.DisableAPI {
		return false
	}
	if strings.HasPrefix(c.RecommendationModel, "gemini-") {
		return c.GeminiAPIKey != ""
	}
	return c.OpenAIAPIKey != ""
}

// VectorStoreEnabled reports whether the similarity store should be opened
func (c Config) VectorStoreEnabled() bool {
	return c.StoreEnabled && c.StoreDSN != ""
}

// IsSupportedFormat reports whether ext (with leading dot, any case) is an accepted audio format
func (c Config) IsSupportedFormat(ext string) bool {
	ext = strings.ToLower(ext)
	for _, f := range c.SupportedFormats {
		if strings.ToLower(f) == ext {
			return true
		}
	}
	return false
}

// DefaultAudioPath is the input used when no audio file is given
func (c Config) DefaultAudioPath() string {
	return filepath.Join(c.InputDir, c.DefaultAudioFile)
}

// WithPort returns a copy listening on port
func (c Config) WithPort(port string) Config {
	c.Port = port
	return c
}

// WithOutputDir returns a copy writing results to dir
func (c Config) WithOutputDir(dir string) Config {
	c.OutputDir = dir
	return c
}

// WithAPIDisabled returns a copy that never calls the LLM
func (c Config) WithAPIDisabled(disabled bool) Config {
	c.DisableAPI = disabled
	return c
}

// WithStore returns a copy using the given store DSN
func (c Config) WithStore(dsn string, enabled bool) Config {
	c.StoreDSN = dsn
	c.StoreEnabled = enabled
	return c
}

// WithEmbeddingModel returns a copy using the given embedding model
func (c Config) WithEmbeddingModel(model string) Config {
	c.EmbeddingModel = model
	return c
}

// WithSupportedFormats returns a copy accepting only the given extensions
func (c Config) WithSupportedFormats(formats []string) Config {
	c.SupportedFormats = append([]string(nil), formats...)
	return c
}
