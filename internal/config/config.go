package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"newspaper-reader/internal/domain"
)

// Backend names accepted by STORAGE_BACKEND and RECORD_BACKEND.
const (
	BackendNone     = "none"
	BackendSupabase = "supabase"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
)

// Speech engine and voice provider names.
const (
	EngineDevice   = "device"
	EngineVoiceAPI = "voice-api"

	ProviderElevenLabs = "elevenlabs"
	ProviderOpenAI     = "openai"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort  string
	LogLevel    string
	MaxFileSize int64

	// Extraction
	PDFEngine   string
	MaxPages    int
	PageTimeout time.Duration

	// Supabase
	SupabaseURL  string
	SupabaseKey  string
	AuthRequired bool

	// Persistence
	StorageBackend  string
	StorageBucket   string
	RecordBackend   string
	RecordTextLimit int
	DatabaseURL     string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool

	// Speech
	SpeechEngine       string
	SpeechCommand      string
	AudioPlayerCommand string
	VoiceProvider      string
	SynthesisTimeout   time.Duration

	ElevenLabsAPIKey     string
	ElevenLabsSecretName string
	ElevenLabsBaseURL    string
	ElevenLabsVoiceID    string
	ElevenLabsModelID    string

	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAITTSModel string
	OpenAITTSVoice string

	// HTTP
	AllowedOrigins  []string
	UploadRateLimit int
}

// NewConfig creates a new configuration instance with default values
func NewConfig() *AppConfig {
	supabaseURL := getEnvOrDefault("SUPABASE_URL", "")
	defaultBackend := BackendNone
	if supabaseURL != "" {
		defaultBackend = BackendSupabase
	}

	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:  getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		MaxFileSize: getEnvInt64OrDefault("MAX_FILE_SIZE", 10*1024*1024), // 10MB default

		PDFEngine:   strings.ToLower(getEnvOrDefault("PDF_ENGINE", "fitz")),
		MaxPages:    getEnvIntOrDefault("MAX_PAGES", 50),
		PageTimeout: getEnvDurationOrDefault("PAGE_TIMEOUT", 90*time.Second),

		SupabaseURL:  supabaseURL,
		SupabaseKey:  getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		AuthRequired: getEnvBoolOrDefault("AUTH_REQUIRED", false),

		StorageBackend:  strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", defaultBackend)),
		StorageBucket:   getEnvOrDefault("STORAGE_BUCKET", "newspapers"),
		RecordBackend:   strings.ToLower(getEnvOrDefault("RECORD_BACKEND", defaultBackend)),
		RecordTextLimit: getEnvIntOrDefault("RECORD_TEXT_LIMIT", 10000),
		DatabaseURL:     getEnvOrDefault("DATABASE_URL", ""),

		S3Endpoint:  getEnvOrDefault("S3_ENDPOINT", ""),
		S3AccessKey: getEnvOrDefault("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnvOrDefault("S3_SECRET_KEY", ""),
		S3Region:    getEnvOrDefault("S3_REGION", ""),
		S3UseSSL:    getEnvBoolOrDefault("S3_USE_SSL", true),

		SpeechEngine:       strings.ToLower(getEnvOrDefault("SPEECH_ENGINE", EngineDevice)),
		SpeechCommand:      getEnvOrDefault("SPEECH_COMMAND", "espeak-ng"),
		AudioPlayerCommand: getEnvOrDefault("AUDIO_PLAYER_COMMAND", "mpg123"),
		VoiceProvider:      strings.ToLower(getEnvOrDefault("VOICE_PROVIDER", ProviderElevenLabs)),
		SynthesisTimeout:   getEnvDurationOrDefault("SYNTHESIS_TIMEOUT", 60*time.Second),

		ElevenLabsAPIKey:     getEnvOrDefault("ELEVENLABS_API_KEY", ""),
		ElevenLabsSecretName: getEnvOrDefault("ELEVENLABS_SECRET_NAME", "ELEVEN_LABS_API_KEY"),
		ElevenLabsBaseURL:    getEnvOrDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		ElevenLabsVoiceID:    getEnvOrDefault("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		ElevenLabsModelID:    getEnvOrDefault("ELEVENLABS_MODEL_ID", "eleven_monolingual_v1"),

		OpenAIAPIKey:   getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnvOrDefault("OPENAI_BASE_URL", ""),
		OpenAITTSModel: getEnvOrDefault("OPENAI_TTS_MODEL", "tts-1"),
		OpenAITTSVoice: getEnvOrDefault("OPENAI_TTS_VOICE", "alloy"),

		AllowedOrigins: getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:8080", // Vite dev server of the web client
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		UploadRateLimit: getEnvIntOrDefault("UPLOAD_RATE_LIMIT", 20),
	}
}

// PersistenceEnabled reports whether any remote persistence backend is configured.
func (c *AppConfig) PersistenceEnabled() bool {
	return c.StorageBackend != BackendNone || c.RecordBackend != BackendNone
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetMaxFileSize returns the maximum allowed file size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

var _ domain.Config = (*AppConfig)(nil)

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
