package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"newspaper-reader/internal/domain"
	"newspaper-reader/internal/infra/s3"
	"newspaper-reader/internal/infra/supabase"
	"newspaper-reader/internal/reader"
	"newspaper-reader/internal/repository"
	"newspaper-reader/internal/service"
	"newspaper-reader/internal/speech"
	"newspaper-reader/pkg/logger"
)

// initTimeout bounds the startup checks against remote backends.
const initTimeout = 15 * time.Second

// Container holds all application dependencies
type Container struct {
	Config         *AppConfig
	Logger         domain.Logger
	SupabaseClient domain.SupabaseClient
	// AuthService is nil unless AUTH_REQUIRED is set.
	AuthService domain.AuthService

	Extractor *service.PDFProcessor
	// Persistence reports domain.ErrPersistenceOff on reads when no backend is configured.
	Persistence *service.PersistenceService
	// Synthesizer is nil with the device engine and no voice API credentials.
	Synthesizer domain.Synthesizer
	// AudioSource is set only with the voice API engine.
	AudioSource *speech.VoiceAPIEngine

	Player  *speech.Player
	Session *reader.Session

	db *sql.DB
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	cfg := NewConfig()
	appLogger := logger.NewLogger(cfg.GetLogLevel())

	c := &Container{
		Config: cfg,
		Logger: appLogger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	if err := c.initSupabase(); err != nil {
		return nil, err
	}
	if err := c.initPostgres(ctx); err != nil {
		return nil, err
	}

	storage, err := c.buildObjectStorage(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	records, err := c.buildRecords()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Persistence = service.NewPersistenceService(storage, records, cfg.RecordTextLimit, appLogger)

	c.Extractor = service.NewPDFProcessor(appLogger,
		service.WithEngine(cfg.PDFEngine),
		service.WithMaxPages(cfg.MaxPages),
		service.WithPageTimeout(cfg.PageTimeout),
	)

	c.Synthesizer = c.buildSynthesizer()
	engine, err := c.buildEngine()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Player = speech.NewPlayer(engine, appLogger)

	var persister domain.Persister
	if storage != nil || records != nil {
		persister = c.Persistence
	}
	c.Session = reader.NewSession(c.Extractor, persister, c.Player, cfg.MaxFileSize, appLogger)

	if cfg.AuthRequired {
		if c.SupabaseClient == nil {
			c.Close()
			return nil, fmt.Errorf("AUTH_REQUIRED needs SUPABASE_URL and SUPABASE_ANON_KEY")
		}
		c.AuthService = service.NewAuthService(c.SupabaseClient, appLogger)
	}

	appLogger.Info("Container ready",
		"pdf_engine", cfg.PDFEngine,
		"storage_backend", cfg.StorageBackend,
		"record_backend", cfg.RecordBackend,
		"speech_engine", cfg.SpeechEngine,
		"auth_required", cfg.AuthRequired,
	)
	return c, nil
}

func (c *Container) initSupabase() error {
	cfg := c.Config
	needed := cfg.StorageBackend == BackendSupabase || cfg.RecordBackend == BackendSupabase || cfg.AuthRequired
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		if needed {
			return fmt.Errorf("supabase backend selected but SUPABASE_URL or SUPABASE_ANON_KEY is empty")
		}
		return nil
	}

	client := supabase.NewSupabaseClient(cfg, c.Logger)
	if err := client.Initialize(); err != nil {
		if needed {
			return err
		}
		c.Logger.Warn("Supabase unavailable; continuing without it", "error", err)
		return nil
	}
	c.SupabaseClient = client
	return nil
}

func (c *Container) initPostgres(ctx context.Context) error {
	if c.Config.RecordBackend != BackendPostgres {
		return nil
	}
	if c.Config.DatabaseURL == "" {
		return fmt.Errorf("postgres record backend selected but DATABASE_URL is empty")
	}
	db, err := repository.OpenPostgres(ctx, c.Config.DatabaseURL)
	if err != nil {
		return err
	}
	if err := repository.MigratePostgres(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	c.db = db
	return nil
}

func (c *Container) buildObjectStorage(ctx context.Context) (domain.ObjectStorage, error) {
	cfg := c.Config
	switch cfg.StorageBackend {
	case BackendNone, "":
		return nil, nil
	case BackendSupabase:
		return service.NewStorageService(cfg.SupabaseURL, cfg.SupabaseKey, cfg.StorageBucket), nil
	case BackendS3:
		client, err := s3.NewClient(ctx, s3.Options{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			Bucket:    cfg.StorageBucket,
			UseSSL:    cfg.S3UseSSL,
		}, c.Logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}

func (c *Container) buildRecords() (domain.NewspaperRepository, error) {
	switch c.Config.RecordBackend {
	case BackendNone, "":
		return nil, nil
	case BackendSupabase:
		return repository.NewSupabaseNewspaperRepository(c.SupabaseClient, c.Logger), nil
	case BackendPostgres:
		return repository.NewPostgresNewspaperRepository(c.db, c.Logger), nil
	default:
		return nil, fmt.Errorf("unknown RECORD_BACKEND %q", c.Config.RecordBackend)
	}
}

// secrets prefers the database the records live in.
func (c *Container) secrets() domain.SecretRepository {
	if c.db != nil {
		return repository.NewPostgresSecretRepository(c.db)
	}
	if c.SupabaseClient != nil {
		return repository.NewSupabaseSecretRepository(c.SupabaseClient, c.Logger)
	}
	return nil
}

func (c *Container) buildSynthesizer() domain.Synthesizer {
	cfg := c.Config
	switch cfg.VoiceProvider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil
		}
		return speech.NewOpenAISynthesizer(speech.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAITTSModel,
			Voice:   cfg.OpenAITTSVoice,
		}, c.Logger)
	default:
		secrets := c.secrets()
		if cfg.ElevenLabsAPIKey == "" && secrets == nil {
			return nil
		}
		return speech.NewElevenLabsSynthesizer(speech.ElevenLabsConfig{
			APIKey:     cfg.ElevenLabsAPIKey,
			SecretName: cfg.ElevenLabsSecretName,
			BaseURL:    cfg.ElevenLabsBaseURL,
			VoiceID:    cfg.ElevenLabsVoiceID,
			ModelID:    cfg.ElevenLabsModelID,
			Timeout:    cfg.SynthesisTimeout,
		}, secrets, c.Logger)
	}
}

func (c *Container) buildEngine() (speech.Engine, error) {
	switch c.Config.SpeechEngine {
	case EngineDevice, "":
		return speech.NewDeviceEngine(c.Config.SpeechCommand, c.Logger), nil
	case EngineVoiceAPI:
		if c.Synthesizer == nil {
			return nil, fmt.Errorf("voice-api speech engine needs %s credentials", c.Config.VoiceProvider)
		}
		c.AudioSource = speech.NewVoiceAPIEngine(c.Synthesizer, c.Config.AudioPlayerCommand, c.Logger)
		return c.AudioSource, nil
	default:
		return nil, fmt.Errorf("unknown SPEECH_ENGINE %q", c.Config.SpeechEngine)
	}
}

// Close releases the session, the player and the database pool.
func (c *Container) Close() {
	if c.Session != nil {
		c.Session.Close()
	}
	if c.Player != nil {
		if err := c.Player.Close(); err != nil {
			c.Logger.Error("Failed to close speech player", err)
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.Logger.Error("Failed to close database", err)
		}
	}
	if syncer, ok := c.Logger.(interface{ Sync() error }); ok {
		_ = syncer.Sync()
	}
}
