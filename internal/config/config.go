package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию сервера StoryPals.
type Config struct {
	// HTTP сервер
	Port           string   `envconfig:"PORT" default:"8080"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`

	// Настройки AI (OpenAI-совместимый endpoint или локальная Ollama)
	AIProvider  string        `envconfig:"AI_PROVIDER" default:"openai"` // openai | ollama
	AIBaseURL   string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	AIModel     string        `envconfig:"AI_MODEL" default:"gpt-4"`
	AITimeout   time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	OllamaHost  string        `envconfig:"OLLAMA_HOST" default:"http://localhost:11434"`
	OllamaModel string        `envconfig:"OLLAMA_MODEL" default:"llama3"`
	// Секретное поле БЕЗ envconfig тега
	AIAPIKey string

	// Настройки генерации изображений/видео (fal.ai)
	FalBaseURL      string        `envconfig:"FAL_BASE_URL" default:"https://fal.run"`
	FalImageModel   string        `envconfig:"FAL_IMAGE_MODEL" default:"fal-ai/flux/dev"`
	FalVideoModel   string        `envconfig:"FAL_VIDEO_MODEL" default:"fal-ai/wan-i2v"`
	FalTimeout      time.Duration `envconfig:"FAL_TIMEOUT" default:"120s"`
	ImageWidth      int           `envconfig:"IMAGE_WIDTH" default:"768"`
	ImageHeight     int           `envconfig:"IMAGE_HEIGHT" default:"512"`
	InferenceSteps  int           `envconfig:"INFERENCE_STEPS" default:"30"`
	GuidanceScale   float64       `envconfig:"GUIDANCE_SCALE" default:"7.5"`
	PlaceholderBase string        `envconfig:"PLACEHOLDER_BASE_URL" default:"https://source.unsplash.com/random/800x600?children,storybook"`
	// Секретное поле БЕЗ envconfig тега
	FalAPIKey string

	// Настройки озвучки (ElevenLabs)
	ElevenLabsBaseURL string        `envconfig:"ELEVENLABS_BASE_URL" default:"https://api.elevenlabs.io"`
	ElevenLabsTimeout time.Duration `envconfig:"ELEVENLABS_TIMEOUT" default:"60s"`
	DefaultVoiceID    string        `envconfig:"DEFAULT_VOICE_ID" default:"dPah2VEoifKnZT37774q"`
	// Секретное поле БЕЗ envconfig тега
	ElevenLabsAPIKey string

	// Политики пайплайна
	DebugFastMode   bool `envconfig:"DEBUG_FAST_MODE" default:"false"`   // пропускать генерацию видео
	RefundOnFailure bool `envconfig:"REFUND_ON_FAILURE" default:"false"` // возвращать кредит при сбое после списания

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"storypals_db"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// Redis (лок генерации на пользователя + идемпотентность вебхуков)
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPassword string

	// Stripe
	StripeSuccessURL string `envconfig:"STRIPE_SUCCESS_URL" default:"http://localhost:5173/payment/success"`
	StripeCancelURL  string `envconfig:"STRIPE_CANCEL_URL" default:"http://localhost:5173/payment/cancel"`
	// Секретные поля БЕЗ envconfig тега
	StripeSecretKey     string
	StripeWebhookSecret string

	// Объектное хранилище (MinIO), опциональный вариант интеграции
	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT" default:""`
	MinioBucket    string `envconfig:"MINIO_BUCKET" default:"storypals-media"`
	MinioUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	MinioPublicURL string `envconfig:"MINIO_PUBLIC_URL" default:""`
	// Секретные поля БЕЗ envconfig тега
	MinioAccessKey string
	MinioSecretKey string

	// JWT
	JWTSecret string
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// ObjectStorageEnabled сообщает, сконфигурирован ли вариант с MinIO.
func (c *Config) ObjectStorageEnabled() bool {
	return c.MinioEndpoint != ""
}

// LoadConfig загружает конфигурацию из переменных окружения и секретов.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Обязательные секреты
	var loadErr error
	cfg.AIAPIKey, loadErr = ReadSecret("ai_api_key")
	if loadErr != nil && cfg.AIProvider != "ollama" {
		return nil, loadErr
	}
	cfg.FalAPIKey, loadErr = ReadSecret("fal_api_key")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.ElevenLabsAPIKey, loadErr = ReadSecret("elevenlabs_api_key")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.DBPassword, loadErr = ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.StripeSecretKey, loadErr = ReadSecret("stripe_secret_key")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.StripeWebhookSecret, loadErr = ReadSecret("stripe_webhook_secret")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.JWTSecret, loadErr = ReadSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	// Необязательные секреты
	cfg.RedisPassword, _ = ReadSecret("redis_password")
	if cfg.ObjectStorageEnabled() {
		cfg.MinioAccessKey, loadErr = ReadSecret("minio_access_key")
		if loadErr != nil {
			return nil, loadErr
		}
		cfg.MinioSecretKey, loadErr = ReadSecret("minio_secret_key")
		if loadErr != nil {
			return nil, loadErr
		}
	}

	// Логируем загруженную конфигурацию (кроме паролей/ключей)
	log.Printf("Конфигурация загружена (секреты из файлов):")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  AI Provider: %s, Model: %s, Base URL: %s, Timeout: %v", cfg.AIProvider, cfg.AIModel, cfg.AIBaseURL, cfg.AITimeout)
	log.Printf("  Fal Base URL: %s, Image Model: %s, Video Model: %s", cfg.FalBaseURL, cfg.FalImageModel, cfg.FalVideoModel)
	log.Printf("  Debug Fast Mode: %v, Refund On Failure: %v", cfg.DebugFastMode, cfg.RefundOnFailure)
	log.Printf("  DB DSN: %s", cfg.getMaskedDSN())
	log.Printf("  Redis Addr: %s", cfg.RedisAddr)
	log.Printf("  Object Storage: %v", cfg.ObjectStorageEnabled())

	return &cfg, nil
}

// getMaskedDSN возвращает DSN с замаскированным паролем для логирования.
func (c *Config) getMaskedDSN() string {
	dsn := c.GetDSN()
	parts := strings.Split(dsn, "@")
	if len(parts) != 2 {
		return "[invalid dsn format]"
	}
	userInfo := strings.Split(parts[0], ":")
	if len(userInfo) >= 2 {
		userInfo[len(userInfo)-1] = "********"
	}
	return strings.Join(userInfo, ":") + "@" + parts[1]
}
