package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendDynamo   = "dynamodb"
)

type Config struct {
	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiAPIVersion string
	ImageModel       string
	TextModel        string

	AdminEmail    string
	AdminPassword string

	TelegramToken string
	WebAddr       string

	LogLevel  string
	LogFormat string
	Debug     bool

	PreferIPv4 bool

	HTTPTimeout        time.Duration
	RequestTimeout     time.Duration
	MediaGroupDebounce time.Duration
	MaxConcurrent      int
	MaxHistoryMessages int
	MaxUploadBytes     int64
	JPEGQuality        int

	StoreBackend string
	DatabaseURL  string
	DynamoTable  string
	AWSRegion    string
}

// Load reads the shared settings. Binaries that need more (the bot token,
// web credentials) check them with the Require* helpers.
func Load() (Config, error) {
	cfg := Config{
		GeminiBaseURL:      strings.TrimSpace(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")),
		GeminiAPIVersion:   strings.TrimSpace(getEnv("GEMINI_API_VERSION", "v1beta")),
		ImageModel:         getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		TextModel:          getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		WebAddr:            getEnv("WEB_ADDR", ":8080"),
		LogLevel:           strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "json")),
		Debug:              getEnvBool("DEBUG", false),
		PreferIPv4:         getEnvBool("PREFER_IPV4", true),
		HTTPTimeout:        time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 180)) * time.Second,
		MediaGroupDebounce: time.Duration(getEnvInt("MEDIA_GROUP_DEBOUNCE_MS", 1200)) * time.Millisecond,
		MaxConcurrent:      getEnvInt("MAX_CONCURRENT", 4),
		MaxHistoryMessages: getEnvInt("MAX_HISTORY_MESSAGES", 200),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
		JPEGQuality:        getEnvInt("JPEG_QUALITY", 90),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DynamoTable:        getEnv("DYNAMODB_TABLE", "thumbnail-kv"),
		AWSRegion:          strings.TrimSpace(os.Getenv("AWS_REGION")),
	}

	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	cfg.AdminEmail = strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))

	if cfg.GeminiAPIKey == "" {
		return Config{}, errors.New("GEMINI_API_KEY is required")
	}

	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for the postgres store")
		}
	case BackendDynamo:
		if cfg.DynamoTable == "" {
			return Config{}, errors.New("DYNAMODB_TABLE is required for the dynamodb store")
		}
	default:
		return Config{}, errors.New("STORE_BACKEND must be memory, postgres or dynamodb")
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.MaxHistoryMessages < 1 {
		cfg.MaxHistoryMessages = 1
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 90
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}

	return cfg, nil
}

func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

func (c Config) RequireCredentials() error {
	switch {
	case c.AdminEmail == "":
		return errors.New("ADMIN_EMAIL is required")
	case c.AdminPassword == "":
		return errors.New("ADMIN_PASSWORD is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
