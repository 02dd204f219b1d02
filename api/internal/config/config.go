package config

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"documind-bot/api/internal/logger"
	"documind-bot/api/internal/secrets"
)

// Secret names resolved through the secrets provider.
const (
	SecretTelegramToken = "TELEGRAM_BOT_TOKEN"
	SecretGeminiKey     = "GEMINI_API_KEY"
	SecretOpenAIKey     = "OPENAI_API_KEY"
	SecretYandexOAuth   = "YC_OAUTH_TOKEN"
	SecretDeepSeekKey   = "DEEPSEEK_API_KEY"
)

type Config struct {
	Port       string `envconfig:"PORT" default:"8080"`
	WebhookURL string `envconfig:"WEBHOOK_URL"`

	// OCR
	OCREngine             string        `envconfig:"OCR_ENGINE" default:"vision"` // vision | yandex | gemini | openai
	OCRLanguages          []string      `envconfig:"OCR_LANGUAGES" default:"uk,en,ru"`
	OCRTimeout            time.Duration `envconfig:"OCR_TIMEOUT" default:"60s"`
	OCRModel              string        `envconfig:"OCR_MODEL"`
	YCFolderID            string        `envconfig:"YC_FOLDER_ID"`
	GoogleCredentialsFile string        `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	GoogleCredentialsJSON string        `envconfig:"GOOGLE_CREDENTIALS"`

	// Generation
	LLMProvider   string        `envconfig:"LLM_PROVIDER" default:"gemini"` // gemini | openai | deepseek
	GeminiModel   string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	DeepSeekModel string        `envconfig:"DEEPSEEK_MODEL" default:"deepseek-chat"`
	LLMTimeout    time.Duration `envconfig:"LLM_TIMEOUT" default:"90s"`
	ProfilesFile  string        `envconfig:"PROFILES_FILE"`

	// Text cache
	CacheBackend string        `envconfig:"CACHE_BACKEND" default:"memory"` // memory | redis | postgres | sqlite
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"72h"`
	RedisURL     string        `envconfig:"REDIS_URL"`
	DatabaseURL  string        `envconfig:"DATABASE_URL"`
	SQLitePath   string        `envconfig:"SQLITE_PATH" default:"documind.db"`

	RenderThreshold int `envconfig:"RENDER_THRESHOLD" default:"3000"`

	// Secret store; empty means environment only.
	GCPProject string `envconfig:"GCP_PROJECT"`

	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat     string `envconfig:"LOG_FORMAT" default:"console"`
	LogTimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02T15:04:05Z07:00"`
	LogOutput     string `envconfig:"LOG_OUTPUT" default:"stdout"`

	// Filled by ResolveSecrets.
	TelegramBotToken string `ignored:"true"`
	GeminiAPIKey     string `ignored:"true"`
	OpenAIAPIKey     string `ignored:"true"`
	YCOAuthToken     string `ignored:"true"`
	DeepSeekAPIKey   string `ignored:"true"`
}

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c.normalize()
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) normalize() {
	c.OCREngine = strings.ToLower(strings.TrimSpace(c.OCREngine))
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	c.CacheBackend = strings.ToLower(strings.TrimSpace(c.CacheBackend))
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	if c.CacheBackend == "postgres" && strings.TrimSpace(c.DatabaseURL) == "" {
		c.DatabaseURL = dsnFromPostgresEnv()
	}
}

func (c *Config) validate() error {
	switch c.OCREngine {
	case "vision", "gemini", "openai":
	case "yandex":
		if c.YCFolderID == "" {
			return fmt.Errorf("YC_FOLDER_ID is required for OCR_ENGINE=yandex")
		}
	default:
		return fmt.Errorf("unknown OCR_ENGINE %q", c.OCREngine)
	}
	switch c.LLMProvider {
	case "gemini", "openai", "deepseek":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	switch c.CacheBackend {
	case "memory", "sqlite":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for CACHE_BACKEND=redis")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for CACHE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative, got %s", c.CacheTTL)
	}
	// Telegram rejects messages above 4096 characters.
	if c.RenderThreshold <= 0 || c.RenderThreshold > 4096 {
		return fmt.Errorf("RENDER_THRESHOLD must be in 1..4096, got %d", c.RenderThreshold)
	}
	return nil
}

// RequiredSecrets lists the credentials this configuration cannot start without.
func (c *Config) RequiredSecrets() []string {
	names := []string{SecretTelegramToken}
	switch c.LLMProvider {
	case "openai":
		names = append(names, SecretOpenAIKey)
	case "deepseek":
		names = append(names, SecretDeepSeekKey)
	default:
		names = append(names, SecretGeminiKey)
	}
	switch c.OCREngine {
	case "yandex":
		names = append(names, SecretYandexOAuth)
	case "gemini":
		if c.LLMProvider != "gemini" {
			names = append(names, SecretGeminiKey)
		}
	case "openai":
		if c.LLMProvider != "openai" {
			names = append(names, SecretOpenAIKey)
		}
	}
	return names
}

// ResolveSecrets fills the credential fields; any missing one is an error.
func (c *Config) ResolveSecrets(ctx context.Context, p secrets.Provider) error {
	return c.resolve(ctx, p, c.RequiredSecrets())
}

// ResolveEngineSecrets resolves only what OCR and generation need, for running
// without Telegram.
func (c *Config) ResolveEngineSecrets(ctx context.Context, p secrets.Provider) error {
	return c.resolve(ctx, p, c.RequiredSecrets()[1:])
}

func (c *Config) resolve(ctx context.Context, p secrets.Provider, names []string) error {
	got, err := secrets.Resolve(ctx, p, names...)
	if err != nil {
		return err
	}
	c.TelegramBotToken = got[SecretTelegramToken]
	c.GeminiAPIKey = got[SecretGeminiKey]
	c.OpenAIAPIKey = got[SecretOpenAIKey]
	c.YCOAuthToken = got[SecretYandexOAuth]
	c.DeepSeekAPIKey = got[SecretDeepSeekKey]
	return nil
}

func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// dsnFromPostgresEnv builds a DSN from POSTGRES_* / PG* variables.
func dsnFromPostgresEnv() string {
	pass := os.Getenv("POSTGRES_PASSWORD")
	if pass == "" && os.Getenv("PGHOST") == "" {
		return ""
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getenvDefault("POSTGRES_USER", "documind"), pass),
		Host:     net.JoinHostPort(getenvDefault("PGHOST", "db"), getenvDefault("PGPORT", "5432")),
		Path:     "/" + getenvDefault("POSTGRES_DB", "documind"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// SafeDSNSummary renders a DSN for logs without the password.
func SafeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	host, port := u.Host, ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, u.User.Username())
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, u.User.Username())
}
