package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot and billing API.
type Config struct {
	App      AppConfig
	Discord  DiscordConfig
	Urgency  UrgencyConfig
	AI       AIConfig
	Digest   DigestConfig
	Ticket   TicketConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Billing  BillingConfig
}

// AppConfig controls HTTP server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// DiscordConfig holds gateway credentials and well-known channel names.
type DiscordConfig struct {
	Token         string
	ReportChannel string
	AdminChannel  string
	DigestChannel string
}

// UrgencyConfig exposes the escalation knobs.
type UrgencyConfig struct {
	Threshold        int
	MinMessageLength int
	DedupWindowSec   int
}

// AIConfig configures the chat-model capability.
type AIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	TimeoutSeconds int
}

// DigestConfig controls the daily summary job.
type DigestConfig struct {
	CronSpec    string
	WindowHours int
	Limit       int
}

// TicketProvider selects the active ticket backend.
type TicketProvider string

const (
	ProviderLog      TicketProvider = "log"
	ProviderDatabase TicketProvider = "database"
	ProviderTrello   TicketProvider = "trello"
	ProviderGitHub   TicketProvider = "github"
	ProviderJira     TicketProvider = "jira"
)

// TicketConfig holds backend selection and per-backend credentials.
type TicketConfig struct {
	Provider     TicketProvider
	TrelloAPIKey string
	TrelloToken  string
	TrelloListID string
	GitHubToken  string
	GitHubRepo   string
	JiraURL      string
	JiraEmail    string
	JiraAPIToken string
	JiraProject  string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines verification parameters for billing endpoints.
type AuthConfig struct {
	JWTSecret string
}

// BillingConfig holds payment provider settings.
type BillingConfig struct {
	StripeKey   string
	FrontendURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "pulse"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Discord: DiscordConfig{
			Token:         os.Getenv("DISCORD_TOKEN"),
			ReportChannel: getEnv("DISCORD_REPORT_CHANNEL", "report-an-issue"),
			AdminChannel:  getEnv("DISCORD_ADMIN_CHANNEL", "admin-alerts"),
			DigestChannel: getEnv("DISCORD_DIGEST_CHANNEL", "general"),
		},
		Urgency: UrgencyConfig{
			Threshold:        getEnvAsInt("URGENCY_THRESHOLD", 5),
			MinMessageLength: getEnvAsInt("URGENCY_MIN_LENGTH", 10),
			DedupWindowSec:   getEnvAsInt("MESSAGE_DEDUP_WINDOW_SECONDS", 10),
		},
		AI: AIConfig{
			APIKey:         os.Getenv("AI_API_KEY"),
			Model:          getEnv("AI_MODEL", "gpt-4o-mini"),
			BaseURL:        os.Getenv("AI_BASE_URL"),
			TimeoutSeconds: getEnvAsInt("AI_TIMEOUT_SECONDS", 30),
		},
		Digest: DigestConfig{
			CronSpec:    getEnv("DIGEST_CRON", "0 9 * * *"),
			WindowHours: getEnvAsInt("DIGEST_WINDOW_HOURS", 24),
			Limit:       getEnvAsInt("DIGEST_MESSAGE_LIMIT", 200),
		},
		Ticket: TicketConfig{
			Provider:     TicketProvider(getEnv("TICKET_PROVIDER", string(ProviderLog))),
			TrelloAPIKey: os.Getenv("TRELLO_API_KEY"),
			TrelloToken:  os.Getenv("TRELLO_TOKEN"),
			TrelloListID: os.Getenv("TRELLO_LIST_ID"),
			GitHubToken:  os.Getenv("GITHUB_TOKEN"),
			GitHubRepo:   os.Getenv("GITHUB_REPO"),
			JiraURL:      os.Getenv("JIRA_URL"),
			JiraEmail:    os.Getenv("JIRA_EMAIL"),
			JiraAPIToken: os.Getenv("JIRA_API_TOKEN"),
			JiraProject:  os.Getenv("JIRA_PROJECT_KEY"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
		},
		Billing: BillingConfig{
			StripeKey:   os.Getenv("STRIPE_KEY"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout bounds a single chat-model call; expiry counts as a classifier failure.
func (a AIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// DedupWindow returns the trailing window within which an identical
// (user, channel, content) tuple is treated as one message.
func (u UrgencyConfig) DedupWindow() time.Duration {
	if u.DedupWindowSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(u.DedupWindowSec) * time.Second
}

// Window returns the digest lookback duration.
func (d DigestConfig) Window() time.Duration {
	if d.WindowHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(d.WindowHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
