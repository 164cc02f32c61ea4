package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the optional YAML config file.
const EnvConfigPath = "CONFIG_PATH"

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	TwoFactor TwoFactorConfig
	Webhook   WebhookConfig
	Mail      MailConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret         string
	SessionTTLMinutes int
	BcryptCost        int
}

// TwoFactorConfig tunes emailed one-time codes.
type TwoFactorConfig struct {
	CodeTTLMinutes int
	HashCost       int
	SendLimit      int
	VerifyLimit    int
	WindowSeconds  int
}

// WebhookConfig holds the inbound intake secret and the outbound dispatch endpoint.
type WebhookConfig struct {
	Secret                string
	DispatchURL           string
	DispatchTimeoutSecond int
}

// MailConfig selects how verification codes are delivered.
type MailConfig struct {
	From         string
	ResendAPIKey string
	ResendURL    string
	SMTPAddr     string
	SMTPUsername string
	SMTPPassword string
}

// fileConfig mirrors the YAML layout accepted through CONFIG_PATH.
type fileConfig struct {
	App struct {
		Name    string `yaml:"name"`
		Env     string `yaml:"env"`
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		Version string `yaml:"version"`
	} `yaml:"app"`
	Postgres struct {
		DSN           string `yaml:"dsn"`
		MigrationsDir string `yaml:"migrations-dir"`
	} `yaml:"postgres"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Webhook struct {
		DispatchURL string `yaml:"dispatch-url"`
	} `yaml:"webhook"`
	Mail struct {
		From      string `yaml:"from"`
		ResendURL string `yaml:"resend-url"`
		SMTPAddr  string `yaml:"smtp-addr"`
	} `yaml:"mail"`
}

// Load reads configuration from environment variables, applying defaults where possible.
// Values from the YAML file named by CONFIG_PATH sit between defaults and env.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFile(os.Getenv(EnvConfigPath))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	var file fileConfig
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", or(file.App.Name, "response-desk")),
			Env:                   getEnv("APP_ENV", or(file.App.Env, "development")),
			Host:                  getEnv("APP_HOST", or(file.App.Host, "0.0.0.0")),
			Port:                  getEnv("APP_PORT", or(file.App.Port, "8080")),
			Version:               getEnv("APP_VERSION", or(file.App.Version, "dev")),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            getEnv("POSTGRES_DSN", file.Postgres.DSN),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", or(file.Postgres.MigrationsDir, "migrations")),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", file.Redis.Addr),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", or(file.Log.Level, "info")),
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("AUTH_JWT_SECRET"),
			SessionTTLMinutes: getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 60*12),
			BcryptCost:        getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		TwoFactor: TwoFactorConfig{
			CodeTTLMinutes: getEnvAsInt("TWO_FACTOR_CODE_TTL_MINUTES", 5),
			HashCost:       getEnvAsInt("TWO_FACTOR_HASH_COST", 10),
			SendLimit:      getEnvAsInt("TWO_FACTOR_SEND_LIMIT", 5),
			VerifyLimit:    getEnvAsInt("TWO_FACTOR_VERIFY_LIMIT", 10),
			WindowSeconds:  getEnvAsInt("TWO_FACTOR_WINDOW_SECONDS", 300),
		},
		Webhook: WebhookConfig{
			Secret:                os.Getenv("WEBHOOK_SECRET"),
			DispatchURL:           getEnv("DISPATCH_WEBHOOK_URL", file.Webhook.DispatchURL),
			DispatchTimeoutSecond: getEnvAsInt("DISPATCH_TIMEOUT_SECONDS", 15),
		},
		Mail: MailConfig{
			From:         getEnv("MAIL_FROM", or(file.Mail.From, "Response Desk <noreply@example.com>")),
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			ResendURL:    getEnv("RESEND_API_URL", or(file.Mail.ResendURL, "https://api.resend.com/emails")),
			SMTPAddr:     getEnv("SMTP_ADDR", file.Mail.SMTPAddr),
			SMTPUsername: os.Getenv("SMTP_USERNAME"),
			SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with safely.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		if c.App.Env != "development" && c.App.Env != "test" {
			return errors.New("AUTH_JWT_SECRET is required outside development")
		}
		c.Auth.JWTSecret = "dev-secret"
	}
	if c.TwoFactor.CodeTTLMinutes <= 0 {
		return errors.New("TWO_FACTOR_CODE_TTL_MINUTES must be positive")
	}
	return nil
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

// CodeTTL returns how long an emailed code stays valid.
func (t TwoFactorConfig) CodeTTL() time.Duration {
	return time.Duration(t.CodeTTLMinutes) * time.Minute
}

// Window returns the rate limit window for send and verify attempts.
func (t TwoFactorConfig) Window() time.Duration {
	if t.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(t.WindowSeconds) * time.Second
}

// DispatchTimeout bounds a single outbound dispatch call.
func (w WebhookConfig) DispatchTimeout() time.Duration {
	if w.DispatchTimeoutSecond <= 0 {
		return 15 * time.Second
	}
	return time.Duration(w.DispatchTimeoutSecond) * time.Second
}

func or(val, fallback string) string {
	if strings.TrimSpace(val) != "" {
		return val
	}
	return fallback
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
