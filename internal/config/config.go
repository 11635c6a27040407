// AngelaMos | 2026
// config.go

package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Upload    UploadConfig    `koanf:"upload"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Mail      MailConfig      `koanf:"mail"`
	Mailchimp MailchimpConfig `koanf:"mailchimp"`
	Calendar  CalendarConfig  `koanf:"calendar"`
	Frontend  FrontendConfig  `koanf:"frontend"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StorageConfig selects the record store backend. The pool settings only
// apply to the postgres driver.
type StorageConfig struct {
	Driver          string        `koanf:"driver"`
	DataDir         string        `koanf:"data_dir"`
	DatabaseURL     string        `koanf:"database_url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type UploadConfig struct {
	Dir      string `koanf:"dir"`
	MaxBytes int64  `koanf:"max_bytes"`
}

// RedisConfig backs the shared rate limiter. Timeouts stay short so a slow
// Redis degrades to the in-process limiter instead of stalling requests.
type RedisConfig struct {
	URL             string        `koanf:"url"`
	PoolSize        int           `koanf:"pool_size"`
	MinIdleConns    int           `koanf:"min_idle_conns"`
	DialTimeout     time.Duration `koanf:"dial_timeout"`
	OpTimeout       time.Duration `koanf:"op_timeout"`
	PoolTimeout     time.Duration `koanf:"pool_timeout"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type JWTConfig struct {
	Secret      string        `koanf:"secret"`
	TokenExpire time.Duration `koanf:"token_expire"`
	Issuer      string        `koanf:"issuer"`

	// SecretGenerated is set when a development run had no secret and a
	// random one was substituted.
	SecretGenerated bool `koanf:"-"`
}

// RateLimitConfig holds the per-client budget for public write routes and a
// separate, larger budget for uploads, which one intake sends many of.
// TrustProxy makes client addresses come from X-Forwarded-For/X-Real-IP and
// must only be set behind a proxy that overwrites those headers.
type RateLimitConfig struct {
	Requests       int           `koanf:"requests"`
	Window         time.Duration `koanf:"window"`
	Burst          int           `koanf:"burst"`
	UploadRequests int           `koanf:"upload_requests"`
	UploadBurst    int           `koanf:"upload_burst"`
	TrustProxy     bool          `koanf:"trust_proxy"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MailConfig struct {
	SMTPHost   string `koanf:"smtp_host"`
	SMTPPort   int    `koanf:"smtp_port"`
	SMTPUser   string `koanf:"smtp_user"`
	SMTPPass   string `koanf:"smtp_pass"`
	From       string `koanf:"from"`
	AdminEmail string `koanf:"admin_email"`
}

// Sender is the From address, falling back to the SMTP login.
func (m MailConfig) Sender() string {
	if m.From != "" {
		return m.From
	}
	return m.SMTPUser
}

// Operator is where new-submission alerts go.
func (m MailConfig) Operator() string {
	if m.AdminEmail != "" {
		return m.AdminEmail
	}
	return m.Sender()
}

type MailchimpConfig struct {
	APIKey       string `koanf:"api_key"`
	ServerPrefix string `koanf:"server_prefix"`
	ListID       string `koanf:"list_id"`
}

func (m MailchimpConfig) Enabled() bool {
	return m.APIKey != "" && m.ListID != ""
}

type CalendarConfig struct {
	Type string `koanf:"type"`
	URL  string `koanf:"url"`
}

type FrontendConfig struct {
	URL string `koanf:"url"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Studio Thielman API",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             3001,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "60s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"storage.driver":             DriverFile,
		"storage.data_dir":           "data",
		"storage.max_open_conns":     10,
		"storage.max_idle_conns":     2,
		"storage.conn_max_lifetime":  "1h",
		"storage.conn_max_idle_time": "30m",

		"upload.dir":       "uploads",
		"upload.max_bytes": 10 << 20,

		"redis.pool_size":          10,
		"redis.min_idle_conns":     2,
		"redis.dial_timeout":       "2s",
		"redis.op_timeout":         "500ms",
		"redis.pool_timeout":       "1s",
		"redis.conn_max_idle_time": "5m",

		"jwt.token_expire": "24h",
		"jwt.issuer":       "studio-thielman",

		"rate_limit.requests":        30,
		"rate_limit.window":          "1m",
		"rate_limit.burst":           10,
		"rate_limit.upload_requests": 60,
		"rate_limit.upload_burst":    30,
		"rate_limit.trust_proxy":     false,

		"cors.allowed_origins": []string{"http://localhost:5173"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "studio-thielman-api",

		"mail.smtp_port": 587,

		"calendar.type": "calendly",
		"calendar.url":  "https://calendly.com/your-calendar",

		"frontend.url": "http://localhost:5173",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"STORAGE_DRIVER":              "storage.driver",
	"DATA_DIR":                    "storage.data_dir",
	"DATABASE_URL":                "storage.database_url",
	"UPLOAD_DIR":                  "upload.dir",
	"UPLOAD_MAX_BYTES":            "upload.max_bytes",
	"REDIS_URL":                   "redis.url",
	"REDIS_OP_TIMEOUT":            "redis.op_timeout",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_SECRET":                  "jwt.secret",
	"JWT_TOKEN_EXPIRE":            "jwt.token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"RATE_LIMIT_UPLOAD_REQUESTS":  "rate_limit.upload_requests",
	"RATE_LIMIT_UPLOAD_BURST":     "rate_limit.upload_burst",
	"RATE_LIMIT_TRUST_PROXY":      "rate_limit.trust_proxy",
	"CORS_ALLOWED_ORIGINS":        "cors.allowed_origins",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"SMTP_HOST":                   "mail.smtp_host",
	"SMTP_PORT":                   "mail.smtp_port",
	"SMTP_USER":                   "mail.smtp_user",
	"SMTP_PASS":                   "mail.smtp_pass",
	"MAIL_FROM":                   "mail.from",
	"ADMIN_EMAIL":                 "mail.admin_email",
	"MAILCHIMP_API_KEY":           "mailchimp.api_key",
	"MAILCHIMP_SERVER_PREFIX":     "mailchimp.server_prefix",
	"MAILCHIMP_LIST_ID":           "mailchimp.list_id",
	"CALENDAR_TYPE":               "calendar.type",
	"CALENDAR_URL":                "calendar.url",
	"FRONTEND_URL":                "frontend.url",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.JWT.Secret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET is required")
		}
		secret, err := randomSecret()
		if err != nil {
			return fmt.Errorf("generate jwt secret: %w", err)
		}
		c.JWT.Secret = secret
		c.JWT.SecretGenerated = true
	}

	if c.JWT.TokenExpire <= 0 {
		return fmt.Errorf("jwt.token_expire must be positive")
	}

	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir is required for the file driver")
		}
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}

	if c.RateLimit.Requests <= 0 || c.RateLimit.Burst <= 0 ||
		c.RateLimit.UploadRequests <= 0 || c.RateLimit.UploadBurst <= 0 {
		return fmt.Errorf("rate_limit requests and bursts must be positive")
	}

	if c.Upload.Dir == "" {
		return fmt.Errorf("upload.dir is required")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.IsProduction() {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
