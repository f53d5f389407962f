package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/analytics"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers
const (
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`

	// CORSAllowedOrigins may contain wildcard entries such as
	// https://*.example.com. Empty allows every origin.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// StoreConfig picks the persistence backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type SupabaseConfig struct {
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
}

type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	// Migrate applies the embedded schema at startup.
	Migrate bool `mapstructure:"migrate"`
}

// RedisConfig enables the cross-replica analysis lease when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LeaseTTL time.Duration `mapstructure:"lease_ttl"`
}

// AMQPConfig enables alert event publishing when URL is set.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type AuthConfig struct {
	// JWTSecret verifies access tokens locally. When empty every token is
	// checked against Supabase.
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	Backend string `mapstructure:"backend"`
}

// AnalysisConfig tunes scheduling and the engine thresholds.
type AnalysisConfig struct {
	// ScheduleInterval is how often every active user is re-analyzed. Zero
	// disables the scheduler.
	ScheduleInterval time.Duration `mapstructure:"schedule_interval"`
	// RunsPerMinute limits on-demand runs per user.
	RunsPerMinute float64 `mapstructure:"runs_per_minute"`
	RunBurst      int     `mapstructure:"run_burst"`

	Policy analytics.Policy `mapstructure:"policy"`
}

// Load reads configuration from defaults, an optional config.yaml, a .env
// file and HABITPULSE_* environment variables, in increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HABITPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("server.port", "HABITPULSE_SERVER_PORT", "PORT")
	_ = v.BindEnv("supabase.url", "HABITPULSE_SUPABASE_URL", "SUPABASE_URL")
	_ = v.BindEnv("supabase.service_key", "HABITPULSE_SUPABASE_SERVICE_KEY", "SUPABASE_SERVICE_KEY")
	_ = v.BindEnv("postgres.dsn", "HABITPULSE_POSTGRES_DSN", "DATABASE_URL")
	_ = v.BindEnv("auth.jwt_secret", "HABITPULSE_AUTH_JWT_SECRET", "SUPABASE_JWT_SECRET")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := Config{Analysis: AnalysisConfig{Policy: analytics.DefaultPolicy()}}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Analysis.Policy = cfg.Analysis.Policy.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.cors_allowed_origins", []string{})
	v.SetDefault("store.driver", DriverSupabase)
	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.service_key", "")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.migrate", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lease_ttl", "2m")
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "habitpulse.events")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.backend", "slog")
	v.SetDefault("analysis.schedule_interval", "6h")
	v.SetDefault("analysis.runs_per_minute", 2)
	v.SetDefault("analysis.run_burst", 3)
	v.SetDefault("analysis.policy.window_days", analytics.DefaultPolicy().WindowDays)
}

// Validate checks the fields the selected store driver needs.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSupabase:
		if c.Supabase.URL == "" {
			return fmt.Errorf("SUPABASE_URL is required")
		}
		if c.Supabase.ServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
		}
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required when store.driver is postgres")
		}
		if c.Supabase.URL == "" && c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required without a Supabase URL")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Analysis.RunsPerMinute < 0 || c.Analysis.RunBurst < 0 {
		return fmt.Errorf("analysis rate limits must not be negative")
	}
	return nil
}
