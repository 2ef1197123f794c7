package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/justQrius/ai-opportunity-browser/internal/utils"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Engine      EngineConfig    `mapstructure:"engine"`
	Discovery   DiscoveryConfig `mapstructure:"discovery"`
	Cleanup     CleanupConfig   `mapstructure:"cleanup"`
	Telegram    TelegramConfig  `mapstructure:"telegram"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	DatabaseURL string `mapstructure:"database_url"`
	MaxConns    int    `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EngineConfig holds the recognized options of the opportunity discovery engine
type EngineConfig struct {
	MinSignalsForOpportunity int     `mapstructure:"min_signals_for_opportunity" json:"min_signals_for_opportunity"`
	SimilarityThreshold      float64 `mapstructure:"similarity_threshold" json:"similarity_threshold"`
	ConfidenceThreshold      float64 `mapstructure:"confidence_threshold" json:"confidence_threshold"`
	// MaxOpportunitiesPerBatch caps the candidates returned per batch; zero or less disables the cap
	MaxOpportunitiesPerBatch int `mapstructure:"max_opportunities_per_batch" json:"max_opportunities_per_batch"`
}

type DiscoveryConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Schedule  string `mapstructure:"schedule"`
	BatchSize int    `mapstructure:"batch_size"`
	DedupTTL  string `mapstructure:"dedup_ttl"`
}

// CleanupConfig controls the retention of processed signals
type CleanupConfig struct {
	Enabled              bool `mapstructure:"enabled"`
	SignalRetentionHours int  `mapstructure:"signal_retention_hours"`
	IntervalMinutes      int  `mapstructure:"interval_minutes"`
}

type TelegramConfig struct {
	BotToken      string  `mapstructure:"bot_token" json:"-" yaml:"-"`
	ChatID        int64   `mapstructure:"chat_id"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Exporter       string `mapstructure:"exporter"` // "stdout" or "otlp"
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
}

// DefaultEngineConfig returns the engine defaults used when no configuration is supplied
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinSignalsForOpportunity: 2,
		SimilarityThreshold:      0.25,
		ConfidenceThreshold:      0.6,
		MaxOpportunitiesPerBatch: 10,
	}
}

// Validate checks that every engine option is within its allowed range
func (c EngineConfig) Validate() error {
	if c.MinSignalsForOpportunity < 1 {
		return utils.NewFieldValidationError("min_signals_for_opportunity", "must be at least 1, got %d", c.MinSignalsForOpportunity)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return utils.NewFieldValidationError("similarity_threshold", "must be within [0, 1], got %.3f", c.SimilarityThreshold)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return utils.NewFieldValidationError("confidence_threshold", "must be within [0, 1], got %.3f", c.ConfidenceThreshold)
	}
	return nil
}

// DedupTTLDuration parses the deduplication window, falling back to 24h
func (c DiscoveryConfig) DedupTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.DedupTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// DSN builds the PostgreSQL connection string, preferring database_url when set
func (c DatabaseConfig) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from ./configs/config.yaml or ./config.yaml, a .env file and the environment
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads configuration from an explicit file; an empty path searches the default locations
func LoadFrom(path string) (*Config, error) {
	// A missing .env file is fine; the environment may already be populated
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind TELEGRAM_BOT_TOKEN environment variable: %w", err)
	}
	if err := v.BindEnv("database.database_url", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_URL environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.Engine.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}

	if config.Discovery.Enabled {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(config.Discovery.Schedule); err != nil {
			return nil, fmt.Errorf("invalid discovery schedule %q: %w", config.Discovery.Schedule, err)
		}
	}

	if config.Discovery.BatchSize <= 0 {
		return nil, utils.NewFieldValidationError("discovery.batch_size", "must be positive, got %d", config.Discovery.BatchSize)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Environment
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "ai_opportunity_browser")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.database_url", "")
	v.SetDefault("database.max_conns", 10)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Engine
	defaults := DefaultEngineConfig()
	v.SetDefault("engine.min_signals_for_opportunity", defaults.MinSignalsForOpportunity)
	v.SetDefault("engine.similarity_threshold", defaults.SimilarityThreshold)
	v.SetDefault("engine.confidence_threshold", defaults.ConfidenceThreshold)
	v.SetDefault("engine.max_opportunities_per_batch", defaults.MaxOpportunitiesPerBatch)

	// Discovery
	v.SetDefault("discovery.enabled", true)
	v.SetDefault("discovery.schedule", "0 */15 * * * *")
	v.SetDefault("discovery.batch_size", 500)
	v.SetDefault("discovery.dedup_ttl", "24h")

	// Cleanup
	v.SetDefault("cleanup.enabled", true)
	v.SetDefault("cleanup.signal_retention_hours", 168)
	v.SetDefault("cleanup.interval_minutes", 60)

	// Telegram
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.min_confidence", 0.75)

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.exporter", "stdout")
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_name", "ai-opportunity-browser")
	v.SetDefault("telemetry.service_version", "1.0.0")
}
