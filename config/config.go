package config

import (
	"log"

	"github.com/spf13/viper"
)

type WebServerConfig struct {
	Port            string `mapstructure:"port"`
	IP              string `mapstructure:"ip"`
	Scheme          string `mapstructure:"scheme"`
	BaseURL         string `mapstructure:"base_url"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	Address          string `mapstructure:"address"`
	Password         string `mapstructure:"password"`
	DB               int    `mapstructure:"db"`
	PoolSize         int    `mapstructure:"pool_size"`
	MinIdleConns     int    `mapstructure:"min_idle_conns"`
	OperationTimeout int    `mapstructure:"operation_timeout"`
}

type CacheConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MaxSizeMB   int  `mapstructure:"max_size_mb"`
	TTLSeconds  int  `mapstructure:"ttl_seconds"`
	CounterSize int  `mapstructure:"counter_size"`
}

// GatewayConfig controls the outbound request gateway: base endpoint,
// credentials, per-request timeout and the retry schedule.
type GatewayConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries"`
	RetryDelayMs   int     `mapstructure:"retry_delay_ms"`
	BackoffFactor  float64 `mapstructure:"backoff_factor"` // 1.0 = fixed delay between attempts
	RetryJitter    bool    `mapstructure:"retry_jitter"`
	CacheTTLSec    int     `mapstructure:"cache_ttl_seconds"`
}

type AnalyticsConfig struct {
	FallbackPath  string `mapstructure:"fallback_path"`
	TopProducts   int    `mapstructure:"top_products"`
	EventLogLimit int    `mapstructure:"event_log_limit"`
	DailyDays     int    `mapstructure:"daily_days"`
}

type StorageConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	PublicBaseURL  string `mapstructure:"public_base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
}

type NewsletterConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
}

type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     string `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromEmail    string `mapstructure:"from_email"`
	FromName     string `mapstructure:"from_name"`
	ContactEmail string `mapstructure:"contact_email"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type SecurityConfig struct {
	AdminAPIKey         string `mapstructure:"admin_api_key"`
	AdminAuthEnabled    bool   `mapstructure:"admin_auth_enabled"`
	BotDetectionEnabled bool   `mapstructure:"bot_detection_enabled"`
}

type Config struct {
	WebServer  WebServerConfig  `mapstructure:"webserver"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	Analytics  AnalyticsConfig  `mapstructure:"analytics"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Newsletter NewsletterConfig `mapstructure:"newsletter"`
	Email      EmailConfig      `mapstructure:"email"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Security   SecurityConfig   `mapstructure:"security"`
}

func LoadConfig() (Config, error) {
	var config Config

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Enable environment variable overrides
	viper.SetEnvPrefix("TRADER")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Error reading config file: %v", err)
		return config, err
	}

	if err := viper.Unmarshal(&config); err != nil {
		log.Printf("Unable to decode into struct: %v", err)
		return config, err
	}

	log.Println("Configuration loaded successfully")
	return config, nil
}

func MustLoadConfig() Config {
	config, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return config
}

func setDefaults() {
	// WebServer defaults
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.ip", "127.0.0.1")
	viper.SetDefault("webserver.scheme", "http")
	viper.SetDefault("webserver.base_url", "")
	viper.SetDefault("webserver.read_timeout", 15)
	viper.SetDefault("webserver.write_timeout", 15)
	viper.SetDefault("webserver.shutdown_timeout", 30)

	// Redis defaults
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 5)
	viper.SetDefault("redis.operation_timeout", 5)

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_size_mb", 100)
	viper.SetDefault("cache.ttl_seconds", 300)      // 5 minutes
	viper.SetDefault("cache.counter_size", 1000000) // 1M keys

	// Gateway defaults
	viper.SetDefault("gateway.base_url", "")
	viper.SetDefault("gateway.api_key", "")
	viper.SetDefault("gateway.timeout_seconds", 10)
	viper.SetDefault("gateway.max_retries", 3)
	viper.SetDefault("gateway.retry_delay_ms", 1000)
	viper.SetDefault("gateway.backoff_factor", 1.0)
	viper.SetDefault("gateway.retry_jitter", false)
	viper.SetDefault("gateway.cache_ttl_seconds", 300)

	// Analytics defaults
	viper.SetDefault("analytics.fallback_path", "data/analytics_fallback.json")
	viper.SetDefault("analytics.top_products", 10)
	viper.SetDefault("analytics.event_log_limit", 10000)
	viper.SetDefault("analytics.daily_days", 30)

	// Storage defaults
	viper.SetDefault("storage.base_url", "")
	viper.SetDefault("storage.api_key", "")
	viper.SetDefault("storage.public_base_url", "")
	viper.SetDefault("storage.timeout_seconds", 30)
	viper.SetDefault("storage.max_retries", 3)

	// Newsletter defaults
	viper.SetDefault("newsletter.endpoint", "")
	viper.SetDefault("newsletter.api_key", "")

	// Email defaults
	viper.SetDefault("email.enabled", false)
	viper.SetDefault("email.smtp_host", "")
	viper.SetDefault("email.smtp_port", "587")
	viper.SetDefault("email.from_email", "noreply@example.com")
	viper.SetDefault("email.from_name", "Trader Platform")
	viper.SetDefault("email.contact_email", "")

	// RateLimit defaults
	viper.SetDefault("ratelimit.requests_per_second", 10.0)
	viper.SetDefault("ratelimit.burst", 20)

	// Logging defaults
	viper.SetDefault("logging.level", "info")

	// Security defaults
	viper.SetDefault("security.admin_api_key", "")
	viper.SetDefault("security.admin_auth_enabled", true)
	viper.SetDefault("security.bot_detection_enabled", true)
}
