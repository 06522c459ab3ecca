package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// BOOKING_SERVER_PORT or BOOKING_JWT_SECRET.
const EnvPrefix = "BOOKING"

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Directory    DirectoryConfig    `mapstructure:"directory"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Booking      BookingConfig      `mapstructure:"booking"`
	Verification VerificationConfig `mapstructure:"verification"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	SMTP         SMTPConfig         `mapstructure:"smtp"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit" split_words:"true"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Worker       WorkerConfig       `mapstructure:"worker"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" split_words:"true"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" split_words:"true"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" split_words:"true"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// DirectoryConfig selects where doctor records come from: the bundled
// seed data held in memory, or postgres.
type DirectoryConfig struct {
	Source  string        `mapstructure:"source"`
	Latency time.Duration `mapstructure:"latency"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" split_words:"true"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" split_words:"true"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size" split_words:"true"`
	MaxRetries   int           `mapstructure:"max_retries" split_words:"true"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" split_words:"true"`
}

type BookingConfig struct {
	SessionTTL      time.Duration `mapstructure:"session_ttl" split_words:"true"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" split_words:"true"`
	PaymentDelay    time.Duration `mapstructure:"payment_delay" split_words:"true"`
	PaymentTimeout  time.Duration `mapstructure:"payment_timeout" split_words:"true"`
	BreakerFailures int           `mapstructure:"breaker_failures" split_words:"true"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown" split_words:"true"`
}

type VerificationConfig struct {
	FlowTTL time.Duration `mapstructure:"flow_ttl" split_words:"true"`
	CodeTTL time.Duration `mapstructure:"code_ttl" split_words:"true"`
	// Verifier is "length" (any six characters) or "stored".
	Verifier string `mapstructure:"verifier"`
	// Dispatcher is "log", "email" or "broker".
	Dispatcher string `mapstructure:"dispatcher"`
	BcryptCost int    `mapstructure:"bcrypt_cost" split_words:"true"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins" split_words:"true"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

type WorkerConfig struct {
	Port         int           `mapstructure:"port"`
	MaxRetries   int           `mapstructure:"max_retries" split_words:"true"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" split_words:"true"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 64<<10)

	v.SetDefault("log.level", "info")

	v.SetDefault("directory.source", "memory")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", "100ms")

	v.SetDefault("booking.session_ttl", "30m")
	v.SetDefault("booking.cleanup_interval", "1m")
	v.SetDefault("booking.payment_delay", "2s")
	v.SetDefault("booking.payment_timeout", "15s")
	v.SetDefault("booking.breaker_failures", 5)
	v.SetDefault("booking.breaker_cooldown", "30s")

	v.SetDefault("verification.flow_ttl", "15m")
	v.SetDefault("verification.code_ttl", "10m")
	v.SetDefault("verification.verifier", "length")
	v.SetDefault("verification.dispatcher", "log")
	v.SetDefault("verification.bcrypt_cost", 10)

	v.SetDefault("jwt.issuer", "booking-api")
	v.SetDefault("jwt.ttl", "24h")

	v.SetDefault("smtp.port", 587)

	v.SetDefault("rate_limit.rps", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("cors.allow_origins", []string{"*"})

	v.SetDefault("metrics.namespace", "booking")

	v.SetDefault("worker.port", 8081)
	v.SetDefault("worker.max_retries", 3)
	v.SetDefault("worker.retry_backoff", "2s")
}

// LoadConfig reads config.yml from path, or from ".", "./config" and
// "/app/config" when path is empty. A missing file is not an error.
// BOOKING_* environment variables override file values.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.Directory.Source {
	case "memory", "postgres":
	default:
		return fmt.Errorf("directory.source must be memory or postgres, got %q", c.Directory.Source)
	}
	switch c.Verification.Verifier {
	case "length", "stored":
	default:
		return fmt.Errorf("verification.verifier must be length or stored, got %q", c.Verification.Verifier)
	}
	switch c.Verification.Dispatcher {
	case "log", "email", "broker":
	default:
		return fmt.Errorf("verification.dispatcher must be log, email or broker, got %q", c.Verification.Dispatcher)
	}
	if c.Verification.Dispatcher == "broker" && !c.Redis.Enabled {
		return errors.New("verification.dispatcher broker requires redis.enabled")
	}
	return nil
}
