package config

import (
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	// TrustedProxies lists the addresses or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers are honoured. Empty means the socket peer is the client.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// TrustedProxyPrefixes parses TrustedProxies. Bare addresses become
// single-host prefixes.
func (c ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type PostgresConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	SSLMode       string `mapstructure:"ssl_mode"`
	MaxConns      int32  `mapstructure:"max_conns"`
	MinConns      int32  `mapstructure:"min_conns"`
	MigrationsURL string `mapstructure:"migrations_url"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LLMConfig struct {
	DefaultProvider string        `mapstructure:"default_provider"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Gemini          GeminiConfig  `mapstructure:"gemini"`
	Ollama          OllamaConfig  `mapstructure:"ollama"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Host         string `mapstructure:"host"`
	DefaultModel string `mapstructure:"default_model"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// viper reports a missing explicit file as a *fs.PathError, not ConfigFileNotFoundError
		if _, statErr := os.Stat(configPath); statErr == nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that would otherwise fail late at startup
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required when store.driver is %q", DriverMongo)
		}
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		return err
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.middleware_timeout", "80s")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.trusted_proxies", []string{})

	// Store
	v.SetDefault("store.driver", DriverMongo)

	// Mongo
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "stackbot")
	v.SetDefault("mongo.connect_timeout", "10s")

	// Postgres
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "stackbot")
	v.SetDefault("postgres.database", "stackbot")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.migrations_url", "file://migrations")

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// LLM
	v.SetDefault("llm.default_provider", "gemini")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.gemini.model", "gemini-1.5-flash")
	v.SetDefault("llm.ollama.default_model", "llama3")

	// Rate limit
	v.SetDefault("ratelimit.requests_per_minute", 30)
	v.SetDefault("ratelimit.burst", 5)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")

	v.BindEnv("store.driver", "STORE_DRIVER")

	v.BindEnv("mongo.uri", "MONGODB_URI")

	v.BindEnv("postgres.password", "POSTGRES_PASSWORD")

	v.BindEnv("redis.password", "REDIS_PASSWORD")

	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("llm.ollama.host", "OLLAMA_HOST")
}
