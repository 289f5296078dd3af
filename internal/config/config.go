package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Taxonomy   TaxonomyConfig   `yaml:"taxonomy" mapstructure:"taxonomy"`
	Region     RegionConfig     `yaml:"region" mapstructure:"region"`
	CNPJa      CNPJaConfig      `yaml:"cnpja" mapstructure:"cnpja"`
	BrasilAPI  BrasilAPIConfig  `yaml:"brasilapi" mapstructure:"brasilapi"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Mock       MockConfig       `yaml:"mock" mapstructure:"mock"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// StoreConfig configures the ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min" mapstructure:"rate_limit_per_min"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// BatchConfig configures batch enrichment.
type BatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// TaxonomyConfig points at an optional YAML licensing table. Empty means the
// built-in table.
type TaxonomyConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// RegionConfig identifies the municipality being scanned.
type RegionConfig struct {
	City     string `yaml:"city" mapstructure:"city"`
	State    string `yaml:"state" mapstructure:"state"`
	IBGECode string `yaml:"ibge_code" mapstructure:"ibge_code"`
	// ReceitaCode is the Receita Federal (TOM) municipality code used in dumps.
	ReceitaCode string `yaml:"receita_code" mapstructure:"receita_code"`
}

// CNPJaConfig holds CNPJá API settings.
type CNPJaConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	MaxAgeDays     int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	RequestsPerMin int    `yaml:"requests_per_min" mapstructure:"requests_per_min"`
	SearchLimit    int    `yaml:"search_limit" mapstructure:"search_limit"`
}

// BrasilAPIConfig holds BrasilAPI settings.
type BrasilAPIConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CacheConfig configures the Redis detail cache. Empty RedisURL disables it.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// MockConfig configures the demo generator.
type MockConfig struct {
	Count int    `yaml:"count" mapstructure:"count"`
	Seed  uint64 `yaml:"seed" mapstructure:"seed"`
}

// MonitoringConfig configures run-health alerts. Empty WebhookURL disables
// delivery; stats are still computed.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	ErrorRateThreshold   float64 `yaml:"error_rate_threshold" mapstructure:"error_rate_threshold"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
}

// Load reads configuration from an optional .env file, config.yaml, and
// RADAR_-prefixed environment variables, in increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "radar.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_per_min", 120)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("batch.workers", 4)
	v.SetDefault("region.city", "Iguatu")
	v.SetDefault("region.state", "CE")
	v.SetDefault("region.ibge_code", "2305506")
	v.SetDefault("cnpja.base_url", "https://api.cnpja.com")
	v.SetDefault("cnpja.max_age_days", 15)
	v.SetDefault("cnpja.requests_per_min", 10)
	v.SetDefault("cnpja.search_limit", 20)
	v.SetDefault("brasilapi.base_url", "https://brasilapi.com.br/api")
	v.SetDefault("cache.ttl_hours", 24*7)
	v.SetDefault("mock.count", 50)
	v.SetDefault("mock.seed", 42)
	v.SetDefault("monitoring.failure_rate_threshold", 0.2)
	v.SetDefault("monitoring.error_rate_threshold", 0.1)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.check_interval_secs", 300)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "scan",
// "cnpja", "serve", "import", "ledger".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Batch.Workers < 1 || c.Batch.Workers > 64 {
		problems = append(problems, "batch.workers must be between 1 and 64")
	}
	if r := c.Monitoring.FailureRateThreshold; r < 0 || r > 1 {
		problems = append(problems, "monitoring.failure_rate_threshold must be between 0 and 1")
	}
	if r := c.Monitoring.ErrorRateThreshold; r < 0 || r > 1 {
		problems = append(problems, "monitoring.error_rate_threshold must be between 0 and 1")
	}
	if u := c.Monitoring.WebhookURL; u != "" && !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
		problems = append(problems, "monitoring.webhook_url must be an http(s) URL")
	}

	switch mode {
	case "scan", "ledger":
	case "cnpja":
		if c.CNPJa.Key == "" {
			problems = append(problems, "cnpja.key is required")
		}
		if c.Region.IBGECode == "" {
			problems = append(problems, "region.ibge_code is required")
		}
	case "import":
		if c.Region.ReceitaCode == "" {
			problems = append(problems, "region.receita_code is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.RateLimitPerMin < 0 {
			problems = append(problems, "server.rate_limit_per_min must be >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
