package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "radar.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 120, cfg.Server.RateLimitPerMin)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, "Iguatu", cfg.Region.City)
	assert.Equal(t, "CE", cfg.Region.State)
	assert.Equal(t, "2305506", cfg.Region.IBGECode)
	assert.Empty(t, cfg.Region.ReceitaCode)
	assert.Equal(t, "https://api.cnpja.com", cfg.CNPJa.BaseURL)
	assert.Equal(t, 15, cfg.CNPJa.MaxAgeDays)
	assert.Equal(t, 10, cfg.CNPJa.RequestsPerMin)
	assert.Equal(t, 20, cfg.CNPJa.SearchLimit)
	assert.Equal(t, "https://brasilapi.com.br/api", cfg.BrasilAPI.BaseURL)
	assert.Equal(t, 168, cfg.Cache.TTLHours)
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.Equal(t, 50, cfg.Mock.Count)
	assert.Equal(t, uint64(42), cfg.Mock.Seed)
	assert.Empty(t, cfg.Taxonomy.Path)
	assert.Empty(t, cfg.Monitoring.WebhookURL)
	assert.InDelta(t, 0.2, cfg.Monitoring.FailureRateThreshold, 1e-9)
	assert.InDelta(t, 0.1, cfg.Monitoring.ErrorRateThreshold, 1e-9)
	assert.Equal(t, 24, cfg.Monitoring.LookbackWindowHours)
	assert.Equal(t, 300, cfg.Monitoring.CheckIntervalSecs)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/radar
log:
  level: debug
  format: console
region:
  city: Crato
  receita_code: "1391"
taxonomy:
  path: groups.yaml
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/radar", cfg.Store.DatabaseURL)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "Crato", cfg.Region.City)
	assert.Equal(t, "1391", cfg.Region.ReceitaCode)
	assert.Equal(t, "groups.yaml", cfg.Taxonomy.Path)
	// Defaults still apply for unset values
	assert.Equal(t, "CE", cfg.Region.State)
	assert.Equal(t, 4, cfg.Batch.Workers)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("RADAR_STORE_DRIVER", "postgres")
	t.Setenv("RADAR_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RADAR_CNPJA_KEY=from-dotenv\nRADAR_SERVER_PORT=3000\n"), 0o644))
	t.Setenv("RADAR_SERVER_PORT", "4000")
	t.Cleanup(func() { _ = os.Unsetenv("RADAR_CNPJA_KEY") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.CNPJa.Key)
	assert.Equal(t, 4000, cfg.Server.Port, "real environment wins over .env")
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "invalid", Format: "json"}))
}

func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "radar.db"
	cfg.Batch.Workers = 4
	cfg.Server.Port = 8080
	cfg.Region.IBGECode = "2305506"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "scan ok", mode: "scan"},
		{name: "ledger ok", mode: "ledger"},
		{name: "bad driver", mode: "scan", mutate: func(c *Config) { c.Store.Driver = "mysql" }, wantErr: "store.driver"},
		{name: "no database", mode: "scan", mutate: func(c *Config) { c.Store.DatabaseURL = "" }, wantErr: "store.database_url is required"},
		{name: "workers bounds", mode: "scan", mutate: func(c *Config) { c.Batch.Workers = 0 }, wantErr: "batch.workers must be between 1 and 64"},
		{name: "cnpja needs key", mode: "cnpja", wantErr: "cnpja.key is required"},
		{name: "cnpja ok", mode: "cnpja", mutate: func(c *Config) { c.CNPJa.Key = "k" }},
		{name: "import needs code", mode: "import", wantErr: "region.receita_code is required"},
		{name: "import ok", mode: "import", mutate: func(c *Config) { c.Region.ReceitaCode = "1403" }},
		{name: "serve port", mode: "serve", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port must be > 0"},
		{name: "serve ok", mode: "serve"},
		{name: "failure threshold bounds", mode: "ledger", mutate: func(c *Config) { c.Monitoring.FailureRateThreshold = 1.5 }, wantErr: "monitoring.failure_rate_threshold"},
		{name: "error threshold bounds", mode: "ledger", mutate: func(c *Config) { c.Monitoring.ErrorRateThreshold = -0.1 }, wantErr: "monitoring.error_rate_threshold"},
		{name: "webhook scheme", mode: "serve", mutate: func(c *Config) { c.Monitoring.WebhookURL = "hooks.example.com/x" }, wantErr: "monitoring.webhook_url"},
		{name: "webhook ok", mode: "serve", mutate: func(c *Config) { c.Monitoring.WebhookURL = "https://hooks.example.com/x" }},
		{name: "unknown mode", mode: "nope", wantErr: "unknown mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate(tt.mode)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""
	cfg.Server.Port = -1

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), "server.port must be > 0")
}
