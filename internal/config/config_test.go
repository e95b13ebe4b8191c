package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "riskmap.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 20, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 40, cfg.Server.RateBurst)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "kmeans", cfg.Classifier.Strategy)
	assert.Equal(t, int64(42), cfg.Classifier.Seed)
	assert.Equal(t, 10, cfg.Classifier.Restarts)
	assert.Equal(t, 300, cfg.Classifier.MaxIterations)
	assert.InDelta(t, 0.33, cfg.Classifier.LowQuantile, 0.001)
	assert.InDelta(t, 0.66, cfg.Classifier.HighQuantile, 0.001)
	assert.Equal(t, "weighted", cfg.Territory.Policy)
	assert.Equal(t, "Jawa Barat (Provinsi)", cfg.Territory.Name)
	assert.InDelta(t, 500, cfg.Territory.AverageHigh, 0.001)
	assert.InDelta(t, 200, cfg.Territory.AverageMedium, 0.001)
	assert.InDelta(t, 2.2, cfg.Territory.WeightedHigh, 0.001)
	assert.InDelta(t, 1.6, cfg.Territory.WeightedMedium, 0.001)
	assert.Equal(t, 5, cfg.Report.TopN)
	assert.Equal(t, "name", cfg.Boundary.NameField)
	assert.Equal(t, 30, cfg.Data.FetchTimeoutSecs)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
data:
  path: cases.csv
classifier:
  strategy: quantile
log:
  level: debug
  format: console
server:
  port: 9090
report:
  top_n: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cases.csv", cfg.Data.Path)
	assert.Equal(t, "quantile", cfg.Classifier.Strategy)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Report.TopN)
	// Defaults still apply for unset values
	assert.Equal(t, "weighted", cfg.Territory.Policy)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("RISKMAP_STORE_DRIVER", "postgres")
	t.Setenv("RISKMAP_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("RISKMAP_SERVER_PORT", "3000")
	t.Setenv("RISKMAP_CLASSIFIER_SEED", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, int64(7), cfg.Classifier.Seed)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "riskmap.db"
	cfg.Classifier.Strategy = "kmeans"
	cfg.Classifier.LowQuantile = 0.33
	cfg.Classifier.HighQuantile = 0.66
	cfg.Territory.Policy = "weighted"
	cfg.Territory.AverageHigh = 500
	cfg.Territory.AverageMedium = 200
	cfg.Territory.WeightedHigh = 2.2
	cfg.Territory.WeightedMedium = 1.6
	cfg.Report.TopN = 5
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateReport_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("report"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateImport_RequiresDataPath(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("import")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "data.path is required")

	cfg.Data.Path = "cases.xlsx"
	assert.NoError(t, cfg.Validate("import"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateStrategyAndPolicy(t *testing.T) {
	cfg := validDefaults()
	cfg.Classifier.Strategy = "dbscan"
	cfg.Territory.Policy = "median"

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classifier.strategy")
	assert.Contains(t, err.Error(), "territory.policy")
}

func TestValidateThresholdOrdering(t *testing.T) {
	cfg := validDefaults()
	cfg.Classifier.LowQuantile = 0.7
	cfg.Territory.WeightedMedium = 2.5

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantiles")
	assert.Contains(t, err.Error(), "weighted_medium")
}

func TestValidateStoreDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
}
