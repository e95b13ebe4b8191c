package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Boundary   BoundaryConfig   `yaml:"boundary" mapstructure:"boundary"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Territory  TerritoryConfig  `yaml:"territory" mapstructure:"territory"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the case record file. Path may be a local CSV/XLSX
// file or an ftp:// or http(s):// URL. When empty, records are read from the store.
type DataConfig struct {
	Path             string `yaml:"path" mapstructure:"path"`
	Sheet            string `yaml:"sheet" mapstructure:"sheet"`
	FetchTimeoutSecs int    `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
}

// BoundaryConfig locates the region boundary collection (shapefile or GeoJSON).
type BoundaryConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	NameField string `yaml:"name_field" mapstructure:"name_field"`
}

// StoreConfig configures the record database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ClassifierConfig selects and tunes the region tiering strategy.
type ClassifierConfig struct {
	Strategy      string  `yaml:"strategy" mapstructure:"strategy"`
	Seed          int64   `yaml:"seed" mapstructure:"seed"`
	Restarts      int     `yaml:"restarts" mapstructure:"restarts"`
	MaxIterations int     `yaml:"max_iterations" mapstructure:"max_iterations"`
	LowQuantile   float64 `yaml:"low_quantile" mapstructure:"low_quantile"`
	HighQuantile  float64 `yaml:"high_quantile" mapstructure:"high_quantile"`
}

// TerritoryConfig configures the whole-territory status.
type TerritoryConfig struct {
	Name   string `yaml:"name" mapstructure:"name"`
	Policy string `yaml:"policy" mapstructure:"policy"`

	// Average policy: mean cases per region.
	AverageHigh   float64 `yaml:"average_high" mapstructure:"average_high"`
	AverageMedium float64 `yaml:"average_medium" mapstructure:"average_medium"`

	// Weighted policy: case-weighted mean severity.
	WeightedHigh   float64 `yaml:"weighted_high" mapstructure:"weighted_high"`
	WeightedMedium float64 `yaml:"weighted_medium" mapstructure:"weighted_medium"`
}

// ReportConfig configures report assembly.
type ReportConfig struct {
	TopN int `yaml:"top_n" mapstructure:"top_n"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RISKMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.path", "")
	v.SetDefault("data.sheet", "")
	v.SetDefault("data.fetch_timeout_secs", 30)
	v.SetDefault("boundary.path", "")
	v.SetDefault("boundary.name_field", "name")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "riskmap.db")
	v.SetDefault("classifier.strategy", "kmeans")
	v.SetDefault("classifier.seed", 42)
	v.SetDefault("classifier.restarts", 10)
	v.SetDefault("classifier.max_iterations", 300)
	v.SetDefault("classifier.low_quantile", 0.33)
	v.SetDefault("classifier.high_quantile", 0.66)
	v.SetDefault("territory.name", "Jawa Barat (Provinsi)")
	v.SetDefault("territory.policy", "weighted")
	v.SetDefault("territory.average_high", 500)
	v.SetDefault("territory.average_medium", 200)
	v.SetDefault("territory.weighted_high", 2.2)
	v.SetDefault("territory.weighted_medium", 1.6)
	v.SetDefault("report.top_n", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks that the configuration is usable for the given command
// mode ("report", "serve" or "import").
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "report":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
			errs = append(errs, "server.rate_limit and rate_burst must be >= 0")
		}
	case "import":
		if c.Data.Path == "" {
			errs = append(errs, "data.path is required")
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch strings.ToLower(c.Classifier.Strategy) {
	case "kmeans", "quantile":
	default:
		errs = append(errs, "classifier.strategy must be kmeans or quantile")
	}
	if c.Classifier.LowQuantile <= 0 || c.Classifier.HighQuantile >= 1 ||
		c.Classifier.LowQuantile >= c.Classifier.HighQuantile {
		errs = append(errs, "classifier quantiles must satisfy 0 < low < high < 1")
	}

	switch strings.ToLower(c.Territory.Policy) {
	case "weighted", "average":
	default:
		errs = append(errs, "territory.policy must be weighted or average")
	}
	if c.Territory.AverageMedium > c.Territory.AverageHigh {
		errs = append(errs, "territory.average_medium must be <= average_high")
	}
	if c.Territory.WeightedMedium > c.Territory.WeightedHigh {
		errs = append(errs, "territory.weighted_medium must be <= weighted_high")
	}

	switch strings.ToLower(c.Store.Driver) {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}

	if c.Report.TopN < 0 {
		errs = append(errs, "report.top_n must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
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
