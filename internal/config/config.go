package config

import (
	"fmt"
	"time"

	"github.com/jonesrussell/spotgrid/internal/classifier"
)

// Default configuration values.
const (
	defaultServiceName     = "spotgrid"
	defaultServiceVersion  = "1.0.0"
	defaultServicePort     = 8074
	defaultBatchSize       = 250
	defaultCommitRate      = 200
	defaultDBHost          = "localhost"
	defaultDBPort          = 5432
	defaultDBUser          = "postgres"
	defaultDBName          = "spotgrid"
	defaultDBSSLMode       = "disable"
	defaultDBMaxConns      = 25
	defaultDBMaxIdleConns  = 5
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultFlaggedSampleSz = 10
)

// Config holds all configuration for the spotgrid service.
type Config struct {
	Service        ServiceConfig       `yaml:"service"`
	Database       DatabaseConfig      `yaml:"database"`
	Logging        LoggingConfig       `yaml:"logging"`
	Classification classifier.Settings `yaml:"classification"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"SPOTGRID_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"     yaml:"debug"`

	// BatchSize is the number of spots fetched per batch in year runs.
	BatchSize int `yaml:"batch_size"`

	// CommitRatePerSecond paces per-spot commits so reporting readers
	// are never starved by a long batch run. Zero disables pacing.
	CommitRatePerSecond int `env:"SPOTGRID_COMMIT_RATE" yaml:"commit_rate_per_second"`
	CommitBurst         int `yaml:"commit_burst"`

	// FlaggedSampleSize caps the flagged spot ids reported per run.
	FlaggedSampleSize int `yaml:"flagged_sample_size"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `env:"POSTGRES_HOST"     yaml:"host"`
	Port            int           `env:"POSTGRES_PORT"     yaml:"port"`
	User            string        `env:"POSTGRES_USER"     yaml:"user"`
	Password        string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database        string        `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode         string        `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from the specified path, applies defaults,
// and refuses inconsistent classification settings at startup.
func Load(path string) (*Config, error) {
	cfg, err := load(path, setDefaults)
	if err != nil {
		return nil, err
	}
	if err := cfg.Classification.Validate(); err != nil {
		return nil, fmt.Errorf("invalid classification settings: %w", err)
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setLoggingDefaults(&cfg.Logging)
	setClassificationDefaults(&cfg.Classification)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.BatchSize == 0 {
		s.BatchSize = defaultBatchSize
	}
	if s.CommitRatePerSecond == 0 {
		s.CommitRatePerSecond = defaultCommitRate
	}
	if s.CommitBurst == 0 {
		s.CommitBurst = s.CommitRatePerSecond
	}
	if s.FlaggedSampleSize == 0 {
		s.FlaggedSampleSize = defaultFlaggedSampleSz
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = time.Hour
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}

func setClassificationDefaults(c *classifier.Settings) {
	defaults := classifier.Defaults()
	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Profile == "" {
		c.Profile = defaults.Profile
	}
	if len(c.ROSDurationMinutes) == 0 {
		c.ROSDurationMinutes = defaults.ROSDurationMinutes
	}
	if c.LateStartHour == 0 {
		c.LateStartHour = defaults.LateStartHour
	}
	if c.EarlyEndHour == 0 {
		c.EarlyEndHour = defaults.EarlyEndHour
	}
	if c.PaidProgrammingTag == "" {
		c.PaidProgrammingTag = defaults.PaidProgrammingTag
	}
	if c.PackageSpotType == "" {
		c.PackageSpotType = defaults.PackageSpotType
	}
	if c.LongDurationMinutes == 0 {
		c.LongDurationMinutes = defaults.LongDurationMinutes
	}
	if c.HighBlockCount == 0 {
		c.HighBlockCount = defaults.HighBlockCount
	}
	if c.Confidence == (classifier.ConfidenceWeights{}) {
		c.Confidence = defaults.Confidence
	}
}
