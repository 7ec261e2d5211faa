package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// prefix shared by every environment override, e.g. REPLICATOR_SOURCE_DSN
const EnvPrefix = "REPLICATOR_"

const (
	DefaultPageSize       = 1000
	DefaultReferenceTable = "books"
	DefaultDetailTable    = "words"
)

const (
	ConflictSkip   = "skip"
	ConflictUpdate = "update"
)

// drivers accepted on either side of a run
var SupportedDrivers = []string{"sqlite", "mysql", "postgres", "pgx", "mongodb"}

// drivers that can only be written to
var destinationOnlyDrivers = []string{"mongodb"}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// DatabaseConfig describes one end of the replication. DSN wins over the
// discrete host/port/user fields when both are set; for sqlite it is the file path.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"DRIVER"`
	DSN      string `yaml:"dsn" env:"DSN"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"DBNAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`
}

type ReplicationConfig struct {
	ReferenceTable    string `yaml:"reference_table" env:"REFERENCE_TABLE"`
	DetailTable       string `yaml:"detail_table" env:"DETAIL_TABLE"`
	PageSize          int    `yaml:"page_size" env:"PAGE_SIZE"`
	ConflictPolicy    string `yaml:"conflict_policy" env:"CONFLICT_POLICY"`
	SkipMissingTables bool   `yaml:"skip_missing_tables" env:"SKIP_MISSING_TABLES"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// config struct to map config.yaml
type Config struct {
	Source      DatabaseConfig    `yaml:"source" envPrefix:"SOURCE_"`
	Destination DatabaseConfig    `yaml:"destination" envPrefix:"DESTINATION_"`
	Replication ReplicationConfig `yaml:"replication"`
	Logging     LoggingConfig     `yaml:"logging"`
	MetricsFile string            `yaml:"metrics_file" env:"METRICS_FILE"`
	ReportDir   string            `yaml:"report_dir" env:"REPORT_DIR"`
}

// LoadConfig reads the yaml file at filepath (skipped when empty), applies
// REPLICATOR_* environment overrides, fills defaults and validates the result.
func LoadConfig(filepath string) (*Config, error) {
	var config Config

	if filepath != "" {
		content, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(content, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(&config, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Replication.ReferenceTable == "" {
		c.Replication.ReferenceTable = DefaultReferenceTable
	}
	if c.Replication.DetailTable == "" {
		c.Replication.DetailTable = DefaultDetailTable
	}
	if c.Replication.PageSize == 0 {
		c.Replication.PageSize = DefaultPageSize
	}
	if c.Replication.ConflictPolicy == "" {
		c.Replication.ConflictPolicy = ConflictSkip
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	c.Source.Driver = strings.ToLower(strings.TrimSpace(c.Source.Driver))
	c.Destination.Driver = strings.ToLower(strings.TrimSpace(c.Destination.Driver))
}

// Validate checks drivers, table identifiers, page size and conflict policy.
func (c *Config) Validate() error {
	if c.Source.Driver == "" || c.Destination.Driver == "" {
		return fmt.Errorf("both source and destination drivers must be specified")
	}
	if !IsSupportedDriver(c.Source.Driver) {
		return fmt.Errorf("invalid source driver %q", c.Source.Driver)
	}
	if contains(destinationOnlyDrivers, c.Source.Driver) {
		return fmt.Errorf("driver %q cannot be used as a source", c.Source.Driver)
	}
	if !IsSupportedDriver(c.Destination.Driver) {
		return fmt.Errorf("invalid destination driver %q", c.Destination.Driver)
	}
	if c.Source.DSN == "" && c.Source.Host == "" {
		return fmt.Errorf("source location is not configured (set source.dsn or %sSOURCE_DSN)", EnvPrefix)
	}
	if c.Destination.DSN == "" && c.Destination.Host == "" {
		return fmt.Errorf("destination location is not configured (set destination.dsn or %sDESTINATION_DSN)", EnvPrefix)
	}

	for _, table := range []string{c.Replication.ReferenceTable, c.Replication.DetailTable} {
		if !identifierPattern.MatchString(table) {
			return fmt.Errorf("invalid table name %q", table)
		}
	}
	if c.Replication.ReferenceTable == c.Replication.DetailTable {
		return fmt.Errorf("reference and detail table are the same: %s", c.Replication.ReferenceTable)
	}
	if c.Replication.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.Replication.PageSize)
	}

	switch strings.ToLower(c.Replication.ConflictPolicy) {
	case ConflictSkip, ConflictUpdate:
	default:
		return fmt.Errorf("invalid conflict policy: %s", c.Replication.ConflictPolicy)
	}
	return nil
}

// IsValidIdentifier reports whether name is a plain or schema-qualified SQL identifier.
func IsValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// IsSupportedDriver reports whether driver is one of SupportedDrivers, ignoring case.
func IsSupportedDriver(driver string) bool {
	return contains(SupportedDrivers, driver)
}

func contains(slice []string, v string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
