package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
source:
  driver: sqlite
  dsn: ./bible.db
destination:
  driver: postgres
  host: localhost
  port: 5432
  user: postgres
  password: secret
  dbname: bible
replication:
  page_size: 500
  conflict_policy: update
logging:
  level: debug
metrics_file: ./replicator.prom
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Source.Driver)
	assert.Equal(t, "./bible.db", cfg.Source.DSN)
	assert.Equal(t, "postgres", cfg.Destination.Driver)
	assert.Equal(t, 5432, cfg.Destination.Port)
	assert.Equal(t, 500, cfg.Replication.PageSize)
	assert.Equal(t, ConflictUpdate, cfg.Replication.ConflictPolicy)
	assert.Equal(t, "books", cfg.Replication.ReferenceTable)
	assert.Equal(t, "words", cfg.Replication.DetailTable)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "./replicator.prom", cfg.MetricsFile)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", `
source:
  driver: sqlite
  dsn: ./old.db
destination:
  driver: mysql
  dsn: user:pass@tcp(localhost:3306)/bible
`)
	t.Setenv("REPLICATOR_SOURCE_DSN", "/data/lbla.db")
	t.Setenv("REPLICATOR_PAGE_SIZE", "250")
	t.Setenv("REPLICATOR_DETAIL_TABLE", "verses")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/lbla.db", cfg.Source.DSN)
	assert.Equal(t, "mysql", cfg.Destination.Driver)
	assert.Equal(t, 250, cfg.Replication.PageSize)
	assert.Equal(t, "verses", cfg.Replication.DetailTable)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	t.Setenv("REPLICATOR_SOURCE_DRIVER", "SQLite")
	t.Setenv("REPLICATOR_SOURCE_DSN", "bible.db")
	t.Setenv("REPLICATOR_DESTINATION_DRIVER", "pgx")
	t.Setenv("REPLICATOR_DESTINATION_DSN", "postgres://localhost/bible")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Source.Driver)
	assert.Equal(t, DefaultPageSize, cfg.Replication.PageSize)
	assert.Equal(t, ConflictSkip, cfg.Replication.ConflictPolicy)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Source:      DatabaseConfig{Driver: "sqlite", DSN: "bible.db"},
			Destination: DatabaseConfig{Driver: "postgres", DSN: "postgres://localhost/bible"},
			Replication: ReplicationConfig{
				ReferenceTable: "books",
				DetailTable:    "words",
				PageSize:       1000,
				ConflictPolicy: ConflictSkip,
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		expect bool
	}{
		{"valid", func(c *Config) {}, true},
		{"missing source driver", func(c *Config) { c.Source.Driver = "" }, false},
		{"unknown destination driver", func(c *Config) { c.Destination.Driver = "oracle" }, false},
		{"mongodb source", func(c *Config) { c.Source.Driver = "mongodb" }, false},
		{"mongodb destination", func(c *Config) { c.Destination.Driver = "mongodb" }, true},
		{"missing source location", func(c *Config) { c.Source.DSN = "" }, false},
		{"host instead of dsn", func(c *Config) { c.Destination.DSN = ""; c.Destination.Host = "db" }, true},
		{"zero page size", func(c *Config) { c.Replication.PageSize = 0 }, false},
		{"negative page size", func(c *Config) { c.Replication.PageSize = -5 }, false},
		{"bad table name", func(c *Config) { c.Replication.DetailTable = "words; DROP TABLE books" }, false},
		{"schema qualified table", func(c *Config) { c.Replication.DetailTable = "public.words" }, true},
		{"same tables", func(c *Config) { c.Replication.DetailTable = "books" }, false},
		{"update policy", func(c *Config) { c.Replication.ConflictPolicy = ConflictUpdate }, true},
		{"bad policy", func(c *Config) { c.Replication.ConflictPolicy = "replace" }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err == nil) != tc.expect {
				t.Errorf("Validate() expected success: %v, got error: %v", tc.expect, err)
			}
		})
	}
}

func TestIsSupportedDriver(t *testing.T) {
	tests := []struct {
		driver string
		expect bool
	}{
		{"sqlite", true},
		{"MYSQL", true},
		{"Postgres", true},
		{"pgx", true},
		{"mongodb", true},
		{"postgresql", false},
		{"", false},
	}

	for i, tc := range tests {
		if got := IsSupportedDriver(tc.driver); got != tc.expect {
			t.Errorf("Test case: %d, IsSupportedDriver(%s) = %v, expected %v", i+1, tc.driver, got, tc.expect)
		}
	}
}

func TestLoadEnvFiles(t *testing.T) {
	path := writeFile(t, ".env", "REPLICATOR_TEST_ONLY_VALUE=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("REPLICATOR_TEST_ONLY_VALUE") })

	n, err := LoadEnvFiles(path, filepath.Join(t.TempDir(), ".env.local"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "from-dotenv", os.Getenv("REPLICATOR_TEST_ONLY_VALUE"))

	n, err = LoadEnvFiles(filepath.Join(t.TempDir(), "nope.env"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
