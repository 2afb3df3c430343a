package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the quizdex ingestion core configuration.
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Fingerprint FingerprintConfig `yaml:"fingerprint"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// DatabaseConfig holds storage backend settings.
type DatabaseConfig struct {
	Driver    string   `yaml:"driver"` // sqlite, redis, memory (default: sqlite)
	Path      string   `yaml:"path"`   // sqlite database file
	Addrs     []string `yaml:"addrs"`  // redis addresses
	Password  string   `yaml:"password"`
	KeyPrefix string   `yaml:"key_prefix"`
}

// FingerprintConfig holds similarity fingerprint tuning.
type FingerprintConfig struct {
	ShingleSize int `yaml:"shingle_size"` // word n-gram length, 1-4
	BucketBits  int `yaml:"bucket_bits"`  // low-order bits forming the bucket, 1-16
}

// IngestConfig holds batch limits by caller privilege tier.
type IngestConfig struct {
	MaxBatchSize           int `yaml:"max_batch_size"`
	MaxBatchSizePrivileged int `yaml:"max_batch_size_privileged"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "quizdex.db"
	}
	if c.Fingerprint.ShingleSize <= 0 {
		c.Fingerprint.ShingleSize = 2
	}
	if c.Fingerprint.BucketBits <= 0 {
		c.Fingerprint.BucketBits = 10
	}
	if c.Ingest.MaxBatchSize <= 0 {
		c.Ingest.MaxBatchSize = 50
	}
	if c.Ingest.MaxBatchSizePrivileged <= 0 {
		c.Ingest.MaxBatchSizePrivileged = 500
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "redis", "memory":
		// ok
	default:
		return fmt.Errorf("database.driver must be sqlite, redis, or memory, got %q", c.Database.Driver)
	}
	if c.Database.Driver == "redis" && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required for the redis driver")
	}
	if c.Fingerprint.ShingleSize < 1 || c.Fingerprint.ShingleSize > 4 {
		return fmt.Errorf("fingerprint.shingle_size must be between 1 and 4, got %d", c.Fingerprint.ShingleSize)
	}
	if c.Fingerprint.BucketBits < 1 || c.Fingerprint.BucketBits > 16 {
		return fmt.Errorf("fingerprint.bucket_bits must be between 1 and 16, got %d", c.Fingerprint.BucketBits)
	}
	if c.Ingest.MaxBatchSizePrivileged < c.Ingest.MaxBatchSize {
		return fmt.Errorf(
			"ingest.max_batch_size_privileged (%d) must be at least ingest.max_batch_size (%d)",
			c.Ingest.MaxBatchSizePrivileged, c.Ingest.MaxBatchSize,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
