// Package config loads and saves the carbonledger configuration file.
//
// The global file lives at $CARBONLEDGER_HOME/config.yaml (default
// ~/.carbonledger/config.yaml). A project-local .carbonledger/config.yaml,
// when present, is shallow-merged over it, and CARBONLEDGER_* environment
// variables override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rshade/carbonledger/internal/backup"
	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/events"
	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/secrets"
	"github.com/rshade/carbonledger/internal/store"
)

// Output and logging values.
const (
	outputTypeFile   = "file"
	outputTypeStderr = "stderr"

	defaultPrecision     = 2
	maxPrecision         = 6
	defaultLogMaxSizeMB  = 10
	defaultLogMaxBackups = 3
)

// Config is the full configuration file.
type Config struct {
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Store     store.Config    `yaml:"store"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Events    events.Config   `yaml:"events"`
	Backup    backup.Config   `yaml:"backup"`

	configPath string
}

// OutputConfig controls rendering defaults.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Precision     int    `yaml:"precision"`
	// Unit is the carbon mass display unit: g, kg, t or lb.
	Unit string `yaml:"unit"`
}

// LoggingConfig controls the zerolog logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// BenchmarkConfig sets the default comparison region.
type BenchmarkConfig struct {
	Region string `yaml:"region"`
}

// DashboardConfig controls the dashboard view.
type DashboardConfig struct {
	MonthlyTargetKg float64 `yaml:"monthly_target_kg"`
	// Rewards enables the simulated eco-token balance.
	Rewards bool `yaml:"rewards"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile, when set, receives ledger metrics in the node_exporter
	// textfile format after every command.
	Textfile string `yaml:"textfile"`
}

// Default returns the built-in configuration, ignoring any file or
// environment.
func Default() *Config {
	dir, err := GetConfigDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), ".carbonledger")
	}

	return &Config{
		Output: OutputConfig{
			DefaultFormat: string(engine.OutputTable),
			Precision:     defaultPrecision,
			Unit:          greenops.MassKilograms,
		},
		Logging: LoggingConfig{
			Level:      zerolog.InfoLevel.String(),
			Format:     "console",
			File:       filepath.Join(dir, "logs", "carbonledger.log"),
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
		Store: store.Config{
			Driver: store.DriverJSON,
			Path:   filepath.Join(dir, "ledger.json"),
		},
		Benchmark: BenchmarkConfig{Region: greenops.RegionGlobal},
		Dashboard: DashboardConfig{MonthlyTargetKg: engine.DefaultMonthlyTargetKg},
		Backup: backup.Config{
			Driver: backup.DriverFile,
			Dir:    filepath.Join(dir, "backups"),
		},

		configPath: filepath.Join(dir, "config.yaml"),
	}
}

// New returns the default configuration overlaid with the global config
// file, if any, and the environment. A malformed file is ignored here; use
// Load to surface it.
func New() *Config {
	cfg := Default()
	_ = cfg.loadFile(cfg.configPath)
	cfg.applyEnvOverrides()
	return cfg
}

// Load reads path over the defaults and applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.configPath = path
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadForEdit reads path over the defaults without environment overrides,
// so that saving it back writes only what the file holds.
func LoadForEdit(path string) (*Config, error) {
	cfg := Default()
	cfg.configPath = path
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies CARBONLEDGER_* variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CARBONLEDGER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CARBONLEDGER_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("CARBONLEDGER_STORE_DRIVER"); v != "" {
		c.Store.Driver = store.Driver(v)
	}
	if v := os.Getenv("CARBONLEDGER_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("CARBONLEDGER_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("CARBONLEDGER_REGION"); v != "" {
		c.Benchmark.Region = v
	}
	if v := os.Getenv("CARBONLEDGER_OUTPUT_FORMAT"); v != "" {
		c.Output.DefaultFormat = v
	}
	if v := os.Getenv("CARBONLEDGER_AUDIT_LOG"); v != "" {
		c.Events.AuditLog = v
	}
	if v := os.Getenv("CARBONLEDGER_KAFKA_BROKERS"); v != "" {
		c.Events.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("CARBONLEDGER_BACKUP_DIR"); v != "" {
		c.Backup.Dir = v
	}
}

// ResolveSecrets fills credentials left out of the file from the OS
// keyring. Missing secrets are not an error; Validate reports what is
// still required.
func (c *Config) ResolveSecrets() {
	if c.Store.DSN == "" && c.Store.Driver == store.DriverPostgres {
		c.Store.DSN = secrets.Lookup(secrets.StoreDSN)
	}
	if c.Backup.Driver == backup.DriverS3 && c.Backup.S3.SecretAccessKey == "" {
		c.Backup.S3.SecretAccessKey = secrets.Lookup(secrets.S3SecretAccessKey)
	}
}

// splitList splits a comma separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ConfigPath returns the file this configuration is saved to.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// SetConfigPath changes the file Save writes to.
func (c *Config) SetConfigPath(path string) {
	c.configPath = path
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("config path is not set")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error

	if _, err := engine.ParseOutputFormat(c.Output.DefaultFormat); err != nil {
		errs = append(errs, fmt.Errorf("output.default_format: %w", err))
	}
	if c.Output.Precision < 0 || c.Output.Precision > maxPrecision {
		errs = append(errs, fmt.Errorf("output.precision must be between 0 and %d, got %d",
			maxPrecision, c.Output.Precision))
	}
	if !greenops.IsRecognizedUnit(c.Output.Unit) {
		errs = append(errs, fmt.Errorf("output.unit: unrecognized unit %q", c.Output.Unit))
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if f := c.Logging.Format; f != "json" && f != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", f))
	}
	driver, err := store.ParseDriver(string(c.Store.Driver))
	if err != nil {
		errs = append(errs, fmt.Errorf("store.driver: %w", err))
	}
	if driver == store.DriverPostgres && c.Store.DSN == "" {
		errs = append(errs, errors.New("store.dsn is required for the postgres driver (set it or store it with 'config set-secret store-dsn')"))
	}
	switch c.Backup.Driver {
	case backup.DriverFile, "":
	case backup.DriverS3:
		if c.Backup.S3.Bucket == "" {
			errs = append(errs, errors.New("backup.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("backup.driver: %w: %q", backup.ErrUnknownDriver, c.Backup.Driver))
	}
	if c.Dashboard.MonthlyTargetKg <= 0 {
		errs = append(errs, fmt.Errorf("dashboard.monthly_target_kg must be positive, got %v",
			c.Dashboard.MonthlyTargetKg))
	}

	return errors.Join(errs...)
}

// Get returns the value at a dotted key such as "output.precision".
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "output.default_format":
		return c.Output.DefaultFormat, nil
	case "output.precision":
		return strconv.Itoa(c.Output.Precision), nil
	case "output.unit":
		return c.Output.Unit, nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "logging.file":
		return c.Logging.File, nil
	case "logging.max_size_mb":
		return strconv.Itoa(c.Logging.MaxSizeMB), nil
	case "logging.max_backups":
		return strconv.Itoa(c.Logging.MaxBackups), nil
	case "store.driver":
		return string(c.Store.Driver), nil
	case "store.path":
		return c.Store.Path, nil
	case "store.dsn":
		return c.Store.DSN, nil
	case "benchmark.region":
		return c.Benchmark.Region, nil
	case "dashboard.monthly_target_kg":
		return strconv.FormatFloat(c.Dashboard.MonthlyTargetKg, 'f', -1, 64), nil
	case "dashboard.rewards":
		return strconv.FormatBool(c.Dashboard.Rewards), nil
	case "metrics.textfile":
		return c.Metrics.Textfile, nil
	case "events.audit_log":
		return c.Events.AuditLog, nil
	case "events.kafka.brokers":
		return strings.Join(c.Events.Kafka.Brokers, ","), nil
	case "events.kafka.topic":
		return c.Events.Kafka.Topic, nil
	case "backup.driver":
		return string(c.Backup.Driver), nil
	case "backup.dir":
		return c.Backup.Dir, nil
	case "backup.s3.bucket":
		return c.Backup.S3.Bucket, nil
	case "backup.s3.prefix":
		return c.Backup.S3.Prefix, nil
	case "backup.s3.region":
		return c.Backup.S3.Region, nil
	case "backup.s3.endpoint":
		return c.Backup.S3.Endpoint, nil
	case "backup.s3.access_key_id":
		return c.Backup.S3.AccessKeyID, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Set assigns value to a dotted key. The result is not validated; call
// Validate before saving.
func (c *Config) Set(key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "output.default_format":
		c.Output.DefaultFormat = value
	case "output.precision":
		c.Output.Precision, err = strconv.Atoi(value)
	case "output.unit":
		c.Output.Unit = value
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	case "logging.file":
		c.Logging.File = value
	case "logging.max_size_mb":
		c.Logging.MaxSizeMB, err = strconv.Atoi(value)
	case "logging.max_backups":
		c.Logging.MaxBackups, err = strconv.Atoi(value)
	case "store.driver":
		c.Store.Driver = store.Driver(value)
	case "store.path":
		c.Store.Path = value
	case "store.dsn":
		c.Store.DSN = value
	case "benchmark.region":
		c.Benchmark.Region = value
	case "dashboard.monthly_target_kg":
		c.Dashboard.MonthlyTargetKg, err = strconv.ParseFloat(value, 64)
	case "dashboard.rewards":
		c.Dashboard.Rewards, err = strconv.ParseBool(value)
	case "metrics.textfile":
		c.Metrics.Textfile = value
	case "events.audit_log":
		c.Events.AuditLog = value
	case "events.kafka.brokers":
		c.Events.Kafka.Brokers = splitList(value)
	case "events.kafka.topic":
		c.Events.Kafka.Topic = value
	case "backup.driver":
		c.Backup.Driver = backup.Driver(strings.ToLower(value))
	case "backup.dir":
		c.Backup.Dir = value
	case "backup.s3.bucket":
		c.Backup.S3.Bucket = value
	case "backup.s3.prefix":
		c.Backup.S3.Prefix = value
	case "backup.s3.region":
		c.Backup.S3.Region = value
	case "backup.s3.endpoint":
		c.Backup.S3.Endpoint = value
	case "backup.s3.access_key_id":
		c.Backup.S3.AccessKeyID = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	return nil
}

// Keys returns every key accepted by Get and Set, in file order.
func Keys() []string {
	return []string{
		"output.default_format", "output.precision", "output.unit",
		"logging.level", "logging.format", "logging.file", "logging.max_size_mb", "logging.max_backups",
		"store.driver", "store.path", "store.dsn",
		"benchmark.region",
		"dashboard.monthly_target_kg", "dashboard.rewards",
		"metrics.textfile",
		"events.audit_log", "events.kafka.brokers", "events.kafka.topic",
		"backup.driver", "backup.dir", "backup.s3.bucket", "backup.s3.prefix",
		"backup.s3.region", "backup.s3.endpoint", "backup.s3.access_key_id",
	}
}
