package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables overriding the file values, typically supplied via a
// local .env file.
const (
	EnvDSN     = "OPENBOOKS_STORE_DSN"
	EnvBrokers = "OPENBOOKS_KAFKA_BROKERS" // comma-separated
)

// Driver names for the store configuration.
const (
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// Config represents the top-level openbooks.yaml configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Audit   AuditConfig   `yaml:"audit"`
	Kafka   KafkaConfig   `yaml:"kafka,omitempty"`
	Company CompanyConfig `yaml:"company"`
}

// StoreConfig selects and configures the durable store.
type StoreConfig struct {
	Driver string `yaml:"driver"`         // "bolt" or "postgres"
	Path   string `yaml:"path,omitempty"` // bolt database file
	DSN    string `yaml:"dsn,omitempty"`  // postgres connection string
}

// AuditConfig controls the mutation audit trail.
type AuditConfig struct {
	Path string `yaml:"path"` // empty disables the audit log
}

// KafkaConfig controls event publishing. No brokers means events are
// disabled.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers,omitempty"`
	Topic   string   `yaml:"topic,omitempty"`
}

// CompanyConfig holds defaults for the company created at init.
type CompanyConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

// Load reads an openbooks.yaml file from disk. Environment overrides are
// applied before validation, so an env-supplied DSN can satisfy the postgres
// driver's requirements on its own.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(companyName string) *Config {
	return &Config{
		Store: StoreConfig{
			Driver: DriverBolt,
			Path:   "openbooks.db",
		},
		Audit: AuditConfig{
			Path: "audit-log.csv",
		},
		Kafka: KafkaConfig{
			Topic: "openbooks.transactions",
		},
		Company: CompanyConfig{
			Name:     companyName,
			Currency: "USD",
		},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDSN); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv(EnvBrokers); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverBolt:
		if c.Store.Path == "" {
			return fmt.Errorf("store driver %q requires a path", c.Store.Driver)
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store driver %q requires a dsn", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}
