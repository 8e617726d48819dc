// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Storage       StorageConfig           `mapstructure:"storage"`
	Catalog       CatalogConfig           `mapstructure:"catalog"`
	Search        SearchConfig            `mapstructure:"search"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Contact       ContactConfig           `mapstructure:"contact"`
	Assistant     AssistantConfig         `mapstructure:"assistant"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port            int `mapstructure:"port"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

// CamundaConfig is only required when Enabled; the HTTP API runs without a broker.
type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
	SQLite        SQLiteConfig        `mapstructure:"sqlite"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// WorkerConfig holds the core settings applicable to every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// --- Storefront Sections ---

// StorageConfig selects the key-value backend used for notifications and search history.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"` // memory | redis | sqlite
	KeyPrefix string `mapstructure:"key_prefix"`
}

// CatalogConfig selects where products come from.
type CatalogConfig struct {
	Source          string `mapstructure:"source"` // static | postgres | sqlite | elasticsearch | http
	URL             string `mapstructure:"url"`
	RefreshInterval int    `mapstructure:"refresh_interval"` // milliseconds, 0 disables
	MaxProducts     int    `mapstructure:"max_products"`
	Timeout         int    `mapstructure:"timeout"` // milliseconds
}

type SearchConfig struct {
	MaxSuggestions int `mapstructure:"max_suggestions"`
	DebounceMs     int `mapstructure:"debounce_ms"`
	HistoryLimit   int `mapstructure:"history_limit"`
	PopularCount   int `mapstructure:"popular_count"`
}

type NotificationConfig struct {
	SimulationEnabled    bool    `mapstructure:"simulation_enabled"`
	SimulationIntervalMs int     `mapstructure:"simulation_interval_ms"`
	Probability          float64 `mapstructure:"probability"`
	HighlightMs          int     `mapstructure:"highlight_ms"`
}

type ContactConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
	AWS      struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
			ToEmail   string `mapstructure:"to_email"`
		} `mapstructure:"ses"`
	} `mapstructure:"aws"`
}

type AssistantConfig struct {
	ReplyDelayMs   int `mapstructure:"reply_delay_ms"`
	MaxSuggestions int `mapstructure:"max_suggestions"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
