// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml over it and lets
// environment variables (STORAGE_BACKEND, CATALOG_SOURCE, ...) override both.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName("config." + env)
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	// Zero is a valid probability, so its default cannot come from applyDefaults.
	v.SetDefault("notifications.probability", 0.2)
	return v
}

// bindEnvKeys makes AutomaticEnv see keys that are absent from every config file.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"http.port",
		"camunda.enabled", "camunda.broker_address",
		"database.postgres.host", "database.postgres.user", "database.postgres.password", "database.postgres.database",
		"database.redis.address", "database.redis.password",
		"database.sqlite.path",
		"database.elasticsearch.index",
		"storage.backend", "storage.key_prefix",
		"catalog.source", "catalog.url",
		"notifications.simulation_enabled", "notifications.simulation_interval_ms", "notifications.probability",
		"contact.endpoint",
		"logging.level", "logging.format",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	paths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders inside string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront-workers"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "products"
	}
	if cfg.Database.SQLite.Path == "" {
		cfg.Database.SQLite.Path = "storefront.db"
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}

	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = "static"
	}
	if cfg.Catalog.MaxProducts == 0 {
		cfg.Catalog.MaxProducts = 500
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = 5000
	}

	if cfg.Search.MaxSuggestions == 0 {
		cfg.Search.MaxSuggestions = 8
	}
	if cfg.Search.DebounceMs == 0 {
		cfg.Search.DebounceMs = 300
	}
	if cfg.Search.HistoryLimit == 0 {
		cfg.Search.HistoryLimit = 5
	}
	if cfg.Search.PopularCount == 0 {
		cfg.Search.PopularCount = 4
	}

	if cfg.Notifications.SimulationIntervalMs == 0 {
		cfg.Notifications.SimulationIntervalMs = 15000
	}
	if cfg.Notifications.HighlightMs == 0 {
		cfg.Notifications.HighlightMs = 3000
	}

	if cfg.Contact.Timeout == 0 {
		cfg.Contact.Timeout = 10000
	}
	if cfg.Contact.AWS.Region == "" {
		cfg.Contact.AWS.Region = "us-east-1"
	}

	if cfg.Assistant.ReplyDelayMs == 0 {
		cfg.Assistant.ReplyDelayMs = 1000
	}
	if cfg.Assistant.MaxSuggestions == 0 {
		cfg.Assistant.MaxSuggestions = 3
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig checks only the sections the selected backends actually use.
func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	switch cfg.Storage.Backend {
	case "memory", "sqlite":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis storage backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", cfg.Storage.Backend)
	}

	switch cfg.Catalog.Source {
	case "static", "sqlite":
	case "postgres":
		if cfg.Database.Postgres.Host == "" || cfg.Database.Postgres.Database == "" || cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres host, database and user are required for the postgres catalog")
		}
	case "elasticsearch":
		if len(cfg.Database.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("database.elasticsearch.addresses is required for the elasticsearch catalog")
		}
	case "http":
		if cfg.Catalog.URL == "" {
			return fmt.Errorf("catalog.url is required for the http catalog")
		}
	default:
		return fmt.Errorf("unknown catalog.source %q", cfg.Catalog.Source)
	}

	if p := cfg.Notifications.Probability; p < 0 || p > 1 {
		return fmt.Errorf("notifications.probability must be within [0,1], got %v", p)
	}
	if cfg.Search.MaxSuggestions < 0 || cfg.Search.HistoryLimit < 0 {
		return fmt.Errorf("search limits must not be negative")
	}
	if cfg.Contact.AWS.SES.Enabled && (cfg.Contact.AWS.SES.FromEmail == "" || cfg.Contact.AWS.SES.ToEmail == "") {
		return fmt.Errorf("contact.aws.ses from_email and to_email are required when ses is enabled")
	}

	return nil
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
