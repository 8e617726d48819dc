package assistantreply

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxSuggestions int           `mapstructure:"max_suggestions"`
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:        5 * time.Second,
		MaxSuggestions: 3,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxSuggestions <= 0 {
		return fmt.Errorf("max_suggestions must be positive")
	}
	return nil
}
