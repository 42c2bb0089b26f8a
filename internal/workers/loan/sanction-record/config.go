// internal/workers/loan/sanction-record/config.go
package sanctionrecord

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout time.Duration
	// SearchIndex receives a copy of each sanctioned application when an indexer is wired.
	SearchIndex string
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:     30 * time.Second,
		SearchIndex: "loan-applications",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
