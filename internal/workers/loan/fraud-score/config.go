// internal/workers/loan/fraud-score/config.go
package fraudscore

import (
	"fmt"
	"time"

	"loan-origination/internal/models"
)

type Config struct {
	Timeout time.Duration
	// Threshold is the risk score at which an application counts as fraud.
	Threshold int
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:   10 * time.Second,
		Threshold: models.FraudThreshold,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %d", c.Threshold)
	}
	return nil
}
