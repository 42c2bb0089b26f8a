// internal/workers/loan/offer-generate/config.go
package offergenerate

import (
	"fmt"
	"time"

	"loan-origination/internal/lending/finance"
)

type Config struct {
	Timeout            time.Duration
	AffordabilityRatio float64
	// CounterOffers resizes the ladder when no standard offer is affordable.
	CounterOffers bool
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:            10 * time.Second,
		AffordabilityRatio: finance.AffordabilityRatio,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.AffordabilityRatio <= 0 || c.AffordabilityRatio > 1 {
		return fmt.Errorf("affordability ratio must be in (0, 1], got %v", c.AffordabilityRatio)
	}
	return nil
}
