// internal/workers/loan/eligibility-check/config.go
package eligibilitycheck

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout time.Duration
	// RejectAsError throws RULE_FAILURE instead of completing with eligible=false.
	RejectAsError bool
}

func DefaultConfig() *Config {
	return &Config{Timeout: 10 * time.Second}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
