// internal/workers/loan/sanction-notify/config.go
package sanctionnotify

import (
	"fmt"
	"time"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SMSSenderID  string
	Timeout      time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		SMSSenderID: "SNCTNX",
		Timeout:     30 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.EmailEnabled && c.FromEmail == "" {
		return fmt.Errorf("from email is required when email is enabled")
	}
	return nil
}
