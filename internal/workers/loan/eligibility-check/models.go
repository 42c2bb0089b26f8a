// internal/workers/loan/eligibility-check/models.go
package eligibilitycheck

import "loan-origination/internal/models"

type Input struct {
	SessionID string         `json:"sessionId"`
	Profile   models.Profile `json:"profile"`
	Flags     models.Flags   `json:"flags"`
}

type Output struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"eligibilityReasons"`
}
