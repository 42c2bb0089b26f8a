// internal/workers/loan/fraud-score/models.go
package fraudscore

import "loan-origination/internal/models"

type Input struct {
	SessionID string         `json:"sessionId"`
	Profile   models.Profile `json:"profile"`
	Flags     models.Flags   `json:"flags"`
}

type Output struct {
	RiskScore int      `json:"riskScore"`
	Reasons   []string `json:"fraudReasons"`
	IsFraud   bool     `json:"isFraud"`
}
