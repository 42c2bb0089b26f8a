// internal/models/decision.go
package models

import "time"

// FraudThreshold is the score at which an application is treated as fraudulent.
const FraudThreshold = 60

// FraudAssessment is the outcome of the fraud scoring engine.
type FraudAssessment struct {
	RiskScore int      `json:"riskScore"`
	Reasons   []string `json:"reasons"`
	IsFraud   bool     `json:"isFraud"`
}

// EligibilityResult is the outcome of the eligibility engine.
type EligibilityResult struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons"`
}

// LoanOffer is one financing option surfaced to the applicant.
type LoanOffer struct {
	Amount       int64   `json:"amount"`
	TenureMonths int     `json:"months"`
	AnnualRate   float64 `json:"rate"`
	EMI          float64 `json:"emi"`
}

// DecisionKind identifies which engine produced a DecisionRecord.
type DecisionKind string

const (
	DecisionFraud       DecisionKind = "fraud"
	DecisionEligibility DecisionKind = "eligibility"
	DecisionOffers      DecisionKind = "offers"
	DecisionSanction    DecisionKind = "sanction"
)

// DecisionRecord is the audit trail entry written after an engine runs.
type DecisionRecord struct {
	ID        string       `json:"id"`
	SessionID string       `json:"sessionId"`
	Kind      DecisionKind `json:"kind"`
	Outcome   string       `json:"outcome"`
	Score     int          `json:"score,omitempty"`
	Reasons   []string     `json:"reasons,omitempty"`
	Offers    []LoanOffer  `json:"offers,omitempty"`
	State     State        `json:"state"`
	CreatedAt time.Time    `json:"createdAt"`
}
