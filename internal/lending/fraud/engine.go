// Package fraud scores an application for fraud risk with weighted rules.
package fraud

import (
	"strings"

	"loan-origination/internal/models"
)

// Rule reasons, surfaced to the applicant verbatim.
const (
	ReasonPANUnverified      = "PAN not verified"
	ReasonIncomeLoanMismatch = "Loan amount is unusually high compared to income"
	ReasonYoungHighIncome    = "High income reported for very young age"
	ReasonSuspiciousDocument = "Suspicious patterns detected in uploaded document"
	ReasonMultipleAttempts   = "Multiple verification attempts detected"
)

// Rules holds the weights, limits and keywords of the scoring rules.
type Rules struct {
	PANUnverifiedWeight      int
	IncomeLoanMismatchWeight int
	YoungHighIncomeWeight    int
	SuspiciousDocumentWeight int
	MultipleAttemptsWeight   int

	// LoanToIncomeMultiple is how many months of declared income a request may reach.
	LoanToIncomeMultiple int64
	YoungAgeBelow        int
	HighIncomeAbove      int64
	SuspiciousKeywords   []string
	Threshold            int
}

func DefaultRules() Rules {
	return Rules{
		PANUnverifiedWeight:      40,
		IncomeLoanMismatchWeight: 30,
		YoungHighIncomeWeight:    20,
		SuspiciousDocumentWeight: 15,
		MultipleAttemptsWeight:   20,
		LoanToIncomeMultiple:     20,
		YoungAgeBelow:            21,
		HighIncomeAbove:          50000,
		SuspiciousKeywords:       []string{"edited", "photoshop", "fake", "sample", "dummy"},
		Threshold:                models.FraudThreshold,
	}
}

type Engine struct {
	rules Rules
}

func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

// Assess evaluates every rule and returns reasons in rule order.
func (e *Engine) Assess(profile models.Profile, flags models.Flags) models.FraudAssessment {
	r := e.rules
	score := 0
	reasons := []string{}

	if !flags.PANVerified {
		score += r.PANUnverifiedWeight
		reasons = append(reasons, ReasonPANUnverified)
	}

	if profile.RequestedAmount > 0 && profile.DeclaredIncome > 0 &&
		profile.RequestedAmount > r.LoanToIncomeMultiple*profile.DeclaredIncome {
		score += r.IncomeLoanMismatchWeight
		reasons = append(reasons, ReasonIncomeLoanMismatch)
	}

	if profile.Age > 0 && profile.Age < r.YoungAgeBelow && profile.DeclaredIncome > r.HighIncomeAbove {
		score += r.YoungHighIncomeWeight
		reasons = append(reasons, ReasonYoungHighIncome)
	}

	if len(MatchKeywords(profile.DocumentText, r.SuspiciousKeywords)) > 0 {
		score += r.SuspiciousDocumentWeight
		reasons = append(reasons, ReasonSuspiciousDocument)
	}

	if flags.MultipleAttempts {
		score += r.MultipleAttemptsWeight
		reasons = append(reasons, ReasonMultipleAttempts)
	}

	return models.FraudAssessment{
		RiskScore: score,
		Reasons:   reasons,
		IsFraud:   score >= r.Threshold,
	}
}

// MatchKeywords returns the keywords found in text, case-insensitively, each once.
func MatchKeywords(text string, keywords []string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var hits []string
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			hits = append(hits, kw)
		}
	}
	return hits
}
