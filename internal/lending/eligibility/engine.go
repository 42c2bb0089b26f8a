// Package eligibility decides whether an applicant qualifies for a loan.
package eligibility

import (
	"strings"

	"loan-origination/internal/models"
)

const (
	ReasonUnderage       = "Applicant must be at least 18 years old."
	ReasonEmployment     = "Applicant must be salaried or self-employed."
	ReasonMinimumIncome  = "Minimum income requirement is ₹15,000."
	ReasonPANNotVerified = "PAN verification failed."
	ReasonKYCIncomplete  = "Aadhaar eKYC not completed."
	ReasonIncomeMismatch = "Declared income does not match uploaded document."
	ReasonFraudRisk      = "Application flagged as high fraud risk."
)

const (
	MinimumAge    = 18
	MinimumIncome = 15000
	// IncomeTolerance is the accepted relative gap between declared and document income.
	IncomeTolerance = 0.2
)

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate checks every rule and collects all failures.
func (e *Engine) Evaluate(profile models.Profile, flags models.Flags) models.EligibilityResult {
	reasons := []string{}

	if profile.Age < MinimumAge {
		reasons = append(reasons, ReasonUnderage)
	}

	switch strings.ToLower(profile.Employment) {
	case models.EmploymentSalaried, models.EmploymentSelfEmployed:
	default:
		reasons = append(reasons, ReasonEmployment)
	}

	if profile.DeclaredIncome < MinimumIncome {
		reasons = append(reasons, ReasonMinimumIncome)
	}

	if !flags.PANVerified {
		reasons = append(reasons, ReasonPANNotVerified)
	}

	if !flags.KYCVerified {
		reasons = append(reasons, ReasonKYCIncomplete)
	}

	if IncomeMismatch(profile.DeclaredIncome, profile.DocumentIncome) {
		reasons = append(reasons, ReasonIncomeMismatch)
	}

	if flags.FraudRisk {
		reasons = append(reasons, ReasonFraudRisk)
	}

	return models.EligibilityResult{
		Eligible: len(reasons) == 0,
		Reasons:  reasons,
	}
}

// IncomeMismatch reports whether both incomes are present and differ by more than
// IncomeTolerance of the declared figure.
func IncomeMismatch(declared, document int64) bool {
	if declared <= 0 || document <= 0 {
		return false
	}
	diff := document - declared
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) > IncomeTolerance*float64(declared)
}
