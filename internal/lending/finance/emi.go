// Package finance implements reducing-balance amortization math.
package finance

import (
	"errors"
	"fmt"
	"math"
)

// AffordabilityRatio is the share of monthly income an EMI may consume.
const AffordabilityRatio = 0.4

var ErrInvalidArgument = errors.New("INVALID_ARGUMENT")

// ComputeEMI returns the equated monthly installment for a principal borrowed at
// annualRatePercent over tenureMonths. A zero rate degenerates to principal/tenure.
func ComputeEMI(principal, annualRatePercent float64, tenureMonths int) (float64, error) {
	if tenureMonths <= 0 {
		return 0, fmt.Errorf("%w: tenure must be positive, got %d", ErrInvalidArgument, tenureMonths)
	}
	if principal < 0 {
		return 0, fmt.Errorf("%w: principal must not be negative, got %.2f", ErrInvalidArgument, principal)
	}
	if annualRatePercent < 0 {
		return 0, fmt.Errorf("%w: rate must not be negative, got %.2f", ErrInvalidArgument, annualRatePercent)
	}

	r := annualRatePercent / 1200
	if r == 0 {
		return principal / float64(tenureMonths), nil
	}

	growth := math.Pow(1+r, float64(tenureMonths))
	return principal * r * growth / (growth - 1), nil
}

// MaxAffordablePrincipal returns the largest whole principal whose EMI stays within
// income*ratio for the given tenure and rate.
func MaxAffordablePrincipal(income float64, tenureMonths int, annualRatePercent, ratio float64) (int64, error) {
	if income < 0 || ratio < 0 {
		return 0, fmt.Errorf("%w: income and ratio must not be negative", ErrInvalidArgument)
	}
	// EMI is linear in principal, so the EMI of one unit gives the inverse directly.
	unit, err := ComputeEMI(1, annualRatePercent, tenureMonths)
	if err != nil {
		return 0, err
	}

	maxEMI := income * ratio
	principal := math.Floor(maxEMI / unit)

	// Guard against floating point putting the floored value one unit over the cap.
	for principal > 0 {
		emi, _ := ComputeEMI(principal, annualRatePercent, tenureMonths)
		if emi <= maxEMI {
			break
		}
		principal--
	}
	return int64(principal), nil
}

// RoundCurrency rounds an amount to the nearest whole rupee.
func RoundCurrency(v float64) float64 {
	return math.Round(v)
}
