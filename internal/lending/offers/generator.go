// Package offers builds the loan options shown to an eligible applicant.
package offers

import (
	"errors"
	"fmt"
	"strings"

	"loan-origination/internal/lending/finance"
	"loan-origination/internal/models"
)

var ErrMissingIncome = errors.New("MISSING_INCOME")

// Tier is one rung of the offer ladder.
type Tier struct {
	IncomeMultiple int64
	TenureMonths   int
	RateDelta      float64
}

// DefaultLadder is 10x income over 24 months, 15x over 36 and 20x over 48,
// each longer tenure priced one point higher.
var DefaultLadder = []Tier{
	{IncomeMultiple: 10, TenureMonths: 24, RateDelta: 0},
	{IncomeMultiple: 15, TenureMonths: 36, RateDelta: 1},
	{IncomeMultiple: 20, TenureMonths: 48, RateDelta: 2},
}

const (
	BaseRate       = 12.0
	FemaleDiscount = 0.5
	// CounterOfferStep is the rounding unit for counter-offer principals.
	CounterOfferStep = 1000
)

type Generator struct {
	ladder []Tier
	ratio  float64
}

// NewGenerator uses DefaultLadder; ratio is the EMI-to-income cap.
func NewGenerator(ratio float64) *Generator {
	return &Generator{ladder: DefaultLadder, ratio: ratio}
}

// Candidates returns the full ladder priced for the applicant, affordable or not.
func (g *Generator) Candidates(profile models.Profile) ([]models.LoanOffer, error) {
	if profile.DeclaredIncome <= 0 {
		return nil, ErrMissingIncome
	}

	out := make([]models.LoanOffer, 0, len(g.ladder))
	for _, tier := range g.ladder {
		amount := tier.IncomeMultiple * profile.DeclaredIncome
		rate := g.rate(profile, tier)
		emi, err := finance.ComputeEMI(float64(amount), rate, tier.TenureMonths)
		if err != nil {
			return nil, fmt.Errorf("price %d month tier: %w", tier.TenureMonths, err)
		}
		out = append(out, models.LoanOffer{
			Amount:       amount,
			TenureMonths: tier.TenureMonths,
			AnnualRate:   rate,
			EMI:          finance.RoundCurrency(emi),
		})
	}
	return out, nil
}

// Generate returns the candidates whose EMI fits within the affordability cap,
// in ladder order. An empty slice is a valid outcome.
func (g *Generator) Generate(profile models.Profile) ([]models.LoanOffer, error) {
	candidates, err := g.Candidates(profile)
	if err != nil {
		return nil, err
	}

	maxEMI := g.ratio * float64(profile.DeclaredIncome)
	offers := []models.LoanOffer{}
	for _, c := range candidates {
		emi, err := finance.ComputeEMI(float64(c.Amount), c.AnnualRate, c.TenureMonths)
		if err != nil {
			return nil, err
		}
		if emi <= maxEMI {
			offers = append(offers, c)
		}
	}
	return offers, nil
}

// CounterOffers sizes each ladder tier down to the largest principal the
// applicant can afford, rounded down to CounterOfferStep.
func (g *Generator) CounterOffers(profile models.Profile) ([]models.LoanOffer, error) {
	if profile.DeclaredIncome <= 0 {
		return nil, ErrMissingIncome
	}

	offers := []models.LoanOffer{}
	for _, tier := range g.ladder {
		rate := g.rate(profile, tier)
		principal, err := finance.MaxAffordablePrincipal(float64(profile.DeclaredIncome), tier.TenureMonths, rate, g.ratio)
		if err != nil {
			return nil, err
		}
		principal -= principal % CounterOfferStep
		if ceiling := tier.IncomeMultiple * profile.DeclaredIncome; principal > ceiling {
			principal = ceiling
		}
		if principal <= 0 {
			continue
		}

		emi, err := finance.ComputeEMI(float64(principal), rate, tier.TenureMonths)
		if err != nil {
			return nil, err
		}
		offers = append(offers, models.LoanOffer{
			Amount:       principal,
			TenureMonths: tier.TenureMonths,
			AnnualRate:   rate,
			EMI:          finance.RoundCurrency(emi),
		})
	}
	return offers, nil
}

func (g *Generator) rate(profile models.Profile, tier Tier) float64 {
	rate := BaseRate + tier.RateDelta
	if strings.EqualFold(profile.Gender, models.GenderFemale) {
		rate -= FemaleDiscount
	}
	return rate
}
