// Package credit provides the credit score used at the CREDIT step.
package credit

import (
	"context"
	"errors"
	"hash/fnv"

	"loan-origination/internal/lending/identity"
)

var ErrInvalidPAN = errors.New("INVALID_PAN")

type band struct {
	minIncome int64
	low       int
	high      int
}

// bands are checked top down.
var bands = []band{
	{minIncome: 50000, low: 750, high: 820},
	{minIncome: 30000, low: 700, high: 749},
	{minIncome: 0, low: 600, high: 699},
}

// SimulatedBureau derives a stable score from the PAN within an income band.
type SimulatedBureau struct{}

func NewSimulatedBureau() *SimulatedBureau {
	return &SimulatedBureau{}
}

func (b *SimulatedBureau) Score(ctx context.Context, pan string, income int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	pan = identity.NormalizePAN(pan)
	if !identity.ValidatePAN(pan) {
		return 0, ErrInvalidPAN
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(pan))
	sum := h.Sum32()

	for _, bd := range bands {
		if income >= bd.minIncome {
			span := uint32(bd.high - bd.low + 1)
			return bd.low + int(sum%span), nil
		}
	}
	return bands[len(bands)-1].low, nil
}
