package finance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeEMI(t *testing.T) {
	tests := []struct {
		name      string
		principal float64
		rate      float64
		tenure    int
		expected  float64
		delta     float64
	}{
		{name: "standard two year loan", principal: 100000, rate: 12, tenure: 24, expected: 4707.35, delta: 0.5},
		{name: "zero rate is straight division", principal: 120000, rate: 0, tenure: 12, expected: 10000, delta: 0.0001},
		{name: "zero principal", principal: 0, rate: 12, tenure: 12, expected: 0, delta: 0.0001},
		{name: "single month repays principal plus one month interest", principal: 1000, rate: 12, tenure: 1, expected: 1010, delta: 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emi, err := ComputeEMI(tt.principal, tt.rate, tt.tenure)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, emi, tt.delta)
		})
	}
}

func TestComputeEMI_InvalidArguments(t *testing.T) {
	tests := []struct {
		name      string
		principal float64
		rate      float64
		tenure    int
	}{
		{name: "zero tenure", principal: 1000, rate: 12, tenure: 0},
		{name: "negative tenure", principal: 1000, rate: 12, tenure: -3},
		{name: "negative principal", principal: -1, rate: 12, tenure: 12},
		{name: "negative rate", principal: 1000, rate: -1, tenure: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeEMI(tt.principal, tt.rate, tt.tenure)
			assert.True(t, errors.Is(err, ErrInvalidArgument))
		})
	}
}

func TestMaxAffordablePrincipal(t *testing.T) {
	principal, err := MaxAffordablePrincipal(50000, 24, 11.5, AffordabilityRatio)
	require.NoError(t, err)

	emi, err := ComputeEMI(float64(principal), 11.5, 24)
	require.NoError(t, err)
	assert.LessOrEqual(t, emi, 20000.0)

	over, err := ComputeEMI(float64(principal+1), 11.5, 24)
	require.NoError(t, err)
	assert.Greater(t, over, 20000.0, "one more rupee must break the cap")
}

func TestMaxAffordablePrincipal_ZeroRate(t *testing.T) {
	principal, err := MaxAffordablePrincipal(30000, 10, 0, AffordabilityRatio)
	require.NoError(t, err)
	assert.Equal(t, int64(120000), principal)
}

func TestMaxAffordablePrincipal_InvalidTenure(t *testing.T) {
	_, err := MaxAffordablePrincipal(30000, 0, 12, AffordabilityRatio)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRoundCurrency(t *testing.T) {
	assert.Equal(t, 4707.0, RoundCurrency(4707.35))
	assert.Equal(t, 4708.0, RoundCurrency(4707.5))
}
