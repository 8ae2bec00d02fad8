package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeBuySellRatio_Balanced(t *testing.T) {
	ratio := computeBuySellRatio(decimal.NewFromInt(500), decimal.NewFromInt(500))
	assert.InDelta(t, 1.0, ratio, 1e-9)
}

func TestComputeBuySellRatio_BuyPressure(t *testing.T) {
	ratio := computeBuySellRatio(decimal.NewFromInt(1000), decimal.NewFromInt(500))
	assert.InDelta(t, 2.0, ratio, 1e-9)
}

func TestComputeBuySellRatio_NoActivityIsNeutral(t *testing.T) {
	ratio := computeBuySellRatio(decimal.Zero, decimal.Zero)
	assert.InDelta(t, 1.0, ratio, 1e-9)
}

func TestComputeBuySellRatio_ZeroSellIsCapped(t *testing.T) {
	ratio := computeBuySellRatio(decimal.NewFromInt(100), decimal.Zero)
	assert.InDelta(t, maxBuySellRatio, ratio, 1e-9)
}

func TestComputeBuySellRatio_LargeImbalanceIsCapped(t *testing.T) {
	ratio := computeBuySellRatio(decimal.NewFromInt(1000000), decimal.NewFromInt(1))
	assert.InDelta(t, maxBuySellRatio, ratio, 1e-9)
}
