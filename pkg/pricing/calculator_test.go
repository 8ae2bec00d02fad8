package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultConfig() Config {
	return Config{
		MiningProfitWeight:   1.0,
		DividendWeight:       1.0,
		MarketActivityWeight: 0.02,
		MaxIncreasePercent:   10,
		MaxDecreasePercent:   10,
		MinimumPriceFloor:    20000,
	}
}

func TestComputeNextPrice_UpperClamp(t *testing.T) {
	// currentPrice=20000, mining=5000, dividend=2000, ratio=1
	// raw=7000, candidate=27000, maxAllowed=22000
	inputs := Inputs{
		CurrentPrice: 20000,
		MiningProfit: 5000,
		DividendPaid: 2000,
		BuySellRatio: 1,
	}
	assert.EqualValues(t, 22000, ComputeNextPrice(defaultConfig(), inputs))
}

func TestComputeNextPrice_MarketAdjustmentStillClamped(t *testing.T) {
	// ratio=2 增加 (2-1)*20000*0.02=400，candidate=27400，仍然触顶 22000
	inputs := Inputs{
		CurrentPrice: 20000,
		MiningProfit: 5000,
		DividendPaid: 2000,
		BuySellRatio: 2,
	}
	assert.EqualValues(t, 22000, ComputeNextPrice(defaultConfig(), inputs))
}

func TestComputeNextPrice_ZeroAdjustmentIdentity(t *testing.T) {
	inputs := Inputs{
		CurrentPrice: 20000,
		MiningProfit: 0,
		DividendPaid: 0,
		BuySellRatio: 1,
	}
	assert.EqualValues(t, 20000, ComputeNextPrice(defaultConfig(), inputs))
}

func TestComputeNextPrice_FloorWinsOverDecreaseClamp(t *testing.T) {
	// candidate=5000，跌幅限幅下界 7500，下限 20000 优先
	config := Config{
		MiningProfitWeight:   1.0,
		DividendWeight:       1.0,
		MarketActivityWeight: 0.02,
		MaxIncreasePercent:   10,
		MaxDecreasePercent:   50,
		MinimumPriceFloor:    20000,
	}
	inputs := Inputs{
		CurrentPrice: 15000,
		MiningProfit: -10000,
		DividendPaid: 0,
		BuySellRatio: 1,
	}
	assert.EqualValues(t, 20000, ComputeNextPrice(config, inputs))
}

func TestComputeNextPrice_LowerClampApplied(t *testing.T) {
	config := defaultConfig()
	config.MinimumPriceFloor = 0
	inputs := Inputs{
		CurrentPrice: 20000,
		MiningProfit: -5000,
		DividendPaid: 0,
		BuySellRatio: 1,
	}
	// 跌幅限制 10%，下界 18000
	assert.EqualValues(t, 18000, ComputeNextPrice(config, inputs))
}

func TestComputeNextPrice_MarketPressureOnly(t *testing.T) {
	config := defaultConfig()
	config.MinimumPriceFloor = 0
	inputs := Inputs{
		CurrentPrice: 20000,
		MiningProfit: 0,
		DividendPaid: 0,
		BuySellRatio: 1.5,
	}
	// (1.5-1)*20000*0.02 = 200
	assert.EqualValues(t, 20200, ComputeNextPrice(config, inputs))
}

func TestComputeNextPrice_RoundsToNearestUnit(t *testing.T) {
	config := defaultConfig()
	config.MinimumPriceFloor = 0
	config.MiningProfitWeight = 0.5
	inputs := Inputs{
		CurrentPrice: 20000,
		MiningProfit: 1,
		DividendPaid: 0,
		BuySellRatio: 1,
	}
	// 20000.5 四舍五入到 20001
	assert.EqualValues(t, 20001, ComputeNextPrice(config, inputs))
}

func TestComputeNextPrice_Deterministic(t *testing.T) {
	config := defaultConfig()
	inputs := Inputs{
		CurrentPrice: 31415,
		MiningProfit: 927,
		DividendPaid: 182,
		BuySellRatio: 1.3,
	}
	first := ComputeNextPrice(config, inputs)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ComputeNextPrice(config, inputs))
	}
}

func TestComputeNextPrice_NeverBelowFloor(t *testing.T) {
	config := defaultConfig()
	cases := []Inputs{
		{CurrentPrice: 20000, MiningProfit: -1e9, DividendPaid: 0, BuySellRatio: 1},
		{CurrentPrice: 25000, MiningProfit: 0, DividendPaid: -1e9, BuySellRatio: 1},
		{CurrentPrice: 30000, MiningProfit: 0, DividendPaid: 0, BuySellRatio: 0},
		{CurrentPrice: 20001, MiningProfit: -3, DividendPaid: -7, BuySellRatio: 0.99},
	}
	for _, inputs := range cases {
		got := ComputeNextPrice(config, inputs)
		assert.GreaterOrEqual(t, got, config.MinimumPriceFloor, "inputs=%+v", inputs)
	}
}
