package pricing

import "math"

// Config 定价配置（权重与限幅），由管理端维护
type Config struct {
	MiningProfitWeight   float64 `json:"mining_profit_weight"`   // 挖矿收益权重
	DividendWeight       float64 `json:"dividend_weight"`        // 分红权重
	MarketActivityWeight float64 `json:"market_activity_weight"` // 市场活跃度权重（0.0-1.0）
	MaxIncreasePercent   float64 `json:"max_increase_percent"`   // 单次最大涨幅百分比（0-100）
	MaxDecreasePercent   float64 `json:"max_decrease_percent"`   // 单次最大跌幅百分比（0-100）
	MinimumPriceFloor    int64   `json:"minimum_price_floor"`    // 绝对价格下限（最小货币单位）
}

// Inputs 单次重算的输入因子
type Inputs struct {
	CurrentPrice int64   `json:"current_price"`  // 当前价格（最小货币单位）
	MiningProfit float64 `json:"mining_profit"`  // 周期内挖矿收益
	DividendPaid float64 `json:"dividend_paid"`  // 周期内已付分红
	BuySellRatio float64 `json:"buy_sell_ratio"` // 买卖量比值，1.0 为均衡
}

// ComputeNextPrice 根据配置与输入因子计算下一次股价。
//
// 计算顺序固定：买卖比驱动的市场调整、加权求和、波动限幅、价格下限、
// 取整。价格下限优先于下跌限幅：唯一允许超过限幅的情况是结果会低于下限。
// 纯函数，不做任何输入校验；调用方必须保证 CurrentPrice > 0 且配置合法，
// 否则限幅会退化（基数非正时上下界反转）。
func ComputeNextPrice(config Config, inputs Inputs) int64 {
	currentPrice := float64(inputs.CurrentPrice)

	marketAdjustment := (inputs.BuySellRatio - 1) * currentPrice * config.MarketActivityWeight

	rawAdjustment := inputs.MiningProfit*config.MiningProfitWeight +
		inputs.DividendPaid*config.DividendWeight +
		marketAdjustment

	candidate := currentPrice + rawAdjustment

	// 波动限幅
	maxAllowed := currentPrice + currentPrice*(config.MaxIncreasePercent/100)
	minAllowed := currentPrice - currentPrice*(config.MaxDecreasePercent/100)
	if candidate > maxAllowed {
		candidate = maxAllowed
	}
	if candidate < minAllowed {
		candidate = minAllowed
	}

	// 绝对下限，优先于下跌限幅
	if floor := float64(config.MinimumPriceFloor); candidate < floor {
		candidate = floor
	}

	return int64(math.Round(candidate))
}
