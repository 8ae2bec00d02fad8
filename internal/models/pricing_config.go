package models

import (
	"time"

	"github.com/dushixiang/stakemine/pkg/pricing"
)

// PricingConfig 定价参数配置（单行）
type PricingConfig struct {
	ID                   string    `gorm:"primaryKey;size:26" json:"id"`
	Enabled              bool      `gorm:"not null;default:false" json:"enabled"` // 是否允许自动重算
	IntervalMinutes      int       `json:"interval_minutes"`                      // 自动重算周期（分钟）
	MiningProfitWeight   float64   `json:"mining_profit_weight"`                  // 挖矿收益权重
	DividendWeight       float64   `json:"dividend_weight"`                       // 分红权重
	MarketActivityWeight float64   `json:"market_activity_weight"`                // 市场活跃度权重
	MaxIncreasePercent   float64   `json:"max_increase_percent"`                  // 单次最大涨幅百分比
	MaxDecreasePercent   float64   `json:"max_decrease_percent"`                  // 单次最大跌幅百分比
	MinimumPriceFloor    int64     `json:"minimum_price_floor"`                   // 绝对价格下限
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (PricingConfig) TableName() string {
	return "pricing_config"
}

// Calculator 转换为计算器用的纯配置
func (c PricingConfig) Calculator() pricing.Config {
	return pricing.Config{
		MiningProfitWeight:   c.MiningProfitWeight,
		DividendWeight:       c.DividendWeight,
		MarketActivityWeight: c.MarketActivityWeight,
		MaxIncreasePercent:   c.MaxIncreasePercent,
		MaxDecreasePercent:   c.MaxDecreasePercent,
		MinimumPriceFloor:    c.MinimumPriceFloor,
	}
}

// PricingConfigRevision 配置修订记录，每次保存追加一条
type PricingConfigRevision struct {
	ID                   string    `gorm:"primaryKey;size:26" json:"id"`
	Version              int       `gorm:"uniqueIndex;not null" json:"version"`
	Enabled              bool      `json:"enabled"`
	IntervalMinutes      int       `json:"interval_minutes"`
	MiningProfitWeight   float64   `json:"mining_profit_weight"`
	DividendWeight       float64   `json:"dividend_weight"`
	MarketActivityWeight float64   `json:"market_activity_weight"`
	MaxIncreasePercent   float64   `json:"max_increase_percent"`
	MaxDecreasePercent   float64   `json:"max_decrease_percent"`
	MinimumPriceFloor    int64     `json:"minimum_price_floor"`
	Actor                string    `gorm:"size:50" json:"actor"`   // 操作人
	Remark               string    `gorm:"size:500" json:"remark"` // 备注
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (PricingConfigRevision) TableName() string {
	return "pricing_config_revisions"
}
