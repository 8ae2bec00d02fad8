package models

import (
	"time"
)

// EarningsReport 周期性收益上报，自动重算消费后标记 applied
type EarningsReport struct {
	ID           string     `gorm:"primaryKey;type:varchar(26)" json:"id"`
	ShareID      string     `gorm:"type:varchar(26);not null;index" json:"share_id"`
	Symbol       string     `gorm:"type:varchar(20);not null;index" json:"symbol"`
	MiningProfit float64    `gorm:"type:decimal(20,8);not null" json:"mining_profit"` // 周期内挖矿收益
	DividendPaid float64    `gorm:"type:decimal(20,8);not null" json:"dividend_paid"` // 周期内已付分红
	PeriodStart  time.Time  `gorm:"not null" json:"period_start"`
	PeriodEnd    time.Time  `gorm:"not null;index" json:"period_end"`
	Applied      bool       `gorm:"not null;default:false;index" json:"applied"` // 是否已被重算消费
	AppliedAt    *time.Time `json:"applied_at"`
	Actor        string     `gorm:"type:varchar(50)" json:"actor"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (EarningsReport) TableName() string {
	return "earnings_reports"
}
