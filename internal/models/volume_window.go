package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VolumeWindow 买卖量观测窗口，用于推导买卖比
type VolumeWindow struct {
	ID          string          `gorm:"primaryKey;type:varchar(26)" json:"id"`
	ShareID     string          `gorm:"type:varchar(26);not null;index" json:"share_id"`
	Symbol      string          `gorm:"type:varchar(20);not null;index" json:"symbol"`
	BuyVolume   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"buy_volume"`  // 买入量
	SellVolume  decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"sell_volume"` // 卖出量
	WindowStart time.Time       `gorm:"not null" json:"window_start"`
	WindowEnd   time.Time       `gorm:"not null;index" json:"window_end"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (VolumeWindow) TableName() string {
	return "volume_windows"
}
