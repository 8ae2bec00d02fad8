package models

import (
	"time"

	"gorm.io/gorm"
)

// Share 股份标的，持有当前权威价格
type Share struct {
	ID           string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Symbol       string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"symbol"` // 标的代码
	Name         string         `gorm:"type:varchar(100)" json:"name"`                       // 标的名称
	CurrentPrice int64          `gorm:"not null" json:"current_price"`                       // 当前价格（最小货币单位）
	Enabled      bool           `gorm:"not null;default:true" json:"enabled"`                // 是否参与自动重算
	Version      int64          `gorm:"not null;default:0" json:"version"`                   // 乐观锁版本号
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (Share) TableName() string {
	return "shares"
}
