package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/dushixiang/stakemine/pkg/pricing"
)

// 重算方式
const (
	CalculationMethodManual = "manual"
	CalculationMethodAuto   = "auto"
)

// PriceCalculation 价格重算记录（只追加，写入后不可变）
type PriceCalculation struct {
	ID            string                             `gorm:"primaryKey;type:varchar(26)" json:"id"`
	ShareID       string                             `gorm:"type:varchar(26);not null;index" json:"share_id"`
	Symbol        string                             `gorm:"type:varchar(20);not null;index" json:"symbol"`
	PreviousPrice int64                              `gorm:"not null" json:"previous_price"`          // 重算前价格
	NewPrice      int64                              `gorm:"not null" json:"new_price"`               // 重算后价格
	Method        string                             `gorm:"type:varchar(10);not null" json:"method"` // manual/auto
	Inputs        datatypes.JSONType[pricing.Inputs] `gorm:"type:json" json:"inputs"`                 // 输入因子快照
	Actor         string                             `gorm:"type:varchar(50);not null" json:"actor"`  // 管理员或 system
	CalculatedAt  time.Time                          `gorm:"not null;index" json:"calculated_at"`
	CreatedAt     time.Time                          `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (PriceCalculation) TableName() string {
	return "price_calculations"
}
