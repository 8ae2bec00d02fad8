package repo

import (
	"context"

	"github.com/dushixiang/stakemine/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewPriceCalculationRepo(db *gorm.DB) *PriceCalculationRepo {
	return &PriceCalculationRepo{
		Repository: orz.NewRepository[models.PriceCalculation, string](db),
	}
}

type PriceCalculationRepo struct {
	orz.Repository[models.PriceCalculation, string]
}

// FindRecentBySymbol 获取某标的最近的重算记录
func (r PriceCalculationRepo) FindRecentBySymbol(ctx context.Context, symbol string, limit int) ([]models.PriceCalculation, error) {
	var calculations []models.PriceCalculation
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("symbol = ?", symbol).
		Order("calculated_at DESC").
		Limit(limit).
		Find(&calculations).Error
	return calculations, err
}

// FindRecent 获取全部标的最近的重算记录
func (r PriceCalculationRepo) FindRecent(ctx context.Context, limit int) ([]models.PriceCalculation, error) {
	var calculations []models.PriceCalculation
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("calculated_at DESC").
		Limit(limit).
		Find(&calculations).Error
	return calculations, err
}

// FindAllBySymbolOrderByCalculatedAt 获取某标的全部重算记录（按时间升序，用于趋势展示）
func (r PriceCalculationRepo) FindAllBySymbolOrderByCalculatedAt(ctx context.Context, symbol string) ([]models.PriceCalculation, error) {
	var calculations []models.PriceCalculation
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("symbol = ?", symbol).
		Order("calculated_at ASC").
		Find(&calculations).Error
	return calculations, err
}
