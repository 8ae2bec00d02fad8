package repo

import (
	"context"
	"errors"

	"github.com/dushixiang/stakemine/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

// ErrPriceConflict 并发重算竞争了同一标的的当前价格
var ErrPriceConflict = errors.New("share price was modified concurrently")

func NewShareRepo(db *gorm.DB) *ShareRepo {
	return &ShareRepo{
		Repository: orz.NewRepository[models.Share, string](db),
	}
}

type ShareRepo struct {
	orz.Repository[models.Share, string]
}

// FindBySymbol 根据标的代码查找
func (r ShareRepo) FindBySymbol(ctx context.Context, symbol string) (m models.Share, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("symbol = ?", symbol).
		First(&m).Error
	return m, err
}

// FindEnabled 获取所有参与自动重算的标的
func (r ShareRepo) FindEnabled(ctx context.Context) ([]models.Share, error) {
	var shares []models.Share
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("enabled = ?", true).
		Order("symbol ASC").
		Find(&shares).Error
	return shares, err
}

// CompareAndSwapPrice 带版本检查地写入新价格。
// 版本不匹配说明有并发写入者抢先提交，返回 ErrPriceConflict，由调用方重试或放弃。
func (r ShareRepo) CompareAndSwapPrice(ctx context.Context, id string, version int64, newPrice int64) error {
	db := r.GetDB(ctx)
	result := db.Table(r.GetTableName()).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"current_price": newPrice,
			"version":       version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPriceConflict
	}
	return nil
}
