package repo

import (
	"context"

	"github.com/dushixiang/stakemine/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

type PricingConfigRepo struct {
	orz.Repository[models.PricingConfig, string]
}

func NewPricingConfigRepo(db *gorm.DB) *PricingConfigRepo {
	return &PricingConfigRepo{
		Repository: orz.NewRepository[models.PricingConfig, string](db),
	}
}

type PricingConfigRevisionRepo struct {
	orz.Repository[models.PricingConfigRevision, string]
}

func NewPricingConfigRevisionRepo(db *gorm.DB) *PricingConfigRevisionRepo {
	return &PricingConfigRevisionRepo{
		Repository: orz.NewRepository[models.PricingConfigRevision, string](db),
	}
}

// GetMaxVersion 获取当前最大修订版本号
func (r *PricingConfigRevisionRepo) GetMaxVersion(ctx context.Context) (int, error) {
	var maxVersion int
	err := r.GetDB(ctx).WithContext(ctx).
		Model(&models.PricingConfigRevision{}).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error
	if err != nil {
		return 0, err
	}
	return maxVersion, nil
}

// FindAllOrderByVersionDesc 获取全部修订记录（新的在前）
func (r *PricingConfigRevisionRepo) FindAllOrderByVersionDesc(ctx context.Context) ([]models.PricingConfigRevision, error) {
	var revisions []models.PricingConfigRevision
	err := r.GetDB(ctx).WithContext(ctx).
		Model(&models.PricingConfigRevision{}).
		Order("version DESC").
		Find(&revisions).Error
	return revisions, err
}
