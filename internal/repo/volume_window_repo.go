package repo

import (
	"context"
	"time"

	"github.com/dushixiang/stakemine/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewVolumeWindowRepo(db *gorm.DB) *VolumeWindowRepo {
	return &VolumeWindowRepo{
		Repository: orz.NewRepository[models.VolumeWindow, string](db),
	}
}

type VolumeWindowRepo struct {
	orz.Repository[models.VolumeWindow, string]
}

// FindSince 获取某标的在 since 之后结束的观测窗口
func (r VolumeWindowRepo) FindSince(ctx context.Context, shareID string, since time.Time) ([]models.VolumeWindow, error) {
	var windows []models.VolumeWindow
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("share_id = ? AND window_end >= ?", shareID, since).
		Order("window_end ASC").
		Find(&windows).Error
	return windows, err
}
