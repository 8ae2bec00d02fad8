package repo

import (
	"context"
	"time"

	"github.com/dushixiang/stakemine/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewEarningsReportRepo(db *gorm.DB) *EarningsReportRepo {
	return &EarningsReportRepo{
		Repository: orz.NewRepository[models.EarningsReport, string](db),
	}
}

type EarningsReportRepo struct {
	orz.Repository[models.EarningsReport, string]
}

// FindLatestUnapplied 获取某标的最新一条未被重算消费的收益上报
func (r EarningsReportRepo) FindLatestUnapplied(ctx context.Context, shareID string) (m models.EarningsReport, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("share_id = ? AND applied = ?", shareID, false).
		Order("period_end DESC").
		First(&m).Error
	return m, err
}

// MarkApplied 标记收益上报已被消费
func (r EarningsReportRepo) MarkApplied(ctx context.Context, id string) error {
	now := time.Now()
	return r.GetDB(ctx).WithContext(ctx).
		Model(&models.EarningsReport{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"applied":    true,
			"applied_at": now,
		}).Error
}
