package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dushixiang/stakemine/internal/models"
	"github.com/dushixiang/stakemine/internal/repo"
	"github.com/dushixiang/stakemine/internal/xe"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newPricingTestEnv 构建基于内存 sqlite 的服务环境
func newPricingTestEnv(t *testing.T) (*gorm.DB, *PricingConfigService, *MarketService, *PricingService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// 内存库每个连接各自独立，必须限制为单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		models.Share{}, models.PricingConfig{}, models.PricingConfigRevision{},
		models.PriceCalculation{}, models.EarningsReport{}, models.VolumeWindow{},
	))

	logger := zap.NewNop()
	configService := NewPricingConfigService(logger, db)
	configService.Initialize(context.Background())
	marketService := NewMarketService(logger, db)
	pricingService := NewPricingService(db, configService, marketService, logger)
	return db, configService, marketService, pricingService
}

// raceShareVersion 在 shares 表更新执行前抬高版本号，模拟抢先提交的并发写入者
func raceShareVersion(t *testing.T, db *gorm.DB, shareID string, times int) {
	t.Helper()

	raced := 0
	err := db.Callback().Update().Before("gorm:update").Register("race_share_version", func(tx *gorm.DB) {
		if tx.Statement.Table != "shares" || raced >= times {
			return
		}
		raced++
		tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE shares SET version = version + 1 WHERE id = ?", shareID)
	})
	require.NoError(t, err)
}

func TestShareRepo_CompareAndSwapPrice(t *testing.T) {
	db, _, _, pricingService := newPricingTestEnv(t)
	ctx := context.Background()

	share, err := pricingService.RegisterShare(ctx, "MINE", "矿业股份", 20000)
	require.NoError(t, err)

	shareRepo := repo.NewShareRepo(db)

	// 版本过期的写入被拒绝
	err = shareRepo.CompareAndSwapPrice(ctx, share.ID, share.Version+1, 21000)
	assert.ErrorIs(t, err, repo.ErrPriceConflict)

	// 版本匹配的写入生效并递增版本号
	require.NoError(t, shareRepo.CompareAndSwapPrice(ctx, share.ID, share.Version, 21000))
	updated, err := shareRepo.FindById(ctx, share.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 21000, updated.CurrentPrice)
	assert.EqualValues(t, share.Version+1, updated.Version)
}

func TestRecalculate_CommitsPriceAndHistory(t *testing.T) {
	db, _, _, pricingService := newPricingTestEnv(t)
	ctx := context.Background()

	_, err := pricingService.RegisterShare(ctx, "MINE", "矿业股份", 20000)
	require.NoError(t, err)

	calculation, err := pricingService.Recalculate(ctx, RecalculateRequest{
		Symbol:       "MINE",
		MiningProfit: 1000,
	}, "admin", models.CalculationMethodManual)
	require.NoError(t, err)
	assert.EqualValues(t, 20000, calculation.PreviousPrice)
	assert.EqualValues(t, 21000, calculation.NewPrice)

	share, err := repo.NewShareRepo(db).FindBySymbol(ctx, "MINE")
	require.NoError(t, err)
	assert.EqualValues(t, 21000, share.CurrentPrice)
	assert.EqualValues(t, 1, share.Version)

	history, err := pricingService.GetRecentCalculations(ctx, "MINE", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.CalculationMethodManual, history[0].Method)
	assert.Equal(t, "admin", history[0].Actor)
}

func TestRecalculate_RetriesAfterConflict(t *testing.T) {
	db, _, _, pricingService := newPricingTestEnv(t)
	ctx := context.Background()

	share, err := pricingService.RegisterShare(ctx, "MINE", "矿业股份", 20000)
	require.NoError(t, err)

	// 第一次尝试被并发写入者抢先，第二次成功
	raceShareVersion(t, db, share.ID, 1)

	calculation, err := pricingService.Recalculate(ctx, RecalculateRequest{
		Symbol:       "MINE",
		MiningProfit: 1000,
	}, "admin", models.CalculationMethodManual)
	require.NoError(t, err)
	assert.EqualValues(t, 21000, calculation.NewPrice)

	// 冲突的那次尝试不留下历史
	history, err := pricingService.GetRecentCalculations(ctx, "MINE", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRecalculate_ConflictExhaustionLeavesPriceUntouched(t *testing.T) {
	db, _, _, pricingService := newPricingTestEnv(t)
	ctx := context.Background()

	share, err := pricingService.RegisterShare(ctx, "MINE", "矿业股份", 20000)
	require.NoError(t, err)

	// 每次尝试都被抢先
	raceShareVersion(t, db, share.ID, recalculateRetries)

	_, err = pricingService.Recalculate(ctx, RecalculateRequest{
		Symbol:       "MINE",
		MiningProfit: 1000,
	}, "admin", models.CalculationMethodManual)
	assert.ErrorIs(t, err, xe.ErrPriceConflict)

	unchanged, err := repo.NewShareRepo(db).FindBySymbol(ctx, "MINE")
	require.NoError(t, err)
	assert.EqualValues(t, 20000, unchanged.CurrentPrice)
	assert.EqualValues(t, 0, unchanged.Version)

	history, err := pricingService.GetRecentCalculations(ctx, "MINE", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAutoRecalculate_ConsumesReportOnce(t *testing.T) {
	db, _, _, pricingService := newPricingTestEnv(t)
	ctx := context.Background()

	share, err := pricingService.RegisterShare(ctx, "MINE", "矿业股份", 20000)
	require.NoError(t, err)

	periodEnd := time.Now()
	_, err = pricingService.SubmitEarningsReport(ctx, "MINE", 1000, 500,
		periodEnd.Add(-24*time.Hour), periodEnd, "admin")
	require.NoError(t, err)

	first, err := pricingService.AutoRecalculate(ctx, *share)
	require.NoError(t, err)
	assert.EqualValues(t, 21500, first.NewPrice)
	assert.Equal(t, AutoActor, first.Actor)

	// 上报已被消费
	_, err = repo.NewEarningsReportRepo(db).FindLatestUnapplied(ctx, share.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// 第二轮没有未消费上报，收益因子按零计入，价格保持不变
	current, err := repo.NewShareRepo(db).FindBySymbol(ctx, "MINE")
	require.NoError(t, err)
	second, err := pricingService.AutoRecalculate(ctx, current)
	require.NoError(t, err)
	assert.EqualValues(t, 21500, second.NewPrice)
}

func TestAutoRecalculate_FailedConsumeRollsBackPrice(t *testing.T) {
	db, _, _, pricingService := newPricingTestEnv(t)
	ctx := context.Background()

	share, err := pricingService.RegisterShare(ctx, "MINE", "矿业股份", 20000)
	require.NoError(t, err)

	periodEnd := time.Now()
	_, err = pricingService.SubmitEarningsReport(ctx, "MINE", 1000, 500,
		periodEnd.Add(-24*time.Hour), periodEnd, "admin")
	require.NoError(t, err)

	// 上报消费失败时整个重算回滚
	err = db.Callback().Update().Before("gorm:update").Register("fail_mark_applied", func(tx *gorm.DB) {
		if tx.Statement.Table == "earnings_reports" {
			tx.AddError(errors.New("mark applied failed"))
		}
	})
	require.NoError(t, err)

	_, err = pricingService.AutoRecalculate(ctx, *share)
	require.Error(t, err)

	unchanged, err := repo.NewShareRepo(db).FindBySymbol(ctx, "MINE")
	require.NoError(t, err)
	assert.EqualValues(t, 20000, unchanged.CurrentPrice)
	assert.EqualValues(t, 0, unchanged.Version)

	history, err := pricingService.GetRecentCalculations(ctx, "MINE", 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	report, err := repo.NewEarningsReportRepo(db).FindLatestUnapplied(ctx, share.ID)
	require.NoError(t, err)
	assert.False(t, report.Applied)
}
