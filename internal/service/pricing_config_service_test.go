package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/dushixiang/stakemine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func validConfig() models.PricingConfig {
	return models.PricingConfig{
		Enabled:              true,
		IntervalMinutes:      60,
		MiningProfitWeight:   1.0,
		DividendWeight:       1.0,
		MarketActivityWeight: 0.02,
		MaxIncreasePercent:   10,
		MaxDecreasePercent:   10,
		MinimumPriceFloor:    20000,
	}
}

func TestValidatePricingConfig_Valid(t *testing.T) {
	assert.NoError(t, ValidatePricingConfig(validConfig()))
}

func TestValidatePricingConfig_ClampOutOfRange(t *testing.T) {
	config := validConfig()
	config.MaxIncreasePercent = 101
	assert.Error(t, ValidatePricingConfig(config))

	config = validConfig()
	config.MaxDecreasePercent = -1
	assert.Error(t, ValidatePricingConfig(config))
}

func TestValidatePricingConfig_NegativeFloor(t *testing.T) {
	config := validConfig()
	config.MinimumPriceFloor = -1
	assert.Error(t, ValidatePricingConfig(config))
}

func TestValidatePricingConfig_NegativeWeight(t *testing.T) {
	config := validConfig()
	config.MiningProfitWeight = -0.5
	assert.Error(t, ValidatePricingConfig(config))

	config = validConfig()
	config.DividendWeight = -1
	assert.Error(t, ValidatePricingConfig(config))

	config = validConfig()
	config.MarketActivityWeight = -0.01
	assert.Error(t, ValidatePricingConfig(config))
}

func TestValidatePricingConfig_NonFiniteWeight(t *testing.T) {
	config := validConfig()
	config.MiningProfitWeight = math.NaN()
	assert.Error(t, ValidatePricingConfig(config))

	config = validConfig()
	config.DividendWeight = math.Inf(1)
	assert.Error(t, ValidatePricingConfig(config))
}

func TestValidatePricingConfig_NonPositiveInterval(t *testing.T) {
	config := validConfig()
	config.IntervalMinutes = 0
	assert.Error(t, ValidatePricingConfig(config))
}

func TestSetPricingConfig_AppendsRevision(t *testing.T) {
	_, configService, _, _ := newPricingTestEnv(t)
	ctx := context.Background()

	config := validConfig()
	config.MiningProfitWeight = 2.0
	require.NoError(t, configService.SetPricingConfig(ctx, config, "admin", "调整权重"))

	saved, err := configService.GetPricingConfig(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2.0, saved.MiningProfitWeight)

	revisions, err := configService.GetRevisions(ctx)
	require.NoError(t, err)
	require.Len(t, revisions, 1)
	assert.Equal(t, 1, revisions[0].Version)
	assert.Equal(t, "admin", revisions[0].Actor)
	assert.Equal(t, "调整权重", revisions[0].Remark)
}

func TestSetPricingConfig_RollsBackWhenRevisionInsertFails(t *testing.T) {
	db, configService, _, _ := newPricingTestEnv(t)
	ctx := context.Background()

	base := validConfig()
	base.MiningProfitWeight = 2.0
	require.NoError(t, configService.SetPricingConfig(ctx, base, "admin", ""))

	// 修订记录写入失败时配置更新必须一并回滚
	err := db.Callback().Create().Before("gorm:create").Register("fail_revision_insert", func(tx *gorm.DB) {
		if tx.Statement.Table == "pricing_config_revisions" {
			tx.AddError(errors.New("revision insert failed"))
		}
	})
	require.NoError(t, err)

	next := validConfig()
	next.MiningProfitWeight = 5.0
	require.Error(t, configService.SetPricingConfig(ctx, next, "admin", ""))

	saved, err := configService.GetPricingConfig(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2.0, saved.MiningProfitWeight)

	revisions, err := configService.GetRevisions(ctx)
	require.NoError(t, err)
	assert.Len(t, revisions, 1)
}

func TestRollbackRevision_RestoresConfigAndAppendsRevision(t *testing.T) {
	_, configService, _, _ := newPricingTestEnv(t)
	ctx := context.Background()

	first := validConfig()
	first.MiningProfitWeight = 2.0
	require.NoError(t, configService.SetPricingConfig(ctx, first, "admin", ""))

	second := validConfig()
	second.MiningProfitWeight = 3.0
	require.NoError(t, configService.SetPricingConfig(ctx, second, "admin", ""))

	revisions, err := configService.GetRevisions(ctx)
	require.NoError(t, err)
	require.Len(t, revisions, 2)

	// 回滚到第一个版本，生成第三条修订而不是回退计数器
	target := revisions[1]
	require.NoError(t, configService.RollbackRevision(ctx, target.ID, "admin"))

	saved, err := configService.GetPricingConfig(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2.0, saved.MiningProfitWeight)

	revisions, err = configService.GetRevisions(ctx)
	require.NoError(t, err)
	require.Len(t, revisions, 3)
	assert.Equal(t, 3, revisions[0].Version)
}
