package service

import (
	"context"
	"testing"
	"time"

	"github.com/dushixiang/stakemine/internal/xe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExecuteCycle_DisabledReportsSentinel(t *testing.T) {
	_, configService, _, pricingService := newPricingTestEnv(t)

	// 默认配置未启用自动重算
	loop := NewPricingLoop(configService, pricingService, zap.NewNop())
	err := loop.ExecuteCycle(context.Background())
	assert.ErrorIs(t, err, xe.ErrPricingDisabled)
}

func TestExecuteCycle_RecalculatesEnabledShares(t *testing.T) {
	_, configService, _, pricingService := newPricingTestEnv(t)
	ctx := context.Background()

	config := validConfig()
	require.NoError(t, configService.SetPricingConfig(ctx, config, "admin", ""))
	_, err := pricingService.RegisterShare(ctx, "MINE", "矿业股份", 20000)
	require.NoError(t, err)

	loop := NewPricingLoop(configService, pricingService, zap.NewNop())
	require.NoError(t, loop.ExecuteCycle(ctx))

	history, err := pricingService.GetRecentCalculations(ctx, "MINE", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, AutoActor, history[0].Actor)
}

func TestStart_RunsFirstCycleImmediately(t *testing.T) {
	_, configService, _, pricingService := newPricingTestEnv(t)
	ctx := context.Background()

	config := validConfig()
	config.IntervalMinutes = 60
	require.NoError(t, configService.SetPricingConfig(ctx, config, "admin", ""))
	_, err := pricingService.RegisterShare(ctx, "MINE", "矿业股份", 20000)
	require.NoError(t, err)

	loop := NewPricingLoop(configService, pricingService, zap.NewNop())
	loopCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = loop.Start(loopCtx)
	}()

	// 周期为 60 分钟，测试窗口内 cron 不会触发，历史记录只能来自启动时的首轮
	assert.Eventually(t, func() bool {
		history, err := pricingService.GetRecentCalculations(ctx, "MINE", 1)
		return err == nil && len(history) == 1
	}, 3*time.Second, 50*time.Millisecond)
}
