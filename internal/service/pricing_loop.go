package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dushixiang/stakemine/internal/xe"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PricingLoop 自动重算调度器。
// 按配置的周期整点触发，对每个启用的标的执行一次自动重算。
type PricingLoop struct {
	configService  *PricingConfigService
	pricingService *PricingService
	logger         *zap.Logger

	startTime time.Time
	iteration int
	isRunning bool
	stopChan  chan struct{}
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewPricingLoop 创建自动重算调度器
func NewPricingLoop(
	configService *PricingConfigService,
	pricingService *PricingService,
	logger *zap.Logger,
) *PricingLoop {
	return &PricingLoop{
		configService:  configService,
		pricingService: pricingService,
		logger:         logger,
		startTime:      time.Now(),
		stopChan:       make(chan struct{}),
	}
}

// Start 启动自动重算循环，阻塞直到 Stop 或 context 取消
func (t *PricingLoop) Start(ctx context.Context) error {
	if t.isRunning {
		return fmt.Errorf("pricing loop is already running")
	}

	config, err := t.configService.GetPricingConfig(ctx)
	if err != nil {
		return fmt.Errorf("load pricing config: %w", err)
	}

	t.isRunning = true
	t.startTime = time.Now()
	t.stopChan = make(chan struct{})
	t.ctx, t.cancel = context.WithCancel(ctx)

	// 生成 cron 表达式：每 N 分钟的整点执行
	cronExpr := fmt.Sprintf("*/%d * * * *", config.IntervalMinutes)

	t.logger.Info("pricing loop started",
		zap.Int("interval_minutes", config.IntervalMinutes),
		zap.Bool("enabled", config.Enabled),
		zap.String("cron_expression", cronExpr))

	t.cron = cron.New()

	_, err = t.cron.AddFunc(cronExpr, func() {
		if err := t.ExecuteCycle(context.Background()); err != nil && !errors.Is(err, xe.ErrPricingDisabled) {
			t.logger.Error("recalculation cycle failed", zap.Error(err))
		}
	})
	if err != nil {
		t.isRunning = false
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	t.cron.Start()

	// 立即执行第一轮
	go func() {
		if err := t.ExecuteCycle(context.Background()); err != nil && !errors.Is(err, xe.ErrPricingDisabled) {
			t.logger.Error("first recalculation cycle failed", zap.Error(err))
		}
	}()

	select {
	case <-t.stopChan:
		t.logger.Info("pricing loop stopped by user")
		return nil
	case <-t.ctx.Done():
		t.logger.Info("pricing loop stopped by context")
		return t.ctx.Err()
	}
}

// Stop 停止自动重算循环
func (t *PricingLoop) Stop() {
	if !t.isRunning {
		return
	}

	t.logger.Info("stopping pricing loop...")

	if t.cron != nil {
		ctx := t.cron.Stop()
		<-ctx.Done() // 等待进行中的周期结束
	}

	if t.cancel != nil {
		t.cancel()
	}

	t.isRunning = false
	close(t.stopChan)
	t.logger.Info("pricing loop stopped")
}

// ExecuteCycle 执行一轮自动重算
func (t *PricingLoop) ExecuteCycle(ctx context.Context) error {
	config, err := t.configService.GetPricingConfig(ctx)
	if err != nil {
		return fmt.Errorf("load pricing config: %w", err)
	}

	// 管理端关闭自动重算时周期空转
	if !config.Enabled {
		t.logger.Debug("automatic recalculation disabled, skipping cycle")
		return xe.ErrPricingDisabled
	}

	t.iteration++
	cycleStart := time.Now()

	shares, err := t.pricingService.GetEnabledShares(ctx)
	if err != nil {
		return fmt.Errorf("load enabled shares: %w", err)
	}

	t.logger.Info("recalculation cycle started",
		zap.Int("iteration", t.iteration),
		zap.Int("share_count", len(shares)))

	succeeded := 0
	for _, share := range shares {
		calculation, err := t.pricingService.AutoRecalculate(ctx, share)
		if err != nil {
			// 价格非法的标的跳过而不中断整轮
			if errors.Is(err, xe.ErrDegeneratePrice) {
				t.logger.Warn("share has non-positive price, skipped",
					zap.String("symbol", share.Symbol),
					zap.Int64("current_price", share.CurrentPrice))
				continue
			}
			t.logger.Error("failed to recalculate share",
				zap.String("symbol", share.Symbol),
				zap.Error(err))
			continue
		}
		succeeded++

		t.logger.Info("share recalculated",
			zap.String("symbol", share.Symbol),
			zap.Int64("previous_price", calculation.PreviousPrice),
			zap.Int64("new_price", calculation.NewPrice))
	}

	t.logger.Info("recalculation cycle finished",
		zap.Int("iteration", t.iteration),
		zap.Int("succeeded", succeeded),
		zap.Int("total", len(shares)),
		zap.Duration("duration", time.Since(cycleStart)))

	return nil
}

// IsRunning 检查是否正在运行
func (t *PricingLoop) IsRunning() bool {
	return t.isRunning
}

// GetStatus 获取状态信息
func (t *PricingLoop) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"is_running":    t.isRunning,
		"iteration":     t.iteration,
		"start_time":    t.startTime,
		"elapsed_hours": time.Since(t.startTime).Hours(),
	}
}
