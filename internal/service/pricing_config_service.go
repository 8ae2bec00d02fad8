package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dushixiang/stakemine/internal/models"
	"github.com/dushixiang/stakemine/internal/repo"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultPricingConfig 默认定价配置，首次启动时写入
var DefaultPricingConfig = models.PricingConfig{
	ID:                   "00000000-0000-0000-0000-000000000000",
	Enabled:              false,
	IntervalMinutes:      60,
	MiningProfitWeight:   1.0,
	DividendWeight:       1.0,
	MarketActivityWeight: 0.02,
	MaxIncreasePercent:   10,
	MaxDecreasePercent:   10,
	MinimumPriceFloor:    0,
}

// PricingConfigService 定价配置服务
type PricingConfigService struct {
	logger *zap.Logger

	*orz.Service
	configRepo   *repo.PricingConfigRepo
	revisionRepo *repo.PricingConfigRevisionRepo
	pricingLoop  *PricingLoop
}

// NewPricingConfigService 创建定价配置服务
func NewPricingConfigService(logger *zap.Logger, db *gorm.DB) *PricingConfigService {
	return &PricingConfigService{
		logger:       logger,
		Service:      orz.NewService(db),
		configRepo:   repo.NewPricingConfigRepo(db),
		revisionRepo: repo.NewPricingConfigRevisionRepo(db),
	}
}

// SetPricingLoop 设置重算循环引用（配置更新后用于重启）
func (s *PricingConfigService) SetPricingLoop(pricingLoop *PricingLoop) {
	s.pricingLoop = pricingLoop
}

// Initialize 确保存在默认配置
func (s *PricingConfigService) Initialize(ctx context.Context) {
	count, err := s.configRepo.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count pricing config", zap.Error(err))
		return
	}

	if count == 0 {
		pricingConfig := DefaultPricingConfig
		if err := s.configRepo.Create(ctx, &pricingConfig); err != nil {
			s.logger.Error("failed to create default pricing config", zap.Error(err))
			return
		}
		s.logger.Info("default pricing config initialized")
	}
}

// GetPricingConfig 获取定价配置（单行）
func (s *PricingConfigService) GetPricingConfig(ctx context.Context) (*models.PricingConfig, error) {
	configs, err := s.configRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		pricingConfig := DefaultPricingConfig
		if err := s.configRepo.Create(ctx, &pricingConfig); err != nil {
			return nil, err
		}
		return &pricingConfig, nil
	}
	return &configs[0], nil
}

// ValidatePricingConfig 配置保存前的校验。
// 限幅百分比必须在 [0,100]，价格下限不能为负，权重必须是非负有限数。
func ValidatePricingConfig(config models.PricingConfig) error {
	if config.MaxIncreasePercent < 0 || config.MaxIncreasePercent > 100 {
		return fmt.Errorf("max_increase_percent must be within [0,100], got %v", config.MaxIncreasePercent)
	}
	if config.MaxDecreasePercent < 0 || config.MaxDecreasePercent > 100 {
		return fmt.Errorf("max_decrease_percent must be within [0,100], got %v", config.MaxDecreasePercent)
	}
	if config.MinimumPriceFloor < 0 {
		return fmt.Errorf("minimum_price_floor must not be negative, got %v", config.MinimumPriceFloor)
	}
	weights := map[string]float64{
		"mining_profit_weight":   config.MiningProfitWeight,
		"dividend_weight":        config.DividendWeight,
		"market_activity_weight": config.MarketActivityWeight,
	}
	for name, weight := range weights {
		if math.IsNaN(weight) || math.IsInf(weight, 0) {
			return fmt.Errorf("%s must be a finite number", name)
		}
		if weight < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, weight)
		}
	}
	if config.IntervalMinutes <= 0 {
		return fmt.Errorf("interval_minutes must be positive, got %v", config.IntervalMinutes)
	}
	return nil
}

// SetPricingConfig 更新定价配置并追加修订记录
func (s *PricingConfigService) SetPricingConfig(ctx context.Context, newConfig models.PricingConfig, actor, remark string) error {
	if err := ValidatePricingConfig(newConfig); err != nil {
		return err
	}

	config, err := s.GetPricingConfig(ctx)
	if err != nil {
		return err
	}

	// 检查重算周期是否发生变化
	oldInterval := config.IntervalMinutes
	intervalChanged := oldInterval != newConfig.IntervalMinutes

	config.Enabled = newConfig.Enabled
	config.IntervalMinutes = newConfig.IntervalMinutes
	config.MiningProfitWeight = newConfig.MiningProfitWeight
	config.DividendWeight = newConfig.DividendWeight
	config.MarketActivityWeight = newConfig.MarketActivityWeight
	config.MaxIncreasePercent = newConfig.MaxIncreasePercent
	config.MaxDecreasePercent = newConfig.MaxDecreasePercent
	config.MinimumPriceFloor = newConfig.MinimumPriceFloor
	config.UpdatedAt = time.Now()

	maxVersion, err := s.revisionRepo.GetMaxVersion(ctx)
	if err != nil {
		return err
	}

	revision := models.PricingConfigRevision{
		ID:                   ulid.Make().String(),
		Version:              maxVersion + 1,
		Enabled:              config.Enabled,
		IntervalMinutes:      config.IntervalMinutes,
		MiningProfitWeight:   config.MiningProfitWeight,
		DividendWeight:       config.DividendWeight,
		MarketActivityWeight: config.MarketActivityWeight,
		MaxIncreasePercent:   config.MaxIncreasePercent,
		MaxDecreasePercent:   config.MaxDecreasePercent,
		MinimumPriceFloor:    config.MinimumPriceFloor,
		Actor:                actor,
		Remark:               remark,
	}

	// 配置更新与修订记录在同一事务内提交
	err = s.Transaction(ctx, func(ctx context.Context) error {
		if err := s.configRepo.UpdateById(ctx, config); err != nil {
			return err
		}
		return s.revisionRepo.Create(ctx, &revision)
	})
	if err != nil {
		return err
	}

	s.logger.Info("pricing config updated",
		zap.String("actor", actor),
		zap.Int("revision", revision.Version))

	// 重算周期变化且循环正在运行时重启循环
	if intervalChanged && s.pricingLoop != nil && s.pricingLoop.IsRunning() {
		s.logger.Info("recalculation interval changed, restarting pricing loop...",
			zap.Int("old_interval", oldInterval),
			zap.Int("new_interval", newConfig.IntervalMinutes))

		s.pricingLoop.Stop()

		go func() {
			if err := s.pricingLoop.Start(context.Background()); err != nil {
				s.logger.Error("failed to restart pricing loop", zap.Error(err))
			}
		}()
	}

	return nil
}

// GetRevisions 获取配置修订历史（新的在前）
func (s *PricingConfigService) GetRevisions(ctx context.Context) ([]models.PricingConfigRevision, error) {
	return s.revisionRepo.FindAllOrderByVersionDesc(ctx)
}

// RollbackRevision 回滚到指定修订版本，回滚本身也会生成一条新修订
func (s *PricingConfigService) RollbackRevision(ctx context.Context, id string, actor string) error {
	revision, err := s.revisionRepo.FindById(ctx, id)
	if err != nil {
		return err
	}

	restored := models.PricingConfig{
		Enabled:              revision.Enabled,
		IntervalMinutes:      revision.IntervalMinutes,
		MiningProfitWeight:   revision.MiningProfitWeight,
		DividendWeight:       revision.DividendWeight,
		MarketActivityWeight: revision.MarketActivityWeight,
		MaxIncreasePercent:   revision.MaxIncreasePercent,
		MaxDecreasePercent:   revision.MaxDecreasePercent,
		MinimumPriceFloor:    revision.MinimumPriceFloor,
	}

	remark := fmt.Sprintf("rollback to revision %d", revision.Version)
	return s.SetPricingConfig(ctx, restored, actor, remark)
}
