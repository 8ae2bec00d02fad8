package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dushixiang/stakemine/internal/models"
	"github.com/dushixiang/stakemine/internal/repo"
	"github.com/dushixiang/stakemine/internal/xe"
	"github.com/dushixiang/stakemine/pkg/pricing"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 并发重算冲突时的重试次数
const recalculateRetries = 3

// AutoActor 自动重算记录的操作者标识
const AutoActor = "system"

// PriceUpdateListener 价格更新监听器，在重算提交后被调用
type PriceUpdateListener func(calculation models.PriceCalculation)

// RecalculateRequest 一次重算（或预览）的请求
type RecalculateRequest struct {
	Symbol       string   `json:"symbol" validate:"required"`
	MiningProfit float64  `json:"mining_profit"`
	DividendPaid float64  `json:"dividend_paid"`
	BuySellRatio *float64 `json:"buy_sell_ratio"` // 为空时由市场观测推导
}

// PricePreview 预览结果，未持久化
type PricePreview struct {
	Symbol        string         `json:"symbol"`
	PreviousPrice int64          `json:"previous_price"`
	NewPrice      int64          `json:"new_price"`
	Inputs        pricing.Inputs `json:"inputs"`
}

// PricingService 股价重算服务。
// 计算本身是 pkg/pricing 的纯函数，这里负责输入装配、校验、
// 带版本检查的提交以及历史追加。
type PricingService struct {
	logger *zap.Logger

	*orz.Service
	shareRepo    *repo.ShareRepo
	calcRepo     *repo.PriceCalculationRepo
	earningsRepo *repo.EarningsReportRepo

	configService *PricingConfigService
	marketService *MarketService

	listenerMutex sync.RWMutex
	listeners     []PriceUpdateListener
}

// NewPricingService 创建股价重算服务
func NewPricingService(
	db *gorm.DB,
	configService *PricingConfigService,
	marketService *MarketService,
	logger *zap.Logger,
) *PricingService {
	return &PricingService{
		logger:        logger,
		Service:       orz.NewService(db),
		shareRepo:     repo.NewShareRepo(db),
		calcRepo:      repo.NewPriceCalculationRepo(db),
		earningsRepo:  repo.NewEarningsReportRepo(db),
		configService: configService,
		marketService: marketService,
	}
}

// AddPriceUpdateListener 注册价格更新监听器。
// 显式的观察者注册表，监听器在提交成功后同步调用。
func (s *PricingService) AddPriceUpdateListener(listener PriceUpdateListener) {
	s.listenerMutex.Lock()
	defer s.listenerMutex.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *PricingService) notifyPriceUpdate(calculation models.PriceCalculation) {
	s.listenerMutex.RLock()
	listeners := make([]PriceUpdateListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerMutex.RUnlock()

	for _, listener := range listeners {
		listener(calculation)
	}
}

// assembleInputs 装配一次重算的输入因子并做退化检查
func (s *PricingService) assembleInputs(ctx context.Context, share models.Share, req RecalculateRequest) (pricing.Inputs, error) {
	if share.CurrentPrice <= 0 {
		return pricing.Inputs{}, xe.ErrDegeneratePrice
	}

	ratio := 1.0
	if req.BuySellRatio != nil {
		ratio = *req.BuySellRatio
		if ratio < 0 {
			return pricing.Inputs{}, xe.ErrInvalidParams
		}
	} else {
		derived, err := s.marketService.BuySellRatio(ctx, share.ID)
		if err != nil {
			return pricing.Inputs{}, err
		}
		ratio = derived
	}

	return pricing.Inputs{
		CurrentPrice: share.CurrentPrice,
		MiningProfit: req.MiningProfit,
		DividendPaid: req.DividendPaid,
		BuySellRatio: ratio,
	}, nil
}

// Preview 计算候选价格但不落库（Previewed 状态）
func (s *PricingService) Preview(ctx context.Context, req RecalculateRequest) (*PricePreview, error) {
	config, err := s.configService.GetPricingConfig(ctx)
	if err != nil {
		return nil, err
	}

	share, err := s.shareRepo.FindBySymbol(ctx, req.Symbol)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xe.ErrShareNotFound
		}
		return nil, err
	}

	inputs, err := s.assembleInputs(ctx, share, req)
	if err != nil {
		return nil, err
	}

	newPrice := pricing.ComputeNextPrice(config.Calculator(), inputs)
	return &PricePreview{
		Symbol:        share.Symbol,
		PreviousPrice: share.CurrentPrice,
		NewPrice:      newPrice,
		Inputs:        inputs,
	}, nil
}

// Recalculate 计算并提交新价格（Committed 状态）。
// 写入带版本检查，检测到并发写入者时重新读取当前价格并重试。
func (s *PricingService) Recalculate(ctx context.Context, req RecalculateRequest, actor, method string) (*models.PriceCalculation, error) {
	config, err := s.configService.GetPricingConfig(ctx)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < recalculateRetries; attempt++ {
		share, err := s.shareRepo.FindBySymbol(ctx, req.Symbol)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, xe.ErrShareNotFound
			}
			return nil, err
		}

		inputs, err := s.assembleInputs(ctx, share, req)
		if err != nil {
			return nil, err
		}

		newPrice := pricing.ComputeNextPrice(config.Calculator(), inputs)

		calculation := models.PriceCalculation{
			ID:            ulid.Make().String(),
			ShareID:       share.ID,
			Symbol:        share.Symbol,
			PreviousPrice: share.CurrentPrice,
			NewPrice:      newPrice,
			Method:        method,
			Inputs:        datatypes.NewJSONType(inputs),
			Actor:         actor,
			CalculatedAt:  time.Now(),
		}

		// 价格写入与历史追加在同一事务内提交
		err = s.Transaction(ctx, func(ctx context.Context) error {
			if err := s.shareRepo.CompareAndSwapPrice(ctx, share.ID, share.Version, newPrice); err != nil {
				return err
			}
			return s.calcRepo.Create(ctx, &calculation)
		})
		if err != nil {
			if errors.Is(err, repo.ErrPriceConflict) {
				lastErr = err
				s.logger.Warn("price recalculation raced, will retry",
					zap.String("symbol", share.Symbol),
					zap.Int("attempt", attempt+1))
				continue
			}
			return nil, err
		}

		s.logger.Info("share price recalculated",
			zap.String("symbol", share.Symbol),
			zap.String("method", method),
			zap.String("actor", actor),
			zap.Int64("previous_price", calculation.PreviousPrice),
			zap.Int64("new_price", calculation.NewPrice))

		s.notifyPriceUpdate(calculation)
		return &calculation, nil
	}

	s.logger.Error("price recalculation gave up after retries",
		zap.String("symbol", req.Symbol),
		zap.Int("retries", recalculateRetries),
		zap.Error(lastErr))
	return nil, xe.ErrPriceConflict
}

// AutoRecalculate 自动重算单个标的：消费最新未结算的收益上报，
// 买卖比由市场观测推导。没有上报时收益因子按零计入，仅市场压力生效。
// 价格提交与上报消费在同一事务内完成，保证一条上报至多生效一次。
func (s *PricingService) AutoRecalculate(ctx context.Context, share models.Share) (*models.PriceCalculation, error) {
	req := RecalculateRequest{Symbol: share.Symbol}

	report, err := s.earningsRepo.FindLatestUnapplied(ctx, share.ID)
	hasReport := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if hasReport {
		req.MiningProfit = report.MiningProfit
		req.DividendPaid = report.DividendPaid
	}

	var calculation *models.PriceCalculation
	err = s.Transaction(ctx, func(ctx context.Context) error {
		var err error
		calculation, err = s.Recalculate(ctx, req, AutoActor, models.CalculationMethodAuto)
		if err != nil {
			return err
		}
		if hasReport {
			return s.earningsRepo.MarkApplied(ctx, report.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return calculation, nil
}

// RegisterShare 注册标的并设定初始价格
func (s *PricingService) RegisterShare(ctx context.Context, symbol, name string, initialPrice int64) (*models.Share, error) {
	if initialPrice <= 0 {
		return nil, xe.ErrDegeneratePrice
	}

	if _, err := s.shareRepo.FindBySymbol(ctx, symbol); err == nil {
		return nil, xe.ErrShareExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	share := models.Share{
		ID:           ulid.Make().String(),
		Symbol:       symbol,
		Name:         name,
		CurrentPrice: initialPrice,
		Enabled:      true,
	}
	if err := s.shareRepo.Create(ctx, &share); err != nil {
		return nil, err
	}

	s.logger.Info("share registered",
		zap.String("symbol", symbol),
		zap.Int64("initial_price", initialPrice))

	return &share, nil
}

// GetShares 获取全部标的
func (s *PricingService) GetShares(ctx context.Context) ([]models.Share, error) {
	return s.shareRepo.FindAll(ctx)
}

// GetEnabledShares 获取参与自动重算的标的
func (s *PricingService) GetEnabledShares(ctx context.Context) ([]models.Share, error) {
	return s.shareRepo.FindEnabled(ctx)
}

// SubmitEarningsReport 提交周期收益上报
func (s *PricingService) SubmitEarningsReport(ctx context.Context, symbol string, miningProfit, dividendPaid float64, periodStart, periodEnd time.Time, actor string) (*models.EarningsReport, error) {
	share, err := s.shareRepo.FindBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xe.ErrShareNotFound
		}
		return nil, err
	}

	report := models.EarningsReport{
		ID:           ulid.Make().String(),
		ShareID:      share.ID,
		Symbol:       share.Symbol,
		MiningProfit: miningProfit,
		DividendPaid: dividendPaid,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Actor:        actor,
	}
	if err := s.earningsRepo.Create(ctx, &report); err != nil {
		return nil, err
	}

	return &report, nil
}

// GetRecentCalculations 获取最近的重算记录，symbol 为空时跨标的查询
func (s *PricingService) GetRecentCalculations(ctx context.Context, symbol string, limit int) ([]models.PriceCalculation, error) {
	if symbol == "" {
		return s.calcRepo.FindRecent(ctx, limit)
	}
	return s.calcRepo.FindRecentBySymbol(ctx, symbol, limit)
}

// GetPriceTrend 获取某标的全部重算记录（升序，用于趋势图）
func (s *PricingService) GetPriceTrend(ctx context.Context, symbol string) ([]models.PriceCalculation, error) {
	return s.calcRepo.FindAllBySymbolOrderByCalculatedAt(ctx, symbol)
}
