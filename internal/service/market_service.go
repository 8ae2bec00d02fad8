package service

import (
	"context"
	"errors"
	"time"

	"github.com/dushixiang/stakemine/internal/models"
	"github.com/dushixiang/stakemine/internal/repo"
	"github.com/dushixiang/stakemine/internal/xe"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// 推导买卖比时回看的观测时长
	defaultRatioLookback = 24 * time.Hour

	// 卖出量为零而买入量不为零时买卖比的封顶值
	maxBuySellRatio = 10.0
)

// MarketService 市场活跃度服务，负责买卖量观测与买卖比推导
type MarketService struct {
	logger     *zap.Logger
	volumeRepo *repo.VolumeWindowRepo
	shareRepo  *repo.ShareRepo
}

// NewMarketService 创建市场活跃度服务
func NewMarketService(logger *zap.Logger, db *gorm.DB) *MarketService {
	return &MarketService{
		logger:     logger,
		volumeRepo: repo.NewVolumeWindowRepo(db),
		shareRepo:  repo.NewShareRepo(db),
	}
}

// RecordVolumeWindow 记录一条买卖量观测窗口
func (s *MarketService) RecordVolumeWindow(ctx context.Context, symbol string, buyVolume, sellVolume decimal.Decimal, windowStart, windowEnd time.Time) (*models.VolumeWindow, error) {
	share, err := s.shareRepo.FindBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xe.ErrShareNotFound
		}
		return nil, err
	}

	window := models.VolumeWindow{
		ID:          ulid.Make().String(),
		ShareID:     share.ID,
		Symbol:      share.Symbol,
		BuyVolume:   buyVolume,
		SellVolume:  sellVolume,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}
	if err := s.volumeRepo.Create(ctx, &window); err != nil {
		return nil, err
	}

	s.logger.Debug("volume window recorded",
		zap.String("symbol", symbol),
		zap.String("buy_volume", buyVolume.String()),
		zap.String("sell_volume", sellVolume.String()))

	return &window, nil
}

// BuySellRatio 聚合最近观测窗口，推导某标的的买卖比
func (s *MarketService) BuySellRatio(ctx context.Context, shareID string) (float64, error) {
	since := time.Now().Add(-defaultRatioLookback)
	windows, err := s.volumeRepo.FindSince(ctx, shareID, since)
	if err != nil {
		return 0, err
	}

	totalBuy := decimal.Zero
	totalSell := decimal.Zero
	for _, window := range windows {
		totalBuy = totalBuy.Add(window.BuyVolume)
		totalSell = totalSell.Add(window.SellVolume)
	}

	return computeBuySellRatio(totalBuy, totalSell), nil
}

// computeBuySellRatio 计算买卖比。
// 无观测量时视为均衡（1.0）；卖出量为零时按 maxBuySellRatio 封顶，
// 避免把无穷大的市场压力喂给计算器。
func computeBuySellRatio(buy, sell decimal.Decimal) float64 {
	if buy.IsZero() && sell.IsZero() {
		return 1.0
	}
	if sell.IsZero() {
		return maxBuySellRatio
	}
	ratio, _ := buy.Div(sell).Float64()
	if ratio > maxBuySellRatio {
		return maxBuySellRatio
	}
	return ratio
}
