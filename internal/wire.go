//go:build wireinject
// +build wireinject

package internal

import (
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dushixiang/stakemine/internal/config"
	"github.com/dushixiang/stakemine/internal/handler"
	"github.com/dushixiang/stakemine/internal/service"
)

var (
	handlerSet = wire.NewSet(
		handler.NewSetupHandler,
		handler.NewAuthHandler,
		handler.NewPricingHandler,
	)

	pricingSet = wire.NewSet(
		provideAuthService,
		service.NewPricingConfigService,
		service.NewMarketService,
		service.NewPricingService,
		service.NewPricingLoop,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		handlerSet,
		pricingSet,
		provideTelegram,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}
