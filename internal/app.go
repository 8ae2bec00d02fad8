package internal

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dushixiang/stakemine/internal/config"
	"github.com/dushixiang/stakemine/internal/handler"
	appmiddleware "github.com/dushixiang/stakemine/internal/middleware"
	"github.com/dushixiang/stakemine/internal/models"
	"github.com/dushixiang/stakemine/internal/service"
	"github.com/dushixiang/stakemine/internal/telegram"
	"github.com/dushixiang/stakemine/pkg/nostd"
	"github.com/dushixiang/stakemine/web"
	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewStakemineApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	return framework.Run()
}

func NewStakemineApp() orz.Application {
	return &StakemineApp{}
}

var _ orz.Application = (*StakemineApp)(nil)

type AppComponents struct {
	SetupHandler   *handler.SetupHandler
	AuthHandler    *handler.AuthHandler
	PricingHandler *handler.PricingHandler

	AuthService    *service.AuthService
	ConfigService  *service.PricingConfigService
	MarketService  *service.MarketService
	PricingService *service.PricingService
	PricingLoop    *service.PricingLoop

	tg *telegram.Telegram
}

type StakemineApp struct {
	components *AppComponents
	conf       *config.Config
}

// GetComponents 获取应用组件
func (r *StakemineApp) GetComponents() *AppComponents {
	return r.components
}

func (r *StakemineApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf

	if err := db.AutoMigrate(
		models.AdminUser{},
		models.Share{}, models.PricingConfig{}, models.PricingConfigRevision{},
		models.PriceCalculation{}, models.EarningsReport{}, models.VolumeWindow{},
	); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	if err := r.Init(logger); err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true

	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().RequestURI
			if strings.HasPrefix(path, "/api") {
				return true
			}
			return false
		},
		Root:       "",
		Index:      "index.html",
		HTML5:      true,
		Browse:     false,
		IgnoreBase: false,
		Filesystem: http.FS(web.Assets()),
	}))

	api := e.Group("/api")
	{
		// 公开接口
		r.components.SetupHandler.RegisterRoutes(api)
		r.components.AuthHandler.RegisterRoutes(api)

		// 需要认证的接口
		jwtAuth := appmiddleware.JWTAuth(appmiddleware.JWTAuthConfig{
			AuthService: r.components.AuthService,
			Logger:      logger,
		})
		protected := api.Group("", jwtAuth)
		r.components.AuthHandler.RegisterProtectedRoutes(protected.Group("/auth"))
		r.components.PricingHandler.RegisterRoutes(protected)
	}

	return nil
}

func (r *StakemineApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("Stakemine Share Pricing System Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	ctx := context.Background()

	// 初始化默认定价配置
	components.ConfigService.Initialize(ctx)

	// 配置服务持有循环引用，周期变更后重启循环
	components.ConfigService.SetPricingLoop(components.PricingLoop)

	// 价格更新通知
	if components.tg != nil {
		components.PricingService.AddPriceUpdateListener(components.tg.PriceUpdateNotifier())
		components.tg.Start()
		logger.Info("telegram price update notifier registered")
	}

	if r.conf.Pricing.AutoStart {
		logger.Info("pricing loop auto start enabled, starting...")
		go func() {
			if err := components.PricingLoop.Start(context.Background()); err != nil {
				logger.Error("pricing loop error", zap.Error(err))
			}
		}()
	}

	return nil
}
