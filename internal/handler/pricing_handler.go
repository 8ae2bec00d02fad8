package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dushixiang/stakemine/internal/models"
	"github.com/dushixiang/stakemine/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// 历史查询默认条数
const defaultHistoryLimit = 10

// PricingHandler 定价系统HTTP处理器
type PricingHandler struct {
	logger         *zap.Logger
	pricingService *service.PricingService
	configService  *service.PricingConfigService
	marketService  *service.MarketService
	pricingLoop    *service.PricingLoop

	loopCtx    context.Context
	loopCancel context.CancelFunc
}

// NewPricingHandler 创建定价处理器
func NewPricingHandler(
	pricingService *service.PricingService,
	configService *service.PricingConfigService,
	marketService *service.MarketService,
	pricingLoop *service.PricingLoop,
	logger *zap.Logger,
) *PricingHandler {
	return &PricingHandler{
		logger:         logger,
		pricingService: pricingService,
		configService:  configService,
		marketService:  marketService,
		pricingLoop:    pricingLoop,
	}
}

// actor 从JWT中间件写入的上下文里取操作者标识
func actor(c echo.Context) string {
	if username, ok := c.Get("username").(string); ok && username != "" {
		return username
	}
	return "unknown"
}

// GetConfig 获取定价配置
// GET /api/pricing/config
func (h *PricingHandler) GetConfig(c echo.Context) error {
	ctx := c.Request().Context()

	config, err := h.configService.GetPricingConfig(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, config)
}

// SetConfig 更新定价配置
// PUT /api/pricing/config
func (h *PricingHandler) SetConfig(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		models.PricingConfig
		Remark string `json:"remark"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "请求参数错误",
		})
	}

	if err := h.configService.SetPricingConfig(ctx, req.PricingConfig, actor(c), req.Remark); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "配置已更新",
	})
}

// GetConfigRevisions 获取配置修订历史
// GET /api/pricing/config/revisions
func (h *PricingHandler) GetConfigRevisions(c echo.Context) error {
	ctx := c.Request().Context()

	revisions, err := h.configService.GetRevisions(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":     len(revisions),
		"revisions": revisions,
	})
}

// RollbackConfig 回滚到指定配置修订版本
// POST /api/pricing/config/rollback/:id
func (h *PricingHandler) RollbackConfig(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if err := h.configService.RollbackRevision(ctx, id, actor(c)); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "配置已回滚",
	})
}

// GetShares 获取标的列表
// GET /api/pricing/shares
func (h *PricingHandler) GetShares(c echo.Context) error {
	ctx := c.Request().Context()

	shares, err := h.pricingService.GetShares(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":  len(shares),
		"shares": shares,
	})
}

// RegisterShare 注册新标的
// POST /api/pricing/shares
func (h *PricingHandler) RegisterShare(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Symbol       string `json:"symbol" validate:"required"`
		Name         string `json:"name"`
		InitialPrice int64  `json:"initial_price" validate:"required,gt=0"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "请求参数错误",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "标的代码不能为空，初始价格必须大于0",
		})
	}

	share, err := h.pricingService.RegisterShare(ctx, req.Symbol, req.Name, req.InitialPrice)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, share)
}

// Preview 预览一次重算，不落库
// POST /api/pricing/preview
func (h *PricingHandler) Preview(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.RecalculateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "请求参数错误",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "标的代码不能为空",
		})
	}

	preview, err := h.pricingService.Preview(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, preview)
}

// Recalculate 执行一次手动重算并提交
// POST /api/pricing/recalculate
func (h *PricingHandler) Recalculate(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.RecalculateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "请求参数错误",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "标的代码不能为空",
		})
	}

	calculation, err := h.pricingService.Recalculate(ctx, req, actor(c), models.CalculationMethodManual)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, calculation)
}

// SubmitEarnings 提交周期收益上报
// POST /api/pricing/earnings
func (h *PricingHandler) SubmitEarnings(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Symbol       string    `json:"symbol" validate:"required"`
		MiningProfit float64   `json:"mining_profit"`
		DividendPaid float64   `json:"dividend_paid"`
		PeriodStart  time.Time `json:"period_start"`
		PeriodEnd    time.Time `json:"period_end"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "请求参数错误",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "标的代码不能为空",
		})
	}

	report, err := h.pricingService.SubmitEarningsReport(ctx, req.Symbol,
		req.MiningProfit, req.DividendPaid, req.PeriodStart, req.PeriodEnd, actor(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, report)
}

// RecordVolume 记录买卖量观测窗口
// POST /api/pricing/volume
func (h *PricingHandler) RecordVolume(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Symbol      string          `json:"symbol" validate:"required"`
		BuyVolume   decimal.Decimal `json:"buy_volume"`
		SellVolume  decimal.Decimal `json:"sell_volume"`
		WindowStart time.Time       `json:"window_start"`
		WindowEnd   time.Time       `json:"window_end"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "请求参数错误",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "标的代码不能为空",
		})
	}
	if req.BuyVolume.IsNegative() || req.SellVolume.IsNegative() {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "买卖量不能为负",
		})
	}

	window, err := h.marketService.RecordVolumeWindow(ctx, req.Symbol,
		req.BuyVolume, req.SellVolume, req.WindowStart, req.WindowEnd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, window)
}

// GetHistory 获取最近的重算记录
// GET /api/pricing/history?symbol=MINE&limit=10
func (h *PricingHandler) GetHistory(c echo.Context) error {
	ctx := c.Request().Context()

	symbol := c.QueryParam("symbol")
	limit := defaultHistoryLimit
	if l := c.QueryParam("limit"); l != "" {
		limit = cast.ToInt(l)
		if limit <= 0 {
			limit = defaultHistoryLimit
		}
	}

	calculations, err := h.pricingService.GetRecentCalculations(ctx, symbol, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":        len(calculations),
		"calculations": calculations,
	})
}

// GetTrend 获取某标的的价格趋势数据
// GET /api/pricing/trend?symbol=MINE
func (h *PricingHandler) GetTrend(c echo.Context) error {
	ctx := c.Request().Context()

	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "symbol is required",
		})
	}

	calculations, err := h.pricingService.GetPriceTrend(ctx, symbol)
	if err != nil {
		return err
	}

	// 转换为前端需要的格式
	data := make([]map[string]interface{}, 0, len(calculations))
	for _, calc := range calculations {
		data = append(data, map[string]interface{}{
			"timestamp":      calc.CalculatedAt.Unix(),
			"time":           calc.CalculatedAt,
			"previous_price": calc.PreviousPrice,
			"new_price":      calc.NewPrice,
			"method":         calc.Method,
			"actor":          calc.Actor,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(data),
		"data":  data,
	})
}

// GetLoopStatus 获取自动重算循环状态
// GET /api/pricing/loop/status
func (h *PricingHandler) GetLoopStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.pricingLoop.GetStatus())
}

// StartLoop 启动自动重算循环
// POST /api/pricing/loop/start
func (h *PricingHandler) StartLoop(c echo.Context) error {
	if h.pricingLoop.IsRunning() {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "pricing loop is already running",
		})
	}

	h.loopCtx, h.loopCancel = context.WithCancel(context.Background())

	go func() {
		if err := h.pricingLoop.Start(h.loopCtx); err != nil {
			h.logger.Error("pricing loop error", zap.Error(err))
		}
	}()

	h.logger.Info("pricing loop started via API")

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "pricing loop started",
	})
}

// StopLoop 停止自动重算循环
// POST /api/pricing/loop/stop
func (h *PricingHandler) StopLoop(c echo.Context) error {
	if !h.pricingLoop.IsRunning() {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "pricing loop is not running",
		})
	}

	h.pricingLoop.Stop()
	if h.loopCancel != nil {
		h.loopCancel()
	}

	h.logger.Info("pricing loop stopped via API")

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "pricing loop stopped",
	})
}

// RegisterRoutes 注册路由
func (h *PricingHandler) RegisterRoutes(g *echo.Group) {
	pricing := g.Group("/pricing")

	// 配置接口
	pricing.GET("/config", h.GetConfig)
	pricing.PUT("/config", h.SetConfig)
	pricing.GET("/config/revisions", h.GetConfigRevisions)
	pricing.POST("/config/rollback/:id", h.RollbackConfig)

	// 标的与输入
	pricing.GET("/shares", h.GetShares)
	pricing.POST("/shares", h.RegisterShare)
	pricing.POST("/earnings", h.SubmitEarnings)
	pricing.POST("/volume", h.RecordVolume)

	// 重算接口
	pricing.POST("/preview", h.Preview)
	pricing.POST("/recalculate", h.Recalculate)

	// 查询接口
	pricing.GET("/history", h.GetHistory)
	pricing.GET("/trend", h.GetTrend)

	// 控制接口
	pricing.GET("/loop/status", h.GetLoopStatus)
	pricing.POST("/loop/start", h.StartLoop)
	pricing.POST("/loop/stop", h.StopLoop)
}
