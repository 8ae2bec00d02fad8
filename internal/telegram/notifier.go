package telegram

import (
	"fmt"

	"github.com/dushixiang/stakemine/internal/models"
	"go.uber.org/zap"
)

// PriceUpdateNotifier 返回一个价格更新监听器，重算提交后推送通知
func (r *Telegram) PriceUpdateNotifier() func(calculation models.PriceCalculation) {
	return func(calculation models.PriceCalculation) {
		msg := formatPriceUpdate(calculation)
		if err := r.Notify(msg); err != nil {
			r.logger.Error("failed to send price update notification",
				zap.String("symbol", calculation.Symbol),
				zap.Error(err))
		}
	}
}

func formatPriceUpdate(calculation models.PriceCalculation) string {
	direction := "➡️"
	if calculation.NewPrice > calculation.PreviousPrice {
		direction = "📈"
	} else if calculation.NewPrice < calculation.PreviousPrice {
		direction = "📉"
	}

	changePercent := 0.0
	if calculation.PreviousPrice > 0 {
		changePercent = float64(calculation.NewPrice-calculation.PreviousPrice) / float64(calculation.PreviousPrice) * 100
	}

	return fmt.Sprintf("%s *%s* 价格已更新\n%d → %d (%+.2f%%)\n方式: %s  操作者: %s",
		direction,
		calculation.Symbol,
		calculation.PreviousPrice,
		calculation.NewPrice,
		changePercent,
		calculation.Method,
		calculation.Actor,
	)
}
