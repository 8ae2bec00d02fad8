package xe

import "github.com/go-orz/orz"

var (
	ErrInvalidParams = orz.NewError(10400, "参数无效")
	ErrInvalidToken  = orz.NewError(10403, "令牌无效")

	ErrShareNotFound   = orz.NewError(10100, "标的不存在")
	ErrShareExists     = orz.NewError(10101, "标的已存在")
	ErrDegeneratePrice = orz.NewError(10102, "当前价格必须大于0，无法重算")
	ErrPricingDisabled = orz.NewError(10103, "自动重算未启用")
	ErrPriceConflict   = orz.NewError(10104, "价格已被其他操作修改，请重试")
)
