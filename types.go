package quantbot

import (
	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/strategy"
)

// 常用类型的别名，外部使用时不必逐个引用内部包。
type (
	Settings  = model.Settings
	Candle    = model.Candle
	Dataframe = model.Dataframe
	Series    = model.Series[float64]
	SideType  = model.SideType
	Trade     = model.Trade
	Strategy  = strategy.Strategy
)

var (
	SideTypeBuy  = model.SideTypeBuy
	SideTypeSell = model.SideTypeSell
)
