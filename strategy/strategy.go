// Package strategy 定义交易策略接口及驱动策略运行的控制器。
package strategy

import (
	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/service"
)

// Strategy 接口定义了一个交易策略需要实现的基本方法。
type Strategy interface {
	// Timeframe 返回策略运行的K线周期，如 "1h"、"1d"。
	Timeframe() string
	// WarmupPeriod 返回指标计算所需的预热K线数量（以 Timeframe 为单位）。
	// 例如 RSI(14) 至少需要 15 根K线才能得到第一个有效值，预热期内不产生信号。
	WarmupPeriod() int
	// Indicators 在每根新K线到来时调用，负责把指标序列写入 df.Metadata，
	// 如 df.Metadata["rsi"]。
	Indicators(df *model.Dataframe)
	// OnCandle 在K线收盘、指标填充完毕后调用，在这里实现买卖逻辑。
	OnCandle(df *model.Dataframe, broker service.Broker)
}
