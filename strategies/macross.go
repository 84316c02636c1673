package strategies

import (
	"github.com/quantlearn/quantbot/indicator"
	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/service"
	"github.com/quantlearn/quantbot/tools/log"
)

// CrossMA 是双均线交叉策略：快线上穿慢线（金叉）买入，
// 快线下穿慢线（死叉）卖出。MAType 可选 SMA/EMA/WMA。
type CrossMA struct {
	FastPeriod      int // 快线周期，默认 10
	SlowPeriod      int // 慢线周期，默认 30
	MAType          indicator.MaType
	CandleTimeframe string
}

// NewCrossMA 以 10/30 简单移动平均创建日线均线交叉策略。
func NewCrossMA() *CrossMA {
	return &CrossMA{
		FastPeriod:      10,
		SlowPeriod:      30,
		MAType:          indicator.TypeSMA,
		CandleTimeframe: "1d",
	}
}

func (c CrossMA) Timeframe() string {
	return c.CandleTimeframe
}

func (c *CrossMA) SetTimeframe(timeframe string) {
	c.CandleTimeframe = timeframe
}

func (c CrossMA) WarmupPeriod() int {
	return c.SlowPeriod + 1
}

func (c CrossMA) Indicators(df *model.Dataframe) {
	df.Metadata["ma_fast"] = indicator.MA(df.Close, c.FastPeriod, c.MAType)
	df.Metadata["ma_slow"] = indicator.MA(df.Close, c.SlowPeriod, c.MAType)
}

func (c *CrossMA) OnCandle(df *model.Dataframe, broker service.Broker) {
	assetPosition, quotePosition, err := broker.Position(df.Pair)
	if err != nil {
		log.Error(err)
		return
	}

	closePrice := df.Close.Last(0)

	if assetPosition*closePrice < minQuotePosition && quotePosition >= minQuotePosition &&
		df.Metadata["ma_fast"].Crossover(df.Metadata["ma_slow"]) {
		_, err := broker.CreateOrderMarketQuote(model.SideTypeBuy, df.Pair, quotePosition)
		if err != nil {
			log.Error(err)
		}
		return
	}

	if assetPosition > 0 &&
		df.Metadata["ma_fast"].Crossunder(df.Metadata["ma_slow"]) {
		_, err = broker.CreateOrderMarket(model.SideTypeSell, df.Pair, assetPosition)
		if err != nil {
			log.Error(err)
		}
	}
}
