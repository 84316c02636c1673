package strategies

import (
	"github.com/quantlearn/quantbot/indicator"
	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/service"
	"github.com/quantlearn/quantbot/tools/log"
)

// PriceMA 是价格与均线交叉策略：收盘价上穿均线买入，下穿卖出。
// 只用一条均线，是均线策略里最简单的形态。
type PriceMA struct {
	Period          int // 均线周期，默认 20
	MAType          indicator.MaType
	CandleTimeframe string
}

// NewPriceMA 以 20 日简单移动平均创建价格均线交叉策略。
func NewPriceMA() *PriceMA {
	return &PriceMA{
		Period:          20,
		MAType:          indicator.TypeSMA,
		CandleTimeframe: "1d",
	}
}

func (p PriceMA) Timeframe() string {
	return p.CandleTimeframe
}

func (p *PriceMA) SetTimeframe(timeframe string) {
	p.CandleTimeframe = timeframe
}

func (p PriceMA) WarmupPeriod() int {
	return p.Period + 1
}

func (p PriceMA) Indicators(df *model.Dataframe) {
	df.Metadata["ma"] = indicator.MA(df.Close, p.Period, p.MAType)
}

func (p *PriceMA) OnCandle(df *model.Dataframe, broker service.Broker) {
	assetPosition, quotePosition, err := broker.Position(df.Pair)
	if err != nil {
		log.Error(err)
		return
	}

	closePrice := df.Close.Last(0)

	if assetPosition*closePrice < minQuotePosition && quotePosition >= minQuotePosition &&
		df.Close.Crossover(df.Metadata["ma"]) {
		_, err := broker.CreateOrderMarketQuote(model.SideTypeBuy, df.Pair, quotePosition)
		if err != nil {
			log.Error(err)
		}
		return
	}

	if assetPosition > 0 &&
		df.Close.Crossunder(df.Metadata["ma"]) {
		_, err = broker.CreateOrderMarket(model.SideTypeSell, df.Pair, assetPosition)
		if err != nil {
			log.Error(err)
		}
	}
}
