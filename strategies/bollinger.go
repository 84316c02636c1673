package strategies

import (
	"github.com/quantlearn/quantbot/indicator"
	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/service"
	"github.com/quantlearn/quantbot/tools/log"
)

// Bollinger 是布林带均值回归策略：价格触及下轨（超卖）买入，
// 触及上轨卖出；价格回到中轨上方且位于带宽高位（%B ≥ 0.8）时也平仓，
// 避免错过回归后再度下跌。
type Bollinger struct {
	Period          int     // 布林带周期，默认 20
	Deviation       float64 // 标准差倍数，默认 2.0
	CandleTimeframe string
}

// NewBollinger 以经典参数 20/2.0 创建日线布林带策略。
func NewBollinger() *Bollinger {
	return &Bollinger{
		Period:          20,
		Deviation:       2.0,
		CandleTimeframe: "1d",
	}
}

func (b Bollinger) Timeframe() string {
	return b.CandleTimeframe
}

func (b *Bollinger) SetTimeframe(timeframe string) {
	b.CandleTimeframe = timeframe
}

func (b Bollinger) WarmupPeriod() int {
	return b.Period + 1
}

func (b Bollinger) Indicators(df *model.Dataframe) {
	upper, mid, lower := indicator.BB(df.Close, b.Period, b.Deviation, indicator.TypeSMA)
	df.Metadata["bb_upper"] = upper
	df.Metadata["bb_mid"] = mid
	df.Metadata["bb_lower"] = lower
}

func (b *Bollinger) OnCandle(df *model.Dataframe, broker service.Broker) {
	closePrice := df.Close.Last(0)
	upper := df.Metadata["bb_upper"].Last(0)
	mid := df.Metadata["bb_mid"].Last(0)
	lower := df.Metadata["bb_lower"].Last(0)

	assetPosition, quotePosition, err := broker.Position(df.Pair)
	if err != nil {
		log.Error(err)
		return
	}

	if assetPosition*closePrice < minQuotePosition && quotePosition >= minQuotePosition &&
		closePrice <= lower {
		_, err := broker.CreateOrderMarketQuote(model.SideTypeBuy, df.Pair, quotePosition)
		if err != nil {
			log.Error(err)
		}
		return
	}

	if assetPosition <= 0 {
		return
	}

	// %B：收盘价在带内的相对位置，下轨为 0，上轨为 1
	var pctB float64
	if upper > lower {
		pctB = (closePrice - lower) / (upper - lower)
	}

	if closePrice >= upper || (closePrice >= mid && pctB >= 0.8) {
		_, err = broker.CreateOrderMarket(model.SideTypeSell, df.Pair, assetPosition)
		if err != nil {
			log.Error(err)
		}
	}
}
