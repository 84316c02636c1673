package strategies

import (
	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/service"
	"github.com/quantlearn/quantbot/tools/log"
)

// BuyHold 是买入持有基准策略：第一根可交易K线全仓买入后不再操作，
// 回测结束时由引擎统一平仓。用于对比主动策略是否跑赢大盘。
type BuyHold struct {
	CandleTimeframe string
}

// NewBuyHold 创建日线买入持有策略。
func NewBuyHold() *BuyHold {
	return &BuyHold{CandleTimeframe: "1d"}
}

func (b BuyHold) Timeframe() string {
	return b.CandleTimeframe
}

func (b *BuyHold) SetTimeframe(timeframe string) {
	b.CandleTimeframe = timeframe
}

func (b BuyHold) WarmupPeriod() int {
	return 1
}

func (b BuyHold) Indicators(_ *model.Dataframe) {}

func (b *BuyHold) OnCandle(df *model.Dataframe, broker service.Broker) {
	assetPosition, quotePosition, err := broker.Position(df.Pair)
	if err != nil {
		log.Error(err)
		return
	}

	if assetPosition*df.Close.Last(0) < minQuotePosition && quotePosition >= minQuotePosition {
		_, err := broker.CreateOrderMarketQuote(model.SideTypeBuy, df.Pair, quotePosition)
		if err != nil {
			log.Error(err)
		}
	}
}
