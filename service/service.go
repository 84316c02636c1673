// Package service 定义了数据源与模拟经纪商的抽象接口。
package service

import (
	"context"
	"time"

	"github.com/quantlearn/quantbot/model"
)

// Feeder 接口提供获取市场数据的方法：交易对信息、最新报价、
// 历史K线数据，以及按顺序订阅K线。
type Feeder interface {
	// AssetsInfo 返回交易对的元信息（资产拆分、精度）。
	AssetsInfo(pair string) model.AssetInfo
	// LastQuote 返回交易对最近一次的成交价。
	LastQuote(ctx context.Context, pair string) (float64, error)
	// CandlesByPeriod 按时间范围检索K线数据，timeframe 如 "1h"、"1d"。
	CandlesByPeriod(ctx context.Context, pair, timeframe string, start, end time.Time) ([]model.Candle, error)
	// CandlesByLimit 按数量检索最早的 limit 根K线数据。
	CandlesByLimit(ctx context.Context, pair, timeframe string, limit int) ([]model.Candle, error)
	// CandlesSubscription 按时间顺序逐根推送K线，回放结束后关闭通道。
	CandlesSubscription(ctx context.Context, pair, timeframe string) (chan model.Candle, chan error)
}

// Broker 接口提供模拟交易的能力。回测经纪商以当前收盘价即时成交市价单，
// 不支持限价、止损等挂单类型。
type Broker interface {
	// Account 返回模拟账户的全部余额。
	Account() (model.Account, error)
	// Position 返回交易对的基础资产持仓与报价资产余额。
	Position(pair string) (asset, quote float64, err error)
	// CreateOrderMarket 以当前价格成交 size 数量（基础资产计）的市价单。
	CreateOrderMarket(side model.SideType, pair string, size float64) (model.Trade, error)
	// CreateOrderMarketQuote 以报价金额成交市价单，如用 1000 USDT 买入。
	CreateOrderMarketQuote(side model.SideType, pair string, quote float64) (model.Trade, error)
}
