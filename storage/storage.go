// Package storage 负责交易记录的持久化，提供内存/文件键值库与SQL两种后端。
package storage

import (
	"time"

	"github.com/quantlearn/quantbot/model"
)

// TradeFilter 判断一笔交易是否满足查询条件。
type TradeFilter func(model.Trade) bool

// Storage 接口定义交易记录的基本操作。
type Storage interface {
	CreateTrade(trade *model.Trade) error
	UpdateTrade(trade *model.Trade) error
	Trades(filters ...TradeFilter) ([]*model.Trade, error)
}

// WithPair 返回按交易对筛选的过滤器。
func WithPair(pair string) TradeFilter {
	return func(trade model.Trade) bool {
		return trade.Pair == pair
	}
}

// WithProfitable 返回只保留盈利（或亏损）交易的过滤器。
func WithProfitable(profitable bool) TradeFilter {
	return func(trade model.Trade) bool {
		return (trade.Profit >= 0) == profitable
	}
}

// WithExitBeforeOrEqual 返回按平仓时间筛选的过滤器：
// 只保留平仓时间不晚于给定时间的交易。
func WithExitBeforeOrEqual(time time.Time) TradeFilter {
	return func(trade model.Trade) bool {
		return !trade.ExitTime.After(time)
	}
}
