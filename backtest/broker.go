// Package backtest 实现历史数据回测：模拟经纪商、回放引擎与结果汇总。
package backtest

import (
	"errors"
	"sync"

	"github.com/quantlearn/quantbot/exchange"
	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/storage"
	"github.com/quantlearn/quantbot/tools/log"
)

var (
	// ErrInsufficientFunds 表示余额不足以完成订单。
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNoOpenPosition 表示没有可平仓的持仓。
	ErrNoOpenPosition = errors.New("no open position")
	// ErrInvalidQuantity 表示订单数量非法。
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Broker 是回测用的模拟经纪商：维护各资产余额，
// 市价单以当前K线收盘价即时全额成交，双边收取固定费率的手续费。
// 平仓时生成一笔完整的往返交易并写入存储。
type Broker struct {
	sync.Mutex

	feeRate    float64
	assets     map[string]float64
	lastCandle map[string]model.Candle
	openTrades map[string]*model.Trade
	trades     []model.Trade
	volume     map[string]float64
	storage    storage.Storage
}

// NewBroker 创建模拟经纪商，为每个报价资产注入初始资金。
// 多个交易对共用同一报价资产时只注入一次。
func NewBroker(st storage.Storage, settings model.Settings) *Broker {
	broker := &Broker{
		feeRate:    settings.FeeRate,
		assets:     make(map[string]float64),
		lastCandle: make(map[string]model.Candle),
		openTrades: make(map[string]*model.Trade),
		volume:     make(map[string]float64),
		storage:    st,
	}

	for _, pair := range settings.Pairs {
		_, quote := exchange.SplitAssetQuote(pair)
		if _, ok := broker.assets[quote]; !ok {
			broker.assets[quote] = settings.InitialCapital
		}
	}

	return broker
}

// OnCandle 记录交易对的最新K线，后续市价单以其收盘价成交。
func (b *Broker) OnCandle(candle model.Candle) {
	b.Lock()
	defer b.Unlock()
	b.lastCandle[candle.Pair] = candle
}

// Account 返回当前全部资产余额。
func (b *Broker) Account() (model.Account, error) {
	b.Lock()
	defer b.Unlock()

	balances := make([]model.Balance, 0, len(b.assets))
	for asset, free := range b.assets {
		balances = append(balances, model.Balance{
			Asset: asset,
			Free:  free,
		})
	}

	return model.Account{Balances: balances}, nil
}

// Position 返回交易对的基础资产持仓与报价资产余额。
func (b *Broker) Position(pair string) (asset, quote float64, err error) {
	b.Lock()
	defer b.Unlock()

	assetTick, quoteTick := exchange.SplitAssetQuote(pair)
	return b.assets[assetTick], b.assets[quoteTick], nil
}

// CreateOrderMarket 以最新收盘价成交 size 数量（基础资产计）的市价单。
func (b *Broker) CreateOrderMarket(side model.SideType, pair string, size float64) (model.Trade, error) {
	b.Lock()
	defer b.Unlock()
	return b.createOrder(side, pair, size)
}

// CreateOrderMarketQuote 以报价金额成交市价单：买入时把 quote 金额
// （含手续费）换成基础资产，卖出时卖掉对应 quote 金额的持仓。
func (b *Broker) CreateOrderMarketQuote(side model.SideType, pair string, quote float64) (model.Trade, error) {
	b.Lock()
	defer b.Unlock()

	candle, ok := b.lastCandle[pair]
	if !ok || candle.Close <= 0 {
		return model.Trade{}, ErrInsufficientFunds
	}

	var size float64
	if side == model.SideTypeBuy {
		// 买入成本加手续费不能超过给定金额
		size = quote / (1 + b.feeRate) / candle.Close
	} else {
		size = quote / candle.Close
	}

	return b.createOrder(side, pair, size)
}

func (b *Broker) createOrder(side model.SideType, pair string, size float64) (model.Trade, error) {
	if size <= 0 {
		return model.Trade{}, ErrInvalidQuantity
	}

	candle, ok := b.lastCandle[pair]
	if !ok {
		return model.Trade{}, ErrInsufficientFunds
	}

	price := candle.Close
	assetTick, quoteTick := exchange.SplitAssetQuote(pair)

	if side == model.SideTypeBuy {
		cost := size * price
		fee := cost * b.feeRate
		if b.assets[quoteTick] < cost+fee {
			return model.Trade{}, ErrInsufficientFunds
		}

		b.assets[quoteTick] -= cost + fee
		b.assets[assetTick] += size
		b.volume[pair] += cost

		open := b.openTrades[pair]
		if open != nil {
			// 加仓：入场价按数量加权平均
			total := open.Quantity + size
			open.EntryPrice = (open.EntryPrice*open.Quantity + price*size) / total
			open.Quantity = total
			open.Fee += fee
			open.UpdatedAt = candle.Time
			if err := b.storage.UpdateTrade(open); err != nil {
				return model.Trade{}, err
			}
		} else {
			open = &model.Trade{
				Pair:       pair,
				EntryTime:  candle.Time,
				EntryPrice: price,
				Quantity:   size,
				Fee:        fee,
				CreatedAt:  candle.Time,
				UpdatedAt:  candle.Time,
			}
			if err := b.storage.CreateTrade(open); err != nil {
				return model.Trade{}, err
			}
			b.openTrades[pair] = open
		}

		log.WithFields(log.Fields{
			"pair":  pair,
			"side":  side,
			"price": price,
			"size":  size,
		}).Info("[ORDER] market order filled")

		return *open, nil
	}

	// 卖出
	open := b.openTrades[pair]
	if open == nil {
		return model.Trade{}, ErrNoOpenPosition
	}
	if size > b.assets[assetTick] {
		size = b.assets[assetTick]
	}
	if size > open.Quantity {
		size = open.Quantity
	}
	if size <= 0 {
		return model.Trade{}, ErrInvalidQuantity
	}

	proceeds := size * price
	fee := proceeds * b.feeRate
	b.assets[assetTick] -= size
	b.assets[quoteTick] += proceeds - fee
	b.volume[pair] += proceeds

	// 部分平仓时按数量比例分摊入场手续费
	portion := size / open.Quantity
	entryFee := open.Fee * portion

	closed := *open
	closed.ExitTime = candle.Time
	closed.ExitPrice = price
	closed.Quantity = size
	closed.Fee = entryFee + fee
	closed.Profit = (price-open.EntryPrice)*size - entryFee - fee
	closed.UpdatedAt = candle.Time

	if size >= open.Quantity {
		delete(b.openTrades, pair)
		if err := b.storage.UpdateTrade(&closed); err != nil {
			return model.Trade{}, err
		}
	} else {
		open.Quantity -= size
		open.Fee -= entryFee
		open.UpdatedAt = candle.Time
		if err := b.storage.UpdateTrade(open); err != nil {
			return model.Trade{}, err
		}
		closed.ID = 0
		if err := b.storage.CreateTrade(&closed); err != nil {
			return model.Trade{}, err
		}
	}

	b.trades = append(b.trades, closed)

	log.WithFields(log.Fields{
		"pair":   pair,
		"side":   side,
		"price":  price,
		"size":   size,
		"profit": closed.Profit,
	}).Info("[ORDER] market order filled")

	return closed, nil
}

// Liquidate 以最新收盘价平掉交易对的全部持仓，用于回测结束时结算。
// 没有持仓时不做任何事。
func (b *Broker) Liquidate(pair string) error {
	b.Lock()
	open := b.openTrades[pair]
	b.Unlock()

	if open == nil {
		return nil
	}

	_, err := b.CreateOrderMarket(model.SideTypeSell, pair, open.Quantity)
	return err
}

// Equity 返回交易对视角下的当前权益：报价资产余额加持仓市值。
func (b *Broker) Equity(pair string) float64 {
	b.Lock()
	defer b.Unlock()

	assetTick, quoteTick := exchange.SplitAssetQuote(pair)
	return b.assets[quoteTick] + b.assets[assetTick]*b.lastCandle[pair].Close
}

// Trades 返回交易对的全部已平仓交易。
func (b *Broker) Trades(pair string) []model.Trade {
	b.Lock()
	defer b.Unlock()

	trades := make([]model.Trade, 0)
	for _, trade := range b.trades {
		if trade.Pair == pair {
			trades = append(trades, trade)
		}
	}
	return trades
}

// Volume 返回交易对的累计成交额（报价资产计）。
func (b *Broker) Volume(pair string) float64 {
	b.Lock()
	defer b.Unlock()
	return b.volume[pair]
}
