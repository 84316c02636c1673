// Package model 定义了回测工具所需的核心数据结构：K线、数据帧、账户等。
package model

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Settings 定义了一次回测会话的基本设置。
type Settings struct {
	Pairs          []string // 参与回测的交易对列表，如 ["BTCUSDT"]
	InitialCapital float64  // 初始资金（报价资产计）
	FeeRate        float64  // 手续费率，如 0.001 表示千分之一
}

// Balance 定义了某一资产的余额。
type Balance struct {
	Asset string  // 资产标识，如 "BTC" 或 "USDT"
	Free  float64 // 可用余额
}

// Account 定义了模拟账户，持有若干资产余额。
type Account struct {
	Balances []Balance
}

// Balance 方法返回账户中指定基础资产和报价资产的余额。
func (a Account) Balance(assetTick, quoteTick string) (Balance, Balance) {
	var assetBalance, quoteBalance Balance

	for _, balance := range a.Balances {
		switch balance.Asset {
		case assetTick:
			assetBalance = balance
		case quoteTick:
			quoteBalance = balance
		}
	}

	return assetBalance, quoteBalance
}

// AssetInfo 定义了交易对的元信息，主要用于下载数据时的价格精度。
type AssetInfo struct {
	BaseAsset  string // 基础资产，如 "BTC"
	QuoteAsset string // 报价资产，如 "USDT"

	QuotePrecision     int // 报价（价格）小数位数
	BaseAssetPrecision int // 数量小数位数
}

// Dataframe 以列式结构存储一个交易对的时间序列数据。
// 策略通过 Metadata 附加自定义指标序列（如 "rsi"、"ema8"）。
type Dataframe struct {
	Pair string

	Close  Series[float64] // 收盘价序列
	Open   Series[float64] // 开盘价序列
	High   Series[float64] // 最高价序列
	Low    Series[float64] // 最低价序列
	Volume Series[float64] // 成交量序列

	Time       []time.Time // 每根K线的时间戳
	LastUpdate time.Time   // 最后一次更新时间

	// 用户自定义的指标序列
	Metadata map[string]Series[float64]
}

// Sample 从数据帧中抽取最近的 positions 根K线组成一个新的数据帧。
// 数据不足时返回原数据帧。
func (df Dataframe) Sample(positions int) Dataframe {
	size := len(df.Time)
	start := size - positions
	if start <= 0 {
		return df
	}

	sample := Dataframe{
		Pair:       df.Pair,
		Close:      df.Close.LastValues(positions),
		Open:       df.Open.LastValues(positions),
		High:       df.High.LastValues(positions),
		Low:        df.Low.LastValues(positions),
		Volume:     df.Volume.LastValues(positions),
		Time:       df.Time[start:],
		LastUpdate: df.LastUpdate,
		Metadata:   make(map[string]Series[float64]),
	}

	for key := range df.Metadata {
		sample.Metadata[key] = df.Metadata[key].LastValues(positions)
	}

	return sample
}

// Candle 定义了一根K线（OHLCV柱）。
type Candle struct {
	Pair      string    // 交易对
	Time      time.Time // K线开始时间
	UpdatedAt time.Time // 最后更新时间
	Open      float64
	Close     float64
	Low       float64
	High      float64
	Volume    float64
	Complete  bool // 该周期是否已经收盘

	// 从CSV额外列附加的数据
	Metadata map[string]float64
}

// Empty 判断一根K线是否为空值。
func (c Candle) Empty() bool {
	return c.Pair == "" && c.Close == 0 && c.Open == 0 && c.Volume == 0
}

// ToSlice 将K线转换为字符串切片，用于CSV输出。precision 为价格小数位数。
func (c Candle) ToSlice(precision int) []string {
	return []string{
		fmt.Sprintf("%d", c.Time.Unix()),
		strconv.FormatFloat(c.Open, 'f', precision, 64),
		strconv.FormatFloat(c.Close, 'f', precision, 64),
		strconv.FormatFloat(c.Low, 'f', precision, 64),
		strconv.FormatFloat(c.High, 'f', precision, 64),
		strconv.FormatFloat(c.Volume, 'f', precision, 64),
	}
}

// HeikinAshi 保存平均K线（Heikin Ashi）转换的状态。
type HeikinAshi struct {
	PreviousHACandle Candle
}

// NewHeikinAshi 创建一个新的 HeikinAshi 实例。
func NewHeikinAshi() *HeikinAshi {
	return &HeikinAshi{}
}

// ToHeikinAshi 将普通K线转换为平均K线。
func (c Candle) ToHeikinAshi(ha *HeikinAshi) Candle {
	haCandle := ha.CalculateHeikinAshi(c)

	return Candle{
		Pair:      c.Pair,
		Open:      haCandle.Open,
		High:      haCandle.High,
		Low:       haCandle.Low,
		Close:     haCandle.Close,
		Volume:    c.Volume,
		Complete:  c.Complete,
		Time:      c.Time,
		UpdatedAt: c.UpdatedAt,
	}
}

// CalculateHeikinAshi 计算平均K线：开盘价取前一根HA蜡烛开收均值，
// 收盘价取本根OHLC均值，最高最低分别与HA开收比较取极值。
func (ha *HeikinAshi) CalculateHeikinAshi(c Candle) Candle {
	var hkCandle Candle

	openValue := ha.PreviousHACandle.Open
	closeValue := ha.PreviousHACandle.Close

	// 第一根平均K线直接使用原始K线的开收价
	if ha.PreviousHACandle.Empty() {
		openValue = c.Open
		closeValue = c.Close
	}

	hkCandle.Open = (openValue + closeValue) / 2
	hkCandle.Close = (c.Open + c.High + c.Low + c.Close) / 4
	hkCandle.High = math.Max(c.High, math.Max(hkCandle.Open, hkCandle.Close))
	hkCandle.Low = math.Min(c.Low, math.Min(hkCandle.Open, hkCandle.Close))
	ha.PreviousHACandle = hkCandle

	return hkCandle
}
