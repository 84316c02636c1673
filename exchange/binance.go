package exchange

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/jpillora/backoff"

	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/tools/log"
)

// maxFetchRetries 是单次REST请求的最大重试次数。
const maxFetchRetries = 3

// MetadataFetchers 在收到新K线后运行，为K线附加额外元数据，
// 返回要写入 Candle.Metadata 的键值对。
type MetadataFetchers func(pair string, t time.Time) (string, float64)

// Binance 通过币安REST接口获取历史K线，实现 service.Feeder 接口。
// 只做行情读取，不涉及下单。
type Binance struct {
	ctx        context.Context
	client     *binance.Client
	assetsInfo map[string]model.AssetInfo
	HeikinAshi bool

	APIKey    string
	APISecret string

	MetadataFetchers []MetadataFetchers
}

// BinanceOption 用于定制 Binance 实例的配置选项。
type BinanceOption func(*Binance)

// WithBinanceCredentials 设置API密钥。公开行情接口无需密钥，
// 只有更高的限频额度需要。
func WithBinanceCredentials(key, secret string) BinanceOption {
	return func(b *Binance) {
		b.APIKey = key
		b.APISecret = secret
	}
}

// WithBinanceHeikinAshiCandle 启用平均K线转换。
func WithBinanceHeikinAshiCandle() BinanceOption {
	return func(b *Binance) {
		b.HeikinAshi = true
	}
}

// WithMetadataFetcher 注册一个元数据提取器。
func WithMetadataFetcher(fetcher MetadataFetchers) BinanceOption {
	return func(b *Binance) {
		b.MetadataFetchers = append(b.MetadataFetchers, fetcher)
	}
}

// WithTestNet 切换到币安测试网络。
func WithTestNet() BinanceOption {
	return func(b *Binance) {
		binance.UseTestnet = true
	}
}

// NewBinance 创建币安数据源：Ping 检查连通性，
// 并预取全部交易对的精度信息。
func NewBinance(ctx context.Context, options ...BinanceOption) (*Binance, error) {
	exchange := &Binance{ctx: ctx}
	for _, option := range options {
		option(exchange)
	}

	exchange.client = binance.NewClient(exchange.APIKey, exchange.APISecret)

	err := exchange.client.NewPingService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance ping fail: %w", err)
	}

	results, err := exchange.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, err
	}

	exchange.assetsInfo = make(map[string]model.AssetInfo)
	for _, info := range results.Symbols {
		exchange.assetsInfo[info.Symbol] = model.AssetInfo{
			BaseAsset:          info.BaseAsset,
			QuoteAsset:         info.QuoteAsset,
			BaseAssetPrecision: info.BaseAssetPrecision,
			QuotePrecision:     info.QuotePrecision,
		}
	}

	log.Info("[SETUP] Using Binance exchange")

	return exchange, nil
}

// AssetsInfo 返回交易对的资产拆分与精度信息。
func (b *Binance) AssetsInfo(pair string) model.AssetInfo {
	return b.assetsInfo[pair]
}

// LastQuote 返回交易对最新一根已收盘1分钟K线的收盘价。
func (b *Binance) LastQuote(ctx context.Context, pair string) (float64, error) {
	candles, err := b.CandlesByLimit(ctx, pair, "1m", 1)
	if err != nil || len(candles) < 1 {
		return 0, err
	}
	return candles[0].Close, nil
}

// CandlesByLimit 获取最近 limit 根已收盘的K线。
// 多请求一根：最后一根可能尚未收盘，丢弃。
func (b *Binance) CandlesByLimit(ctx context.Context, pair, period string, limit int) ([]model.Candle, error) {
	candles := make([]model.Candle, 0)
	ha := model.NewHeikinAshi()

	data, err := b.fetchKlines(ctx, func() ([]*binance.Kline, error) {
		return b.client.NewKlinesService().
			Symbol(pair).
			Interval(period).
			Limit(limit + 1).
			Do(ctx)
	})
	if err != nil {
		return nil, err
	}

	for _, d := range data {
		candle := CandleFromKline(pair, *d)
		if b.HeikinAshi {
			candle = candle.ToHeikinAshi(ha)
		}
		candles = append(candles, candle)
	}

	// 丢掉末尾未收盘的一根后仍需有结果
	if len(candles) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientData, pair)
	}

	return candles[:len(candles)-1], nil
}

// CandlesByPeriod 获取 [start, end) 时间范围内的K线。
// 单次请求最多返回交易所限制的数量（现货为1000根），
// 更长的范围由调用方（下载器）分批请求。
func (b *Binance) CandlesByPeriod(ctx context.Context, pair, period string,
	start, end time.Time) ([]model.Candle, error) {
	candles := make([]model.Candle, 0)
	ha := model.NewHeikinAshi()

	data, err := b.fetchKlines(ctx, func() ([]*binance.Kline, error) {
		return b.client.NewKlinesService().
			Symbol(pair).
			Interval(period).
			StartTime(start.UnixNano() / int64(time.Millisecond)).
			EndTime(end.UnixNano() / int64(time.Millisecond)).
			Do(ctx)
	})
	if err != nil {
		return nil, err
	}

	for _, d := range data {
		candle := CandleFromKline(pair, *d)
		if b.HeikinAshi {
			candle = candle.ToHeikinAshi(ha)
		}

		for _, fetcher := range b.MetadataFetchers {
			key, value := fetcher(pair, candle.Time)
			candle.Metadata[key] = value
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

// fetchKlines 执行一次K线请求，失败时按指数退避重试。
func (b *Binance) fetchKlines(ctx context.Context,
	do func() ([]*binance.Kline, error)) ([]*binance.Kline, error) {

	ba := &backoff.Backoff{
		Min: 100 * time.Millisecond,
		Max: 1 * time.Second,
	}

	var lastErr error
	for i := 0; i < maxFetchRetries; i++ {
		data, err := do()
		if err == nil {
			return data, nil
		}
		lastErr = err
		log.Warnf("binance klines fetch failed, retrying: %v", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(ba.Duration()):
		}
	}

	return nil, lastErr
}

// CandlesSubscription 对REST数据源不可用：回测的逐根回放由CSV数据源提供。
func (b *Binance) CandlesSubscription(_ context.Context, pair, _ string) (chan model.Candle, chan error) {
	ccandle := make(chan model.Candle)
	cerr := make(chan error)

	go func() {
		cerr <- errors.New("candle subscription not supported for REST feed: " + pair)
		close(ccandle)
		close(cerr)
	}()

	return ccandle, cerr
}

// CandleFromKline 把币安REST返回的K线转换为内部K线结构。
// 开盘时间为毫秒时间戳，价格与成交量为字符串。
func CandleFromKline(pair string, k binance.Kline) model.Candle {
	t := time.Unix(0, k.OpenTime*int64(time.Millisecond))
	candle := model.Candle{Pair: pair, Time: t, UpdatedAt: t}
	candle.Open, _ = strconv.ParseFloat(k.Open, 64)
	candle.Close, _ = strconv.ParseFloat(k.Close, 64)
	candle.High, _ = strconv.ParseFloat(k.High, 64)
	candle.Low, _ = strconv.ParseFloat(k.Low, 64)
	candle.Volume, _ = strconv.ParseFloat(k.Volume, 64)
	candle.Complete = true
	candle.Metadata = make(map[string]float64)
	return candle
}
