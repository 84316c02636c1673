package exchange

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func TestNewCSVFeed(t *testing.T) {
	file := writeCSV(t, `time,open,close,low,high,volume
1609459200,100,105,99,106,1000
1609462800,105,103,102,107,1500
1609466400,103,108,103,109,2000
`)

	feed, err := NewCSVFeed("1h", PairFeed{
		Pair:      "BTCUSDT",
		File:      file,
		Timeframe: "1h",
	})
	require.NoError(t, err)

	candles := feed.CandlePairTimeFrame["BTCUSDT--1h"]
	require.Len(t, candles, 3)
	assert.Equal(t, "BTCUSDT", candles[0].Pair)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 105.0, candles[0].Close)
	assert.Equal(t, 99.0, candles[0].Low)
	assert.Equal(t, 106.0, candles[0].High)
	assert.Equal(t, 1000.0, candles[0].Volume)
	assert.True(t, candles[0].Complete)
	assert.Equal(t, time.Unix(1609459200, 0).UTC(), candles[0].Time)
}

func TestNewCSVFeedWithoutHeaders(t *testing.T) {
	file := writeCSV(t, `1609459200,100,105,99,106,1000
1609462800,105,103,102,107,1500
`)

	feed, err := NewCSVFeed("1h", PairFeed{
		Pair:      "BTCUSDT",
		File:      file,
		Timeframe: "1h",
	})
	require.NoError(t, err)
	require.Len(t, feed.CandlePairTimeFrame["BTCUSDT--1h"], 2)
}

func TestNewCSVFeedAdditionalColumns(t *testing.T) {
	file := writeCSV(t, `time,open,close,low,high,volume,funding
1609459200,100,105,99,106,1000,0.01
1609462800,105,103,102,107,1500,0.02
`)

	feed, err := NewCSVFeed("1h", PairFeed{
		Pair:      "BTCUSDT",
		File:      file,
		Timeframe: "1h",
	})
	require.NoError(t, err)

	candles := feed.CandlePairTimeFrame["BTCUSDT--1h"]
	require.Len(t, candles, 2)
	assert.Equal(t, 0.01, candles[0].Metadata["funding"])
	assert.Equal(t, 0.02, candles[1].Metadata["funding"])
}

func TestCSVFeedResample(t *testing.T) {
	// 两个完整自然日的小时K线，从 2021-01-01 00:00 UTC 开始
	start := int64(1609459200)
	content := "time,open,close,low,high,volume\n"
	for i := 0; i < 48; i++ {
		price := 100 + float64(i)
		content += fmt.Sprintf("%d,%.1f,%.1f,%.1f,%.1f,%.1f\n",
			start+int64(i)*3600, price, price+1, price-1, price+2, 10.0)
	}
	file := writeCSV(t, content)

	feed, err := NewCSVFeed("1d", PairFeed{
		Pair:      "BTCUSDT",
		File:      file,
		Timeframe: "1h",
	})
	require.NoError(t, err)

	candles := feed.CandlePairTimeFrame["BTCUSDT--1d"]
	require.NotEmpty(t, candles)

	// 最后一根是第二天的完整日K线
	last := candles[len(candles)-1]
	assert.True(t, last.Complete)
	assert.Equal(t, time.Unix(start+24*3600, 0).UTC(), last.Time)
	assert.Equal(t, 124.0, last.Open)          // 第二天首小时开盘价
	assert.Equal(t, 148.0, last.Close)         // 第二天末小时收盘价
	assert.Equal(t, 149.0, last.High)          // 147+2
	assert.Equal(t, 123.0, last.Low)           // 124-1
	assert.InDelta(t, 240.0, last.Volume, 1e-9) // 24根小时K线的量
}

func TestCSVFeedCandlesByLimit(t *testing.T) {
	file := writeCSV(t, `time,open,close,low,high,volume
1609459200,100,105,99,106,1000
1609462800,105,103,102,107,1500
1609466400,103,108,103,109,2000
`)

	feed, err := NewCSVFeed("1h", PairFeed{Pair: "BTCUSDT", File: file, Timeframe: "1h"})
	require.NoError(t, err)

	candles, err := feed.CandlesByLimit(context.Background(), "BTCUSDT", "1h", 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 100.0, candles[0].Open)

	// 取出的K线从数据集中移除
	require.Len(t, feed.CandlePairTimeFrame["BTCUSDT--1h"], 1)

	_, err = feed.CandlesByLimit(context.Background(), "BTCUSDT", "1h", 5)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCSVFeedCandlesByPeriod(t *testing.T) {
	file := writeCSV(t, `time,open,close,low,high,volume
1609459200,100,105,99,106,1000
1609462800,105,103,102,107,1500
1609466400,103,108,103,109,2000
`)

	feed, err := NewCSVFeed("1h", PairFeed{Pair: "BTCUSDT", File: file, Timeframe: "1h"})
	require.NoError(t, err)

	start := time.Unix(1609462800, 0).UTC()
	end := time.Unix(1609466400, 0).UTC()
	candles, err := feed.CandlesByPeriod(context.Background(), "BTCUSDT", "1h", start, end)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 105.0, candles[0].Open)
}

func TestCSVFeedSubscription(t *testing.T) {
	file := writeCSV(t, `time,open,close,low,high,volume
1609459200,100,105,99,106,1000
1609462800,105,103,102,107,1500
`)

	feed, err := NewCSVFeed("1h", PairFeed{Pair: "BTCUSDT", File: file, Timeframe: "1h"})
	require.NoError(t, err)

	ccandle, _ := feed.CandlesSubscription(context.Background(), "BTCUSDT", "1h")

	received := 0
	for range ccandle {
		received++
	}
	assert.Equal(t, 2, received)
}

func TestCSVFeedAssetsInfo(t *testing.T) {
	feed := CSVFeed{}
	info := feed.AssetsInfo("BTCUSDT")

	assert.Equal(t, "BTC", info.BaseAsset)
	assert.Equal(t, "USDT", info.QuoteAsset)
	assert.Equal(t, 8, info.QuotePrecision)
}

func TestCSVFeedLastQuote(t *testing.T) {
	feed := CSVFeed{}
	_, err := feed.LastQuote(context.Background(), "BTCUSDT")
	assert.Error(t, err)
}
