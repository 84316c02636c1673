// Package download 把交易所的历史K线分批拉取并保存为CSV文件，
// 作为回测的离线数据源。
package download

import (
	"context"
	"encoding/csv"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/xhit/go-str2duration/v2"

	"github.com/quantlearn/quantbot/service"
	"github.com/quantlearn/quantbot/tools/log"
)

// batchSize 是每次REST请求拉取的K线数量。周期为1h时一批覆盖500小时，
// 周期为1d时一批覆盖500天。
const batchSize = 500

// Downloader 从实现了 service.Feeder 的数据源分批下载K线。
type Downloader struct {
	exchange service.Feeder
}

// NewDownloader 创建一个下载器。
func NewDownloader(exchange service.Feeder) Downloader {
	return Downloader{
		exchange: exchange,
	}
}

// Parameters 定义下载的时间范围。
type Parameters struct {
	Start time.Time
	End   time.Time
}

// Option 用于调整下载参数。
type Option func(*Parameters)

// WithInterval 指定下载的起止时间。
func WithInterval(start, end time.Time) Option {
	return func(parameters *Parameters) {
		parameters.Start = start
		parameters.End = end
	}
}

// WithDays 指定从当前时间往前回溯的天数。
func WithDays(days int) Option {
	return func(parameters *Parameters) {
		parameters.Start = time.Now().AddDate(0, 0, -days)
		parameters.End = time.Now()
	}
}

// candlesCount 计算时间范围内的K线数量和单根K线的持续时间。
func candlesCount(start, end time.Time, timeframe string) (int, time.Duration, error) {
	totalDuration := end.Sub(start)
	interval, err := str2duration.ParseDuration(timeframe)
	if err != nil {
		return 0, 0, err
	}
	return int(totalDuration / interval), interval, nil
}

// Download 把交易对的K线数据下载到CSV文件。默认范围为最近一个月，
// 可通过 WithDays / WithInterval 调整。起止时间对齐到UTC整日，
// 下载分批进行并显示进度条；批次实际返回数量少于预期时累计缺口，
// 结束后以警告日志提示丢失的K线数量。
func (d Downloader) Download(ctx context.Context, pair, timeframe string, output string, options ...Option) error {
	recordFile, err := os.Create(output)
	if err != nil {
		return err
	}
	defer recordFile.Close()

	now := time.Now()
	parameters := &Parameters{
		Start: now.AddDate(0, -1, 0),
		End:   now,
	}

	for _, option := range options {
		option(parameters)
	}

	// 起始时间对齐到UTC当日零点，保证各次下载的时间戳可对齐
	parameters.Start = time.Date(parameters.Start.Year(), parameters.Start.Month(), parameters.Start.Day(),
		0, 0, 0, 0, time.UTC)

	if now.Sub(parameters.End) > 0 {
		parameters.End = time.Date(parameters.End.Year(), parameters.End.Month(), parameters.End.Day(),
			0, 0, 0, 0, time.UTC)
	} else {
		parameters.End = now
	}

	candlesCount, interval, err := candlesCount(parameters.Start, parameters.End, timeframe)
	if err != nil {
		return err
	}
	candlesCount++

	log.Infof("Downloading %d candles of %s for %s", candlesCount, timeframe, pair)
	info := d.exchange.AssetsInfo(pair)
	writer := csv.NewWriter(recordFile)

	progressBar := progressbar.Default(int64(candlesCount))
	lostData := 0
	isLastLoop := false

	err = writer.Write([]string{
		"time", "open", "close", "low", "high", "volume",
	})
	if err != nil {
		return err
	}

	for begin := parameters.Start; begin.Before(parameters.End); begin = begin.Add(interval * batchSize) {
		end := begin.Add(interval * batchSize)
		if end.Before(parameters.End) {
			// 批次末尾回退一秒，避免与下一批次的首根K线重叠
			end = end.Add(-1 * time.Second)
		} else {
			end = parameters.End
			isLastLoop = true
		}

		candles, err := d.exchange.CandlesByPeriod(ctx, pair, timeframe, begin, end)
		if err != nil {
			return err
		}

		for _, candle := range candles {
			err := writer.Write(candle.ToSlice(info.QuotePrecision))
			if err != nil {
				return err
			}
		}

		countCandles := len(candles)
		if !isLastLoop {
			lostData += batchSize - countCandles
		}

		if err = progressBar.Add(countCandles); err != nil {
			log.Warnf("update progressbar fail: %s", err.Error())
		}
	}

	if err = progressBar.Close(); err != nil {
		log.Warnf("close progressbar fail: %s", err.Error())
	}

	if lostData > 0 {
		log.Warnf("%d missing candles", lostData)
	}

	writer.Flush()
	log.Info("Done!")
	return writer.Error()
}
