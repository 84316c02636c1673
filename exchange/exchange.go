// Package exchange 提供K线数据源的实现：本地CSV回放与币安REST拉取。
package exchange

import (
	"errors"
	"strings"
)

// 数据源可能返回的错误。
var (
	// ErrInsufficientData 表示可用K线数量不足以满足请求。
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidAsset 表示无法识别的交易对。
	ErrInvalidAsset = errors.New("invalid asset")
)

// 常见报价资产后缀，按长度降序排列保证先匹配长后缀（如先 USDT 再 BTC）。
var quoteAssets = []string{
	"USDT", "BUSD", "USDC", "TUSD", "BIDR", "BRL", "EUR", "GBP", "TRY",
	"BTC", "ETH", "BNB", "DAI",
}

// SplitAssetQuote 把交易对拆分为基础资产和报价资产，
// 如 "BTCUSDT" 拆为 ("BTC", "USDT")。按已知报价资产后缀匹配，
// 匹配不到时返回空字符串。
func SplitAssetQuote(pair string) (asset, quote string) {
	pair = strings.ToUpper(pair)
	for _, q := range quoteAssets {
		if strings.HasSuffix(pair, q) && len(pair) > len(q) {
			return pair[:len(pair)-len(q)], q
		}
	}
	return "", ""
}
