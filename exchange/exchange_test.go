package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitAssetQuote(t *testing.T) {
	tests := []struct {
		pair  string
		asset string
		quote string
	}{
		{"BTCUSDT", "BTC", "USDT"},
		{"ETHBTC", "ETH", "BTC"},
		{"BNBBUSD", "BNB", "BUSD"},
		{"DOGEEUR", "DOGE", "EUR"},
		{"btcusdt", "BTC", "USDT"},
		{"UNKNOWN", "", ""},
		{"USDT", "", ""},
	}

	for _, tt := range tests {
		asset, quote := SplitAssetQuote(tt.pair)
		assert.Equal(t, tt.asset, asset, tt.pair)
		assert.Equal(t, tt.quote, quote, tt.pair)
	}
}
