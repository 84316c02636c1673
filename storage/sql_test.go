package storage

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quantlearn/quantbot/model"
)

func sqliteStorage(t *testing.T) Storage {
	t.Helper()
	file := filepath.Join(t.TempDir(), "trades.db")
	st, err := FromSQL(sqlite.Open(file), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return st
}

func TestSQLCreateAndUpdateTrade(t *testing.T) {
	st := sqliteStorage(t)

	trade := &model.Trade{
		Pair:       "BTCUSDT",
		EntryPrice: 100,
		Quantity:   0.5,
	}
	require.NoError(t, st.CreateTrade(trade))
	assert.NotZero(t, trade.ID)

	trade.ExitPrice = 120
	trade.Profit = 10
	require.NoError(t, st.UpdateTrade(trade))

	trades, err := st.Trades()
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, 120.0, trades[0].ExitPrice)
	assert.Equal(t, 10.0, trades[0].Profit)
}

func TestSQLTradesFilters(t *testing.T) {
	st := sqliteStorage(t)

	require.NoError(t, st.CreateTrade(&model.Trade{Pair: "BTCUSDT", Profit: 10}))
	require.NoError(t, st.CreateTrade(&model.Trade{Pair: "BTCUSDT", Profit: -5}))
	require.NoError(t, st.CreateTrade(&model.Trade{Pair: "ETHUSDT", Profit: 7}))

	trades, err := st.Trades(WithPair("BTCUSDT"))
	require.NoError(t, err)
	assert.Len(t, trades, 2)

	trades, err = st.Trades(WithProfitable(false))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, -5.0, trades[0].Profit)
}
