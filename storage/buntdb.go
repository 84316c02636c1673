package storage

import (
	"encoding/json"
	"strconv"
	"sync/atomic"

	"github.com/tidwall/buntdb"

	"github.com/quantlearn/quantbot/model"
	"github.com/quantlearn/quantbot/tools/log"
)

// Bunt 基于 buntdb 键值库存储交易记录：键为自增ID，值为JSON序列化的交易。
type Bunt struct {
	lastID int64 // 原子自增，保证并发下ID唯一
	db     *buntdb.DB
}

// FromMemory 创建一个纯内存的存储实例，适合回测与测试场景：
// 进程结束后数据随之消失。
func FromMemory() (Storage, error) {
	return newBunt(":memory:")
}

// FromFile 创建一个持久化到文件的存储实例。
func FromFile(file string) (Storage, error) {
	return newBunt(file)
}

func newBunt(sourceFile string) (Storage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, err
	}

	// 按 updated_at 字段建索引，遍历时按更新时间排序
	err = db.CreateIndex("update_index", "*", buntdb.IndexJSON("updated_at"))
	if err != nil {
		return nil, err
	}

	return &Bunt{
		db: db,
	}, nil
}

func (b *Bunt) getID() int64 {
	return atomic.AddInt64(&b.lastID, 1)
}

// CreateTrade 分配唯一ID并把交易序列化为JSON写入数据库。
func (b *Bunt) CreateTrade(trade *model.Trade) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		trade.ID = b.getID()
		content, err := json.Marshal(trade)
		if err != nil {
			return err
		}

		_, _, err = tx.Set(strconv.FormatInt(trade.ID, 10), string(content), nil)
		return err
	})
}

// UpdateTrade 用交易的当前内容覆盖数据库中的同ID条目。
func (b Bunt) UpdateTrade(trade *model.Trade) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		id := strconv.FormatInt(trade.ID, 10)
		content, err := json.Marshal(trade)
		if err != nil {
			return err
		}

		_, _, err = tx.Set(id, string(content), nil)
		return err
	})
}

// Trades 按更新时间顺序遍历全部交易，返回满足所有过滤器的记录。
func (b Bunt) Trades(filters ...TradeFilter) ([]*model.Trade, error) {
	trades := make([]*model.Trade, 0)
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("update_index", func(key, value string) bool {
			var trade model.Trade
			err := json.Unmarshal([]byte(value), &trade)
			if err != nil {
				log.Error(err)
				return true
			}

			for _, filter := range filters {
				if ok := filter(trade); !ok {
					return true
				}
			}
			trades = append(trades, &trade)

			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return trades, nil
}
