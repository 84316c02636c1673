package storage

import (
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/quantlearn/quantbot/model"
)

// SQL 基于 GORM 存储交易记录，可对接任何 GORM 支持的数据库方言，
// 如 glebarez/sqlite 的纯Go SQLite驱动。
type SQL struct {
	db *gorm.DB
}

// FromSQL 建立数据库连接、配置连接池并迁移交易表结构。
func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (Storage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	err = db.AutoMigrate(&model.Trade{})
	if err != nil {
		return nil, err
	}

	return &SQL{
		db: db,
	}, nil
}

// CreateTrade 插入一条交易记录。
func (s *SQL) CreateTrade(trade *model.Trade) error {
	result := s.db.Create(trade)
	return result.Error
}

// UpdateTrade 按ID覆盖一条已存在的交易记录。
func (s *SQL) UpdateTrade(trade *model.Trade) error {
	result := s.db.Save(trade)
	return result.Error
}

// Trades 返回满足所有过滤器的交易记录。过滤在内存中完成，
// 交易数量在回测场景下很小。
func (s *SQL) Trades(filters ...TradeFilter) ([]*model.Trade, error) {
	trades := make([]*model.Trade, 0)
	result := s.db.Find(&trades)
	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		return nil, result.Error
	}

	return lo.Filter(trades, func(trade *model.Trade, _ int) bool {
		for _, filter := range filters {
			if !filter(*trade) {
				return false
			}
		}
		return true
	}), nil
}
