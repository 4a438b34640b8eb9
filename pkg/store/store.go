package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"akcache/pkg/apperr"
	"akcache/pkg/core"
	"akcache/pkg/logger"
)

// Config 数据库连接配置
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// Store 关系型仓储，独占所有实体的持久化。
// 服务层不在两次调用之间保留状态，覆盖情况每次都从这里重新推导。
type Store struct {
	db  *gorm.DB
	log *logrus.Entry
}

// Open 连接数据库、配置连接池并迁移表结构
func Open(cfg Config) (*Store, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=Asia/Shanghai",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "failed to connect to database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "failed to get database instance", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s := New(db)
	if err := s.AutoMigrate(); err != nil {
		return nil, err
	}
	s.log.Info("数据库连接成功，表结构已迁移")
	return s, nil
}

// New 基于现有gorm连接创建仓储
func New(db *gorm.DB) *Store {
	return &Store{
		db:  db,
		log: logger.WithComponent("Store"),
	}
}

// AutoMigrate 迁移全部表结构
func (s *Store) AutoMigrate() error {
	err := s.db.AutoMigrate(
		&core.Asset{},
		&core.DailyBar{},
		&core.RealtimeQuote{},
		&core.RequestLog{},
		&core.DataCoverage{},
	)
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "failed to migrate database", err)
	}
	return nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetAsset 按代码查询资产，不存在时返回 (nil, nil)
func (s *Store) GetAsset(ctx context.Context, symbol string) (*core.Asset, error) {
	var asset core.Asset
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "query asset failed", err).WithContext("symbol", symbol)
	}
	return &asset, nil
}

// SaveAsset 插入或按symbol冲突更新资产元数据
func (s *Store) SaveAsset(ctx context.Context, asset *core.Asset) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "exchange", "currency", "industry", "concept", "listing_date",
			"total_shares", "market_cap", "pe", "pb", "roe", "data_source", "last_updated",
		}),
	}).Create(asset).Error
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "save asset failed", err).WithContext("symbol", asset.Symbol)
	}
	return nil
}

// DailyBarsBetween 查询 (symbol, adjust) 在[start, end]闭区间内的日线，按交易日升序
func (s *Store) DailyBarsBetween(ctx context.Context, symbol string, start, end time.Time, adjust string) ([]core.DailyBar, error) {
	var bars []core.DailyBar
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND adjust = ? AND trade_date BETWEEN ? AND ?", symbol, adjust, start, end).
		Order("trade_date ASC").
		Find(&bars).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "query daily bars failed", err).WithContext("symbol", symbol)
	}
	return bars, nil
}

// InsertDailyBars 批量写入日线，(symbol, trade_date, adjust) 冲突时忽略，
// 已存在的历史行以仓储为准不被覆盖。返回实际新插入的行数。
func (s *Store) InsertDailyBars(ctx context.Context, bars []core.DailyBar) (int64, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "trade_date"}, {Name: "adjust"}},
		DoNothing: true,
	}).CreateInBatches(bars, 500)
	if tx.Error != nil {
		return 0, apperr.Wrap(apperr.StoreError, "insert daily bars failed", tx.Error)
	}
	return tx.RowsAffected, nil
}

// LatestQuote 查询最新实时行情快照，不存在时返回 (nil, nil)
func (s *Store) LatestQuote(ctx context.Context, symbol string) (*core.RealtimeQuote, error) {
	var quote core.RealtimeQuote
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&quote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "query quote failed", err).WithContext("symbol", symbol)
	}
	return &quote, nil
}

// UpsertQuote 覆盖写入实时行情快照
func (s *Store) UpsertQuote(ctx context.Context, quote *core.RealtimeQuote) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "price", "change", "change_percent", "open", "high", "low",
			"prev_close", "volume", "turnover", "captured_at",
		}),
	}).Create(quote).Error
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "upsert quote failed", err).WithContext("symbol", quote.Symbol)
	}
	return nil
}

// InsertRequestLog 写入访问日志
func (s *Store) InsertRequestLog(ctx context.Context, entry *core.RequestLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return apperr.Wrap(apperr.StoreError, "insert request log failed", err)
	}
	return nil
}

// RefreshCoverage 根据日线表重算 (symbol, adjust) 的覆盖汇总
func (s *Store) RefreshCoverage(ctx context.Context, symbol, adjust string) error {
	var agg struct {
		FirstDate   *time.Time
		LastDate    *time.Time
		RecordCount int64
	}
	err := s.db.WithContext(ctx).Model(&core.DailyBar{}).
		Select("MIN(trade_date) AS first_date, MAX(trade_date) AS last_date, COUNT(*) AS record_count").
		Where("symbol = ? AND adjust = ?", symbol, adjust).
		Scan(&agg).Error
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "aggregate coverage failed", err).WithContext("symbol", symbol)
	}

	cov := core.DataCoverage{
		Symbol:      symbol,
		Adjust:      adjust,
		FirstDate:   agg.FirstDate,
		LastDate:    agg.LastDate,
		RecordCount: agg.RecordCount,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "adjust"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_date", "last_date", "record_count"}),
	}).Create(&cov).Error
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "upsert coverage failed", err).WithContext("symbol", symbol)
	}
	return nil
}

// GetCoverage 查询覆盖汇总，不存在时返回 (nil, nil)
func (s *Store) GetCoverage(ctx context.Context, symbol, adjust string) (*core.DataCoverage, error) {
	var cov core.DataCoverage
	err := s.db.WithContext(ctx).Where("symbol = ? AND adjust = ?", symbol, adjust).First(&cov).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "query coverage failed", err).WithContext("symbol", symbol)
	}
	return &cov, nil
}

// Stats 各实体表的行数汇总，供 /stats 端点使用
type Stats struct {
	Assets      int64 `json:"assets"`
	DailyBars   int64 `json:"daily_bars"`
	Quotes      int64 `json:"realtime_quotes"`
	RequestLogs int64 `json:"request_logs"`
}

// GetStats 统计各实体表行数
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	counts := []struct {
		model interface{}
		dst   *int64
	}{
		{&core.Asset{}, &stats.Assets},
		{&core.DailyBar{}, &stats.DailyBars},
		{&core.RealtimeQuote{}, &stats.Quotes},
		{&core.RequestLog{}, &stats.RequestLogs},
	}
	for _, c := range counts {
		if err := s.db.WithContext(ctx).Model(c.model).Count(c.dst).Error; err != nil {
			return nil, apperr.Wrap(apperr.StoreError, "count rows failed", err)
		}
	}
	return &stats, nil
}

// Ping 数据库连通性检查
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// TouchCoverageAccess 记录一次覆盖查询访问
func (s *Store) TouchCoverageAccess(ctx context.Context, symbol, adjust string) error {
	err := s.db.WithContext(ctx).Model(&core.DataCoverage{}).
		Where("symbol = ? AND adjust = ?", symbol, adjust).
		Updates(map[string]interface{}{
			"access_count":   gorm.Expr("access_count + 1"),
			"last_access_at": time.Now(),
		}).Error
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "touch coverage failed", err)
	}
	return nil
}
