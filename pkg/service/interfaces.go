package service

import (
	"context"
	"time"

	"akcache/pkg/core"
)

// BarStore 覆盖对账所需的日线仓储能力，由 store.Store 实现。
type BarStore interface {
	// DailyBarsBetween 查询闭区间内已缓存的日线，按交易日升序
	DailyBarsBetween(ctx context.Context, symbol string, start, end time.Time, adjust string) ([]core.DailyBar, error)

	// InsertDailyBars 批量写入日线，唯一键冲突时忽略，返回新插入行数
	InsertDailyBars(ctx context.Context, bars []core.DailyBar) (int64, error)

	// RefreshCoverage 重算覆盖汇总
	RefreshCoverage(ctx context.Context, symbol, adjust string) error

	// GetCoverage 查询覆盖汇总
	GetCoverage(ctx context.Context, symbol, adjust string) (*core.DataCoverage, error)

	// TouchCoverageAccess 记录一次覆盖访问
	TouchCoverageAccess(ctx context.Context, symbol, adjust string) error
}

// AssetStore 资产解析所需的仓储能力，由 store.Store 实现。
type AssetStore interface {
	// GetAsset 按代码查询资产，不存在时返回 (nil, nil)
	GetAsset(ctx context.Context, symbol string) (*core.Asset, error)

	// SaveAsset 插入或更新资产
	SaveAsset(ctx context.Context, asset *core.Asset) error
}

// QuoteStore 实时行情服务所需的仓储能力，由 store.Store 实现。
type QuoteStore interface {
	// LatestQuote 查询最新快照，不存在时返回 (nil, nil)
	LatestQuote(ctx context.Context, symbol string) (*core.RealtimeQuote, error)

	// UpsertQuote 覆盖写入快照
	UpsertQuote(ctx context.Context, quote *core.RealtimeQuote) error
}

// QuoteCache 实时行情一级缓存，由 quotecache.Cache 实现。
// 缓存层故障表现为未命中，从不让请求失败。
type QuoteCache interface {
	Get(ctx context.Context, symbol string) (*core.RealtimeQuote, bool)
	Set(ctx context.Context, quote *core.RealtimeQuote, ttl time.Duration)
}
