package upstream

import (
	"context"
	"time"

	"akcache/pkg/core"
)

// Provider 是所有上游数据提供商的基础接口。
// 上游客户端是无状态的，重试（如有）由其自身的HTTP层负责，核心服务从不重试。
type Provider interface {
	// Name 返回提供商的名称，例如 "eastmoney" 或 "sina"。
	Name() string

	// IsHealthy 检查提供商的健康状态。
	IsHealthy() bool

	// GetRateLimit 返回两个连续请求之间的最小允许间隔。
	GetRateLimit() time.Duration
}

// KlineProvider 日线数据提供商接口。
// 上游API不支持按天稀疏拉取，缺口回填时总是请求整个区间。
type KlineProvider interface {
	Provider

	// FetchDailyBars 获取[start, end]闭区间内的日线数据。
	// adjust: 复权方式，"" 不复权 / "qfq" 前复权 / "hfq" 后复权。
	// 区间内无数据时返回空切片而不是错误。
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time, adjust string) ([]core.DailyBar, error)

	// IsSymbolSupported 检查提供商是否支持给定的代码。
	IsSymbolSupported(symbol string) bool
}

// MetaProvider 资产元数据提供商接口
type MetaProvider interface {
	Provider

	// FetchAssetMeta 获取资产元数据（名称、行业、财务指标等）。
	FetchAssetMeta(ctx context.Context, symbol string) (*core.AssetMeta, error)
}

// QuoteProvider 实时行情提供商接口
type QuoteProvider interface {
	Provider

	// FetchQuotes 批量获取实时行情快照。
	FetchQuotes(ctx context.Context, symbols []string) ([]core.RealtimeQuote, error)
}

// Client 聚合了缺口回填所需的全部上游能力（日线 + 元数据）。
type Client interface {
	KlineProvider
	MetaProvider
}
