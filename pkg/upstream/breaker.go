package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"akcache/pkg/core"
	"akcache/pkg/logger"
)

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	Name        string        `mapstructure:"name"`          // 熔断器名称
	MaxRequests uint32        `mapstructure:"max_requests"`  // 半开状态下的最大请求数
	Interval    time.Duration `mapstructure:"interval"`      // 统计窗口时间
	Timeout     time.Duration `mapstructure:"timeout"`       // 熔断后的恢复等待时间
	ReadyToTrip uint32        `mapstructure:"ready_to_trip"` // 触发熔断的连续失败次数
}

// DefaultBreakerConfig 默认熔断器配置
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: 5,
	}
}

func newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker {
	log := logger.WithComponent("Breaker")
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ReadyToTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("熔断器 %s 状态从 %v 变更为 %v", name, from, to)
		},
	})
}

// GuardedClient 为聚合上游客户端加熔断保护。
// 核心服务从不重试上游，熔断器只负责在提供商持续失败时快速失败。
type GuardedClient struct {
	base Client
	cb   *gobreaker.CircuitBreaker
}

// NewGuardedClient 创建带熔断的上游客户端
func NewGuardedClient(base Client, cfg BreakerConfig) *GuardedClient {
	return &GuardedClient{base: base, cb: newBreaker(cfg)}
}

// Name 返回装饰后的提供商名称
func (g *GuardedClient) Name() string {
	return fmt.Sprintf("Breaker(%s)", g.base.Name())
}

// IsHealthy 熔断器打开状态视为不健康
func (g *GuardedClient) IsHealthy() bool {
	return g.cb.State() != gobreaker.StateOpen && g.base.IsHealthy()
}

// GetRateLimit 返回基础提供商的频率限制
func (g *GuardedClient) GetRateLimit() time.Duration {
	return g.base.GetRateLimit()
}

// IsSymbolSupported 返回基础提供商的代码支持判断
func (g *GuardedClient) IsSymbolSupported(symbol string) bool {
	return g.base.IsSymbolSupported(symbol)
}

// FetchDailyBars 经由熔断器获取日线
func (g *GuardedClient) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time, adjust string) ([]core.DailyBar, error) {
	result, err := g.cb.Execute(func() (interface{}, error) {
		return g.base.FetchDailyBars(ctx, symbol, start, end, adjust)
	})
	if err != nil {
		return nil, err
	}
	return result.([]core.DailyBar), nil
}

// FetchAssetMeta 经由熔断器获取资产元数据
func (g *GuardedClient) FetchAssetMeta(ctx context.Context, symbol string) (*core.AssetMeta, error) {
	result, err := g.cb.Execute(func() (interface{}, error) {
		return g.base.FetchAssetMeta(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	return result.(*core.AssetMeta), nil
}

// GuardedQuoteProvider 为实时行情提供商加熔断保护
type GuardedQuoteProvider struct {
	base QuoteProvider
	cb   *gobreaker.CircuitBreaker
}

// NewGuardedQuoteProvider 创建带熔断的行情提供商
func NewGuardedQuoteProvider(base QuoteProvider, cfg BreakerConfig) *GuardedQuoteProvider {
	return &GuardedQuoteProvider{base: base, cb: newBreaker(cfg)}
}

// Name 返回装饰后的提供商名称
func (g *GuardedQuoteProvider) Name() string {
	return fmt.Sprintf("Breaker(%s)", g.base.Name())
}

// IsHealthy 熔断器打开状态视为不健康
func (g *GuardedQuoteProvider) IsHealthy() bool {
	return g.cb.State() != gobreaker.StateOpen && g.base.IsHealthy()
}

// GetRateLimit 返回基础提供商的频率限制
func (g *GuardedQuoteProvider) GetRateLimit() time.Duration {
	return g.base.GetRateLimit()
}

// FetchQuotes 经由熔断器获取实时行情
func (g *GuardedQuoteProvider) FetchQuotes(ctx context.Context, symbols []string) ([]core.RealtimeQuote, error) {
	result, err := g.cb.Execute(func() (interface{}, error) {
		return g.base.FetchQuotes(ctx, symbols)
	})
	if err != nil {
		return nil, err
	}
	return result.([]core.RealtimeQuote), nil
}

var (
	_ Client        = (*GuardedClient)(nil)
	_ QuoteProvider = (*GuardedQuoteProvider)(nil)
)
