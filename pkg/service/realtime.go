package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"akcache/pkg/apperr"
	"akcache/pkg/core"
	"akcache/pkg/freshness"
	"akcache/pkg/logger"
	"akcache/pkg/market"
	"akcache/pkg/upstream"
)

// 休市期间Redis行情条目的保留时长
const offSessionCacheTTL = 4 * time.Hour

// QuoteResult 实时行情查询结果
type QuoteResult struct {
	Quote *core.RealtimeQuote `json:"quote"`
	Meta  core.Meta           `json:"meta"`
}

// RealtimeService 实时行情服务。
// 读路径：Redis一级缓存 → 数据库快照（按realtime档位判新鲜）→ 上游；
// 写路径：上游结果同时回写数据库与Redis。
type RealtimeService struct {
	store   QuoteStore
	quotes  upstream.QuoteProvider
	cache   QuoteCache
	policy  *freshness.Policy
	session *market.Session
	log     *logrus.Entry
}

// NewRealtimeService 创建实时行情服务。cache 可为 nil（跳过一级缓存）。
func NewRealtimeService(store QuoteStore, quotes upstream.QuoteProvider, cache QuoteCache, policy *freshness.Policy, session *market.Session) *RealtimeService {
	return &RealtimeService{
		store:   store,
		quotes:  quotes,
		cache:   cache,
		policy:  policy,
		session: session,
		log:     logger.WithComponent("RealtimeService"),
	}
}

// GetQuote 获取单个代码的实时行情快照
func (s *RealtimeService) GetQuote(ctx context.Context, symbol string) (*QuoteResult, error) {
	sym := market.Normalize(symbol)
	if !market.ValidSymbol(sym) {
		return nil, apperr.New(apperr.InvalidSymbol, "invalid symbol").WithContext("symbol", symbol)
	}

	meta := core.Meta{Symbol: sym, Status: core.StatusOK, RecordCount: 1}

	// 一级缓存
	if s.cache != nil {
		if quote, ok := s.cache.Get(ctx, sym); ok {
			meta.CacheHit = true
			return &QuoteResult{Quote: quote, Meta: meta}, nil
		}
	}

	// 数据库快照
	stored, err := s.store.LatestQuote(ctx, sym)
	if err != nil {
		return nil, err
	}
	if stored != nil && s.policy.IsFresh(stored.CapturedAt, freshness.TierRealtime) {
		meta.CacheHit = true
		s.cacheSet(ctx, stored)
		return &QuoteResult{Quote: stored, Meta: meta}, nil
	}

	// 上游
	meta.UpstreamCalled = true
	fetched, ferr := s.quotes.FetchQuotes(ctx, []string{sym})
	if ferr != nil || len(fetched) == 0 {
		if stored != nil {
			// 过期快照好过没有：降级返回
			s.log.Warnf("实时行情上游不可用，降级返回过期快照: %s", sym)
			meta.Status = core.StatusDegraded
			return &QuoteResult{Quote: stored, Meta: meta}, nil
		}
		if ferr != nil {
			return nil, apperr.Wrap(apperr.UpstreamUnavailable, "realtime quote fetch failed", ferr).WithContext("symbol", sym)
		}
		return nil, apperr.New(apperr.NoData, "no realtime quote for symbol").WithContext("symbol", sym)
	}

	quote := &fetched[0]
	if err := s.store.UpsertQuote(ctx, quote); err != nil {
		return nil, err
	}
	s.cacheSet(ctx, quote)
	return &QuoteResult{Quote: quote, Meta: meta}, nil
}

// RefreshAll 批量刷新一组代码的行情，供调度器在盘中周期调用。
// 单个代码的失败不会中断整批。
func (s *RealtimeService) RefreshAll(ctx context.Context, symbols []string) (int, error) {
	if len(symbols) == 0 {
		return 0, nil
	}

	normalized := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		sym := market.Normalize(symbol)
		if market.ValidSymbol(sym) {
			normalized = append(normalized, sym)
		}
	}

	fetched, err := s.quotes.FetchQuotes(ctx, normalized)
	if err != nil {
		return 0, apperr.Wrap(apperr.UpstreamUnavailable, "batch quote fetch failed", err)
	}

	saved := 0
	for i := range fetched {
		quote := &fetched[i]
		if err := s.store.UpsertQuote(ctx, quote); err != nil {
			s.log.WithError(err).Warnf("行情快照写入失败: %s", quote.Symbol)
			continue
		}
		s.cacheSet(ctx, quote)
		saved++
	}
	return saved, nil
}

// cacheSet 回写一级缓存，TTL按交易时段状态选择
func (s *RealtimeService) cacheSet(ctx context.Context, quote *core.RealtimeQuote) {
	if s.cache == nil {
		return
	}
	ttl := freshness.TTL(freshness.TierRealtime)
	if s.session != nil && !s.session.IsOpenNow() {
		ttl = offSessionCacheTTL
	}
	s.cache.Set(ctx, quote, ttl)
}
