package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"akcache/pkg/apperr"
	"akcache/pkg/core"
	"akcache/pkg/freshness"
	"akcache/pkg/logger"
	"akcache/pkg/market"
	"akcache/pkg/upstream"
)

// AssetResult 资产解析结果。实体与元数据合在一个显式结构里，
// 不使用"有时返回元组有时返回裸对象"的形式。
type AssetResult struct {
	Asset *core.Asset `json:"asset"`
	Meta  core.Meta   `json:"meta"`
}

// AssetService 资产解析服务（get-or-create）。
// 无论上游是否可用都保证返回一个合法的资产记录，
// 彻底失败时退化为以代码本身为名称的占位记录。
type AssetService struct {
	store  AssetStore
	meta   upstream.MetaProvider
	policy *freshness.Policy
	clock  market.Clock
	log    *logrus.Entry
}

// NewAssetService 创建资产解析服务
func NewAssetService(store AssetStore, meta upstream.MetaProvider, policy *freshness.Policy, clock market.Clock) *AssetService {
	if clock == nil {
		clock = market.SystemClock{}
	}
	return &AssetService{
		store:  store,
		meta:   meta,
		policy: policy,
		clock:  clock,
		log:    logger.WithComponent("AssetService"),
	}
}

// GetOrCreate 按代码解析资产：
// 存在且新鲜（daily档位）→ 直接返回；存在但过期 → 上游刷新后原地更新；
// 不存在 → 由上游数据创建，上游失败时创建占位记录。
// 除仓储错误外总是返回非空资产。
func (s *AssetService) GetOrCreate(ctx context.Context, symbol string) (*AssetResult, error) {
	sym := market.Normalize(symbol)
	if !market.ValidSymbol(sym) {
		return nil, apperr.New(apperr.InvalidSymbol, "invalid symbol").WithContext("symbol", symbol)
	}

	asset, err := s.store.GetAsset(ctx, sym)
	if err != nil {
		return nil, err
	}

	meta := core.Meta{Symbol: sym, Status: core.StatusOK, RecordCount: 1}

	if asset != nil && s.policy.IsFresh(asset.LastUpdated, freshness.TierDaily) {
		meta.CacheHit = true
		return &AssetResult{Asset: asset, Meta: meta}, nil
	}

	if asset != nil {
		// 过期：上游刷新，失败则保留旧记录且不更新新鲜度时间戳
		meta.UpstreamCalled = true
		fetched, ferr := s.meta.FetchAssetMeta(ctx, sym)
		if ferr != nil {
			s.log.WithError(ferr).Warnf("资产元数据刷新失败，沿用过期记录: %s", sym)
			meta.Status = core.StatusDegraded
			return &AssetResult{Asset: asset, Meta: meta}, nil
		}
		s.apply(asset, fetched)
		asset.LastUpdated = s.clock.Now()
		if err := s.store.SaveAsset(ctx, asset); err != nil {
			return nil, err
		}
		return &AssetResult{Asset: asset, Meta: meta}, nil
	}

	// 不存在：创建
	meta.UpstreamCalled = true
	meta.Created = true
	asset = &core.Asset{
		Symbol:   sym,
		Exchange: exchangeFor(sym),
		Currency: currencyFor(sym),
	}

	fetched, ferr := s.meta.FetchAssetMeta(ctx, sym)
	if ferr != nil {
		// 占位记录：名称用代码本身，时间戳保持零值使下次调用重新拉取
		s.log.WithError(ferr).Warnf("资产元数据拉取失败，创建占位记录: %s", sym)
		asset.Name = sym
		asset.DataSource = "placeholder"
		meta.Status = core.StatusDegraded
	} else {
		s.apply(asset, fetched)
		asset.LastUpdated = s.clock.Now()
	}

	if err := s.store.SaveAsset(ctx, asset); err != nil {
		return nil, err
	}
	return &AssetResult{Asset: asset, Meta: meta}, nil
}

// apply 将上游元数据套用到资产记录
func (s *AssetService) apply(asset *core.Asset, m *core.AssetMeta) {
	if m.Name != "" {
		asset.Name = m.Name
	}
	asset.Industry = m.Industry
	asset.Concept = m.Concept
	asset.ListingDate = m.ListingDate
	asset.TotalShares = m.TotalShares
	asset.MarketCap = m.MarketCap
	asset.PE = m.PE
	asset.PB = m.PB
	asset.ROE = m.ROE
	asset.DataSource = s.meta.Name()
}

// exchangeFor 按代码形态推断交易所标签
func exchangeFor(symbol string) string {
	s := market.Normalize(symbol)
	switch {
	case market.IsIndex(s):
		return "INDEX"
	case strings.HasPrefix(s, "bj"), strings.HasPrefix(s, "8"), strings.HasPrefix(s, "4"):
		return "BSE"
	case market.For(s) == market.MarketHongKong:
		return "HKEX"
	case strings.HasPrefix(strings.TrimPrefix(s, "sh"), "6"):
		return "SSE"
	default:
		return "SZSE"
	}
}

// currencyFor 按市场推断计价货币
func currencyFor(symbol string) string {
	if market.For(symbol) == market.MarketHongKong {
		return "HKD"
	}
	return "CNY"
}
