package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"akcache/pkg/apperr"
	"akcache/pkg/core"
	"akcache/pkg/logger"
	"akcache/pkg/market"
	"akcache/pkg/upstream"
)

// DailyResult 日线查询结果：数据行 + 核心自行填充的结构化元数据
type DailyResult struct {
	Bars []core.DailyBar `json:"bars"`
	Meta core.Meta       `json:"meta"`
}

// DailyService 日线覆盖对账服务。
// 对每次请求重新推导覆盖情况：期望交易日集合来自交易日历，
// 已缓存集合来自仓储，缺口整段向上游拉取后合并回写。
// 服务自身在两次调用之间不保留任何状态。
type DailyService struct {
	store  BarStore
	assets *AssetService
	client upstream.Client
	cal    *market.Calendar
	clock  market.Clock
	log    *logrus.Entry
}

// NewDailyService 创建日线服务。assets 可为 nil（跳过资产登记）。
func NewDailyService(store BarStore, assets *AssetService, client upstream.Client, cal *market.Calendar, clock market.Clock) *DailyService {
	if clock == nil {
		clock = market.SystemClock{}
	}
	return &DailyService{
		store:  store,
		assets: assets,
		client: client,
		cal:    cal,
		clock:  clock,
		log:    logger.WithComponent("DailyService"),
	}
}

// GetDaily 返回[startStr, endStr]闭区间（YYYYMMDD）内的日线。
//
// 1. 由交易日历计算期望交易日集合；
// 2. 查询仓储中已有的交易日；
// 3. 无缺口则直接返回缓存（完全命中）；
// 4. 有缺口则向上游整段拉取（上游不支持按天稀疏拉取）；
// 5. 拉取结果按 (代码, 交易日, 复权) 冲突忽略写回，已存在行以仓储为准；
// 6. 返回缓存与新取数据的并集，限定在期望交易日内，按日期升序。
func (s *DailyService) GetDaily(ctx context.Context, symbol, startStr, endStr, adjust string) (*DailyResult, error) {
	started := s.clock.Now()

	sym := market.Normalize(symbol)
	if !market.ValidSymbol(sym) {
		return nil, apperr.New(apperr.InvalidSymbol, "invalid symbol").WithContext("symbol", symbol)
	}
	if _, ok := map[string]bool{"": true, "qfq": true, "hfq": true}[adjust]; !ok {
		return nil, apperr.New(apperr.InvalidAdjust, "adjust must be one of \"\", qfq, hfq").WithContext("adjust", adjust)
	}

	start, err := market.ParseDay(startStr)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidDateRange, "invalid start date", err)
	}
	end, err := market.ParseDay(endStr)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidDateRange, "invalid end date", err)
	}
	if end.Before(start) {
		return nil, apperr.New(apperr.InvalidDateRange, "end date before start date")
	}

	meta := core.Meta{Symbol: sym, Adjust: adjust}

	// 1. 期望交易日集合
	days := s.cal.TradingDays(start, end, market.For(sym))
	meta.ExpectedDays = len(days)
	if len(days) == 0 {
		// 区间内没有交易日（如整段落在周末），不触碰仓储和上游
		meta.Status = core.StatusNoTradingDays
		meta.ElapsedMS = s.elapsedMS(started)
		return &DailyResult{Bars: []core.DailyBar{}, Meta: meta}, nil
	}

	// 首次引用的代码在这里登记为资产
	if s.assets != nil {
		if _, err := s.assets.GetOrCreate(ctx, sym); err != nil {
			return nil, err
		}
	}

	// 2. 已缓存集合
	cached, err := s.store.DailyBarsBetween(ctx, sym, days[0], days[len(days)-1], adjust)
	if err != nil {
		return nil, err
	}

	expected := make(map[string]struct{}, len(days))
	for _, d := range days {
		expected[market.FormatDay(d)] = struct{}{}
	}
	byDay := make(map[string]core.DailyBar, len(days))
	for _, bar := range cached {
		day := market.FormatDay(bar.TradeDate)
		if _, ok := expected[day]; ok {
			byDay[day] = bar
		}
	}

	// 3. 无缺口：完全命中
	missing := len(days) - len(byDay)
	if missing == 0 {
		meta.CacheHit = true
		meta.Status = core.StatusOK
		meta.HitRatio = 1
		bars := s.assemble(days, byDay)
		meta.RecordCount = len(bars)
		meta.ElapsedMS = s.elapsedMS(started)
		if err := s.store.TouchCoverageAccess(ctx, sym, adjust); err != nil {
			s.log.WithError(err).Debugf("覆盖访问计数失败: %s", sym)
		}
		return &DailyResult{Bars: bars, Meta: meta}, nil
	}

	// 4. 有缺口：整段拉取
	meta.UpstreamCalled = true
	meta.HitRatio = float64(len(byDay)) / float64(len(days))
	fetched, err := s.client.FetchDailyBars(ctx, sym, start, end, adjust)
	if err != nil {
		// 上游不可用：降级返回已有的缓存覆盖，缺失交易日如实上报
		s.log.WithError(err).Warnf("上游拉取失败，降级返回缓存: %s [%s, %s]", sym, startStr, endStr)
		bars := s.assemble(days, byDay)
		meta.Status = core.StatusDegraded
		meta.RecordCount = len(bars)
		meta.MissingDays = missing
		meta.ElapsedMS = s.elapsedMS(started)
		return &DailyResult{Bars: bars, Meta: meta}, nil
	}

	// 5. 合并回写，已存在行不被覆盖
	inserted, err := s.store.InsertDailyBars(ctx, fetched)
	if err != nil {
		return nil, err
	}
	if inserted > 0 {
		if err := s.store.RefreshCoverage(ctx, sym, adjust); err != nil {
			s.log.WithError(err).Warnf("覆盖汇总刷新失败: %s", sym)
		}
	}

	// 6. 并集，限定期望交易日，仓储已有行优先
	for _, bar := range fetched {
		day := market.FormatDay(bar.TradeDate)
		if _, ok := expected[day]; !ok {
			continue
		}
		if _, exists := byDay[day]; !exists {
			byDay[day] = bar
		}
	}

	bars := s.assemble(days, byDay)
	meta.RecordCount = len(bars)
	meta.MissingDays = len(days) - len(byDay)
	switch {
	case len(bars) == 0:
		// 上游对真实缺失的交易日返回空（如已退市），缺口保留不重试
		meta.Status = core.StatusNoData
	default:
		meta.Status = core.StatusOK
	}
	meta.ElapsedMS = s.elapsedMS(started)
	return &DailyResult{Bars: bars, Meta: meta}, nil
}

// Coverage 返回 (symbol, adjust) 的缓存覆盖汇总
func (s *DailyService) Coverage(ctx context.Context, symbol, adjust string) (*core.DataCoverage, error) {
	sym := market.Normalize(symbol)
	if !market.ValidSymbol(sym) {
		return nil, apperr.New(apperr.InvalidSymbol, "invalid symbol").WithContext("symbol", symbol)
	}
	cov, err := s.store.GetCoverage(ctx, sym, adjust)
	if err != nil {
		return nil, err
	}
	if cov == nil {
		return &core.DataCoverage{Symbol: sym, Adjust: adjust}, nil
	}
	return cov, nil
}

// assemble 按期望交易日顺序装配结果行
func (s *DailyService) assemble(days []time.Time, byDay map[string]core.DailyBar) []core.DailyBar {
	bars := make([]core.DailyBar, 0, len(byDay))
	for _, d := range days {
		if bar, ok := byDay[market.FormatDay(d)]; ok {
			bars = append(bars, bar)
		}
	}
	return bars
}

func (s *DailyService) elapsedMS(started time.Time) int64 {
	return s.clock.Now().Sub(started).Milliseconds()
}
