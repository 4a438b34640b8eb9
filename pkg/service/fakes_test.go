package service

import (
	"context"
	"sort"
	"time"

	"akcache/pkg/core"
	"akcache/pkg/freshness"
	"akcache/pkg/market"
)

func newTestPolicy(clock market.Clock) *freshness.Policy {
	return freshness.NewPolicy(clock, nil)
}

// 服务层测试共用的内存假件。
// 行为对齐真实实现的契约：插入冲突忽略、不存在返回 (nil, nil)。

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time { return c.now }

func at(s string) time.Time {
	t, err := time.Parse("20060102 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func day(s string) time.Time {
	t, err := market.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

type barKey struct {
	symbol string
	day    string
	adjust string
}

type fakeBarStore struct {
	bars map[barKey]core.DailyBar

	insertCalls      int
	refreshCalls     int
	touchCalls       int
	queryErr         error
	insertErr        error
	touchErr         error
	coverageBySymbol map[string]*core.DataCoverage
}

func newFakeBarStore() *fakeBarStore {
	return &fakeBarStore{
		bars:             make(map[barKey]core.DailyBar),
		coverageBySymbol: make(map[string]*core.DataCoverage),
	}
}

func (f *fakeBarStore) put(bar core.DailyBar) {
	f.bars[barKey{bar.Symbol, market.FormatDay(bar.TradeDate), bar.Adjust}] = bar
}

func (f *fakeBarStore) DailyBarsBetween(_ context.Context, symbol string, start, end time.Time, adjust string) ([]core.DailyBar, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []core.DailyBar
	for k, bar := range f.bars {
		if k.symbol != symbol || k.adjust != adjust {
			continue
		}
		if bar.TradeDate.Before(start) || bar.TradeDate.After(end) {
			continue
		}
		out = append(out, bar)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TradeDate.Before(out[j].TradeDate) })
	return out, nil
}

func (f *fakeBarStore) InsertDailyBars(_ context.Context, bars []core.DailyBar) (int64, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	var inserted int64
	for _, bar := range bars {
		k := barKey{bar.Symbol, market.FormatDay(bar.TradeDate), bar.Adjust}
		if _, exists := f.bars[k]; exists {
			continue
		}
		f.bars[k] = bar
		inserted++
	}
	return inserted, nil
}

func (f *fakeBarStore) RefreshCoverage(_ context.Context, symbol, adjust string) error {
	f.refreshCalls++
	return nil
}

func (f *fakeBarStore) GetCoverage(_ context.Context, symbol, adjust string) (*core.DataCoverage, error) {
	return f.coverageBySymbol[symbol+"|"+adjust], nil
}

func (f *fakeBarStore) TouchCoverageAccess(_ context.Context, symbol, adjust string) error {
	f.touchCalls++
	return f.touchErr
}

type fakeUpstream struct {
	bars      []core.DailyBar
	barsErr   error
	meta      *core.AssetMeta
	metaErr   error
	barCalls  int
	metaCalls int

	// 记录最近一次日线请求的区间
	lastStart time.Time
	lastEnd   time.Time
}

func (f *fakeUpstream) Name() string                    { return "fake" }
func (f *fakeUpstream) IsHealthy() bool                 { return true }
func (f *fakeUpstream) GetRateLimit() time.Duration     { return 0 }
func (f *fakeUpstream) IsSymbolSupported(_ string) bool { return true }

func (f *fakeUpstream) FetchDailyBars(_ context.Context, symbol string, start, end time.Time, adjust string) ([]core.DailyBar, error) {
	f.barCalls++
	f.lastStart, f.lastEnd = start, end
	if f.barsErr != nil {
		return nil, f.barsErr
	}
	return f.bars, nil
}

func (f *fakeUpstream) FetchAssetMeta(_ context.Context, symbol string) (*core.AssetMeta, error) {
	f.metaCalls++
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta, nil
}

type fakeAssetStore struct {
	assets  map[string]*core.Asset
	getErr  error
	saveErr error
	saves   int
}

func newFakeAssetStore() *fakeAssetStore {
	return &fakeAssetStore{assets: make(map[string]*core.Asset)}
}

func (f *fakeAssetStore) GetAsset(_ context.Context, symbol string) (*core.Asset, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if a, ok := f.assets[symbol]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeAssetStore) SaveAsset(_ context.Context, asset *core.Asset) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	copied := *asset
	f.assets[asset.Symbol] = &copied
	return nil
}

type fakeQuoteStore struct {
	quotes    map[string]*core.RealtimeQuote
	getErr    error
	upsertErr error
	upserts   int
}

func newFakeQuoteStore() *fakeQuoteStore {
	return &fakeQuoteStore{quotes: make(map[string]*core.RealtimeQuote)}
}

func (f *fakeQuoteStore) LatestQuote(_ context.Context, symbol string) (*core.RealtimeQuote, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if q, ok := f.quotes[symbol]; ok {
		copied := *q
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeQuoteStore) UpsertQuote(_ context.Context, quote *core.RealtimeQuote) error {
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	copied := *quote
	f.quotes[quote.Symbol] = &copied
	return nil
}

type fakeQuoteProvider struct {
	quotes []core.RealtimeQuote
	err    error
	calls  int
}

func (f *fakeQuoteProvider) Name() string                { return "fake-quotes" }
func (f *fakeQuoteProvider) IsHealthy() bool             { return true }
func (f *fakeQuoteProvider) GetRateLimit() time.Duration { return 0 }

func (f *fakeQuoteProvider) FetchQuotes(_ context.Context, symbols []string) ([]core.RealtimeQuote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

type fakeQuoteCache struct {
	entries map[string]*core.RealtimeQuote
	sets    int
}

func newFakeQuoteCache() *fakeQuoteCache {
	return &fakeQuoteCache{entries: make(map[string]*core.RealtimeQuote)}
}

func (f *fakeQuoteCache) Get(_ context.Context, symbol string) (*core.RealtimeQuote, bool) {
	q, ok := f.entries[symbol]
	return q, ok
}

func (f *fakeQuoteCache) Set(_ context.Context, quote *core.RealtimeQuote, _ time.Duration) {
	f.sets++
	f.entries[quote.Symbol] = quote
}

// bar 构造测试日线
func bar(symbol, d, adjust string, close float64) core.DailyBar {
	return core.DailyBar{
		Symbol:    symbol,
		TradeDate: day(d),
		Adjust:    adjust,
		Open:      close - 0.1,
		High:      close + 0.2,
		Low:       close - 0.2,
		Close:     close,
		Volume:    10000,
	}
}
