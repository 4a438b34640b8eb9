package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"akcache/pkg/apperr"
	"akcache/pkg/core"
	"akcache/pkg/market"
)

func newDailyService(store *fakeBarStore, up *fakeUpstream) *DailyService {
	clock := fakeClock{now: at("20230110 12:00:00")}
	return NewDailyService(store, nil, up, market.NewCalendar(), clock)
}

func TestDailyService_FullCacheHit(t *testing.T) {
	store := newFakeBarStore()
	store.put(bar("600000", "20230103", "", 10.1))
	store.put(bar("600000", "20230104", "", 10.2))
	store.put(bar("600000", "20230105", "", 10.3))
	up := &fakeUpstream{}
	svc := newDailyService(store, up)

	result, err := svc.GetDaily(context.Background(), "600000", "20230103", "20230105", "")
	assert.NoError(t, err)
	assert.Len(t, result.Bars, 3)

	assert.Equal(t, core.StatusOK, result.Meta.Status)
	assert.True(t, result.Meta.CacheHit)
	assert.False(t, result.Meta.UpstreamCalled)
	assert.Equal(t, 1.0, result.Meta.HitRatio)
	assert.Equal(t, 3, result.Meta.ExpectedDays)
	assert.Equal(t, 0, result.Meta.MissingDays)
	assert.Equal(t, 0, up.barCalls)
	assert.Equal(t, 1, store.touchCalls)
}

func TestDailyService_NoTradingDays(t *testing.T) {
	store := newFakeBarStore()
	up := &fakeUpstream{}
	svc := newDailyService(store, up)

	// 周六到周日
	result, err := svc.GetDaily(context.Background(), "600000", "20230107", "20230108", "")
	assert.NoError(t, err)
	assert.Empty(t, result.Bars)
	assert.Equal(t, core.StatusNoTradingDays, result.Meta.Status)
	assert.Equal(t, 0, result.Meta.ExpectedDays)

	// 仓储和上游都不触碰
	assert.Equal(t, 0, up.barCalls)
	assert.Equal(t, 0, store.insertCalls)
}

func TestDailyService_GapFetchesWholeRange(t *testing.T) {
	store := newFakeBarStore()
	// 仅中间一天已缓存
	store.put(bar("600000", "20230104", "", 11.0))
	up := &fakeUpstream{bars: []core.DailyBar{
		bar("600000", "20230103", "", 10.1),
		bar("600000", "20230104", "", 99.0), // 与仓储不同的值
		bar("600000", "20230105", "", 10.3),
	}}
	svc := newDailyService(store, up)

	result, err := svc.GetDaily(context.Background(), "600000", "20230103", "20230105", "")
	assert.NoError(t, err)

	// 上游整段拉取一次，区间是原始请求区间
	assert.Equal(t, 1, up.barCalls)
	assert.Equal(t, "20230103", market.FormatDay(up.lastStart))
	assert.Equal(t, "20230105", market.FormatDay(up.lastEnd))

	// 三个交易日全部返回，升序
	assert.Len(t, result.Bars, 3)
	assert.Equal(t, "20230103", market.FormatDay(result.Bars[0].TradeDate))
	assert.Equal(t, "20230104", market.FormatDay(result.Bars[1].TradeDate))
	assert.Equal(t, "20230105", market.FormatDay(result.Bars[2].TradeDate))

	// 已缓存的行以仓储为准，不被上游覆盖
	assert.Equal(t, 11.0, result.Bars[1].Close)
	stored, _ := store.DailyBarsBetween(context.Background(), "600000", day("20230104"), day("20230104"), "")
	assert.Equal(t, 11.0, stored[0].Close)

	assert.Equal(t, core.StatusOK, result.Meta.Status)
	assert.False(t, result.Meta.CacheHit)
	assert.True(t, result.Meta.UpstreamCalled)
	assert.InDelta(t, 1.0/3.0, result.Meta.HitRatio, 0.001)
	assert.Equal(t, 0, result.Meta.MissingDays)
	assert.Equal(t, 1, store.refreshCalls)
}

func TestDailyService_SecondCallHitsCache(t *testing.T) {
	store := newFakeBarStore()
	up := &fakeUpstream{bars: []core.DailyBar{
		bar("600000", "20230103", "", 10.1),
		bar("600000", "20230104", "", 10.2),
		bar("600000", "20230105", "", 10.3),
	}}
	svc := newDailyService(store, up)

	first, err := svc.GetDaily(context.Background(), "600000", "20230103", "20230105", "")
	assert.NoError(t, err)
	assert.True(t, first.Meta.UpstreamCalled)
	assert.Len(t, first.Bars, 3)

	// 第二次调用完全命中，上游不再触发
	second, err := svc.GetDaily(context.Background(), "600000", "20230103", "20230105", "")
	assert.NoError(t, err)
	assert.True(t, second.Meta.CacheHit)
	assert.False(t, second.Meta.UpstreamCalled)
	assert.Equal(t, 1, up.barCalls)
	assert.Equal(t, first.Bars, second.Bars)
}

func TestDailyService_AdjustKeyedSeparately(t *testing.T) {
	store := newFakeBarStore()
	// qfq 缓存不满足不复权请求
	store.put(bar("600000", "20230103", "qfq", 9.1))
	store.put(bar("600000", "20230104", "qfq", 9.2))
	store.put(bar("600000", "20230105", "qfq", 9.3))
	up := &fakeUpstream{bars: []core.DailyBar{
		bar("600000", "20230103", "", 10.1),
		bar("600000", "20230104", "", 10.2),
		bar("600000", "20230105", "", 10.3),
	}}
	svc := newDailyService(store, up)

	result, err := svc.GetDaily(context.Background(), "600000", "20230103", "20230105", "")
	assert.NoError(t, err)
	assert.True(t, result.Meta.UpstreamCalled)
	assert.Equal(t, 1, up.barCalls)
	assert.Equal(t, 10.1, result.Bars[0].Close)
}

func TestDailyService_UpstreamFailureDegrades(t *testing.T) {
	store := newFakeBarStore()
	store.put(bar("600000", "20230104", "", 11.0))
	up := &fakeUpstream{barsErr: errors.New("connection refused")}
	svc := newDailyService(store, up)

	result, err := svc.GetDaily(context.Background(), "600000", "20230103", "20230105", "")
	assert.NoError(t, err)

	// 降级返回已有缓存，缺口如实上报
	assert.Equal(t, core.StatusDegraded, result.Meta.Status)
	assert.Len(t, result.Bars, 1)
	assert.Equal(t, 2, result.Meta.MissingDays)
	assert.True(t, result.Meta.UpstreamCalled)
}

func TestDailyService_UpstreamEmptyNoData(t *testing.T) {
	store := newFakeBarStore()
	up := &fakeUpstream{} // 正常响应但无数据
	svc := newDailyService(store, up)

	result, err := svc.GetDaily(context.Background(), "600000", "20230103", "20230105", "")
	assert.NoError(t, err)
	assert.Empty(t, result.Bars)
	assert.Equal(t, core.StatusNoData, result.Meta.Status)
	assert.Equal(t, 3, result.Meta.MissingDays)
	// 无新行写入时不刷新覆盖汇总
	assert.Equal(t, 0, store.refreshCalls)
}

func TestDailyService_OutOfRangeRowsExcluded(t *testing.T) {
	store := newFakeBarStore()
	up := &fakeUpstream{bars: []core.DailyBar{
		bar("600000", "20230103", "", 10.1),
		bar("600000", "20230104", "", 10.2),
		bar("600000", "20230105", "", 10.3),
		bar("600000", "20230107", "", 10.4), // 周六，不在期望交易日内
	}}
	svc := newDailyService(store, up)

	result, err := svc.GetDaily(context.Background(), "600000", "20230103", "20230105", "")
	assert.NoError(t, err)
	assert.Len(t, result.Bars, 3)
	for _, b := range result.Bars {
		assert.NotEqual(t, "20230107", market.FormatDay(b.TradeDate))
	}
}

func TestDailyService_Validation(t *testing.T) {
	svc := newDailyService(newFakeBarStore(), &fakeUpstream{})
	ctx := context.Background()

	_, err := svc.GetDaily(ctx, "not-a-symbol", "20230103", "20230105", "")
	assert.True(t, apperr.IsCode(err, apperr.InvalidSymbol))

	_, err = svc.GetDaily(ctx, "600000", "20230103", "20230105", "bad")
	assert.True(t, apperr.IsCode(err, apperr.InvalidAdjust))

	_, err = svc.GetDaily(ctx, "600000", "2023-01-03", "20230105", "")
	assert.True(t, apperr.IsCode(err, apperr.InvalidDateRange))

	_, err = svc.GetDaily(ctx, "600000", "20230105", "20230103", "")
	assert.True(t, apperr.IsCode(err, apperr.InvalidDateRange))
}

func TestDailyService_RegistersAssetOnFirstUse(t *testing.T) {
	barStore := newFakeBarStore()
	assetStore := newFakeAssetStore()
	up := &fakeUpstream{
		bars: []core.DailyBar{bar("600000", "20230103", "", 10.1)},
		meta: &core.AssetMeta{Name: "浦发银行", Industry: "银行"},
	}
	clock := fakeClock{now: at("20230110 12:00:00")}
	assets := NewAssetService(assetStore, up, newTestPolicy(clock), clock)
	svc := NewDailyService(barStore, assets, up, market.NewCalendar(), clock)

	_, err := svc.GetDaily(context.Background(), "600000", "20230103", "20230103", "")
	assert.NoError(t, err)

	created, _ := assetStore.GetAsset(context.Background(), "600000")
	assert.NotNil(t, created)
	assert.Equal(t, "浦发银行", created.Name)
}

func TestDailyService_Coverage(t *testing.T) {
	store := newFakeBarStore()
	svc := newDailyService(store, &fakeUpstream{})

	// 无覆盖记录时返回零值而不是错误
	cov, err := svc.Coverage(context.Background(), "600000", "")
	assert.NoError(t, err)
	assert.Equal(t, "600000", cov.Symbol)
	assert.Equal(t, int64(0), cov.RecordCount)

	first := day("20230103")
	last := day("20230105")
	store.coverageBySymbol["600000|"] = &core.DataCoverage{
		Symbol: "600000", FirstDate: &first, LastDate: &last, RecordCount: 3,
	}
	cov, err = svc.Coverage(context.Background(), "600000", "")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), cov.RecordCount)

	_, err = svc.Coverage(context.Background(), "bad symbol", "")
	assert.True(t, apperr.IsCode(err, apperr.InvalidSymbol))
}
