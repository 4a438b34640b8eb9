package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"akcache/pkg/apperr"
	"akcache/pkg/core"
)

func quote(symbol string, price float64, capturedAt time.Time) *core.RealtimeQuote {
	return &core.RealtimeQuote{
		Symbol:     symbol,
		Name:       "测试",
		Price:      price,
		CapturedAt: capturedAt,
	}
}

func newRealtimeService(store *fakeQuoteStore, provider *fakeQuoteProvider, cache *fakeQuoteCache, clock fakeClock) *RealtimeService {
	var qc QuoteCache
	if cache != nil {
		qc = cache
	}
	return NewRealtimeService(store, provider, qc, newTestPolicy(clock), nil)
}

func TestRealtimeService_CacheHit(t *testing.T) {
	clock := fakeClock{now: at("20230103 10:00:00")}
	cache := newFakeQuoteCache()
	cache.entries["600000"] = quote("600000", 10.5, clock.now)
	provider := &fakeQuoteProvider{}
	svc := newRealtimeService(newFakeQuoteStore(), provider, cache, clock)

	result, err := svc.GetQuote(context.Background(), "600000")
	assert.NoError(t, err)
	assert.True(t, result.Meta.CacheHit)
	assert.Equal(t, 10.5, result.Quote.Price)
	assert.Equal(t, 0, provider.calls)
}

func TestRealtimeService_FreshStoredSnapshot(t *testing.T) {
	clock := fakeClock{now: at("20230103 10:00:00")}
	store := newFakeQuoteStore()
	store.quotes["600000"] = quote("600000", 10.5, clock.now.Add(-10*time.Second))
	provider := &fakeQuoteProvider{}
	cache := newFakeQuoteCache()
	svc := newRealtimeService(store, provider, cache, clock)

	result, err := svc.GetQuote(context.Background(), "600000")
	assert.NoError(t, err)
	assert.True(t, result.Meta.CacheHit)
	assert.False(t, result.Meta.UpstreamCalled)
	assert.Equal(t, 0, provider.calls)
	// 数据库命中后回填一级缓存
	assert.Equal(t, 1, cache.sets)
}

func TestRealtimeService_StaleSnapshotFetchesUpstream(t *testing.T) {
	clock := fakeClock{now: at("20230103 10:00:00")}
	store := newFakeQuoteStore()
	store.quotes["600000"] = quote("600000", 10.0, clock.now.Add(-5*time.Minute))
	provider := &fakeQuoteProvider{quotes: []core.RealtimeQuote{*quote("600000", 10.8, clock.now)}}
	svc := newRealtimeService(store, provider, newFakeQuoteCache(), clock)

	result, err := svc.GetQuote(context.Background(), "600000")
	assert.NoError(t, err)
	assert.True(t, result.Meta.UpstreamCalled)
	assert.Equal(t, 10.8, result.Quote.Price)
	assert.Equal(t, 1, store.upserts)
}

func TestRealtimeService_UpstreamFailureDegradesToStale(t *testing.T) {
	clock := fakeClock{now: at("20230103 10:00:00")}
	store := newFakeQuoteStore()
	store.quotes["600000"] = quote("600000", 10.0, clock.now.Add(-5*time.Minute))
	provider := &fakeQuoteProvider{err: errors.New("connection refused")}
	svc := newRealtimeService(store, provider, nil, clock)

	result, err := svc.GetQuote(context.Background(), "600000")
	assert.NoError(t, err)
	assert.Equal(t, core.StatusDegraded, result.Meta.Status)
	assert.Equal(t, 10.0, result.Quote.Price)
}

func TestRealtimeService_UpstreamFailureWithoutSnapshot(t *testing.T) {
	clock := fakeClock{now: at("20230103 10:00:00")}
	provider := &fakeQuoteProvider{err: errors.New("connection refused")}
	svc := newRealtimeService(newFakeQuoteStore(), provider, nil, clock)

	_, err := svc.GetQuote(context.Background(), "600000")
	assert.True(t, apperr.IsCode(err, apperr.UpstreamUnavailable))
}

func TestRealtimeService_NoDataWithoutSnapshot(t *testing.T) {
	clock := fakeClock{now: at("20230103 10:00:00")}
	provider := &fakeQuoteProvider{} // 正常响应但无数据
	svc := newRealtimeService(newFakeQuoteStore(), provider, nil, clock)

	_, err := svc.GetQuote(context.Background(), "600000")
	assert.True(t, apperr.IsCode(err, apperr.NoData))
}

func TestRealtimeService_InvalidSymbol(t *testing.T) {
	clock := fakeClock{now: at("20230103 10:00:00")}
	svc := newRealtimeService(newFakeQuoteStore(), &fakeQuoteProvider{}, nil, clock)

	_, err := svc.GetQuote(context.Background(), "??")
	assert.True(t, apperr.IsCode(err, apperr.InvalidSymbol))
}

func TestRealtimeService_RefreshAll(t *testing.T) {
	clock := fakeClock{now: at("20230103 10:00:00")}
	store := newFakeQuoteStore()
	provider := &fakeQuoteProvider{quotes: []core.RealtimeQuote{
		*quote("600000", 10.5, clock.now),
		*quote("000001", 12.8, clock.now),
	}}
	cache := newFakeQuoteCache()
	svc := newRealtimeService(store, provider, cache, clock)

	// 非法代码在批量刷新中被过滤而不是报错
	saved, err := svc.RefreshAll(context.Background(), []string{"600000", "bad!!", "000001"})
	assert.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.Equal(t, 2, store.upserts)
	assert.Equal(t, 2, cache.sets)
}

func TestRealtimeService_RefreshAllEmptyList(t *testing.T) {
	clock := fakeClock{now: at("20230103 10:00:00")}
	provider := &fakeQuoteProvider{}
	svc := newRealtimeService(newFakeQuoteStore(), provider, nil, clock)

	saved, err := svc.RefreshAll(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, saved)
	assert.Equal(t, 0, provider.calls)
}

func TestRealtimeService_RefreshAllContinuesOnWriteFailure(t *testing.T) {
	clock := fakeClock{now: at("20230103 10:00:00")}
	store := newFakeQuoteStore()
	store.upsertErr = errors.New("disk full")
	provider := &fakeQuoteProvider{quotes: []core.RealtimeQuote{
		*quote("600000", 10.5, clock.now),
		*quote("000001", 12.8, clock.now),
	}}
	svc := newRealtimeService(store, provider, nil, clock)

	saved, err := svc.RefreshAll(context.Background(), []string{"600000", "000001"})
	assert.NoError(t, err)
	assert.Equal(t, 0, saved)
	assert.Equal(t, 2, store.upserts)
}
