package freshness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"akcache/pkg/market"
)

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

func TestTTL(t *testing.T) {
	assert.Equal(t, 24*time.Hour, TTL(TierDaily))
	assert.Equal(t, 7*24*time.Hour, TTL(TierWeekly))
	assert.Equal(t, 30*time.Second, TTL(TierRealtime))
}

func TestPolicy_IsFresh_Daily(t *testing.T) {
	now := at("20230103 12:00:00")
	policy := NewPolicy(fakeClock{now: now}, nil)

	// 刚刷新：新鲜
	assert.True(t, policy.IsFresh(now, TierDaily))
	// 23小时前：仍在24小时内
	assert.True(t, policy.IsFresh(now.Add(-23*time.Hour), TierDaily))
	// 48小时前：过期
	assert.False(t, policy.IsFresh(now.Add(-48*time.Hour), TierDaily))
	// 零值时间戳：永远过期
	assert.False(t, policy.IsFresh(time.Time{}, TierDaily))
}

func TestPolicy_IsFresh_Weekly(t *testing.T) {
	now := at("20230103 12:00:00")
	policy := NewPolicy(fakeClock{now: now}, nil)

	assert.True(t, policy.IsFresh(now.Add(-6*24*time.Hour), TierWeekly))
	assert.False(t, policy.IsFresh(now.Add(-8*24*time.Hour), TierWeekly))
}

func TestPolicy_IsFresh_RealtimeInSession(t *testing.T) {
	// 交易日盘中
	now := at("20230103 10:00:00")
	clock := fakeClock{now: now}
	session := market.NewSession(market.NewCalendar(), market.MarketChinaA, clock)
	policy := NewPolicy(clock, session)

	// 10秒前的快照仍新鲜
	assert.True(t, policy.IsFresh(now.Add(-10*time.Second), TierRealtime))
	// 2分钟前的快照过期
	assert.False(t, policy.IsFresh(now.Add(-2*time.Minute), TierRealtime))
}

func TestPolicy_IsFresh_RealtimeMarketClosed(t *testing.T) {
	// 交易日盘后：行情不再变化，任意旧快照都视为新鲜
	now := at("20230103 20:00:00")
	clock := fakeClock{now: now}
	session := market.NewSession(market.NewCalendar(), market.MarketChinaA, clock)
	policy := NewPolicy(clock, session)

	assert.True(t, policy.IsFresh(now.Add(-5*time.Hour), TierRealtime))

	// 零值仍然过期，休市不豁免"从未采集过"
	assert.False(t, policy.IsFresh(time.Time{}, TierRealtime))
}

func TestPolicy_IsFresh_RealtimeWithoutSession(t *testing.T) {
	// 无时段信息时退化为纯TTL判断
	now := at("20230107 12:00:00")
	policy := NewPolicy(fakeClock{now: now}, nil)

	assert.True(t, policy.IsFresh(now.Add(-10*time.Second), TierRealtime))
	assert.False(t, policy.IsFresh(now.Add(-1*time.Minute), TierRealtime))
}
