package freshness

import (
	"time"

	"akcache/pkg/market"
)

// Tier 新鲜度档位名称
type Tier string

const (
	TierDaily    Tier = "daily"    // 资产元数据等，1个自然日
	TierWeekly   Tier = "weekly"   // 变化较慢的财务指标，7天
	TierRealtime Tier = "realtime" // 实时行情，盘中秒级、盘后视为持续新鲜
)

// 各档位TTL
const (
	dailyTTL    = 24 * time.Hour
	weeklyTTL   = 7 * 24 * time.Hour
	realtimeTTL = 30 * time.Second
)

// Policy 新鲜度策略：纯粹比较 now-lastUpdated 与档位TTL，
// realtime 档位额外依据交易时段状态判定。
type Policy struct {
	clock   market.Clock
	session *market.Session
}

// NewPolicy 创建新鲜度策略。session 仅 realtime 档位需要，可为 nil。
func NewPolicy(clock market.Clock, session *market.Session) *Policy {
	if clock == nil {
		clock = market.SystemClock{}
	}
	return &Policy{clock: clock, session: session}
}

// TTL 返回档位的TTL。realtime 返回盘中TTL。
func TTL(tier Tier) time.Duration {
	switch tier {
	case TierWeekly:
		return weeklyTTL
	case TierRealtime:
		return realtimeTTL
	default:
		return dailyTTL
	}
}

// IsFresh 判断带有 lastUpdated 时间戳的实体在指定档位下是否仍然新鲜。
// 零值时间戳永远视为过期。
func (p *Policy) IsFresh(lastUpdated time.Time, tier Tier) bool {
	if lastUpdated.IsZero() {
		return false
	}

	now := p.clock.Now()
	age := now.Sub(lastUpdated)

	if tier == TierRealtime {
		// 休市期间行情不会变化，缓存视为持续新鲜直到下一个交易时段
		if p.session != nil && !p.session.IsOpen(now) {
			return true
		}
		return age <= realtimeTTL
	}

	return age <= TTL(tier)
}
