package core

// 响应状态值
const (
	StatusOK            = "ok"              // 区间完整返回
	StatusNoData        = "no_data"         // 上游无数据，缺口未填补
	StatusNoTradingDays = "no_trading_days" // 区间内没有交易日
	StatusDegraded      = "degraded"        // 上游不可用，仅返回缓存部分
)

// Meta 每次服务调用附带的结构化元数据。
// 由核心服务自行填充，而不是在边界层事后探测响应内部推断。
type Meta struct {
	Symbol         string  `json:"symbol"`
	Adjust         string  `json:"adjust,omitempty"`
	Status         string  `json:"status"`          // ok / no_data / no_trading_days / degraded
	CacheHit       bool    `json:"cache_hit"`       // 请求完全由缓存满足
	UpstreamCalled bool    `json:"upstream_called"` // 本次调用触发了上游请求
	Created        bool    `json:"created,omitempty"`
	HitRatio       float64 `json:"hit_ratio"`     // 命中交易日占期望交易日的比例
	RecordCount    int     `json:"record_count"`  // 返回行数
	ExpectedDays   int     `json:"expected_days"` // 区间内期望交易日数
	MissingDays    int     `json:"missing_days"`  // 调用结束后仍缺失的交易日数
	ElapsedMS      int64   `json:"elapsed_ms"`
}
