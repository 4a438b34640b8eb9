package core

import (
	"time"
)

// Asset 资产主数据，每个股票/指数代码对应唯一一行。
// Symbol 创建后不可变；元数据按新鲜度策略原地刷新。
type Asset struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	Symbol      string     `gorm:"uniqueIndex;size:16;not null" json:"symbol"` // 代码，如 "600000"、"sh000001"
	Name        string     `gorm:"size:64" json:"name"`                        // 名称
	Exchange    string     `gorm:"size:16" json:"exchange"`                    // 交易所 (SSE/SZSE/BSE/HKEX/INDEX)
	Currency    string     `gorm:"size:8" json:"currency"`                     // 计价货币
	Industry    string     `gorm:"size:64" json:"industry,omitempty"`          // 所属行业
	Concept     string     `gorm:"size:255" json:"concept,omitempty"`          // 概念板块
	ListingDate *time.Time `gorm:"type:date" json:"listing_date,omitempty"`    // 上市日期
	TotalShares float64    `json:"total_shares,omitempty"`                     // 总股本
	MarketCap   float64    `json:"market_cap,omitempty"`                       // 总市值
	PE          float64    `json:"pe,omitempty"`                               // 市盈率
	PB          float64    `json:"pb,omitempty"`                               // 市净率
	ROE         float64    `json:"roe,omitempty"`                              // 净资产收益率
	DataSource  string     `gorm:"size:32" json:"data_source"`                 // 数据来源标签
	LastUpdated time.Time  `json:"last_updated"`                               // 元数据最后刷新时间
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName 指定表名
func (Asset) TableName() string { return "assets" }

// DailyBar 日线K线，一个 (代码, 交易日, 复权方式) 对应唯一一行。
// 入库后不再更新（仓储以已存在行为准）。
type DailyBar struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	Symbol       string    `gorm:"uniqueIndex:uidx_symbol_date_adjust;size:16;not null" json:"symbol"`
	TradeDate    time.Time `gorm:"uniqueIndex:uidx_symbol_date_adjust;type:date;not null" json:"trade_date"`
	Adjust       string    `gorm:"uniqueIndex:uidx_symbol_date_adjust;size:8;not null;default:''" json:"adjust"` // ""/qfq/hfq
	Open         float64   `json:"open"`          // 开盘价
	High         float64   `json:"high"`          // 最高价
	Low          float64   `json:"low"`           // 最低价
	Close        float64   `json:"close"`         // 收盘价
	Volume       int64     `json:"volume"`        // 成交量(手)
	Turnover     float64   `json:"turnover"`      // 成交额(元)
	Amplitude    float64   `json:"amplitude"`     // 振幅(%)
	PctChange    float64   `json:"pct_change"`    // 涨跌幅(%)
	Change       float64   `json:"change"`        // 涨跌额
	TurnoverRate float64   `json:"turnover_rate"` // 换手率(%)
	CreatedAt    time.Time `json:"-"`
}

// TableName 指定表名
func (DailyBar) TableName() string { return "daily_bars" }

// RealtimeQuote 实时行情快照，每个代码仅保留最新一行，按刷新周期覆盖写入。
type RealtimeQuote struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	Symbol        string    `gorm:"uniqueIndex;size:16;not null" json:"symbol"`
	Name          string    `gorm:"size:64" json:"name"`
	Price         float64   `json:"price"`          // 当前价格
	Change        float64   `json:"change"`         // 涨跌额
	ChangePercent float64   `json:"change_percent"` // 涨跌幅(%)
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PrevClose     float64   `json:"prev_close"`
	Volume        int64     `json:"volume"`
	Turnover      float64   `json:"turnover"`
	CapturedAt    time.Time `json:"captured_at"` // 行情采集时间，新鲜度判定依据
	UpdatedAt     time.Time `json:"-"`
}

// TableName 指定表名
func (RealtimeQuote) TableName() string { return "realtime_quotes" }

// RequestLog 单次对外请求的访问日志，由边界层写入，只读不改。
type RequestLog struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	RequestID      string    `gorm:"size:36" json:"request_id"`
	Method         string    `gorm:"size:8" json:"method"`
	Path           string    `gorm:"size:255" json:"path"`
	Symbol         string    `gorm:"index;size:16" json:"symbol"`
	StartDate      string    `gorm:"size:8" json:"start_date"`
	EndDate        string    `gorm:"size:8" json:"end_date"`
	StatusCode     int       `json:"status_code"`
	CacheHit       bool      `json:"cache_hit"`
	UpstreamCalled bool      `json:"upstream_called"`
	RecordCount    int       `json:"record_count"`
	ElapsedMS      int64     `json:"elapsed_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName 指定表名
func (RequestLog) TableName() string { return "request_logs" }

// DataCoverage 每个 (代码, 复权方式) 的缓存覆盖汇总，
// 日线写入后刷新，用于免扫描回答"这段区间缓存了多少"。
type DataCoverage struct {
	ID           uint       `gorm:"primaryKey" json:"-"`
	Symbol       string     `gorm:"uniqueIndex:uidx_coverage_symbol_adjust;size:16;not null" json:"symbol"`
	Adjust       string     `gorm:"uniqueIndex:uidx_coverage_symbol_adjust;size:8;not null;default:''" json:"adjust"`
	FirstDate    *time.Time `gorm:"type:date" json:"first_date,omitempty"` // 最早缓存交易日
	LastDate     *time.Time `gorm:"type:date" json:"last_date,omitempty"`  // 最晚缓存交易日
	RecordCount  int64      `json:"record_count"`                          // 缓存行数
	AccessCount  int64      `json:"access_count"`                          // 访问次数
	LastAccessAt time.Time  `json:"last_access_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (DataCoverage) TableName() string { return "data_coverage" }

// AssetMeta 上游返回的资产元数据
type AssetMeta struct {
	Name        string     `json:"name"`
	Industry    string     `json:"industry"`
	Concept     string     `json:"concept"`
	ListingDate *time.Time `json:"listing_date"`
	TotalShares float64    `json:"total_shares"`
	MarketCap   float64    `json:"market_cap"`
	PE          float64    `json:"pe"`
	PB          float64    `json:"pb"`
	ROE         float64    `json:"roe"`
}
