package market

import (
	"time"
)

// Clock 提供当前时间接口，用于mock测试
type Clock interface {
	Now() time.Time
}

// SystemClock 使用系统实际时间
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// A股连续竞价时段
const (
	morningOpen   = "09:30:00"
	morningClose  = "11:30:00"
	afternoonOpen = "13:00:00"
	sessionClose  = "15:00:00"
)

// Session 盘中交易时段检测，节假日判断依赖交易日历。
type Session struct {
	cal    *Calendar
	market Market
	clock  Clock
}

// NewSession 创建交易时段检测器
func NewSession(cal *Calendar, m Market, clock Clock) *Session {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Session{cal: cal, market: m, clock: clock}
}

// Now 返回当前时间
func (s *Session) Now() time.Time {
	return s.clock.Now()
}

// IsOpen 判断给定时刻市场是否处于连续竞价时段
func (s *Session) IsOpen(t time.Time) bool {
	if !s.cal.IsTradingDay(t, s.market) {
		return false
	}
	hhmmss := t.Format("15:04:05")
	return (hhmmss >= morningOpen && hhmmss <= morningClose) ||
		(hhmmss >= afternoonOpen && hhmmss <= sessionClose)
}

// IsOpenNow 判断当前是否处于连续竞价时段
func (s *Session) IsOpenNow() bool {
	return s.IsOpen(s.clock.Now())
}

// IsAfterClose 判断给定时刻是否在当日收盘之后（仅交易日有意义）
func (s *Session) IsAfterClose(t time.Time) bool {
	if !s.cal.IsTradingDay(t, s.market) {
		return false
	}
	return t.Format("15:04:05") > sessionClose
}

// NextOpen 返回 t 之后最近的开盘时刻
func (s *Session) NextOpen(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 9, 30, 0, 0, t.Location())
	if s.cal.IsTradingDay(t, s.market) && t.Before(day) {
		return day
	}
	for d := day.AddDate(0, 0, 1); ; d = d.AddDate(0, 0, 1) {
		if s.cal.IsTradingDay(d, s.market) {
			return d
		}
	}
}
