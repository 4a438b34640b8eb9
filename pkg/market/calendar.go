package market

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"akcache/pkg/logger"
)

// Market 市场枚举
type Market string

const (
	MarketChinaA   Market = "CHINA_A"   // A股（沪深北）
	MarketHongKong Market = "HONG_KONG" // 港股
)

// DayFormat 日期的线上传输格式 (YYYYMMDD)
const DayFormat = "20060102"

var symbolPattern = regexp.MustCompile(`^(sh|sz|bj|hk)?[0-9]{5,6}$`)

// ParseDay 解析 YYYYMMDD 格式的日期
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expect YYYYMMDD: %w", s, err)
	}
	return t, nil
}

// FormatDay 格式化为 YYYYMMDD
func FormatDay(t time.Time) string {
	return t.Format(DayFormat)
}

// ValidSymbol 检查代码形态是否合法
func ValidSymbol(symbol string) bool {
	return symbolPattern.MatchString(strings.ToLower(strings.TrimSpace(symbol)))
}

// Normalize 规范化代码：去空白、前缀转小写
func Normalize(symbol string) string {
	s := strings.TrimSpace(symbol)
	if len(s) > 2 {
		prefix := strings.ToLower(s[:2])
		switch prefix {
		case "sh", "sz", "bj", "hk":
			return prefix + s[2:]
		}
	}
	return s
}

// For 根据代码形态推断默认市场。
// 6位数字（可带 sh/sz/bj 前缀）为A股，5位数字为港股。
func For(symbol string) Market {
	s := Normalize(symbol)
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(s, "sh"), "sz"), "bj")
	if strings.HasPrefix(s, "hk") {
		return MarketHongKong
	}
	if len(s) == 5 {
		return MarketHongKong
	}
	return MarketChinaA
}

// IsIndex 判断是否是指数代码（带交易所前缀的6位代码，如 sh000001、sz399001）
func IsIndex(symbol string) bool {
	s := Normalize(symbol)
	return (strings.HasPrefix(s, "sh") || strings.HasPrefix(s, "sz")) && len(s) == 8
}

// Calendar 交易日历。按市场维护节假日表，
// 节假日表加载失败时退化为仅排除周末的近似模式。
type Calendar struct {
	holidays    map[Market]map[string]struct{}
	approximate bool
	log         *logrus.Entry
}

// NewCalendar 创建使用内置节假日表的交易日历
func NewCalendar() *Calendar {
	c := &Calendar{
		holidays: make(map[Market]map[string]struct{}),
		log:      logger.WithComponent("Calendar"),
	}
	for m, days := range builtinHolidays {
		set := make(map[string]struct{}, len(days))
		for _, d := range days {
			set[d] = struct{}{}
		}
		c.holidays[m] = set
	}
	return c
}

// NewCalendarFromFile 从YAML文件加载节假日表创建交易日历。
// 文件不存在或解析失败时退化为仅排除周末的近似模式，只告警不报错。
func NewCalendarFromFile(path string) *Calendar {
	c := &Calendar{
		holidays: make(map[Market]map[string]struct{}),
		log:      logger.WithComponent("Calendar"),
	}

	if _, err := os.Stat(path); err != nil {
		c.log.WithError(err).Warnf("节假日文件不可用，退化为仅排除周末: %s", path)
		c.approximate = true
		return c
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		c.log.WithError(err).Warnf("节假日文件解析失败，退化为仅排除周末: %s", path)
		c.approximate = true
		return c
	}

	var table map[string][]string
	if err := v.Unmarshal(&table); err != nil {
		c.log.WithError(err).Warn("节假日表格式错误，退化为仅排除周末")
		c.approximate = true
		return c
	}

	for name, days := range table {
		m := Market(strings.ToUpper(name))
		set := make(map[string]struct{}, len(days))
		for _, d := range days {
			set[d] = struct{}{}
		}
		c.holidays[m] = set
	}
	c.log.Infof("节假日表已加载: %s (%d 个市场)", path, len(c.holidays))
	return c
}

// IsTradingDay 判断给定日期是否是该市场的交易日
func (c *Calendar) IsTradingDay(t time.Time, m Market) bool {
	weekday := t.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}
	if c.approximate {
		return true
	}
	if set, ok := c.holidays[m]; ok {
		if _, holiday := set[FormatDay(t)]; holiday {
			return false
		}
	}
	return true
}

// TradingDays 返回[start, end]闭区间内该市场的交易日序列，升序、无重复。
func (c *Calendar) TradingDays(start, end time.Time, m Market) []time.Time {
	days := []time.Time{}
	if end.Before(start) {
		return days
	}
	start = truncateDay(start)
	end = truncateDay(end)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.IsTradingDay(d, m) {
			days = append(days, d)
		}
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
