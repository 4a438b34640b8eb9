package sinalive

import (
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"akcache/pkg/core"
)

// gbkToUtf8 将GBK编码转换为UTF-8
func gbkToUtf8(gbkStr string) string {
	if gbkStr == "" {
		return ""
	}
	reader := transform.NewReader(strings.NewReader(gbkStr), simplifiedchinese.GBK.NewDecoder())
	data, err := io.ReadAll(reader)
	if err != nil {
		return gbkStr
	}
	return string(data)
}

// parseQuotes 解析新浪行情响应。
// 每行形如 var hq_str_sh600000="浦发银行,开盘,昨收,现价,最高,最低,...,日期,时间,状态";
func parseQuotes(data string) []core.RealtimeQuote {
	lines := strings.Split(data, ";")
	quotes := make([]core.RealtimeQuote, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "=") || strings.HasPrefix(line, "//") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		symbol := extractSymbol(parts[0])
		if symbol == "" {
			continue
		}

		fields := strings.Split(strings.Trim(parts[1], ` "`), ",")
		if len(fields) < 32 {
			continue
		}

		price := parseFloat(fields[3])
		prevClose := parseFloat(fields[2])
		change := price - prevClose
		var changePercent float64
		if prevClose != 0 {
			changePercent = change / prevClose * 100
		}

		quotes = append(quotes, core.RealtimeQuote{
			Symbol:        symbol,
			Name:          gbkToUtf8(fields[0]),
			Price:         price,
			Change:        change,
			ChangePercent: changePercent,
			Open:          parseFloat(fields[1]),
			High:          parseFloat(fields[4]),
			Low:           parseFloat(fields[5]),
			PrevClose:     prevClose,
			Volume:        parseInt(fields[8]) / 100, // 上游单位是股，转换为手
			Turnover:      parseFloat(fields[9]),
			CapturedAt:    parseCaptureTime(fields[30], fields[31]),
		})
	}

	return quotes
}

// extractSymbol 从变量名提取代码，如 hq_str_sh600000 -> 600000
func extractSymbol(rawVar string) string {
	parts := strings.Split(rawVar, "_")
	if len(parts) < 3 {
		return ""
	}
	code := parts[len(parts)-1]
	for _, prefix := range []string{"sh", "sz", "bj"} {
		code = strings.TrimPrefix(code, prefix)
	}
	return code
}

// parseFloat 安全解析浮点数
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val
}

// parseInt 安全解析整数
func parseInt(s string) int64 {
	if s == "" {
		return 0
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return val
}

// parseCaptureTime 解析行情的日期和时间字段
func parseCaptureTime(dateStr, timeStr string) time.Time {
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", dateStr+" "+timeStr, time.Local)
	if err != nil {
		return time.Now()
	}
	return ts
}
