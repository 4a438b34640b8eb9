package eastmoney

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"akcache/pkg/core"
)

// klineResponse push2his K线接口响应
type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// metaResponse push2 个股接口响应。缺失字段上游会返回 "-"，
// 所以统一按 interface{} 接收后安全转换。
type metaResponse struct {
	Data map[string]interface{} `json:"data"`
}

// parseKlines 解析K线响应。data 为 null 表示区间内无数据，返回空切片。
// 每行字段顺序: 日期,开盘,收盘,最高,最低,成交量,成交额,振幅,涨跌幅,涨跌额,换手率
func parseKlines(symbol, adjust string, body []byte) ([]core.DailyBar, error) {
	var resp klineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode kline response failed: %w", err)
	}
	if resp.Data == nil {
		return []core.DailyBar{}, nil
	}

	bars := make([]core.DailyBar, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		fields := strings.Split(line, ",")
		if len(fields) < 11 {
			continue
		}
		tradeDate, err := time.ParseInLocation("2006-01-02", fields[0], time.UTC)
		if err != nil {
			continue
		}
		bars = append(bars, core.DailyBar{
			Symbol:       symbol,
			TradeDate:    tradeDate,
			Adjust:       adjust,
			Open:         parseFloat(fields[1]),
			Close:        parseFloat(fields[2]),
			High:         parseFloat(fields[3]),
			Low:          parseFloat(fields[4]),
			Volume:       parseInt(fields[5]),
			Turnover:     parseFloat(fields[6]),
			Amplitude:    parseFloat(fields[7]),
			PctChange:    parseFloat(fields[8]),
			Change:       parseFloat(fields[9]),
			TurnoverRate: parseFloat(fields[10]),
		})
	}
	return bars, nil
}

// parseAssetMeta 解析个股元数据响应
func parseAssetMeta(body []byte) (*core.AssetMeta, error) {
	var resp metaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode meta response failed: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("meta response has no data")
	}
	d := resp.Data

	meta := &core.AssetMeta{
		Name:        toString(d["f58"]),
		Industry:    toString(d["f127"]),
		Concept:     toString(d["f128"]),
		TotalShares: toFloat(d["f84"]),
		MarketCap:   toFloat(d["f116"]),
		PE:          toFloat(d["f162"]),
		PB:          toFloat(d["f167"]),
		ROE:         toFloat(d["f173"]),
	}
	if raw := toString(d["f189"]); len(raw) == 8 {
		if t, err := time.ParseInLocation("20060102", raw, time.UTC); err == nil {
			meta.ListingDate = &t
		}
	}
	return meta, nil
}

// toFloat 安全转换上游数值字段，"-" 等占位值按 0 处理
func toFloat(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// toString 安全转换上游字符串字段。f189 等日期字段可能以数值返回。
func toString(v interface{}) string {
	switch x := v.(type) {
	case string:
		if x == "-" {
			return ""
		}
		return x
	case float64:
		return strconv.FormatInt(int64(x), 10)
	default:
		return ""
	}
}

// parseFloat 安全解析浮点数
func parseFloat(s string) float64 {
	if s == "" || s == "-" {
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
	if s == "" || s == "-" {
		return 0
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return val
}
