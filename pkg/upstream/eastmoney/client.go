package eastmoney

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"akcache/pkg/core"
	"akcache/pkg/logger"
	"akcache/pkg/market"
	"akcache/pkg/upstream"
)

// 东方财富 push2 接口字段清单。
// fields2 顺序决定K线行内逗号分隔字段的顺序，与 parser.go 保持一致。
const (
	klineFields1 = "f1,f2,f3,f4,f5,f6"
	klineFields2 = "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61"
	metaFields   = "f57,f58,f84,f116,f127,f128,f162,f167,f173,f189"
)

// adjustToFqt 复权方式到 fqt 参数的映射
var adjustToFqt = map[string]string{
	"":    "0",
	"qfq": "1",
	"hfq": "2",
}

// Client 东方财富数据客户端，提供日线K线与资产元数据。
// AKShare 的 stock_zh_a_hist 系列接口使用同一后端。
type Client struct {
	httpClient *http.Client
	userAgent  string
	log        *logrus.Entry
	klineURL   string
	metaURL    string
	rateLimit  time.Duration
}

// NewClient 创建东方财富客户端
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
			Timeout: 15 * time.Second,
		},
		userAgent: "akcache/1.0",
		log:       logger.WithComponent("EastMoneyClient"),
		klineURL:  "https://push2his.eastmoney.com/api/qt/stock/kline/get",
		metaURL:   "https://push2.eastmoney.com/api/qt/stock/get",
		rateLimit: 200 * time.Millisecond,
	}
}

// Name 返回提供商名称
func (c *Client) Name() string {
	return "eastmoney"
}

// GetRateLimit 获取请求频率限制
func (c *Client) GetRateLimit() time.Duration {
	return c.rateLimit
}

// IsHealthy 检查提供商健康状态
func (c *Client) IsHealthy() bool {
	return c.httpClient != nil
}

// SetTimeout 设置请求超时时间
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// Close 关闭客户端，清理连接
func (c *Client) Close() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}

// IsSymbolSupported 检查是否支持该代码（A股股票及沪深指数）
func (c *Client) IsSymbolSupported(symbol string) bool {
	return secidFor(symbol) != ""
}

// FetchDailyBars 获取日线K线。上游不支持按天稀疏拉取，整段请求。
func (c *Client) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time, adjust string) ([]core.DailyBar, error) {
	secid := secidFor(symbol)
	if secid == "" {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}
	fqt, ok := adjustToFqt[adjust]
	if !ok {
		return nil, fmt.Errorf("unsupported adjust: %q", adjust)
	}

	params := url.Values{}
	params.Set("secid", secid)
	params.Set("fields1", klineFields1)
	params.Set("fields2", klineFields2)
	params.Set("klt", "101") // 日线
	params.Set("fqt", fqt)
	params.Set("beg", market.FormatDay(start))
	params.Set("end", market.FormatDay(end))

	body, err := c.get(ctx, c.klineURL, params)
	if err != nil {
		return nil, err
	}

	bars, err := parseKlines(market.Normalize(symbol), adjust, body)
	if err != nil {
		return nil, err
	}
	c.log.Debugf("拉取日线 %s [%s, %s] adjust=%q: %d 行",
		symbol, market.FormatDay(start), market.FormatDay(end), adjust, len(bars))
	return bars, nil
}

// FetchAssetMeta 获取资产元数据
func (c *Client) FetchAssetMeta(ctx context.Context, symbol string) (*core.AssetMeta, error) {
	secid := secidFor(symbol)
	if secid == "" {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	params := url.Values{}
	params.Set("secid", secid)
	params.Set("fields", metaFields)

	body, err := c.get(ctx, c.metaURL, params)
	if err != nil {
		return nil, err
	}
	return parseAssetMeta(body)
}

// get 执行HTTP GET并返回响应体
func (c *Client) get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP status error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response failed: %w", err)
	}
	return body, nil
}

// secidFor 计算东方财富 secid：市场代码.证券代码。
// 沪市(含沪指)为1，深市/北交所(含深指)为0。
func secidFor(symbol string) string {
	s := market.Normalize(symbol)
	switch {
	case strings.HasPrefix(s, "sh"):
		return "1." + s[2:]
	case strings.HasPrefix(s, "sz"), strings.HasPrefix(s, "bj"):
		return "0." + s[2:]
	}
	if len(s) != 6 {
		return ""
	}
	if strings.HasPrefix(s, "6") {
		return "1." + s
	}
	return "0." + s
}

var _ upstream.Client = (*Client)(nil)
