package sinalive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"akcache/pkg/core"
	"akcache/pkg/logger"
	"akcache/pkg/market"
	"akcache/pkg/upstream"
)

// Provider 新浪实时行情提供商
type Provider struct {
	httpClient *http.Client
	userAgent  string
	log        *logrus.Entry
	baseURL    string
	rateLimit  time.Duration
}

// NewProvider 创建新浪实时行情提供商
func NewProvider() *Provider {
	return &Provider{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
			Timeout: 10 * time.Second,
		},
		userAgent: "akcache/1.0",
		log:       logger.WithComponent("SinaLiveProvider"),
		baseURL:   "http://hq.sinajs.cn/list=",
		rateLimit: 200 * time.Millisecond,
	}
}

// Name 返回提供商名称
func (p *Provider) Name() string {
	return "sina"
}

// GetRateLimit 获取请求频率限制
func (p *Provider) GetRateLimit() time.Duration {
	return p.rateLimit
}

// IsHealthy 检查提供商健康状态
func (p *Provider) IsHealthy() bool {
	return p.httpClient != nil
}

// SetTimeout 设置请求超时时间
func (p *Provider) SetTimeout(timeout time.Duration) {
	p.httpClient.Timeout = timeout
}

// Close 关闭提供商，清理资源
func (p *Provider) Close() error {
	if p.httpClient != nil {
		p.httpClient.CloseIdleConnections()
	}
	return nil
}

// FetchQuotes 批量获取实时行情快照
func (p *Provider) FetchQuotes(ctx context.Context, symbols []string) ([]core.RealtimeQuote, error) {
	if len(symbols) == 0 {
		return []core.RealtimeQuote{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", p.buildURL(symbols), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Referer", "https://finance.sina.com.cn/")

	resp, err := p.httpClient.Do(req)
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

	quotes := parseQuotes(string(body))
	p.log.Debugf("拉取实时行情 %d 个代码，返回 %d 条", len(symbols), len(quotes))
	return quotes, nil
}

// buildURL 构建行情URL，代码按市场加 sh/sz/bj 前缀
func (p *Provider) buildURL(symbols []string) string {
	parts := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		parts = append(parts, prefixedSymbol(symbol))
	}
	return p.baseURL + strings.Join(parts, ",")
}

// prefixedSymbol 为裸代码补市场前缀，已带前缀的原样返回
func prefixedSymbol(symbol string) string {
	s := market.Normalize(symbol)
	switch {
	case strings.HasPrefix(s, "sh"), strings.HasPrefix(s, "sz"), strings.HasPrefix(s, "bj"):
		return s
	case strings.HasPrefix(s, "6"):
		return "sh" + s
	case strings.HasPrefix(s, "8"), strings.HasPrefix(s, "4"):
		return "bj" + s
	default:
		return "sz" + s
	}
}

var _ upstream.QuoteProvider = (*Provider)(nil)
