package quotecache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"akcache/pkg/core"
	"akcache/pkg/logger"
)

// Config Redis行情缓存配置
type Config struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Cache Redis实时行情一级缓存。
// 缓存故障不允许拖垮请求：读写失败一律按未命中处理并告警。
type Cache struct {
	client *redis.Client
	log    *logrus.Entry
}

// New 创建行情缓存并验证连接
func New(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{
		client: client,
		log:    logger.WithComponent("QuoteCache"),
	}, nil
}

// Close 关闭Redis连接
func (c *Cache) Close() error {
	return c.client.Close()
}

func quoteKey(symbol string) string {
	return "latest:quote:" + symbol
}

// Get 读取行情快照，未命中或缓存故障时返回 (nil, false)
func (c *Cache) Get(ctx context.Context, symbol string) (*core.RealtimeQuote, bool) {
	fields, err := c.client.HGetAll(ctx, quoteKey(symbol)).Result()
	if err != nil {
		c.log.WithError(err).Warnf("行情缓存读取失败: %s", symbol)
		return nil, false
	}
	if len(fields) == 0 {
		return nil, false
	}

	quote, err := quoteFromHash(fields)
	if err != nil {
		c.log.WithError(err).Warnf("行情缓存内容损坏: %s", symbol)
		return nil, false
	}
	return quote, true
}

// Set 写入行情快照，写失败只告警不报错
func (c *Cache) Set(ctx context.Context, quote *core.RealtimeQuote, ttl time.Duration) {
	key := quoteKey(quote.Symbol)
	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, quoteToHash(quote))
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.WithError(err).Warnf("行情缓存写入失败: %s", quote.Symbol)
	}
}

// quoteToHash 行情快照序列化为Redis哈希字段
func quoteToHash(q *core.RealtimeQuote) map[string]interface{} {
	return map[string]interface{}{
		"symbol":         q.Symbol,
		"name":           q.Name,
		"price":          strconv.FormatFloat(q.Price, 'f', -1, 64),
		"change":         strconv.FormatFloat(q.Change, 'f', -1, 64),
		"change_percent": strconv.FormatFloat(q.ChangePercent, 'f', -1, 64),
		"open":           strconv.FormatFloat(q.Open, 'f', -1, 64),
		"high":           strconv.FormatFloat(q.High, 'f', -1, 64),
		"low":            strconv.FormatFloat(q.Low, 'f', -1, 64),
		"prev_close":     strconv.FormatFloat(q.PrevClose, 'f', -1, 64),
		"volume":         strconv.FormatInt(q.Volume, 10),
		"turnover":       strconv.FormatFloat(q.Turnover, 'f', -1, 64),
		"captured_at":    strconv.FormatInt(q.CapturedAt.Unix(), 10),
	}
}

// quoteFromHash 从Redis哈希字段还原行情快照
func quoteFromHash(fields map[string]string) (*core.RealtimeQuote, error) {
	price, err := strconv.ParseFloat(fields["price"], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	capturedAt, err := strconv.ParseInt(fields["captured_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid captured_at: %w", err)
	}

	volume, _ := strconv.ParseInt(fields["volume"], 10, 64)
	return &core.RealtimeQuote{
		Symbol:        fields["symbol"],
		Name:          fields["name"],
		Price:         price,
		Change:        parseFloat(fields["change"]),
		ChangePercent: parseFloat(fields["change_percent"]),
		Open:          parseFloat(fields["open"]),
		High:          parseFloat(fields["high"]),
		Low:           parseFloat(fields["low"]),
		PrevClose:     parseFloat(fields["prev_close"]),
		Volume:        volume,
		Turnover:      parseFloat(fields["turnover"]),
		CapturedAt:    time.Unix(capturedAt, 0),
	}, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
