package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"akcache/pkg/quotecache"
	"akcache/pkg/store"
)

// Config 主配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database store.Config   `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// RedisConfig Redis行情缓存配置
type RedisConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	quotecache.Config `mapstructure:",squash"`
}

// UpstreamConfig 上游客户端配置
type UpstreamConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`      // 单次请求超时
	BreakerTrip uint32        `mapstructure:"breaker_trip"` // 触发熔断的连续失败次数
}

// CalendarConfig 交易日历配置
type CalendarConfig struct {
	HolidayFile string `mapstructure:"holiday_file"` // 节假日YAML，留空用内置表
}

// RefreshConfig 后台刷新任务配置
type RefreshConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Watchlist      []string `mapstructure:"watchlist"`       // 盘中刷新的代码列表
	QuoteSchedule  string   `mapstructure:"quote_schedule"`  // 行情刷新cron（秒级）
	WarmupSchedule string   `mapstructure:"warmup_schedule"` // 收盘后日线预热cron
	WarmupDays     int      `mapstructure:"warmup_days"`     // 预热回看的自然日数
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// Load 加载配置：文件（可选）+ AKCACHE_* 环境变量 + 默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("akcache")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("AKCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "akcache")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("upstream.timeout", "15s")
	v.SetDefault("upstream.breaker_trip", 5)

	v.SetDefault("calendar.holiday_file", "")

	v.SetDefault("refresh.enabled", false)
	v.SetDefault("refresh.watchlist", []string{})
	v.SetDefault("refresh.quote_schedule", "*/15 * 9-15 * * MON-FRI")
	v.SetDefault("refresh.warmup_schedule", "0 30 15 * * MON-FRI")
	v.SetDefault("refresh.warmup_days", 30)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port cannot be empty")
	}
	if c.Database.Host == "" {
		return errors.New("database host cannot be empty")
	}
	if c.Database.DBName == "" {
		return errors.New("database name cannot be empty")
	}
	if c.Upstream.Timeout <= 0 {
		return errors.New("upstream timeout must be positive")
	}
	if c.Refresh.Enabled && c.Refresh.WarmupDays <= 0 {
		return errors.New("refresh warmup_days must be positive")
	}
	return nil
}
