package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"akcache/pkg/api"
	"akcache/pkg/config"
	"akcache/pkg/freshness"
	"akcache/pkg/logger"
	"akcache/pkg/market"
	"akcache/pkg/quotecache"
	"akcache/pkg/refresh"
	"akcache/pkg/service"
	"akcache/pkg/store"
	"akcache/pkg/upstream"
	"akcache/pkg/upstream/eastmoney"
	"akcache/pkg/upstream/sinalive"
)

var (
	configPath = flag.String("config", "", "配置文件路径 (例如 /app/config/akcache.yaml)")
	logLevel   = flag.String("log-level", "", "日志级别覆盖 (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("配置加载失败: %v", err)
		os.Exit(1)
	}

	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}
	logger.Init(logger.Config{Level: cfg.Logger.Level, Format: cfg.Logger.Format})
	log := logger.WithComponent("main")

	gin.SetMode(cfg.Server.Mode)

	// 仓储
	st, err := store.Open(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("数据库连接失败")
	}
	defer st.Close()

	// Redis行情一级缓存（可选）
	var cache service.QuoteCache
	if cfg.Redis.Enabled {
		qc, err := quotecache.New(cfg.Redis.Config)
		if err != nil {
			log.WithError(err).Warn("Redis连接失败，跳过行情一级缓存")
		} else {
			defer qc.Close()
			cache = qc
		}
	}

	// 交易日历与时段
	var cal *market.Calendar
	if cfg.Calendar.HolidayFile != "" {
		cal = market.NewCalendarFromFile(cfg.Calendar.HolidayFile)
	} else {
		cal = market.NewCalendar()
	}
	session := market.NewSession(cal, market.MarketChinaA, nil)
	policy := freshness.NewPolicy(market.SystemClock{}, session)

	// 上游客户端，熔断保护
	em := eastmoney.NewClient()
	em.SetTimeout(cfg.Upstream.Timeout)
	breakerCfg := upstream.DefaultBreakerConfig("eastmoney")
	if cfg.Upstream.BreakerTrip > 0 {
		breakerCfg.ReadyToTrip = cfg.Upstream.BreakerTrip
	}
	client := upstream.NewGuardedClient(em, breakerCfg)

	sina := sinalive.NewProvider()
	sina.SetTimeout(cfg.Upstream.Timeout)
	quoteBreakerCfg := upstream.DefaultBreakerConfig("sina")
	if cfg.Upstream.BreakerTrip > 0 {
		quoteBreakerCfg.ReadyToTrip = cfg.Upstream.BreakerTrip
	}
	quotes := upstream.NewGuardedQuoteProvider(sina, quoteBreakerCfg)

	// 核心服务
	assets := service.NewAssetService(st, client, policy, nil)
	daily := service.NewDailyService(st, assets, client, cal, nil)
	realtime := service.NewRealtimeService(st, quotes, cache, policy, session)

	// 后台刷新
	if cfg.Refresh.Enabled {
		scheduler := refresh.NewScheduler(refresh.Config{
			Watchlist:      cfg.Refresh.Watchlist,
			QuoteSchedule:  cfg.Refresh.QuoteSchedule,
			WarmupSchedule: cfg.Refresh.WarmupSchedule,
			WarmupDays:     cfg.Refresh.WarmupDays,
		}, daily, realtime, session, nil)
		if err := scheduler.Start(); err != nil {
			log.WithError(err).Fatal("刷新调度器启动失败")
		}
		defer scheduler.Stop()
	}

	// REST边界
	server := api.NewServer(api.Deps{
		Daily:    daily,
		Assets:   assets,
		Realtime: realtime,
		Store:    st,
	})
	if err := server.Start(cfg.Server.Port); err != nil {
		log.WithError(err).Fatal("API服务启动失败")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("收到退出信号，关停服务...")
	server.Stop()
}
