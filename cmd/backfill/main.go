package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"akcache/pkg/config"
	"akcache/pkg/freshness"
	"akcache/pkg/logger"
	"akcache/pkg/market"
	"akcache/pkg/service"
	"akcache/pkg/store"
	"akcache/pkg/upstream"
	"akcache/pkg/upstream/eastmoney"
)

var (
	configPath = flag.String("config", "", "配置文件路径")
	symbolList = flag.String("symbols", "", "逗号分隔的代码列表，如 600000,000001,sh000001")
	startDate  = flag.String("start", "", "起始日期 YYYYMMDD")
	endDate    = flag.String("end", "", "结束日期 YYYYMMDD，默认今天")
	adjust     = flag.String("adjust", "", "复权方式: 空/qfq/hfq")
	logLevel   = flag.String("log-level", "info", "日志级别")
)

// 历史日线回填工具。走与在线服务相同的覆盖对账路径，
// 已缓存的交易日不会重复拉取，可安全反复执行。
func main() {
	flag.Parse()

	logger.Init(logger.Config{Level: *logLevel, Format: "text"})
	log := logger.WithComponent("backfill")

	if *symbolList == "" || *startDate == "" {
		fmt.Fprintln(os.Stderr, "用法: backfill -symbols 600000,000001 -start 20230101 [-end 20231231] [-adjust qfq]")
		os.Exit(2)
	}
	end := *endDate
	if end == "" {
		end = market.FormatDay(time.Now())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("配置加载失败")
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("数据库连接失败")
	}
	defer st.Close()

	var cal *market.Calendar
	if cfg.Calendar.HolidayFile != "" {
		cal = market.NewCalendarFromFile(cfg.Calendar.HolidayFile)
	} else {
		cal = market.NewCalendar()
	}
	policy := freshness.NewPolicy(market.SystemClock{}, nil)

	em := eastmoney.NewClient()
	em.SetTimeout(cfg.Upstream.Timeout)
	client := upstream.NewGuardedClient(em, upstream.DefaultBreakerConfig("eastmoney"))

	assets := service.NewAssetService(st, client, policy, nil)
	daily := service.NewDailyService(st, assets, client, cal, nil)

	ctx := context.Background()
	failed := 0
	for _, raw := range strings.Split(*symbolList, ",") {
		symbol := strings.TrimSpace(raw)
		if symbol == "" {
			continue
		}

		result, err := daily.GetDaily(ctx, symbol, *startDate, end, *adjust)
		if err != nil {
			log.WithError(err).Errorf("回填失败: %s", symbol)
			failed++
			continue
		}

		cov, err := daily.Coverage(ctx, symbol, *adjust)
		if err != nil {
			log.WithError(err).Warnf("覆盖查询失败: %s", symbol)
		}

		line := fmt.Sprintf("%s: %d 行, 状态 %s, 缺口 %d",
			symbol, result.Meta.RecordCount, result.Meta.Status, result.Meta.MissingDays)
		if cov != nil && cov.FirstDate != nil && cov.LastDate != nil {
			line += fmt.Sprintf(", 覆盖 [%s, %s] 共 %d 行",
				market.FormatDay(*cov.FirstDate), market.FormatDay(*cov.LastDate), cov.RecordCount)
		}
		log.Info(line)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
