package refresh

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"akcache/pkg/logger"
	"akcache/pkg/market"
	"akcache/pkg/service"
)

// Config 后台刷新任务配置
type Config struct {
	Watchlist      []string // 盘中刷新的代码列表
	QuoteSchedule  string   // 行情刷新cron（秒级，如 "*/15 * 9-15 * * MON-FRI"）
	WarmupSchedule string   // 收盘后日线预热cron
	WarmupDays     int      // 预热回看的自然日数
}

// Scheduler 后台刷新调度器：
// 盘中按周期刷新关注列表的实时行情，收盘后对关注列表做一次日线预热，
// 把当天的缺口提前补进缓存，避开次日开盘时的首查穿透。
type Scheduler struct {
	cron     *cron.Cron
	cfg      Config
	daily    *service.DailyService
	realtime *service.RealtimeService
	session  *market.Session
	clock    market.Clock
	ctx      context.Context
	cancel   context.CancelFunc
	log      *logrus.Entry
}

// NewScheduler 创建刷新调度器
func NewScheduler(cfg Config, daily *service.DailyService, realtime *service.RealtimeService, session *market.Session, clock market.Clock) *Scheduler {
	if clock == nil {
		clock = market.SystemClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		daily:    daily,
		realtime: realtime,
		session:  session,
		clock:    clock,
		ctx:      ctx,
		cancel:   cancel,
		log:      logger.WithComponent("RefreshScheduler"),
	}
}

// Start 注册任务并启动调度
func (s *Scheduler) Start() error {
	if len(s.cfg.Watchlist) == 0 {
		s.log.Info("关注列表为空，刷新调度器不启动")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.QuoteSchedule, s.refreshQuotes); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.WarmupSchedule, s.warmupDaily); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Infof("刷新调度器已启动: %d 个关注代码", len(s.cfg.Watchlist))
	return nil
}

// Stop 停止调度并等待在途任务结束
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		s.log.Info("刷新调度器已停止")
	case <-time.After(30 * time.Second):
		s.log.Warn("刷新调度器停止超时")
	}
}

// refreshQuotes 盘中批量刷新关注列表的实时行情。
// cron表达式只筛到小时粒度，午休等非交易时段由时段判断过滤。
func (s *Scheduler) refreshQuotes() {
	if s.session != nil && !s.session.IsOpenNow() {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, 1*time.Minute)
	defer cancel()

	saved, err := s.realtime.RefreshAll(ctx, s.cfg.Watchlist)
	if err != nil {
		s.log.WithError(err).Warn("行情批量刷新失败")
		return
	}
	s.log.Debugf("行情批量刷新完成: %d/%d", saved, len(s.cfg.Watchlist))
}

// warmupDaily 收盘后逐个代码预热最近一段日线。
// 走常规查询路径，覆盖对账自然只拉取缺失的部分。
func (s *Scheduler) warmupDaily() {
	now := s.clock.Now()
	end := market.FormatDay(now)
	start := market.FormatDay(now.AddDate(0, 0, -s.cfg.WarmupDays))

	s.log.Infof("开始日线预热: %d 个代码 [%s, %s]", len(s.cfg.Watchlist), start, end)

	for _, symbol := range s.cfg.Watchlist {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		ctx, cancel := context.WithTimeout(s.ctx, 1*time.Minute)
		result, err := s.daily.GetDaily(ctx, symbol, start, end, "")
		cancel()
		if err != nil {
			s.log.WithError(err).Warnf("日线预热失败: %s", symbol)
			continue
		}
		if result.Meta.UpstreamCalled {
			s.log.Debugf("日线预热补缺: %s 回填后缺口 %d", symbol, result.Meta.MissingDays)
		}
	}

	s.log.Info("日线预热完成")
}
