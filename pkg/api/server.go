package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"akcache/pkg/logger"
	"akcache/pkg/service"
	"akcache/pkg/store"
)

// Server REST边界层。只做参数提取、错误码到HTTP状态的映射和响应编排，
// 所有缓存/对账语义都在服务层内完成。
type Server struct {
	daily    *service.DailyService
	assets   *service.AssetService
	realtime *service.RealtimeService
	store    *store.Store
	logStore RequestLogStore

	httpServer *http.Server
	log        *logrus.Entry
	startedAt  time.Time
}

// Deps 服务端依赖
type Deps struct {
	Daily    *service.DailyService
	Assets   *service.AssetService
	Realtime *service.RealtimeService
	Store    *store.Store
}

// NewServer 创建REST服务端
func NewServer(deps Deps) *Server {
	return &Server{
		daily:    deps.Daily,
		assets:   deps.Assets,
		realtime: deps.Realtime,
		store:    deps.Store,
		logStore: deps.Store,
		log:      logger.WithComponent("APIServer"),
	}
}

// Router 组装gin路由
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())
	router.Use(s.requestIDMiddleware())
	router.Use(s.accessLogMiddleware())

	router.GET("/health", s.healthCheck)
	router.GET("/stats", s.getStats)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/stocks/:symbol/daily", s.getDaily)
		v1.GET("/indices/:symbol/daily", s.getDaily)
		v1.GET("/stocks/:symbol/quote", s.getQuote)
		v1.GET("/assets/:symbol", s.getAsset)
		v1.GET("/assets/:symbol/coverage", s.getCoverage)
	}

	return router
}

// Start 启动HTTP服务（非阻塞）
func (s *Server) Start(port string) error {
	s.startedAt = time.Now()
	s.httpServer = &http.Server{
		Addr:    ":" + port,
		Handler: s.Router(),
	}

	s.log.WithField("port", port).Info("启动API服务...")
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Fatal("HTTP服务启动失败")
		}
	}()
	return nil
}

// Stop 优雅关停HTTP服务
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.WithError(err).Error("HTTP服务关停失败")
	}
}
