package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// getDaily 日线查询端点。
// GET /api/v1/stocks/:symbol/daily?start=YYYYMMDD&end=YYYYMMDD&adjust=qfq
// 指数走 /api/v1/indices/:symbol/daily，服务层按代码形态自行区分。
func (s *Server) getDaily(c *gin.Context) {
	symbol := c.Param("symbol")
	start := c.Query("start")
	end := c.Query("end")
	adjust := c.Query("adjust")

	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_DATE_RANGE",
			Message: "start and end query parameters are required (YYYYMMDD)",
		})
		return
	}

	result, err := s.daily.GetDaily(c.Request.Context(), symbol, start, end, adjust)
	if err != nil {
		s.log.WithError(err).WithField("symbol", symbol).Error("日线查询失败")
		c.JSON(httpStatusFor(err), errorBody(err))
		return
	}

	setMeta(c, result.Meta)
	c.JSON(http.StatusOK, DataResponse{Data: result.Bars, Metadata: &result.Meta})
}

// getQuote 实时行情端点。
// GET /api/v1/stocks/:symbol/quote
func (s *Server) getQuote(c *gin.Context) {
	symbol := c.Param("symbol")

	result, err := s.realtime.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		s.log.WithError(err).WithField("symbol", symbol).Error("行情查询失败")
		c.JSON(httpStatusFor(err), errorBody(err))
		return
	}

	setMeta(c, result.Meta)
	c.JSON(http.StatusOK, DataResponse{Data: result.Quote, Metadata: &result.Meta})
}

// getAsset 资产解析端点（get-or-create）。
// GET /api/v1/assets/:symbol
func (s *Server) getAsset(c *gin.Context) {
	symbol := c.Param("symbol")

	result, err := s.assets.GetOrCreate(c.Request.Context(), symbol)
	if err != nil {
		s.log.WithError(err).WithField("symbol", symbol).Error("资产解析失败")
		c.JSON(httpStatusFor(err), errorBody(err))
		return
	}

	setMeta(c, result.Meta)
	c.JSON(http.StatusOK, DataResponse{Data: result.Asset, Metadata: &result.Meta})
}

// getCoverage 缓存覆盖汇总端点。
// GET /api/v1/assets/:symbol/coverage?adjust=qfq
func (s *Server) getCoverage(c *gin.Context) {
	symbol := c.Param("symbol")
	adjust := c.Query("adjust")

	cov, err := s.daily.Coverage(c.Request.Context(), symbol, adjust)
	if err != nil {
		s.log.WithError(err).WithField("symbol", symbol).Error("覆盖查询失败")
		c.JSON(httpStatusFor(err), errorBody(err))
		return
	}

	c.JSON(http.StatusOK, DataResponse{Data: cov})
}

// healthCheck 健康检查：数据库连通即算健康
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	health := gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
		"services":  gin.H{"database": "ok"},
	}

	if err := s.store.Ping(ctx); err != nil {
		health["status"] = "degraded"
		health["services"] = gin.H{"database": "error: " + err.Error()}
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	c.JSON(http.StatusOK, health)
}

// getStats 系统统计信息
func (s *Server) getStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	stats, err := s.store.GetStats(ctx)
	if err != nil {
		s.log.WithError(err).Error("统计查询失败")
		c.JSON(httpStatusFor(err), errorBody(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"timestamp": time.Now(),
		"uptime":    time.Since(s.startedAt).String(),
		"tables":    stats,
	})
}
