package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"marketline/pkg/instrument"
	"marketline/pkg/logger"
	"marketline/pkg/market"
	"marketline/pkg/provider"
	"marketline/pkg/series"
)

// Server 行情HTTP服务
type Server struct {
	engine   *gin.Engine
	service  *market.Service
	resolver *instrument.Resolver
	log      *logrus.Entry
}

// NewServer 创建行情HTTP服务。
// resolver 可以为 nil，此时标的查询接口返回503。
func NewServer(service *market.Service, resolver *instrument.Resolver) *Server {
	s := &Server{
		engine:   gin.New(),
		service:  service,
		resolver: resolver,
		log:      logger.WithComponent("api"),
	}

	s.engine.Use(gin.Recovery(), s.requestID(), s.accessLog())
	s.routes()
	return s
}

// Handler 返回底层HTTP处理器
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)

	v1 := s.engine.Group("/api/v1")
	v1.GET("/bars/:symbol", s.handleBars)
	v1.GET("/instruments/:code", s.handleInstrument)
}

// requestID 为每个请求分配唯一标识，便于日志追踪
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		}).Info("request completed")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleBars 返回指定标的与周期的K线及技术指标
func (s *Server) handleBars(c *gin.Context) {
	symbol := c.Param("symbol")
	period := c.DefaultQuery("period", "d")

	records, err := s.service.HistoryRecords(c.Request.Context(), symbol, period)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, gin.H{
			"error":      err.Error(),
			"request_id": c.GetString("request_id"),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol": symbol,
		"period": period,
		"count":  len(records),
		"bars":   records,
	})
}

// handleInstrument 按代码或名称查询标的信息
func (s *Server) handleInstrument(c *gin.Context) {
	if s.resolver == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "标的查询未启用"})
		return
	}

	inst, err := s.resolver.Resolve(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, instrument.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, inst)
}

// statusFor 把领域错误映射为HTTP状态码
func statusFor(err error) int {
	var cfgErr *series.ConfigurationError
	switch {
	case errors.Is(err, series.ErrInvalidPeriod),
		errors.Is(err, provider.ErrSymbolNotSupported),
		errors.As(err, &cfgErr):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
