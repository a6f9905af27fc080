package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(s.log))
	r.Use(func(c *gin.Context) {
		s.requests.Add(1)
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.snapshotStatus())
	})
	v1.GET("/events", s.handleEvents)
	v1.GET("/stream", s.handleStream)

	v1.GET("/bids", s.listBids)
	v1.GET("/bids/:key", s.getBid)
	v1.PUT("/bids/:key", s.putBid)
	v1.DELETE("/bids/:key", s.deleteBid)
	v1.POST("/bids/:key/projection", s.projectBid)
	v1.GET("/bids/:key/export", s.exportBid)

	v1.GET("/sites", s.listSites)
	v1.GET("/sites/:name", s.getSite)

	v1.GET("/store/:kind", s.listEntries)
	v1.GET("/store/:kind/:key", s.getEntry)
	v1.PUT("/store/:kind/:key", s.putEntry)
	v1.DELETE("/store/:kind/:key", s.deleteEntry)

	s.log.Debug("router initialized")
	return r
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
