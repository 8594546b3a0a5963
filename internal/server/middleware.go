package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
	"golang.org/x/time/rate"

	"github.com/penwyp/go-mine-replay/internal/util"
)

const requestIDHeader = "X-Request-Id"

// getLimiter returns the rate limiter for key (usually the client IP)
func (s *Server) getLimiter(key string) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	if lim, ok := s.limiters[key]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(s.config.RateLimitRPS)), s.config.RateLimitBurst)
	s.limiters[key] = lim
	return lim
}

// rateLimitMiddleware enforces per-client rate limiting
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.getLimiter(c.ClientIP()).Allow() {
			s.noStore(c)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// requestIDMiddleware carries the caller's request id, or a new one, in the
// request context and the response headers
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Request = c.Request.WithContext(util.ContextWithRequestID(c.Request.Context(), reqID))
		c.Header(requestIDHeader, reqID)
		c.Next()
	}
}

// accessLogMiddleware logs one line per request through the global logger
func accessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger := util.LogWithContext(c.Request.Context())
		if logger == nil {
			return
		}
		logger.Info("request",
			util.F("method", c.Request.Method),
			util.F("path", c.Request.URL.Path),
			util.F("status", c.Writer.Status()),
			util.F("bytes", c.Writer.Size()),
			util.F("duration", time.Since(start).Round(time.Microsecond).String()),
			util.F("client", c.ClientIP()))
	}
}

// immutableCache marks a finished game's render or summary as publicly
// cacheable. Handlers apply it on success only.
func immutableCache(maxAge time.Duration) gin.HandlerFunc {
	return cachecontrol.New(cachecontrol.Config{
		Public:    true,
		MaxAge:    cachecontrol.Duration(maxAge),
		Immutable: true,
	})
}

func noStoreCache() gin.HandlerFunc {
	return cachecontrol.New(cachecontrol.NoCachePreset)
}
