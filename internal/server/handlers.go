package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/penwyp/go-mine-replay/internal/application/pipeline"
	"github.com/penwyp/go-mine-replay/internal/util"
)

// animatedParam reads ?gif=. Missing or unparsable values mean a still image.
func animatedParam(c *gin.Context) bool {
	animated, err := strconv.ParseBool(c.Query("gif"))
	return err == nil && animated
}

// readReplayBody reads a POSTed replay string
func (s *Server) readReplayBody(c *gin.Context) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxBodyBytes))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", errors.New("request body must contain a replay")
	}
	return text, nil
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		if logger := util.LogWithContext(c.Request.Context()); logger != nil {
			logger.Error("request failed", util.F("path", c.Request.URL.Path), util.F("error", err.Error()))
		}
	}
	s.noStore(c)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	s.noStore(c)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// writeImage sends a rendered image. cache sets the Cache-Control header
// for the successful response only.
func writeImage(c *gin.Context, cache gin.HandlerFunc, res *pipeline.Result) {
	cache(c)
	c.Header("X-Render-Mode", res.Mode.String())
	if res.Cached {
		c.Header("X-Render-Cache", "hit")
	}
	c.Data(http.StatusOK, res.ContentType, res.Bytes)
}

// renderGameHandler renders a provider game: GET /render/:provider/:gameid
func (s *Server) renderGameHandler(c *gin.Context) {
	animated := animatedParam(c)

	res, err := s.service.RenderGame(c.Request.Context(), c.Param("provider"), c.Param("gameid"), animated)
	if err != nil {
		s.fail(c, err)
		return
	}
	writeImage(c, s.immutable, &res.Result)
}

// renderTextHandler renders a posted replay: POST /render
func (s *Server) renderTextHandler(c *gin.Context) {
	animated := animatedParam(c)
	text, err := s.readReplayBody(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	res, err := s.service.Render(text, animated)
	if err != nil {
		s.fail(c, err)
		return
	}
	writeImage(c, s.noStore, res)
}

// inspectGameHandler summarises a provider game: GET /inspect/:provider/:gameid
func (s *Server) inspectGameHandler(c *gin.Context) {
	summary, err := s.service.InspectGame(c.Request.Context(), c.Param("provider"), c.Param("gameid"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.immutable(c)
	c.JSON(http.StatusOK, summary)
}

// inspectTextHandler summarises a posted replay: POST /inspect
func (s *Server) inspectTextHandler(c *gin.Context) {
	animated := animatedParam(c)
	text, err := s.readReplayBody(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	summary, err := s.service.Inspect(text, animated)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// healthHandler reports uptime and, when a store is attached, cache totals
func (s *Server) healthHandler(c *gin.Context) {
	uptime := time.Since(s.started)
	resp := gin.H{
		"status":   "ok",
		"uptime":   util.FormatUptime(uptime),
		"uptimeMs": uptime.Milliseconds(),
	}
	if s.stats != nil {
		stats, err := s.stats.Stats(c.Request.Context())
		if err != nil {
			resp["status"] = "degraded"
			resp["storeError"] = err.Error()
		} else {
			resp["store"] = stats
		}
	}
	c.JSON(http.StatusOK, resp)
}
