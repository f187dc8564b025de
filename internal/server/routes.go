package server

import (
	"net/http"
	"time"

	"github.com/danmuck/gbtlink/internal/observability"
	"github.com/danmuck/gbtlink/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "0.1.0"

type decodeRequest struct {
	Hex string `json:"hex" binding:"required"`
}

type respondRequest struct {
	Hex      string `json:"hex" binding:"required"`
	Response string `json:"response" binding:"required"`
}

func (a *Admin) RegisterRoutes() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"uptime":   time.Since(a.Appeared).String(),
			"service":  a.Name,
			"version":  version,
			"sessions": a.sessions.Len(),
		})
	})

	a.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.router.GET("/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"sessions": a.sessions.Snapshot(),
		})
	})

	a.router.GET("/sessions/:vin", func(c *gin.Context) {
		sess, ok := a.sessions.Get(c.Param("vin"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, sess)
	})

	v1 := a.router.Group("/v1")
	v1.GET("/commands", func(c *gin.Context) {
		cmds := a.registry.Commands()
		out := make([]gin.H, 0, len(cmds))
		for _, cmd := range cmds {
			out = append(out, gin.H{"code": uint8(cmd), "name": cmd.String()})
		}
		c.JSON(http.StatusOK, gin.H{"commands": out})
	})

	v1.POST("/decode", func(c *gin.Context) {
		var req decodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p, ok := a.decode(c, req.Hex)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, protocol.ViewOf(p))
	})

	// respond answers a captured request frame with the given response code
	v1.POST("/respond", func(c *gin.Context) {
		var req respondRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		code, ok := protocol.ParseResponse(req.Response)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown response " + req.Response})
			return
		}
		p, ok := a.decode(c, req.Hex)
		if !ok {
			return
		}
		out, err := protocol.Respond(p, code)
		if err == nil {
			var s string
			if s, err = protocol.EncodeHex(out); err == nil {
				c.JSON(http.StatusOK, gin.H{"hex": s, "packet": protocol.ViewOf(out)})
				return
			}
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": protocol.Kind(err)})
	})
}

func (a *Admin) decode(c *gin.Context, s string) (protocol.Packet, bool) {
	raw, err := protocol.ParseHex(s)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return protocol.Packet{}, false
	}
	p, err := a.registry.Decode(raw)
	if err != nil {
		kind := protocol.Kind(err)
		observability.RecordDecodeError("http", kind)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": kind})
		return protocol.Packet{}, false
	}
	return p, true
}
