// internal/api/routes.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tamzrod/mdc-controller/internal/registry"
)

// Server serves the HTTP API over a display registry.
type Server struct {
	reg *registry.Registry
	hub *Hub
	log zerolog.Logger
}

// NewServer wires handlers to reg. hub may be nil.
func NewServer(reg *registry.Registry, hub *Hub, log zerolog.Logger) *Server {
	return &Server{reg: reg, hub: hub, log: log}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), corsMiddleware())

	router.GET("/health", s.serviceHealth)

	api := router.Group("/api")
	{
		api.GET("/health", s.allHealth)

		displays := api.Group("/displays")
		displays.GET("", s.listDisplays)
		displays.POST("/bulk/power", s.bulkPower)
		displays.GET("/:id", s.getDisplay)
		displays.GET("/:id/health", s.displayHealth)
		displays.POST("/:id/power", s.power)
		displays.POST("/:id/volume", s.volume)
		displays.POST("/:id/input", s.input)
		displays.POST("/:id/picture", s.picture)
		displays.POST("/:id/video-wall", s.videoWall)
		displays.POST("/:id/reset", s.reset)

		walls := api.Group("/video-wall")
		walls.GET("/layouts", s.wallLayouts)
		walls.POST("/apply", s.wallApply)
		walls.POST("/disable", s.wallDisable)
	}

	if s.hub != nil {
		router.GET("/ws", s.hub.ServeWS)
	}
	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Msg("http")
	}
}
