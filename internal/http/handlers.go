package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server is the health-check surface the hosting platform polls. It carries
// no shop logic.
type Server struct {
	engine  *gin.Engine
	service string
	started time.Time
}

func NewServer(service string) *Server {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	s := &Server{engine: r, service: service, started: time.Now().UTC()}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.home)
	s.engine.GET("/health", s.health)
}

func (s *Server) home(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(`<html>
	<head><title>Trusty Lads Bot</title></head>
	<body style="font-family: sans-serif; text-align: center; padding-top: 50px;">
		<h1>Trusty Lads Bot is Online</h1>
		<p>Status: <strong style="color: green;">Running</strong></p>
		<p>The bot is active and listening for messages on Telegram.</p>
	</body>
</html>`))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": s.service,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}
