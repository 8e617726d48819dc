// Package api exposes the storefront operations over HTTP and a live-search WebSocket.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront-workers/internal/assistant"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/contact"
	"storefront-workers/internal/notification"
	"storefront-workers/internal/search"
)

// Dependencies are the collaborators behind the routes. Nil Contact or Assistant
// disables the corresponding route group.
type Dependencies struct {
	Catalog       search.ProductSource
	Engine        search.Engine
	History       *search.History
	PopularCount  int
	Notifications *notification.Store
	Contact       *contact.Forms
	Assistant     *assistant.Assistant
	Clock         clockwork.Clock
	Debounce      time.Duration
	ReplyDelay    time.Duration
	// Ready reports whether the service can answer requests, e.g. the catalog has loaded.
	Ready  func(ctx context.Context) error
	Logger logger.Logger
}

type Server struct {
	deps   Dependencies
	logger logger.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Debounce <= 0 {
		deps.Debounce = search.DefaultDebounce
	}
	if deps.Engine.MaxSuggestions <= 0 {
		deps.Engine = search.NewEngine(search.DefaultMaxSuggestions)
	}

	s := &Server{
		deps:   deps,
		logger: deps.Logger.WithFields(map[string]interface{}{"component": "api"}),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.Health)
	r.GET("/ready", s.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.GET("/search/suggestions", s.Suggestions)
		api.GET("/search/history", s.ListHistory)
		api.DELETE("/search/history", s.ClearHistory)
		api.GET("/search/live", s.LiveSearch)

		api.GET("/notifications", s.ListNotifications)
		api.GET("/notifications/live", s.LiveNotifications)
		api.POST("/notifications", s.CreateNotification)
		api.POST("/notifications/read-all", s.MarkAllNotificationsRead)
		api.POST("/notifications/:id/read", s.MarkNotificationRead)
		api.DELETE("/notifications/:id", s.DeleteNotification)
		api.DELETE("/notifications", s.ClearNotifications)

		if deps.Contact != nil {
			api.POST("/contact", s.SubmitContact)
		}
		if deps.Assistant != nil {
			api.POST("/assistant/messages", s.AssistantMessage)
		}
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("HTTP request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
