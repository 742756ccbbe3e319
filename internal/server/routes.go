package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	if s.registry != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	// Public read surface, served through the cache
	s.echo.GET("/vods", s.handleFindVods)
	s.echo.GET("/vods/:id", s.handleGetVod)

	// Mutations are internal-only: the archiver and operators hold the admin key
	s.echo.POST("/vods", s.handleCreateVod, s.requireAdmin)
	s.echo.PUT("/vods/:id", s.handleUpdateVod, s.requireAdmin)
	s.echo.PATCH("/vods/:id", s.handlePatchVod, s.requireAdmin)
	s.echo.DELETE("/vods/:id", s.handleRemoveVod, s.requireAdmin)

	// Playback resolution and live status, proxied to Twitch per request
	s.echo.GET("/playback/:vodID", s.handlePlayback)
	s.echo.GET("/streams/:userID/live", s.handleLiveStatus)

	// Webhook subscription management (internal-only)
	s.echo.GET("/admin/subscriptions", s.handleListSubscriptions, s.requireAdmin)
	s.echo.POST("/admin/subscriptions/:userID", s.handleSubscribe, s.requireAdmin)
	s.echo.DELETE("/admin/subscriptions/:userID", s.handleUnsubscribe, s.requireAdmin)

	// WebSub callback: GET for hub verification, POST for notifications
	s.echo.GET("/webhooks/stream/:userID", s.handleWebhookVerification)
	s.echo.POST("/webhooks/stream/:userID", s.handleWebhookNotification)
}
