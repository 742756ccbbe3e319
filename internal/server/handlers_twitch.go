package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) handlePlayback(c echo.Context) error {
	vodID := c.Param("vodID")

	playback, err := s.playback.Resolve(c.Request().Context(), vodID)
	if err != nil {
		slog.Error("failed to resolve playback", "vod_id", vodID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "failed to resolve playback")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"variant_uri": playback.VariantURI,
		"playlist":    playback.VariantManifest,
	})
}

func (s *Server) handleLiveStatus(c echo.Context) error {
	userID := c.Param("userID")

	live, err := s.live.IsLive(c.Request().Context(), userID)
	if err != nil {
		slog.Error("failed to check live status", "user_id", userID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "failed to check live status")
	}

	return c.JSON(http.StatusOK, map[string]bool{"live": live})
}

func (s *Server) handleListSubscriptions(c echo.Context) error {
	subs, err := s.subscriptions.ListSubscriptions(c.Request().Context())
	if err != nil {
		slog.Error("failed to list webhook subscriptions", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "failed to list subscriptions")
	}
	return c.JSON(http.StatusOK, subs)
}

func (s *Server) handleSubscribe(c echo.Context) error {
	userID := c.Param("userID")
	if err := s.subscriptions.Subscribe(c.Request().Context(), userID); err != nil {
		slog.Error("failed to subscribe", "user_id", userID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "failed to subscribe")
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleUnsubscribe(c echo.Context) error {
	userID := c.Param("userID")
	if err := s.subscriptions.Unsubscribe(c.Request().Context(), userID); err != nil {
		slog.Error("failed to unsubscribe", "user_id", userID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "failed to unsubscribe")
	}
	return c.NoContent(http.StatusAccepted)
}
