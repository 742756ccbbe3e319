package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// handleWebhookVerification answers the hub's subscribe/unsubscribe
// confirmation by echoing hub.challenge.
func (s *Server) handleWebhookVerification(c echo.Context) error {
	challenge := c.QueryParam("hub.challenge")
	if challenge == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing hub.challenge")
	}

	slog.Info("webhook verification",
		"mode", c.QueryParam("hub.mode"),
		"topic", c.QueryParam("hub.topic"),
		"lease_seconds", c.QueryParam("hub.lease_seconds"),
		"user_id", c.Param("userID"))

	return c.String(http.StatusOK, challenge)
}

// handleWebhookNotification receives stream-status notifications. The hub
// signs payloads with the shared secret; anything unsigned is dropped.
func (s *Server) handleWebhookNotification(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable payload")
	}

	if !verifySignature(s.webhookSecret, c.Request().Header.Get("X-Hub-Signature"), body) {
		slog.Warn("webhook notification with bad signature", "user_id", c.Param("userID"))
		return echo.NewHTTPError(http.StatusForbidden, "invalid signature")
	}

	var payload struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	// Non-empty stream list means the channel went live; empty means offline.
	slog.Info("stream status notification",
		"user_id", c.Param("userID"),
		"live", len(payload.Data) > 0)

	return c.NoContent(http.StatusOK)
}

func verifySignature(secret, header string, body []byte) bool {
	const prefix = "sha256="
	if secret == "" || !strings.HasPrefix(header, prefix) {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(want), []byte(strings.TrimPrefix(header, prefix)))
}
