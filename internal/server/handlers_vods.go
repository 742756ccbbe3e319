package server

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rawrpantsu/archive/internal/cache"
	"github.com/rawrpantsu/archive/internal/vods"
)

// requireAdmin guards the mutating vods verbs behind the shared admin key.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Header.Get("X-Admin-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.config.AdminKey)) != 1 {
			return echo.NewHTTPError(http.StatusForbidden, "admin key required")
		}
		return next(c)
	}
}

func parseVodID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid vod id")
	}
	return id, nil
}

func (s *Server) handleFindVods(c echo.Context) error {
	q := vods.Query{UserID: c.QueryParam("user_id")}

	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		q.Limit = limit
	}
	if v := c.QueryParam("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid offset")
		}
		q.Offset = offset
	}

	ctx := cache.WithExternalProvider(c.Request().Context())
	list, err := s.vods.Find(ctx, q)
	if err != nil {
		slog.Error("failed to list vods", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list vods")
	}

	return c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetVod(c echo.Context) error {
	id, err := parseVodID(c)
	if err != nil {
		return err
	}

	ctx := cache.WithExternalProvider(c.Request().Context())
	vod, err := s.vods.Get(ctx, id)
	if errors.Is(err, vods.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "vod not found")
	}
	if err != nil {
		slog.Error("failed to get vod", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get vod")
	}

	return c.JSON(http.StatusOK, vod)
}

func (s *Server) handleCreateVod(c echo.Context) error {
	var vod vods.Vod
	if err := c.Bind(&vod); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid vod payload")
	}
	if vod.TwitchID == "" || vod.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "twitch_id and user_id are required")
	}

	created, err := s.vods.Create(c.Request().Context(), &vod)
	if err != nil {
		slog.Error("failed to create vod", "twitch_id", vod.TwitchID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create vod")
	}

	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateVod(c echo.Context) error {
	id, err := parseVodID(c)
	if err != nil {
		return err
	}

	var vod vods.Vod
	if err := c.Bind(&vod); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid vod payload")
	}

	updated, err := s.vods.Update(c.Request().Context(), id, &vod)
	if errors.Is(err, vods.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "vod not found")
	}
	if err != nil {
		slog.Error("failed to update vod", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update vod")
	}

	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handlePatchVod(c echo.Context) error {
	id, err := parseVodID(c)
	if err != nil {
		return err
	}

	var fields map[string]any
	if err := c.Bind(&fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patch payload")
	}
	delete(fields, "id")
	delete(fields, "created_at")
	delete(fields, "updated_at")

	patched, err := s.vods.Patch(c.Request().Context(), id, fields)
	if errors.Is(err, vods.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "vod not found")
	}
	if err != nil {
		slog.Error("failed to patch vod", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "failed to patch vod")
	}

	return c.JSON(http.StatusOK, patched)
}

func (s *Server) handleRemoveVod(c echo.Context) error {
	id, err := parseVodID(c)
	if err != nil {
		return err
	}

	err = s.vods.Remove(c.Request().Context(), id)
	if errors.Is(err, vods.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "vod not found")
	}
	if err != nil {
		slog.Error("failed to remove vod", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to remove vod")
	}

	return c.NoContent(http.StatusNoContent)
}
