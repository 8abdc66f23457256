package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"blogfeed/internal/apperr"
	"blogfeed/internal/domain"
	"blogfeed/internal/logfields"
)

type errorResponse struct {
	Error string `json:"error"`
}

// httpErrorHandler turns handler errors into {"error": msg} bodies. Causes
// stay in the log; clients only see the generic message of the category.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, msg := s.classify(err, c)
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, errorResponse{Error: msg})
}

func (s *Server) classify(err error, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		if he.Code >= http.StatusInternalServerError {
			s.logError(c, slog.LevelError, he.Code, "", err)
		}
		return he.Code, msg
	}

	if errors.Is(err, domain.ErrPostNotFound) {
		return http.StatusNotFound, "Post not found"
	}

	category := apperr.CategoryOf(err)
	status := apperr.HTTPStatus(category)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logError(c, level, status, category, err)

	return status, apperr.PublicMessage(category)
}

func (s *Server) logError(c echo.Context, level slog.Level, status int, category apperr.Category, err error) {
	s.logger.LogAttrs(c.Request().Context(), level, "request failed",
		logfields.Path(c.Request().URL.Path),
		logfields.Status(status),
		slog.String("category", string(category)),
		logfields.Error(err),
	)
}
