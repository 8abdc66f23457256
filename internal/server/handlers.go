package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"blogfeed/internal/apperr"
	"blogfeed/internal/domain"
	"blogfeed/internal/pagination"
	"blogfeed/internal/service"
	"blogfeed/internal/tags"
)

const (
	listCacheControl   = "public, max-age=300"
	detailCacheControl = "public, max-age=600"

	maxRemoteLimit = 100
)

type listResponse struct {
	Data []domain.BlogPost `json:"data"`
	Meta domain.PageMeta   `json:"meta"`
}

type dataResponse struct {
	Data any `json:"data"`
}

type tagResponse struct {
	tags.TagCount
	Active bool `json:"active"`
}

func (s *Server) handleRemoteList(c echo.Context) error {
	page, err := positiveParam(c, "page", 1)
	if err != nil {
		return err
	}
	// 0 lets the service apply the configured page size
	limit, err := positiveParam(c, "limit", 0)
	if err != nil {
		return err
	}
	if limit > maxRemoteLimit {
		return apperr.Validation(fmt.Sprintf("limit must be at most %d, got %d", maxRemoteLimit, limit))
	}

	posts, meta, err := s.blog.RemotePosts(c.Request().Context(), c.QueryParam("lang"), page, limit)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderCacheControl, listCacheControl)
	return c.JSON(http.StatusOK, listResponse{Data: posts, Meta: meta})
}

func (s *Server) handleRemotePost(c echo.Context) error {
	post, err := s.blog.RemotePost(c.Request().Context(), c.QueryParam("lang"), c.Param("slug"))
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderCacheControl, detailCacheControl)
	return c.JSON(http.StatusOK, dataResponse{Data: post})
}

func (s *Server) handleStaticList(c echo.Context) error {
	page, err := positiveParam(c, "page", 1)
	if err != nil {
		return err
	}
	mode, err := service.ParseListMode(c.QueryParam("mode"))
	if err != nil {
		return err
	}

	p, err := s.blog.StaticPage(c.Request().Context(), mode, page, c.QueryParam("tag"))
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderCacheControl, listCacheControl)
	return c.JSON(http.StatusOK, listResponse{Data: p.Visible, Meta: pageMeta(p)})
}

func (s *Server) handleStaticPost(c echo.Context) error {
	post, err := s.blog.StaticPost(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderCacheControl, detailCacheControl)
	return c.JSON(http.StatusOK, dataResponse{Data: post})
}

func (s *Server) handleTags(c echo.Context) error {
	counts, err := s.blog.Tags(c.Request().Context())
	if err != nil {
		return err
	}

	active := c.QueryParam("tag")
	out := make([]tagResponse, 0, len(counts))
	for _, tc := range counts {
		out = append(out, tagResponse{TagCount: tc, Active: tags.IsActive(tc.Name, active)})
	}

	c.Response().Header().Set(echo.HeaderCacheControl, listCacheControl)
	return c.JSON(http.StatusOK, dataResponse{Data: out})
}

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// positiveParam reads an optional integer query parameter that must be at
// least 1 when present.
func positiveParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.Validation(fmt.Sprintf("%s must be a positive integer, got %q", name, raw))
	}
	return n, nil
}

func pageMeta(p pagination.Page[domain.BlogPost]) domain.PageMeta {
	return domain.PageMeta{
		Page:       p.CurrentPage,
		Limit:      p.PageSize,
		Total:      p.TotalItems,
		TotalPages: p.TotalPages,
		HasNext:    p.HasNext(),
		HasPrev:    p.HasPrev(),
	}
}
