// Package server exposes the blog read API, the sitemap and operational
// endpoints over echo.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	prom "github.com/prometheus/client_golang/prometheus"

	"blogfeed/internal/config"
	"blogfeed/internal/domain"
	"blogfeed/internal/metrics"
	"blogfeed/internal/pagination"
	"blogfeed/internal/service"
	"blogfeed/internal/tags"
)

// Blog is the read side the handlers depend on.
type Blog interface {
	RemotePosts(ctx context.Context, locale string, page, limit int) ([]domain.BlogPost, domain.PageMeta, error)
	RemotePost(ctx context.Context, locale, slug string) (domain.PostDetail, error)
	StaticPage(ctx context.Context, mode service.ListMode, page int, tag string) (pagination.Page[domain.BlogPost], error)
	StaticPost(ctx context.Context, slug string) (domain.BlogPost, error)
	Tags(ctx context.Context) ([]tags.TagCount, error)
	SitemapEntries(ctx context.Context) ([]service.SitemapEntry, error)
}

type Server struct {
	echo   *echo.Echo
	blog   Blog
	cfg    config.ServerConfig
	site   config.SiteConfig
	logger *slog.Logger
}

// New builds the echo instance with middleware and routes. A nil reg
// disables request metrics and the /metrics endpoint.
func New(cfg config.ServerConfig, site config.SiteConfig, blog Blog, reg *prom.Registry, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		blog:   blog,
		cfg:    cfg,
		site:   site,
		logger: logger.With("component", "server"),
	}

	s.setupMiddleware(reg)
	s.routes(reg)
	return s
}

func (s *Server) setupMiddleware(reg *prom.Registry) {
	e := s.echo
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: 5}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		HSTSMaxAge:         31536000,
	}))

	if reg != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "blogfeed",
			Registerer: reg,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		}))
	}
}

func (s *Server) routes(reg *prom.Registry) {
	e := s.echo

	api := e.Group("/api")
	api.GET("/blog", s.handleRemoteList)
	api.GET("/blog/:slug", s.handleRemotePost)
	api.GET("/posts", s.handleStaticList)
	api.GET("/posts/:slug", s.handleStaticPost)
	api.GET("/tags", s.handleTags)

	e.GET("/sitemap.xml", s.handleSitemap)
	e.GET("/healthz", handleHealth)

	if reg != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.HTTPHandler(reg)))
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is done, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
