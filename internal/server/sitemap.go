package server

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (s *Server) handleSitemap(c echo.Context) error {
	entries, err := s.blog.SitemapEntries(c.Request().Context())
	if err != nil {
		return err
	}

	base := strings.TrimRight(s.site.BaseURL, "/")
	urls := make([]sitemapURL, 0, len(entries)+1)
	urls = append(urls, sitemapURL{Loc: base + "/"})
	for _, e := range entries {
		u := sitemapURL{Loc: base + e.Path}
		if !e.LastMod.IsZero() {
			u.LastMod = e.LastMod.UTC().Format("2006-01-02")
		}
		urls = append(urls, u)
	}

	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
