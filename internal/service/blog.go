package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"blogfeed/internal/adapter"
	"blogfeed/internal/apperr"
	"blogfeed/internal/config"
	"blogfeed/internal/domain"
	"blogfeed/internal/pagination"
	"blogfeed/internal/tags"
)

// ListMode picks the page size of a static listing.
type ListMode string

const (
	ListTeaser ListMode = "teaser"
	ListFull   ListMode = "full"
)

func ParseListMode(s string) (ListMode, error) {
	switch ListMode(s) {
	case "", ListFull:
		return ListFull, nil
	case ListTeaser:
		return ListTeaser, nil
	default:
		return "", apperr.Validation(fmt.Sprintf("unknown list mode %q", s))
	}
}

// sitemapPageSize bounds each CMS page read while building the sitemap.
const sitemapPageSize = 100

// SitemapEntry is one published post URL path with its last change.
type SitemapEntry struct {
	Path    string
	LastMod time.Time
}

// BlogService is the read side of both content pipelines.
type BlogService struct {
	remote  RemoteSource
	posts   PostStore
	site    config.SiteConfig
	content config.ContentConfig
	logger  *slog.Logger
}

func NewBlogService(
	remote RemoteSource,
	posts PostStore,
	site config.SiteConfig,
	content config.ContentConfig,
	logger *slog.Logger,
) *BlogService {
	return &BlogService{
		remote:  remote,
		posts:   posts,
		site:    site,
		content: content,
		logger:  logger.With("component", "blog"),
	}
}

func (s *BlogService) locale(requested string) string {
	if requested == "" {
		return s.site.DefaultLocale
	}
	return requested
}

// RemotePosts returns one page of CMS posts. An empty locale means the
// site default.
func (s *BlogService) RemotePosts(ctx context.Context, locale string, page, limit int) ([]domain.BlogPost, domain.PageMeta, error) {
	if limit == 0 {
		limit = s.content.PageSize
	}
	posts, meta, err := s.remote.ListPosts(ctx, s.locale(locale), page, limit)
	if err != nil {
		return nil, domain.PageMeta{}, fmt.Errorf("list remote posts: %w", err)
	}
	return posts, meta, nil
}

func (s *BlogService) RemotePost(ctx context.Context, locale, slug string) (domain.PostDetail, error) {
	post, err := s.remote.GetPost(ctx, s.locale(locale), slug)
	if err != nil {
		return domain.PostDetail{}, fmt.Errorf("get remote post %q: %w", slug, err)
	}
	return post, nil
}

// StaticPosts is the compiled collection in list form, most recent first,
// drafts excluded.
func (s *BlogService) StaticPosts(ctx context.Context) ([]domain.BlogPost, error) {
	compiled, err := s.posts.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list static posts: %w", err)
	}
	return adapter.StaticList(compiled, s.site.DefaultLocale), nil
}

func (s *BlogService) StaticPost(ctx context.Context, slug string) (domain.BlogPost, error) {
	compiled, err := s.posts.GetPublishedBySlug(ctx, slug)
	if err != nil {
		return domain.BlogPost{}, fmt.Errorf("get static post %q: %w", slug, err)
	}
	if compiled.Draft {
		return domain.BlogPost{}, domain.ErrPostNotFound
	}
	return adapter.FromStatic(*compiled, s.site.DefaultLocale, adapter.ModeDetail), nil
}

// StaticPage paginates the compiled collection, optionally narrowed to one
// tag slug. Teaser mode always yields the first page.
func (s *BlogService) StaticPage(ctx context.Context, mode ListMode, page int, tag string) (pagination.Page[domain.BlogPost], error) {
	posts, err := s.StaticPosts(ctx)
	if err != nil {
		return pagination.Page[domain.BlogPost]{}, err
	}
	if tag != "" {
		posts = tags.Filter(posts, tag)
	}

	if mode == ListTeaser {
		return pagination.Teaser(posts, s.content.TeaserSize), nil
	}
	return pagination.Paginate(posts, s.content.PageSize, page), nil
}

func (s *BlogService) Tags(ctx context.Context) ([]tags.TagCount, error) {
	posts, err := s.StaticPosts(ctx)
	if err != nil {
		return nil, err
	}
	return tags.Count(posts), nil
}

// SitemapEntries lists every published static post and every published CMS
// post in each configured locale. CMS failures are logged and leave only
// the static entries; an unconfigured CMS is skipped silently.
func (s *BlogService) SitemapEntries(ctx context.Context) ([]SitemapEntry, error) {
	static, err := s.StaticPosts(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]SitemapEntry, 0, len(static))
	seen := make(map[string]bool)
	add := func(path string, lastMod time.Time) {
		if !seen[path] {
			seen[path] = true
			entries = append(entries, SitemapEntry{Path: path, LastMod: lastMod})
		}
	}

	for _, p := range static {
		add("/blog/"+p.Slug, p.DateUpdated)
	}

	for _, locale := range s.site.Locales {
		remote, err := s.allRemote(ctx, locale)
		if err != nil {
			if apperr.IsCategory(err, apperr.CategoryConfig) {
				s.logger.Debug("cms not configured, sitemap has static posts only")
				break
			}
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			s.logger.Warn("failed to read cms posts for sitemap", "locale", locale, "error", err)
			continue
		}
		// untranslated posts fall back to another locale and may repeat
		for _, p := range remote {
			add("/"+p.Language+"/blog/"+p.Slug, p.DateUpdated)
		}
	}

	return entries, nil
}

func (s *BlogService) allRemote(ctx context.Context, locale string) ([]domain.BlogPost, error) {
	var all []domain.BlogPost
	for page := 1; ; page++ {
		posts, meta, err := s.remote.ListPosts(ctx, locale, page, sitemapPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, posts...)
		if !meta.HasNext {
			return all, nil
		}
	}
}
