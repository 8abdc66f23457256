package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"blogfeed/internal/apperr"
	"blogfeed/internal/config"
	"blogfeed/internal/domain"
	"blogfeed/internal/service/mocks"
)

type BlogServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	remote *mocks.MockRemoteSource
	posts  *mocks.MockPostStore

	service *BlogService
}

func (s *BlogServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.remote = mocks.NewMockRemoteSource(s.ctrl)
	s.posts = mocks.NewMockPostStore(s.ctrl)

	s.service = NewBlogService(
		s.remote,
		s.posts,
		config.SiteConfig{DefaultLocale: "en-US", Locales: []string{"en-US", "id-ID"}},
		config.ContentConfig{TeaserSize: 5, PageSize: 5},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func (s *BlogServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestBlogServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BlogServiceTestSuite))
}

func compiled(n int) []domain.StaticPost {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.StaticPost, n)
	for i := range out {
		out[i] = domain.StaticPost{
			Slug:          fmt.Sprintf("post-%d", i+1),
			Title:         fmt.Sprintf("Post %d", i+1),
			Body:          "body",
			Tags:          []string{"Go"},
			DatePublished: base.AddDate(0, 0, -i),
			DateUpdated:   base.AddDate(0, 0, -i),
		}
	}
	return out
}

func (s *BlogServiceTestSuite) TestStaticPosts_ExcludesDrafts() {
	ctx := context.Background()
	posts := compiled(3)
	posts[1].Draft = true

	s.posts.EXPECT().ListPublished(ctx).Return(posts, nil)

	list, err := s.service.StaticPosts(ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("post-1", list[0].Slug)
	s.Equal("post-3", list[1].Slug)
	for _, p := range list {
		s.Equal(domain.StatusPublished, p.Status)
		s.Equal(int64(0), p.Views)
		s.Equal("en-US", p.Language)
		s.Nil(p.Content)
	}
}

func (s *BlogServiceTestSuite) TestStaticPage_Full() {
	ctx := context.Background()
	s.posts.EXPECT().ListPublished(ctx).Return(compiled(7), nil).Times(2)

	first, err := s.service.StaticPage(ctx, ListFull, 1, "")
	s.Require().NoError(err)
	s.Len(first.Visible, 5)
	s.Equal(2, first.TotalPages)
	s.True(first.HasNext())

	second, err := s.service.StaticPage(ctx, ListFull, 2, "")
	s.Require().NoError(err)
	s.Len(second.Visible, 2)
	s.Equal("post-6", second.Visible[0].Slug)
	s.False(second.HasNext())
}

func (s *BlogServiceTestSuite) TestStaticPage_Teaser() {
	ctx := context.Background()

	for _, n := range []int{0, 3, 5, 7} {
		s.posts.EXPECT().ListPublished(ctx).Return(compiled(n), nil)

		page, err := s.service.StaticPage(ctx, ListTeaser, 4, "")
		s.Require().NoError(err)
		s.Len(page.Visible, min(5, n))
		s.Equal(1, page.CurrentPage)
	}
}

func (s *BlogServiceTestSuite) TestStaticPage_TagFilter() {
	ctx := context.Background()
	posts := compiled(3)
	posts[0].Tags = []string{"TypeScript"}
	s.posts.EXPECT().ListPublished(ctx).Return(posts, nil)

	page, err := s.service.StaticPage(ctx, ListFull, 1, "typescript")
	s.Require().NoError(err)
	s.Require().Len(page.Visible, 1)
	s.Equal("post-1", page.Visible[0].Slug)
}

func (s *BlogServiceTestSuite) TestTags() {
	ctx := context.Background()
	posts := compiled(3)
	posts[0].Tags = []string{"React", "TypeScript"}
	posts[1].Tags = []string{"React", "TypeScript"}
	posts[2].Tags = []string{"React"}
	posts[2].Draft = true
	s.posts.EXPECT().ListPublished(ctx).Return(posts, nil)

	counts, err := s.service.Tags(ctx)
	s.Require().NoError(err)
	s.Len(counts, 2)
	for _, c := range counts {
		s.Equal(2, c.Count)
	}
}

func (s *BlogServiceTestSuite) TestStaticPost() {
	ctx := context.Background()
	post := compiled(1)[0]
	post.ReadingTime = 3.2
	s.posts.EXPECT().GetPublishedBySlug(ctx, "post-1").Return(&post, nil)

	got, err := s.service.StaticPost(ctx, "post-1")
	s.Require().NoError(err)
	s.Require().NotNil(got.Content)
	s.Equal("body", *got.Content)
	s.Equal(3.2, got.ReadingTime)
	s.Equal([]string{"Go"}, got.Tags)
}

func (s *BlogServiceTestSuite) TestStaticPost_NotFound() {
	ctx := context.Background()
	s.posts.EXPECT().GetPublishedBySlug(ctx, "nope").Return(nil, domain.ErrPostNotFound)

	_, err := s.service.StaticPost(ctx, "nope")
	s.ErrorIs(err, domain.ErrPostNotFound)
}

func (s *BlogServiceTestSuite) TestRemotePosts_Defaults() {
	ctx := context.Background()
	meta := domain.NewPageMeta(1, 5, 0)
	s.remote.EXPECT().ListPosts(ctx, "en-US", 1, 5).Return([]domain.BlogPost{}, meta, nil)

	posts, got, err := s.service.RemotePosts(ctx, "", 1, 0)
	s.Require().NoError(err)
	s.Empty(posts)
	s.Equal(meta, got)
}

func (s *BlogServiceTestSuite) TestRemotePost_KeepsErrorCategory() {
	ctx := context.Background()
	upstream := apperr.Upstream(errors.New("unexpected status: 401"), 401, "get_post")
	s.remote.EXPECT().GetPost(ctx, "id-ID", "halo").Return(domain.PostDetail{}, upstream)

	_, err := s.service.RemotePost(ctx, "id-ID", "halo")
	s.Error(err)
	s.Equal(apperr.CategoryAuth, apperr.CategoryOf(err))
}

func (s *BlogServiceTestSuite) TestSitemapEntries() {
	ctx := context.Background()
	updated := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s.posts.EXPECT().ListPublished(ctx).Return(compiled(1), nil)

	s.remote.EXPECT().ListPosts(ctx, "en-US", 1, sitemapPageSize).Return(
		[]domain.BlogPost{{Slug: "a", Language: "en-US", DateUpdated: updated}},
		domain.PageMeta{Page: 1, HasNext: true}, nil,
	)
	s.remote.EXPECT().ListPosts(ctx, "en-US", 2, sitemapPageSize).Return(
		[]domain.BlogPost{{Slug: "b", Language: "en-US", DateUpdated: updated}},
		domain.PageMeta{Page: 2}, nil,
	)
	s.remote.EXPECT().ListPosts(ctx, "id-ID", 1, sitemapPageSize).Return(
		[]domain.BlogPost{
			{Slug: "a-id", Language: "id-ID", DateUpdated: updated},
			{Slug: "b", Language: "en-US", DateUpdated: updated},
		},
		domain.PageMeta{Page: 1}, nil,
	)

	entries, err := s.service.SitemapEntries(ctx)
	s.Require().NoError(err)

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	s.Equal([]string{"/blog/post-1", "/en-US/blog/a", "/en-US/blog/b", "/id-ID/blog/a-id"}, paths)
	s.Equal(updated, entries[1].LastMod)
}

func (s *BlogServiceTestSuite) TestSitemapEntries_RemoteNotConfigured() {
	ctx := context.Background()
	s.posts.EXPECT().ListPublished(ctx).Return(compiled(2), nil)
	s.remote.EXPECT().ListPosts(ctx, "en-US", 1, sitemapPageSize).
		Return(nil, domain.PageMeta{}, apperr.Config("cms base url or token not configured"))

	entries, err := s.service.SitemapEntries(ctx)
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *BlogServiceTestSuite) TestSitemapEntries_RemoteFailureKeepsOtherLocales() {
	ctx := context.Background()
	s.posts.EXPECT().ListPublished(ctx).Return(nil, nil)
	s.remote.EXPECT().ListPosts(ctx, "en-US", 1, sitemapPageSize).
		Return(nil, domain.PageMeta{}, apperr.Upstream(errors.New("boom"), 502, "list_posts"))
	s.remote.EXPECT().ListPosts(ctx, "id-ID", 1, sitemapPageSize).
		Return([]domain.BlogPost{{Slug: "x", Language: "id-ID"}}, domain.PageMeta{}, nil)

	entries, err := s.service.SitemapEntries(ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("/id-ID/blog/x", entries[0].Path)
}

func TestParseListMode(t *testing.T) {
	cases := map[string]ListMode{"": ListFull, "full": ListFull, "teaser": ListTeaser}
	for in, want := range cases {
		got, err := ParseListMode(in)
		if err != nil || got != want {
			t.Errorf("ParseListMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseListMode("grid"); !apperr.IsCategory(err, apperr.CategoryValidation) {
		t.Errorf("ParseListMode(grid) error = %v, want validation", err)
	}
}
