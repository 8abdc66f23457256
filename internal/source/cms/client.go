package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"blogfeed/internal/apperr"
	"blogfeed/internal/domain"
	"blogfeed/internal/logfields"
	"blogfeed/internal/metrics"
)

const SourceID = "cms"

// Config holds headless CMS connection settings.
type Config struct {
	BaseURL         string
	Token           string
	AssetsURL       string
	Timeout         time.Duration
	PostsCollection string
	TagsCollection  string
}

// Client reads localized blog entries from the headless CMS REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	assetsURL  string
	posts      string
	tags       string
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// New creates a CMS client. A client built from an incomplete Config is
// valid; every call on it fails with a config error.
func New(cfg Config, recorder metrics.Recorder, logger *slog.Logger) *Client {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		assetsURL: strings.TrimRight(cfg.AssetsURL, "/"),
		posts:     cfg.PostsCollection,
		tags:      cfg.TagsCollection,
		recorder:  recorder,
		logger:    logger.With("source", SourceID),
	}
}

func (c *Client) configured() error {
	if c.baseURL == "" || c.token == "" {
		return apperr.Config("cms base url or token not configured")
	}
	return nil
}

// ListPosts returns one page of published posts in locale, newest first.
func (c *Client) ListPosts(ctx context.Context, locale string, page, limit int) ([]domain.BlogPost, domain.PageMeta, error) {
	if err := c.configured(); err != nil {
		return nil, domain.PageMeta{}, err
	}
	if page < 1 {
		return nil, domain.PageMeta{}, apperr.Validation(fmt.Sprintf("page must be >= 1, got %d", page))
	}
	if limit < 1 {
		return nil, domain.PageMeta{}, apperr.Validation(fmt.Sprintf("limit must be >= 1, got %d", limit))
	}

	q := url.Values{}
	q.Set("fields", "*,translations.*")
	q.Set("filter[status][_eq]", string(domain.StatusPublished))
	// keeps filter_count in line with the entries that can be rendered
	q.Set("filter[translations][_nnull]", "true")
	q.Set("sort", "-date_published")
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("meta", "filter_count")

	var resp listResponse[Post]
	if err := c.do(ctx, "list_posts", http.MethodGet, "/items/"+c.posts, q, nil, &resp); err != nil {
		return nil, domain.PageMeta{}, err
	}

	total := len(resp.Data)
	if resp.Meta != nil {
		total = resp.Meta.FilterCount
	}
	meta := domain.NewPageMeta(page, limit, total)

	rel, err := c.fetchRelations(ctx, resp.Data)
	if err != nil {
		return nil, domain.PageMeta{}, err
	}

	posts, err := c.transformList(resp.Data, rel, locale)
	if err != nil {
		return nil, domain.PageMeta{}, err
	}

	c.logger.Debug("listed posts",
		logfields.Locale(locale),
		logfields.Page(page),
		slog.Int("count", len(posts)),
		slog.Int("total", total),
	)

	return posts, meta, nil
}

// GetPost returns the published post having a variant with slug, in locale
// when that variant exists. A successful read increments the remote view
// counter; a failed increment is logged and the unchanged count returned.
func (c *Client) GetPost(ctx context.Context, locale, slug string) (domain.PostDetail, error) {
	if err := c.configured(); err != nil {
		return domain.PostDetail{}, err
	}

	q := url.Values{}
	q.Set("fields", "*,translations.*")
	q.Set("filter[status][_eq]", string(domain.StatusPublished))
	q.Set("filter[translations][slug][_eq]", slug)
	q.Set("limit", "1")

	var resp listResponse[Post]
	if err := c.do(ctx, "get_post", http.MethodGet, "/items/"+c.posts, q, nil, &resp); err != nil {
		return domain.PostDetail{}, err
	}

	entry, ok := findBySlug(resp.Data, slug)
	if !ok {
		return domain.PostDetail{}, domain.ErrPostNotFound
	}

	rel, err := c.fetchRelations(ctx, []Post{entry})
	if err != nil {
		return domain.PostDetail{}, err
	}

	rec, err := c.transform(entry, rel, selectVariant(entry.Translations, locale, slug))
	if err != nil {
		return domain.PostDetail{}, err
	}

	if err := c.incrementViews(ctx, entry.ID, entry.Views); err != nil {
		c.recorder.IncViewIncrementFailure()
		c.logger.Warn("view increment failed",
			slog.Int64("post_id", entry.ID),
			logfields.Slug(slug),
			logfields.Error(err),
		)
	} else {
		rec.Views++
	}

	return detail(rec), nil
}

// incrementViews writes current+1 guarded by views < current+1. When a
// concurrent read already moved the counter that far the update matches
// nothing, which still counts as success.
func (c *Client) incrementViews(ctx context.Context, id, current int64) error {
	next := current + 1
	update := viewsUpdate{
		Query: viewsQuery{Filter: map[string]map[string]int64{
			"id":    {"_eq": id},
			"views": {"_lt": next},
		}},
		Data: viewsPatch{Views: next},
	}
	return c.do(ctx, "increment_views", http.MethodPatch, "/items/"+c.posts, nil, update, nil)
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out any) error {
	start := time.Now()
	err := c.doRequest(ctx, operation, method, path, query, body, out)
	c.recorder.ObserveCMSRequest(operation, time.Since(start), err == nil)
	return err
}

func (c *Client) doRequest(ctx context.Context, operation, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperr.Wrap(fmt.Errorf("marshal body: %w", err), apperr.CategoryInternal, operation)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return apperr.Wrap(fmt.Errorf("create request: %w", err), apperr.CategoryInternal, operation)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", "blogfeed/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Upstream(fmt.Errorf("execute request: %w", err), 0, operation)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperr.Upstream(
			fmt.Errorf("unexpected status: %d: %s", resp.StatusCode, upstreamMessage(resp.Body)),
			resp.StatusCode,
			operation,
		)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Upstream(fmt.Errorf("decode response: %w", err), resp.StatusCode, operation)
	}

	return nil
}

func upstreamMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no body"
	}
	var er errorResponse
	if err := json.Unmarshal(data, &er); err == nil && len(er.Errors) > 0 {
		msgs := make([]string, 0, len(er.Errors))
		for _, e := range er.Errors {
			msgs = append(msgs, e.Message)
		}
		return strings.Join(msgs, "; ")
	}
	return strings.TrimSpace(string(data))
}
