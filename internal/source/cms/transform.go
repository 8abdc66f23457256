package cms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"blogfeed/internal/adapter"
	"blogfeed/internal/apperr"
	"blogfeed/internal/domain"
)

var errUnresolved = errors.New("unresolved relation")

// relations maps foreign keys referenced by a batch of posts to display values.
type relations struct {
	tags  map[int64]string
	files map[string]string
}

// fetchRelations loads only the tags and files referenced by posts. The two
// lookups run concurrently and either failing fails the batch.
func (c *Client) fetchRelations(ctx context.Context, posts []Post) (relations, error) {
	tagIDs, fileIDs := referencedIDs(posts)
	rel := relations{
		tags:  make(map[int64]string, len(tagIDs)),
		files: make(map[string]string, len(fileIDs)),
	}

	var (
		tags  []Tag
		files []File
	)

	g, gctx := errgroup.WithContext(ctx)
	if len(tagIDs) > 0 {
		g.Go(func() error {
			ids := make([]string, 0, len(tagIDs))
			for _, id := range tagIDs {
				ids = append(ids, strconv.FormatInt(id, 10))
			}
			q := url.Values{}
			q.Set("fields", "id,name")
			q.Set("filter[id][_in]", strings.Join(ids, ","))
			q.Set("limit", "-1")

			var resp listResponse[Tag]
			if err := c.do(gctx, "list_tags", http.MethodGet, "/items/"+c.tags, q, nil, &resp); err != nil {
				return err
			}
			tags = resp.Data
			return nil
		})
	}
	if len(fileIDs) > 0 {
		g.Go(func() error {
			q := url.Values{}
			q.Set("fields", "id,filename_download")
			q.Set("filter[id][_in]", strings.Join(fileIDs, ","))
			q.Set("limit", "-1")

			var resp listResponse[File]
			if err := c.do(gctx, "list_files", http.MethodGet, "/files", q, nil, &resp); err != nil {
				return err
			}
			files = resp.Data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return relations{}, err
	}

	for _, t := range tags {
		rel.tags[t.ID] = t.Name
	}
	for _, f := range files {
		rel.files[f.ID] = c.assetsURL + "/" + f.ID
	}

	return rel, nil
}

func referencedIDs(posts []Post) ([]int64, []string) {
	seenTags := make(map[int64]struct{})
	seenFiles := make(map[string]struct{})
	var tagIDs []int64
	var fileIDs []string

	for _, p := range posts {
		for _, id := range p.Tags {
			if _, ok := seenTags[id]; !ok {
				seenTags[id] = struct{}{}
				tagIDs = append(tagIDs, id)
			}
		}
		for _, id := range p.Images {
			if _, ok := seenFiles[id]; !ok {
				seenFiles[id] = struct{}{}
				fileIDs = append(fileIDs, id)
			}
		}
	}

	sort.Slice(tagIDs, func(i, j int) bool { return tagIDs[i] < tagIDs[j] })
	sort.Strings(fileIDs)
	return tagIDs, fileIDs
}

func (c *Client) transformList(posts []Post, rel relations, locale string) ([]domain.BlogPost, error) {
	out := make([]domain.BlogPost, 0, len(posts))
	for _, p := range posts {
		if domain.Status(p.Status) != domain.StatusPublished {
			continue
		}
		if len(p.Translations) == 0 {
			c.logger.Warn("skipping post without translations", "post_id", p.ID)
			continue
		}

		rec, err := c.transform(p, rel, selectVariant(p.Translations, locale, ""))
		if err != nil {
			return nil, err
		}
		out = append(out, adapter.FromRemote(rec, adapter.ModeList))
	}
	return out, nil
}

func (c *Client) transform(p Post, rel relations, variant Translation) (domain.RemoteRecord, error) {
	published, err := parseTime(p.DatePublished)
	if err != nil {
		return domain.RemoteRecord{}, malformed(p.ID, "date_published", err)
	}

	updated := published
	if p.DateUpdated != nil && *p.DateUpdated != "" {
		updated, err = parseTime(*p.DateUpdated)
		if err != nil {
			return domain.RemoteRecord{}, malformed(p.ID, "date_updated", err)
		}
	}

	tags := make([]string, 0, len(p.Tags))
	for _, id := range p.Tags {
		name, ok := rel.tags[id]
		if !ok {
			return domain.RemoteRecord{}, malformed(p.ID, "tags", fmt.Errorf("tag %d: %w", id, errUnresolved))
		}
		tags = append(tags, name)
	}

	images := make([]string, 0, len(p.Images))
	for _, id := range p.Images {
		u, ok := rel.files[id]
		if !ok {
			return domain.RemoteRecord{}, malformed(p.ID, "images", fmt.Errorf("file %s: %w", id, errUnresolved))
		}
		images = append(images, u)
	}

	var readingTime float64
	if p.ReadingTime != nil {
		readingTime = *p.ReadingTime
	}

	translations := make([]domain.Translation, 0, len(p.Translations))
	for _, t := range p.Translations {
		translations = append(translations, toDomain(t))
	}

	return domain.RemoteRecord{
		ID:            p.ID,
		Status:        domain.Status(p.Status),
		DatePublished: published,
		DateUpdated:   updated,
		Views:         max(p.Views, 0),
		ReadingTime:   readingTime,
		Tags:          tags,
		Images:        images,
		Variant:       toDomain(variant),
		Translations:  translations,
	}, nil
}

// selectVariant prefers the variant matching both slug and locale, then the
// variant in locale, then the first one. An empty slug matches nothing.
func selectVariant(translations []Translation, locale, slug string) Translation {
	if len(translations) == 0 {
		return Translation{}
	}
	if slug != "" {
		for _, t := range translations {
			if t.Slug == slug && t.LanguagesCode == locale {
				return t
			}
		}
	}
	for _, t := range translations {
		if t.LanguagesCode == locale {
			return t
		}
	}
	return translations[0]
}

func findBySlug(posts []Post, slug string) (Post, bool) {
	for _, p := range posts {
		if domain.Status(p.Status) != domain.StatusPublished {
			continue
		}
		for _, t := range p.Translations {
			if t.Slug == slug {
				return p, true
			}
		}
	}
	return Post{}, false
}

func detail(r domain.RemoteRecord) domain.PostDetail {
	return adapter.FromRemoteDetail(r)
}

func toDomain(t Translation) domain.Translation {
	return domain.Translation{
		Language: t.LanguagesCode,
		Slug:     t.Slug,
		Title:    t.Title,
		Summary:  t.Summary,
		Content:  t.Content,
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func malformed(id int64, field string, err error) error {
	return apperr.Wrap(fmt.Errorf("post %d %s: %w", id, field, err), apperr.CategoryUpstream, "transform post").
		WithContext("post_id", id)
}
