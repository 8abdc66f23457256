package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"blogfeed/internal/domain"
)

type PostStore struct {
	db *sqlx.DB
}

func NewPostStore(db *sqlx.DB) *PostStore {
	return &PostStore{db: db}
}

type postRow struct {
	ID            int64          `db:"id"`
	Slug          string         `db:"slug"`
	Title         string         `db:"title"`
	Summary       string         `db:"summary"`
	Body          string         `db:"body"`
	Images        pq.StringArray `db:"images"`
	Tags          pq.StringArray `db:"tags"`
	DatePublished time.Time      `db:"date_published"`
	DateUpdated   time.Time      `db:"date_updated"`
	ReadingTime   float64        `db:"reading_time"`
	Draft         bool           `db:"draft"`
	SourcePath    string         `db:"source_path"`
	ContentHash   string         `db:"content_hash"`
}

func (r postRow) toDomain() domain.StaticPost {
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	images := []string(r.Images)
	if images == nil {
		images = []string{}
	}
	return domain.StaticPost{
		ID:            r.ID,
		Slug:          r.Slug,
		Title:         r.Title,
		Summary:       r.Summary,
		Body:          r.Body,
		Tags:          tags,
		Images:        images,
		DatePublished: r.DatePublished.UTC(),
		DateUpdated:   r.DateUpdated.UTC(),
		ReadingTime:   r.ReadingTime,
		Draft:         r.Draft,
		SourcePath:    r.SourcePath,
		ContentHash:   r.ContentHash,
	}
}

const selectPosts = `
	SELECT
		p.id, p.slug, p.title, p.summary, p.body, p.images,
		p.date_published, p.date_updated, p.reading_time, p.draft,
		p.source_path, p.content_hash,
		COALESCE(
			array_agg(t.name ORDER BY pt.position) FILTER (WHERE t.id IS NOT NULL),
			'{}'
		) AS tags
	FROM static_posts p
	LEFT JOIN static_post_tags pt ON pt.post_id = p.id
	LEFT JOIN tags t ON t.id = pt.tag_id`

// Upsert inserts a post or rewrites it when its content hash changed, and
// returns the row id either way.
func (s *PostStore) Upsert(ctx context.Context, post *domain.StaticPost) (int64, error) {
	exec := GetExecutor(ctx, s.db)

	query := `
		INSERT INTO static_posts (
			slug, title, summary, body, images, date_published, date_updated,
			reading_time, draft, source_path, content_hash
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			body = EXCLUDED.body,
			images = EXCLUDED.images,
			date_published = EXCLUDED.date_published,
			date_updated = EXCLUDED.date_updated,
			reading_time = EXCLUDED.reading_time,
			draft = EXCLUDED.draft,
			source_path = EXCLUDED.source_path,
			content_hash = EXCLUDED.content_hash,
			updated_at = NOW()
		WHERE static_posts.content_hash <> EXCLUDED.content_hash
		RETURNING id`

	var id int64
	err := sqlx.GetContext(ctx, exec, &id, query,
		post.Slug,
		post.Title,
		post.Summary,
		post.Body,
		pq.Array(post.Images),
		post.DatePublished,
		post.DateUpdated,
		post.ReadingTime,
		post.Draft,
		post.SourcePath,
		post.ContentHash,
	)

	if errors.Is(err, sql.ErrNoRows) {
		err = sqlx.GetContext(ctx, exec, &id, "SELECT id FROM static_posts WHERE slug = $1", post.Slug)
	}

	if err != nil {
		return 0, err
	}

	post.ID = id
	return id, nil
}

// GetExistingHashes returns the stored content hash for every known slug.
func (s *PostStore) GetExistingHashes(ctx context.Context, slugs []string) (map[string]string, error) {
	result := make(map[string]string)
	if len(slugs) == 0 {
		return result, nil
	}

	query := `SELECT slug, content_hash FROM static_posts WHERE slug = ANY($1)`

	rows, err := GetExecutor(ctx, s.db).QueryContext(ctx, query, pq.Array(slugs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var slug, hash string
		if err := rows.Scan(&slug, &hash); err != nil {
			return nil, err
		}
		result[slug] = hash
	}

	return result, rows.Err()
}

// DeleteExcept removes posts whose slug is not in keep and returns the
// removed slugs.
func (s *PostStore) DeleteExcept(ctx context.Context, keep []string) ([]string, error) {
	if keep == nil {
		keep = []string{}
	}

	var removed []string
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &removed,
		`DELETE FROM static_posts WHERE NOT (slug = ANY($1)) RETURNING slug`,
		pq.Array(keep),
	)
	return removed, err
}

// ListPublished returns non-draft posts, most recent first.
func (s *PostStore) ListPublished(ctx context.Context) ([]domain.StaticPost, error) {
	query := selectPosts + `
		WHERE NOT p.draft
		GROUP BY p.id
		ORDER BY p.date_published DESC, p.slug`

	var rows []postRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query); err != nil {
		return nil, err
	}

	posts := make([]domain.StaticPost, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.toDomain())
	}
	return posts, nil
}

// GetPublishedBySlug returns domain.ErrPostNotFound for unknown and draft slugs.
func (s *PostStore) GetPublishedBySlug(ctx context.Context, slug string) (*domain.StaticPost, error) {
	query := selectPosts + `
		WHERE p.slug = $1 AND NOT p.draft
		GROUP BY p.id`

	var row postRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	post := row.toDomain()
	return &post, nil
}
