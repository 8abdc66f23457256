package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"blogfeed/internal/tags"
)

type TagStore struct {
	db *sqlx.DB
}

func NewTagStore(db *sqlx.DB) *TagStore {
	return &TagStore{db: db}
}

// UpsertBatch ensures a tag row exists for every name and returns their ids
// in input order. Names sharing a slug map to the same row, which keeps the
// first name it was stored under.
func (s *TagStore) UpsertBatch(ctx context.Context, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var (
		slugs     []string
		seen      = make(map[string]bool)
		sb        strings.Builder
		valueArgs = make([]interface{}, 0, len(names)*2)
	)

	sb.WriteString("INSERT INTO tags (name, slug) VALUES ")
	for _, name := range names {
		slug := tags.Slug(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		slugs = append(slugs, slug)

		if len(valueArgs) > 0 {
			sb.WriteString(", ")
		}
		n := len(valueArgs)
		sb.WriteString("($" + strconv.Itoa(n+1) + ", $" + strconv.Itoa(n+2) + ")")
		valueArgs = append(valueArgs, name, slug)
	}
	if len(slugs) == 0 {
		return nil, nil
	}
	// no-op update so RETURNING yields existing rows too
	sb.WriteString(" ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug RETURNING id, slug")

	rows, err := GetExecutor(ctx, s.db).QueryContext(ctx, sb.String(), valueArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bySlug := make(map[string]int64, len(slugs))
	for rows.Next() {
		var id int64
		var slug string
		if err := rows.Scan(&id, &slug); err != nil {
			return nil, err
		}
		bySlug[slug] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(slugs))
	for _, slug := range slugs {
		ids = append(ids, bySlug[slug])
	}
	return ids, nil
}

// LinkToPost replaces the tag links of a post, keeping tagIDs order.
func (s *TagStore) LinkToPost(ctx context.Context, postID int64, tagIDs []int64) error {
	exec := GetExecutor(ctx, s.db)

	_, err := exec.ExecContext(ctx,
		"DELETE FROM static_post_tags WHERE post_id = $1",
		postID,
	)
	if err != nil {
		return err
	}

	if len(tagIDs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO static_post_tags (post_id, tag_id, position) VALUES ")
	valueArgs := make([]interface{}, 0, len(tagIDs)*2+1)
	valueArgs = append(valueArgs, postID)

	for i, tagID := range tagIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($1, $" + strconv.Itoa(len(valueArgs)+1) + ", $" + strconv.Itoa(len(valueArgs)+2) + ")")
		valueArgs = append(valueArgs, tagID, i)
	}
	sb.WriteString(" ON CONFLICT DO NOTHING")

	_, err = exec.ExecContext(ctx, sb.String(), valueArgs...)
	return err
}

// DeleteUnused removes tags no post links to.
func (s *TagStore) DeleteUnused(ctx context.Context) (int64, error) {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM tags t WHERE NOT EXISTS (SELECT 1 FROM static_post_tags pt WHERE pt.tag_id = t.id)`,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
