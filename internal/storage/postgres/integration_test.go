//go:build integration

package postgres

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"blogfeed/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_static_posts.up.sql"),
			filepath.Join(migrationsPath, "002_create_build_state.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM static_post_tags")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM tags")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM static_posts")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM build_state")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func newPost(slug, hash string, published time.Time) *domain.StaticPost {
	return &domain.StaticPost{
		Slug:          slug,
		Title:         "Title " + slug,
		Summary:       "Summary",
		Body:          "# Body",
		Images:        []string{"/img/" + slug + ".png"},
		DatePublished: published,
		DateUpdated:   published,
		ReadingTime:   1.5,
		SourcePath:    "content/blog/" + slug + ".md",
		ContentHash:   hash,
	}
}

func (s *PostgresIntegrationSuite) TestPostStore_Upsert_Insert() {
	store := NewPostStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	post := newPost("hello", "h1", now)
	id, err := store.Upsert(s.ctx, post)
	s.NoError(err)
	s.Greater(id, int64(0))
	s.Equal(id, post.ID)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM static_posts WHERE slug = $1", "hello")
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestPostStore_Upsert_UpdatesWhenHashChanges() {
	store := NewPostStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	post := newPost("hello", "h1", now)
	id1, err := store.Upsert(s.ctx, post)
	s.NoError(err)

	post.Title = "Updated Title"
	post.ContentHash = "h2"
	id2, err := store.Upsert(s.ctx, post)
	s.NoError(err)
	s.Equal(id1, id2)

	var title string
	err = s.db.GetContext(s.ctx, &title, "SELECT title FROM static_posts WHERE id = $1", id1)
	s.NoError(err)
	s.Equal("Updated Title", title)
}

func (s *PostgresIntegrationSuite) TestPostStore_Upsert_SkipsSameHash() {
	store := NewPostStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	post := newPost("hello", "h1", now)
	id1, err := store.Upsert(s.ctx, post)
	s.NoError(err)

	post.Title = "Ignored"
	id2, err := store.Upsert(s.ctx, post)
	s.NoError(err)
	s.Equal(id1, id2)

	var title string
	err = s.db.GetContext(s.ctx, &title, "SELECT title FROM static_posts WHERE id = $1", id1)
	s.NoError(err)
	s.Equal("Title hello", title)
}

func (s *PostgresIntegrationSuite) TestPostStore_GetExistingHashes() {
	store := NewPostStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, slug := range []string{"a", "b", "c"} {
		_, err := store.Upsert(s.ctx, newPost(slug, "hash-"+slug, now))
		s.NoError(err)
	}

	result, err := store.GetExistingHashes(s.ctx, []string{"a", "b", "missing"})
	s.NoError(err)
	s.Equal(map[string]string{"a": "hash-a", "b": "hash-b"}, result)
}

func (s *PostgresIntegrationSuite) TestPostStore_ListPublished() {
	posts := NewPostStore(s.db)
	tags := NewTagStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	older := newPost("older", "h1", now.Add(-48*time.Hour))
	newer := newPost("newer", "h2", now)
	draft := newPost("draft", "h3", now.Add(time.Hour))
	draft.Draft = true

	for _, p := range []*domain.StaticPost{older, newer, draft} {
		_, err := posts.Upsert(s.ctx, p)
		s.Require().NoError(err)
	}

	ids, err := tags.UpsertBatch(s.ctx, []string{"TypeScript", "React"})
	s.Require().NoError(err)
	s.Require().NoError(tags.LinkToPost(s.ctx, newer.ID, ids))

	list, err := posts.ListPublished(s.ctx)
	s.NoError(err)
	s.Require().Len(list, 2)

	s.Equal("newer", list[0].Slug)
	s.Equal([]string{"TypeScript", "React"}, list[0].Tags)
	s.Equal([]string{"/img/newer.png"}, list[0].Images)
	s.Equal(now, list[0].DatePublished)
	s.Equal(1.5, list[0].ReadingTime)

	s.Equal("older", list[1].Slug)
	s.Equal([]string{}, list[1].Tags)
}

func (s *PostgresIntegrationSuite) TestPostStore_GetPublishedBySlug() {
	store := NewPostStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	draft := newPost("draft", "h", now)
	draft.Draft = true
	_, err := store.Upsert(s.ctx, draft)
	s.NoError(err)
	_, err = store.Upsert(s.ctx, newPost("live", "h", now))
	s.NoError(err)

	post, err := store.GetPublishedBySlug(s.ctx, "live")
	s.NoError(err)
	s.Equal("# Body", post.Body)

	_, err = store.GetPublishedBySlug(s.ctx, "draft")
	s.True(errors.Is(err, domain.ErrPostNotFound))

	_, err = store.GetPublishedBySlug(s.ctx, "missing")
	s.True(errors.Is(err, domain.ErrPostNotFound))
}

func (s *PostgresIntegrationSuite) TestPostStore_DeleteExcept() {
	store := NewPostStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, slug := range []string{"a", "b", "c"} {
		_, err := store.Upsert(s.ctx, newPost(slug, "h", now))
		s.NoError(err)
	}

	removed, err := store.DeleteExcept(s.ctx, []string{"b"})
	s.NoError(err)
	s.ElementsMatch([]string{"a", "c"}, removed)

	removed, err = store.DeleteExcept(s.ctx, nil)
	s.NoError(err)
	s.Equal([]string{"b"}, removed)
}

func (s *PostgresIntegrationSuite) TestTagStore_UpsertBatch_MergesBySlug() {
	store := NewTagStore(s.db)

	ids1, err := store.UpsertBatch(s.ctx, []string{"Go", "Web Dev", "go"})
	s.NoError(err)
	s.Len(ids1, 2)

	ids2, err := store.UpsertBatch(s.ctx, []string{"web-dev", "GO"})
	s.NoError(err)
	s.Equal([]int64{ids1[1], ids1[0]}, ids2)

	var name string
	err = s.db.GetContext(s.ctx, &name, "SELECT name FROM tags WHERE id = $1", ids1[1])
	s.NoError(err)
	s.Equal("Web Dev", name)
}

func (s *PostgresIntegrationSuite) TestTagStore_LinkToPost_ReplacesOld() {
	posts := NewPostStore(s.db)
	tags := NewTagStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	post := newPost("p", "h", now)
	_, err := posts.Upsert(s.ctx, post)
	s.Require().NoError(err)

	ids, err := tags.UpsertBatch(s.ctx, []string{"a", "b", "c"})
	s.Require().NoError(err)

	s.NoError(tags.LinkToPost(s.ctx, post.ID, ids[:2]))
	s.NoError(tags.LinkToPost(s.ctx, post.ID, []int64{ids[2], ids[0]}))

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM static_post_tags WHERE post_id = $1", post.ID)
	s.NoError(err)
	s.Equal(2, count)

	got, err := posts.GetPublishedBySlug(s.ctx, "p")
	s.NoError(err)
	s.Equal([]string{"c", "a"}, got.Tags)

	removed, err := tags.DeleteUnused(s.ctx)
	s.NoError(err)
	s.Equal(int64(1), removed)
}

func (s *PostgresIntegrationSuite) TestBuildStateStore_GetNew() {
	store := NewBuildStateStore(s.db)

	state, err := store.Get(s.ctx, "new-source")
	s.NoError(err)
	s.Equal("new-source", state.SourceID)
	s.True(state.LastCompiledAt.IsZero())
	s.Equal(int64(0), state.TotalCompiled)
}

func (s *PostgresIntegrationSuite) TestBuildStateStore_UpdateAndGet() {
	store := NewBuildStateStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	s.NoError(store.Update(s.ctx, &domain.BuildState{SourceID: "content", LastCompiledAt: now, TotalCompiled: 3}))
	s.NoError(store.Update(s.ctx, &domain.BuildState{SourceID: "content", LastCompiledAt: now, TotalCompiled: 7}))

	state, err := store.Get(s.ctx, "content")
	s.NoError(err)
	s.Equal(int64(7), state.TotalCompiled)
	s.True(now.Equal(state.LastCompiledAt))
}

func (s *PostgresIntegrationSuite) TestTransaction_Commit() {
	tm := NewTransactionManager(s.db)
	store := NewPostStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		_, err := store.Upsert(ctx, newPost("tx", "h", now))
		return err
	})
	s.NoError(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM static_posts WHERE slug = $1", "tx")
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestTransaction_Rollback() {
	tm := NewTransactionManager(s.db)
	posts := NewPostStore(s.db)
	tags := NewTagStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := posts.Upsert(s.ctx, newPost("pre-existing", "h", now))
	s.NoError(err)

	err = tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		post := newPost("rollback", "h", now)
		if _, err := posts.Upsert(ctx, post); err != nil {
			return err
		}
		if _, err := tags.UpsertBatch(ctx, []string{"gone"}); err != nil {
			return err
		}
		return context.Canceled
	})
	s.Error(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM static_posts WHERE slug = $1", "rollback")
	s.NoError(err)
	s.Equal(0, count)

	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM tags")
	s.NoError(err)
	s.Equal(0, count)

	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM static_posts WHERE slug = $1", "pre-existing")
	s.NoError(err)
	s.Equal(1, count)
}
