package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"blogfeed/internal/domain"
)

type PostStore interface {
	Upsert(ctx context.Context, post *domain.StaticPost) (int64, error)
	GetExistingHashes(ctx context.Context, slugs []string) (map[string]string, error)
	DeleteExcept(ctx context.Context, keep []string) ([]string, error)
	ListPublished(ctx context.Context) ([]domain.StaticPost, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*domain.StaticPost, error)
}

type TagStore interface {
	UpsertBatch(ctx context.Context, names []string) ([]int64, error)
	LinkToPost(ctx context.Context, postID int64, tagIDs []int64) error
	DeleteUnused(ctx context.Context) (int64, error)
}

type BuildStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.BuildState, error)
	Update(ctx context.Context, state *domain.BuildState) error
}

// ContentReader yields every post in the authored content tree.
type ContentReader interface {
	ID() string
	ReadPosts(ctx context.Context) ([]domain.StaticPost, error)
}

// RemoteSource is the headless CMS.
type RemoteSource interface {
	ListPosts(ctx context.Context, locale string, page, limit int) ([]domain.BlogPost, domain.PageMeta, error)
	GetPost(ctx context.Context, locale, slug string) (domain.PostDetail, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, event domain.PostEvent) error
	Close() error
}
