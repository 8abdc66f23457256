package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"blogfeed/internal/adapter"
	"blogfeed/internal/config"
	"blogfeed/internal/domain"
	"blogfeed/internal/metrics"
)

// CompileService turns the authored content tree into the compiled static
// collection. Only posts whose content hash changed are rewritten.
type CompileService struct {
	reader        ContentReader
	posts         PostStore
	tags          TagStore
	buildState    BuildStateStore
	txManager     TransactionManager
	publisher     Publisher
	recorder      metrics.Recorder
	logger        *slog.Logger
	config        config.CompileConfig
	defaultLocale string
}

func NewCompileService(
	reader ContentReader,
	posts PostStore,
	tags TagStore,
	buildState BuildStateStore,
	txManager TransactionManager,
	publisher Publisher,
	recorder metrics.Recorder,
	logger *slog.Logger,
	cfg config.CompileConfig,
	defaultLocale string,
) *CompileService {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &CompileService{
		reader:        reader,
		posts:         posts,
		tags:          tags,
		buildState:    buildState,
		txManager:     txManager,
		publisher:     publisher,
		recorder:      recorder,
		logger:        logger.With("source", reader.ID()),
		config:        cfg,
		defaultLocale: defaultLocale,
	}
}

func (s *CompileService) Compile(ctx context.Context) (*domain.CompileStats, error) {
	startTime := time.Now()
	s.logger.Info("starting compile", "source_id", s.config.SourceID)

	posts, err := s.reader.ReadPosts(ctx)
	if err != nil {
		s.recorder.AddCompileResult("failed", 1)
		return nil, fmt.Errorf("read posts: %w", err)
	}

	s.logger.Info("read posts from content", "count", len(posts))

	slugs := make([]string, len(posts))
	for i, p := range posts {
		slugs[i] = p.Slug
	}

	existing, err := s.posts.GetExistingHashes(ctx, slugs)
	if err != nil {
		s.recorder.AddCompileResult("failed", 1)
		return nil, fmt.Errorf("get existing hashes: %w", err)
	}

	toCompile := filterChanged(posts, existing)
	s.logger.Info("posts to compile", "count", len(toCompile))

	stats := &domain.CompileStats{
		SourceID: s.config.SourceID,
		Read:     len(posts),
		Skipped:  len(posts) - len(toCompile),
	}

	for i := range toCompile {
		post := &toCompile[i]
		_, exists := existing[post.Slug]
		isNew := !exists

		if err := s.savePost(ctx, post); err != nil {
			stats.Errors++
			s.recorder.AddCompileResult("error", 1)
			s.logger.Error("failed to save post", "slug", post.Slug, "error", err)
			continue
		}

		if isNew {
			stats.New++
			s.recorder.AddCompileResult("new", 1)
		} else {
			stats.Updated++
			s.recorder.AddCompileResult("updated", 1)
		}

		if event, ok := s.eventFor(post, isNew); ok {
			s.publish(ctx, event, stats)
		}
	}
	s.recorder.AddCompileResult("skipped", stats.Skipped)

	if err := s.removeStale(ctx, slugs, stats); err != nil {
		return stats, fmt.Errorf("remove stale posts: %w", err)
	}

	if err := s.updateBuildState(ctx, stats); err != nil {
		return stats, fmt.Errorf("update build state: %w", err)
	}

	stats.Duration = time.Since(startTime)
	s.recorder.ObserveCompileDuration(stats.Duration)

	s.logger.Info("compile completed",
		"read", stats.Read,
		"new", stats.New,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"deleted", stats.Deleted,
		"errors", stats.Errors,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

func filterChanged(posts []domain.StaticPost, existing map[string]string) []domain.StaticPost {
	var changed []domain.StaticPost
	for _, p := range posts {
		if hash, ok := existing[p.Slug]; !ok || hash != p.ContentHash {
			changed = append(changed, p)
		}
	}
	return changed
}

func (s *CompileService) savePost(ctx context.Context, post *domain.StaticPost) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		postID, err := s.posts.Upsert(txCtx, post)
		if err != nil {
			return fmt.Errorf("upsert post: %w", err)
		}

		var tagIDs []int64
		if len(post.Tags) > 0 {
			tagIDs, err = s.tags.UpsertBatch(txCtx, post.Tags)
			if err != nil {
				return fmt.Errorf("upsert tags: %w", err)
			}
		}

		if err := s.tags.LinkToPost(txCtx, postID, tagIDs); err != nil {
			return fmt.Errorf("link tags: %w", err)
		}

		return nil
	})
}

// eventFor announces published posts. A draft that was previously compiled
// is announced as deleted so its page gets dropped; a new draft is silent.
func (s *CompileService) eventFor(post *domain.StaticPost, isNew bool) (domain.PostEvent, bool) {
	if post.Draft {
		if isNew {
			return domain.PostEvent{}, false
		}
		return domain.PostEvent{Action: domain.ActionDeleted, Slug: post.Slug}, true
	}

	action := domain.ActionUpdated
	if isNew {
		action = domain.ActionCreated
	}
	normalized := adapter.FromStatic(*post, s.defaultLocale, adapter.ModeList)
	return domain.PostEvent{Action: action, Slug: post.Slug, Post: &normalized}, true
}

func (s *CompileService) publish(ctx context.Context, event domain.PostEvent, stats *domain.CompileStats) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		stats.Errors++
		s.logger.Warn("failed to publish post event", "slug", event.Slug, "action", event.Action, "error", err)
		return
	}
	stats.Published++
}

func (s *CompileService) removeStale(ctx context.Context, keep []string, stats *domain.CompileStats) error {
	var removed []string
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		removed, err = s.posts.DeleteExcept(txCtx, keep)
		if err != nil {
			return fmt.Errorf("delete posts: %w", err)
		}
		if len(removed) == 0 {
			return nil
		}
		if _, err := s.tags.DeleteUnused(txCtx); err != nil {
			return fmt.Errorf("delete unused tags: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	stats.Deleted = len(removed)
	s.recorder.AddCompileResult("deleted", len(removed))
	for _, slug := range removed {
		s.logger.Info("removed post", "slug", slug)
		s.publish(ctx, domain.PostEvent{Action: domain.ActionDeleted, Slug: slug}, stats)
	}
	return nil
}

func (s *CompileService) updateBuildState(ctx context.Context, stats *domain.CompileStats) error {
	state, err := s.buildState.Get(ctx, s.config.SourceID)
	if err != nil {
		return err
	}

	state.SourceID = s.config.SourceID
	state.LastCompiledAt = time.Now()
	state.TotalCompiled += int64(stats.New + stats.Updated)

	return s.buildState.Update(ctx, state)
}
