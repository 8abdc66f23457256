// Package files reads Markdown posts with YAML front matter from a content
// directory into compiled static post records.
package files

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"blogfeed/internal/domain"
)

const SourceID = "files"

var extensions = map[string]bool{
	".md":  true,
	".mdx": true,
}

// Reader walks a content directory for Markdown posts.
type Reader struct {
	fsys   fs.FS
	root   string
	logger *slog.Logger
}

func NewReader(dir string, logger *slog.Logger) *Reader {
	return NewReaderFS(os.DirFS(dir), dir, logger)
}

// NewReaderFS reads from fsys; root is only used for source paths in
// records and logs.
func NewReaderFS(fsys fs.FS, root string, logger *slog.Logger) *Reader {
	return &Reader{
		fsys:   fsys,
		root:   root,
		logger: logger.With("source", SourceID),
	}
}

func (r *Reader) ID() string {
	return SourceID
}

// ReadPosts parses every Markdown file under the content directory. Any
// malformed file or duplicate slug fails the whole read.
func (r *Reader) ReadPosts(ctx context.Context) ([]domain.StaticPost, error) {
	var posts []domain.StaticPost
	bySlug := make(map[string]string)

	err := fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !extensions[strings.ToLower(path.Ext(p))] {
			return nil
		}

		data, err := fs.ReadFile(r.fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}

		post, err := r.parse(p, data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}

		if other, dup := bySlug[post.Slug]; dup {
			return fmt.Errorf("duplicate slug %q in %s and %s", post.Slug, other, p)
		}
		bySlug[post.Slug] = p

		posts = append(posts, post)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].DatePublished.After(posts[j].DatePublished)
	})

	r.logger.Debug("read content directory", "dir", r.root, "posts", len(posts))

	return posts, nil
}

func (r *Reader) parse(p string, data []byte) (domain.StaticPost, error) {
	rawFM, body, had, err := splitFrontMatter(data)
	if err != nil {
		return domain.StaticPost{}, err
	}
	if !had {
		return domain.StaticPost{}, fmt.Errorf("missing front matter")
	}

	fm, err := parseFrontMatter(rawFM)
	if err != nil {
		return domain.StaticPost{}, err
	}

	if strings.TrimSpace(fm.Title) == "" {
		return domain.StaticPost{}, fmt.Errorf("front matter: title is required")
	}
	if fm.Date == "" {
		return domain.StaticPost{}, fmt.Errorf("front matter: date is required")
	}

	published, err := parseDate(fm.Date)
	if err != nil {
		return domain.StaticPost{}, fmt.Errorf("front matter date: %w", err)
	}
	updated := published
	if fm.Updated != "" {
		updated, err = parseDate(fm.Updated)
		if err != nil {
			return domain.StaticPost{}, fmt.Errorf("front matter updated: %w", err)
		}
	}

	slug := fm.Slug
	if slug == "" {
		slug = slugFromPath(p)
	}

	sum := sha256.Sum256(data)

	return domain.StaticPost{
		Slug:          slug,
		Title:         strings.TrimSpace(fm.Title),
		Summary:       strings.TrimSpace(fm.Summary),
		Body:          string(body),
		Tags:          cleanList(fm.Tags),
		Images:        cleanList(fm.Images),
		DatePublished: published,
		DateUpdated:   updated,
		ReadingTime:   ReadingTime(body),
		Draft:         fm.Draft,
		SourcePath:    filepath.ToSlash(filepath.Join(r.root, p)),
		ContentHash:   hex.EncodeToString(sum[:]),
	}, nil
}

// slugFromPath uses the file name, or the parent directory for index files.
func slugFromPath(p string) string {
	base := strings.TrimSuffix(path.Base(p), path.Ext(p))
	if strings.EqualFold(base, "index") {
		if dir := path.Base(path.Dir(p)); dir != "." && dir != "/" {
			base = dir
		}
	}
	return base
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
