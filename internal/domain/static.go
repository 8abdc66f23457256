package domain

import "time"

// StaticPost is one compiled Markdown post.
type StaticPost struct {
	ID            int64
	Slug          string
	Title         string
	Summary       string
	Body          string
	Tags          []string
	Images        []string
	DatePublished time.Time
	DateUpdated   time.Time
	ReadingTime   float64
	Draft         bool
	SourcePath    string
	ContentHash   string
}

// BuildState tracks compile progress per content source.
type BuildState struct {
	ID             int64     `db:"id"`
	SourceID       string    `db:"source_id"`
	LastCompiledAt time.Time `db:"last_compiled_at"`
	TotalCompiled  int64     `db:"total_compiled"`
}

// CompileStats holds statistics about a compile run.
type CompileStats struct {
	SourceID  string
	Read      int
	New       int
	Updated   int
	Skipped   int
	Deleted   int
	Errors    int
	Published int
	Duration  time.Duration
}
