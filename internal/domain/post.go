package domain

import (
	"errors"
	"time"

	"blogfeed/internal/pagination"
)

// ErrPostNotFound is returned when no post matches a slug/locale lookup.
var ErrPostNotFound = errors.New("post not found")

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// BlogPost is the normalized view model shared by static and remote posts.
// Content is nil in list views.
type BlogPost struct {
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	Content       *string   `json:"content,omitempty"`
	Tags          []string  `json:"tags"`
	DatePublished time.Time `json:"date_published"`
	DateUpdated   time.Time `json:"date_updated"`
	ReadingTime   float64   `json:"reading_time"`
	Views         int64     `json:"views"`
	Images        []string  `json:"images"`
	Language      string    `json:"language"`
	Status        Status    `json:"status"`
}

func (p BlogPost) IsDraft() bool {
	return p.Status == StatusDraft
}

type AvailableLanguage struct {
	Code  string `json:"code"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// PostDetail is a BlogPost in detail context, with the other language
// variants of the same entry.
type PostDetail struct {
	BlogPost
	AvailableLanguages []AvailableLanguage `json:"availableLanguages"`
}

type PageMeta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

func NewPageMeta(page, limit, total int) PageMeta {
	totalPages := pagination.TotalPages(total, limit)
	return PageMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
