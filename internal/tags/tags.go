// Package tags aggregates tag facets over a post collection.
package tags

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"blogfeed/internal/domain"
)

type TagCount struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// Slug lowercases name, folds accents and joins words with single hyphens:
// "Next.js Tips" -> "next-js-tips", "Café" -> "cafe".
func Slug(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// IsActive reports whether name is the tag currently filtered on.
func IsActive(name, currentSlug string) bool {
	return currentSlug != "" && Slug(name) == Slug(currentSlug)
}

// Count tallies tags over all non-draft posts in one pass. Tags that share a
// slug are counted together under the first name seen. The result is sorted
// by count descending; ties keep first-seen order.
func Count(posts []domain.BlogPost) []TagCount {
	index := make(map[string]int)
	var counts []TagCount

	for _, p := range posts {
		if p.IsDraft() {
			continue
		}
		for _, name := range p.Tags {
			slug := Slug(name)
			if slug == "" {
				continue
			}
			if i, ok := index[slug]; ok {
				counts[i].Count++
				continue
			}
			index[slug] = len(counts)
			counts = append(counts, TagCount{Name: name, Slug: slug, Count: 1})
		}
	}

	slices.SortStableFunc(counts, func(a, b TagCount) int {
		return b.Count - a.Count
	})

	return counts
}

// Counts is Count as a name -> occurrences map.
func Counts(posts []domain.BlogPost) map[string]int {
	out := make(map[string]int)
	for _, tc := range Count(posts) {
		out[tc.Name] = tc.Count
	}
	return out
}

// Filter returns the non-draft posts carrying the tag identified by slug,
// preserving order.
func Filter(posts []domain.BlogPost, slug string) []domain.BlogPost {
	want := Slug(slug)
	filtered := make([]domain.BlogPost, 0)
	for _, p := range posts {
		if p.IsDraft() {
			continue
		}
		for _, name := range p.Tags {
			if Slug(name) == want {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered
}
