// Package adapter projects static and remote post records onto the shared
// domain.BlogPost shape so listing and detail code never branches on source.
package adapter

import "blogfeed/internal/domain"

// Mode selects list (no body) or detail (with body) projection.
type Mode int

const (
	ModeList Mode = iota
	ModeDetail
)

// FromStatic maps a compiled static post. Static posts carry no view counter
// and are always in the site's default locale.
func FromStatic(p domain.StaticPost, defaultLocale string, mode Mode) domain.BlogPost {
	status := domain.StatusPublished
	if p.Draft {
		status = domain.StatusDraft
	}

	post := domain.BlogPost{
		Slug:          p.Slug,
		Title:         p.Title,
		Summary:       p.Summary,
		Tags:          nonNil(p.Tags),
		DatePublished: p.DatePublished,
		DateUpdated:   p.DateUpdated,
		ReadingTime:   max(p.ReadingTime, 0),
		Views:         0,
		Images:        nonNil(p.Images),
		Language:      defaultLocale,
		Status:        status,
	}
	if mode == ModeDetail {
		body := p.Body
		post.Content = &body
	}
	return post
}

// FromRemote maps a resolved CMS record using its chosen variant.
func FromRemote(r domain.RemoteRecord, mode Mode) domain.BlogPost {
	post := domain.BlogPost{
		Slug:          r.Variant.Slug,
		Title:         r.Variant.Title,
		Summary:       r.Variant.Summary,
		Tags:          nonNil(r.Tags),
		DatePublished: r.DatePublished,
		DateUpdated:   r.DateUpdated,
		ReadingTime:   max(r.ReadingTime, 0),
		Views:         max(r.Views, 0),
		Images:        nonNil(r.Images),
		Language:      r.Variant.Language,
		Status:        r.Status,
	}
	if mode == ModeDetail {
		content := r.Variant.Content
		post.Content = &content
	}
	return post
}

// FromRemoteDetail adds the list of language variants to a detail projection.
func FromRemoteDetail(r domain.RemoteRecord) domain.PostDetail {
	langs := make([]domain.AvailableLanguage, 0, len(r.Translations))
	for _, t := range r.Translations {
		langs = append(langs, domain.AvailableLanguage{
			Code:  t.Language,
			Slug:  t.Slug,
			Title: t.Title,
		})
	}
	return domain.PostDetail{
		BlogPost:           FromRemote(r, ModeDetail),
		AvailableLanguages: langs,
	}
}

// StaticList maps a compiled collection in list mode, dropping drafts.
func StaticList(posts []domain.StaticPost, defaultLocale string) []domain.BlogPost {
	out := make([]domain.BlogPost, 0, len(posts))
	for _, p := range posts {
		if p.Draft {
			continue
		}
		out = append(out, FromStatic(p, defaultLocale, ModeList))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
