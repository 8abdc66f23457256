package adapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogfeed/internal/domain"
)

func staticPost() domain.StaticPost {
	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return domain.StaticPost{
		Slug:          "building-a-design-system",
		Title:         "Building a Design System",
		Summary:       "How we ship UI faster",
		Body:          "# Intro\n\nTokens first.",
		Tags:          []string{"design", "react"},
		Images:        []string{"/images/ds-cover.png"},
		DatePublished: published,
		DateUpdated:   published.Add(48 * time.Hour),
		ReadingTime:   4.5,
	}
}

func TestFromStatic_PassThrough(t *testing.T) {
	src := staticPost()

	got := FromStatic(src, "en-US", ModeList)

	assert.Equal(t, src.Slug, got.Slug)
	assert.Equal(t, src.Title, got.Title)
	assert.Equal(t, src.Tags, got.Tags)
	assert.Equal(t, src.Summary, got.Summary)
	assert.Equal(t, src.Images, got.Images)
	assert.Equal(t, src.DatePublished, got.DatePublished)
	assert.Equal(t, src.DateUpdated, got.DateUpdated)
	assert.Equal(t, 4.5, got.ReadingTime)
	assert.Equal(t, int64(0), got.Views)
	assert.Equal(t, "en-US", got.Language)
	assert.Equal(t, domain.StatusPublished, got.Status)
	assert.Nil(t, got.Content)
}

func TestFromStatic_DetailIncludesContent(t *testing.T) {
	src := staticPost()

	got := FromStatic(src, "id-ID", ModeDetail)

	require.NotNil(t, got.Content)
	assert.Equal(t, src.Body, *got.Content)
	assert.Equal(t, "id-ID", got.Language)
}

func TestFromStatic_MissingOptionalFields(t *testing.T) {
	got := FromStatic(domain.StaticPost{Slug: "bare", Draft: true}, "en-US", ModeList)

	assert.Equal(t, float64(0), got.ReadingTime)
	assert.NotNil(t, got.Tags)
	assert.NotNil(t, got.Images)
	assert.Equal(t, domain.StatusDraft, got.Status)
}

func TestStaticList_DropsDrafts(t *testing.T) {
	draft := staticPost()
	draft.Slug = "wip"
	draft.Draft = true

	got := StaticList([]domain.StaticPost{staticPost(), draft}, "en-US")

	require.Len(t, got, 1)
	assert.Equal(t, "building-a-design-system", got[0].Slug)
}

func TestFromRemoteDetail(t *testing.T) {
	rec := domain.RemoteRecord{
		ID:     7,
		Status: domain.StatusPublished,
		Views:  5,
		Tags:   []string{"Next.js"},
		Images: []string{"https://cms.example.com/assets/abc"},
		Variant: domain.Translation{
			Language: "id-ID", Slug: "halo-dunia", Title: "Halo Dunia", Content: "Isi",
		},
		Translations: []domain.Translation{
			{Language: "en-US", Slug: "hello-world", Title: "Hello World"},
			{Language: "id-ID", Slug: "halo-dunia", Title: "Halo Dunia"},
		},
	}

	got := FromRemoteDetail(rec)

	assert.Equal(t, "halo-dunia", got.Slug)
	assert.Equal(t, "id-ID", got.Language)
	assert.Equal(t, int64(5), got.Views)
	require.NotNil(t, got.Content)
	assert.Equal(t, "Isi", *got.Content)
	assert.Equal(t, []domain.AvailableLanguage{
		{Code: "en-US", Slug: "hello-world", Title: "Hello World"},
		{Code: "id-ID", Slug: "halo-dunia", Title: "Halo Dunia"},
	}, got.AvailableLanguages)
}
