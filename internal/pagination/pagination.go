// Package pagination computes the visible window of an ordered collection.
package pagination

// Page is one window over a collection. Visible is never nil.
type Page[T any] struct {
	Visible     []T
	CurrentPage int
	PageSize    int
	TotalItems  int
	TotalPages  int
}

func (p Page[T]) HasNext() bool {
	return p.CurrentPage < p.TotalPages
}

func (p Page[T]) HasPrev() bool {
	return p.CurrentPage > 1
}

// Paginate returns items[(currentPage-1)*pageSize : currentPage*pageSize]
// clipped to the collection. A page past the end yields an empty window.
// currentPage below 1 is treated as 1; a pageSize below 1 yields an empty
// page with zero TotalPages.
func Paginate[T any](items []T, pageSize, currentPage int) Page[T] {
	if currentPage < 1 {
		currentPage = 1
	}

	page := Page[T]{
		Visible:     []T{},
		CurrentPage: currentPage,
		PageSize:    pageSize,
		TotalItems:  len(items),
	}
	if pageSize < 1 || len(items) == 0 {
		return page
	}

	page.TotalPages = TotalPages(len(items), pageSize)
	if currentPage > page.TotalPages {
		return page
	}

	// bounded by len(items) once currentPage <= TotalPages
	start := (currentPage - 1) * pageSize
	end := start + min(pageSize, len(items)-start)
	page.Visible = items[start:end]

	return page
}

// Teaser is the landing-page listing: always the first page at size,
// whatever page the caller is on elsewhere.
func Teaser[T any](items []T, size int) Page[T] {
	return Paginate(items, size, 1)
}

func TotalPages(totalItems, pageSize int) int {
	if pageSize < 1 || totalItems <= 0 {
		return 0
	}
	pages := totalItems / pageSize
	if totalItems%pageSize != 0 {
		pages++
	}
	return pages
}
