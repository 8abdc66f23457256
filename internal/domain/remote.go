package domain

import "time"

// Translation is one language variant of a remote entry.
type Translation struct {
	Language string
	Slug     string
	Title    string
	Summary  string
	Content  string
}

// RemoteRecord is a CMS entry with its relations already resolved to
// display values and its variant chosen.
type RemoteRecord struct {
	ID            int64
	Status        Status
	DatePublished time.Time
	DateUpdated   time.Time
	Views         int64
	ReadingTime   float64
	Tags          []string
	Images        []string
	Variant       Translation
	Translations  []Translation
}
