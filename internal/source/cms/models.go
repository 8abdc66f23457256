package cms

// listResponse is the envelope for collection reads.
type listResponse[T any] struct {
	Data []T           `json:"data"`
	Meta *responseMeta `json:"meta,omitempty"`
}

type responseMeta struct {
	FilterCount int `json:"filter_count"`
	TotalCount  int `json:"total_count"`
}

// Post is an entry of the posts collection with translations expanded and
// tags/images left as foreign keys.
type Post struct {
	ID            int64         `json:"id"`
	Status        string        `json:"status"`
	DatePublished string        `json:"date_published"`
	DateUpdated   *string       `json:"date_updated"`
	Views         int64         `json:"views"`
	ReadingTime   *float64      `json:"reading_time"`
	Tags          []int64       `json:"tags"`
	Images        []string      `json:"images"`
	Translations  []Translation `json:"translations"`
}

type Translation struct {
	LanguagesCode string `json:"languages_code"`
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	Content       string `json:"content"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type File struct {
	ID               string `json:"id"`
	FilenameDownload string `json:"filename_download"`
}

type viewsPatch struct {
	Views int64 `json:"views"`
}

// viewsUpdate is an update-by-query: it only applies while the stored count
// is still below the new one, so a late writer cannot lower the counter.
type viewsUpdate struct {
	Query viewsQuery `json:"query"`
	Data  viewsPatch `json:"data"`
}

type viewsQuery struct {
	Filter map[string]map[string]int64 `json:"filter"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}
