package domain

// Action is the kind of change a compile run made to a static post.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// PostEvent announces a compiled post change. Post is nil for deletions.
type PostEvent struct {
	Action Action
	Slug   string
	Post   *BlogPost
}
