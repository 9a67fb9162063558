package postrepo

import "errors"

var (
	ErrNotFound       = errors.New("post not found")
	ErrAuthorNotFound = errors.New("author not found")
)

// Record is a posts row as stored, before hydration.
type Record struct {
	ID       int64
	AuthorID int64
	Title    string
	Content  string
	Active   bool
}

// Patch carries the columns to update. Nil fields are left untouched.
type Patch struct {
	Title   *string
	Content *string
	Active  *bool
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Active == nil
}

// Filter narrows ListPosts. Zero values mean no restriction.
type Filter struct {
	AuthorID int64
	TagName  string
}
