package postservice

type CreatePostRequest struct {
	AuthorID int64
	Title    string
	Content  string
	Tags     []string
}

// UpdatePostRequest is a sparse patch. A nil Tags leaves the post's tags
// untouched, a non-nil empty Tags clears them.
type UpdatePostRequest struct {
	Title   *string
	Content *string
	Active  *bool
	Tags    *[]string
}
