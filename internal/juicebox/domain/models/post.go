package models

// Post is a hydrated post: tags and author are attached at read time and the
// owning user is referenced only through Author.
type Post struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Active  bool   `json:"active"`
	Tags    []Tag  `json:"tags"`
	Author  Author `json:"author"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
