package models

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Active   bool   `json:"active"`
	Posts    []Post `json:"posts,omitempty"`
}

// Author is the public projection of a User attached to hydrated posts.
type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Active   bool   `json:"active"`
}

func (u User) Author() Author {
	return Author{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Location: u.Location,
		Active:   u.Active,
	}
}

// Identity is the authenticated actor of a request. A nil *Identity is an
// anonymous viewer.
type Identity struct {
	ID       int64
	Username string
	Active   bool
}
