package userrepo

import "errors"

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

// Patch carries the profile columns to update. Nil fields are left untouched.
type Patch struct {
	Name     *string
	Location *string
	Active   *bool
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Location == nil && p.Active == nil
}
