package server

import (
	"encoding/json"
	"fmt"
)

// tagList accepts tags either as a space separated string or as an array of
// strings.
type tagList []string

func (tl *tagList) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*tl = tagList{s}

		return nil
	}

	var arr []string
	if err := json.Unmarshal(b, &arr); err != nil {
		return fmt.Errorf("tags must be a string or an array of strings: %w", err)
	}

	*tl = arr

	return nil
}

type createPostBody struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Tags    tagList `json:"tags"`
}

// updatePostBody leaves Tags nil when the field is absent or null.
type updatePostBody struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Active  *bool    `json:"active"`
	Tags    *tagList `json:"tags"`
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
