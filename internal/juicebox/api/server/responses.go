package server

import "github.com/Leopold1975/juicebox/internal/juicebox/domain/models"

type TokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type UsersResponse struct {
	Users []models.User `json:"users"`
}

type UserResponse struct {
	Message string      `json:"message,omitempty"`
	User    models.User `json:"user"`
}

type PostsResponse struct {
	Posts []models.Post `json:"posts"`
}

type PostResponse struct {
	Post models.Post `json:"post"`
}

type TagsResponse struct {
	Tags []models.Tag `json:"tags"`
}
