package userservice

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// UpdateProfileRequest is a sparse patch over the public profile fields.
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
}
