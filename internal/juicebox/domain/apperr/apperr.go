// Package apperr holds the closed set of domain error kinds returned by the
// services. The HTTP layer maps kinds to status codes.
package apperr

import (
	"errors"
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindUserExists
	KindUserNotFound
	KindPostNotFound
	KindUnauthorizedUser
	KindMissingUser
	KindInactiveUser
	KindMissingCredentials
	KindIncorrectCredentials
	KindTooManyAttempts
)

var kindNames = map[Kind]string{ //nolint:gochecknoglobals
	KindUnknown:              "UnknownError",
	KindValidation:           "ValidationError",
	KindUserExists:           "UserExistsError",
	KindUserNotFound:         "UserNotFoundError",
	KindPostNotFound:         "PostNotFoundError",
	KindUnauthorizedUser:     "UnauthorizedUserError",
	KindMissingUser:          "MissingUserError",
	KindInactiveUser:         "InactiveUserError",
	KindMissingCredentials:   "MissingCredentialsError",
	KindIncorrectCredentials: "IncorrectCredentialsError",
	KindTooManyAttempts:      "TooManyAttemptsError",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}

	return kindNames[KindUnknown]
}

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}

	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrPostNotFound)
// holds for every PostNotFound error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error) //nolint:errorlint
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}

var (
	ErrValidation           = &Error{Kind: KindValidation, Message: "missing or invalid field"}
	ErrUserExists           = &Error{Kind: KindUserExists, Message: "a user by that username already exists"}
	ErrUserNotFound         = &Error{Kind: KindUserNotFound, Message: "could not find a user with that userId"}
	ErrPostNotFound         = &Error{Kind: KindPostNotFound, Message: "could not find a post with that postId"}
	ErrUnauthorizedUser     = &Error{Kind: KindUnauthorizedUser, Message: "you cannot modify a resource you do not own"}
	ErrMissingUser          = &Error{Kind: KindMissingUser, Message: "you must be logged in to perform this action"}
	ErrInactiveUser         = &Error{Kind: KindInactiveUser, Message: "you must be an active user to perform this action"}
	ErrMissingCredentials   = &Error{Kind: KindMissingCredentials, Message: "please supply both a username and password"}
	ErrIncorrectCredentials = &Error{Kind: KindIncorrectCredentials, Message: "username or password is incorrect"}
	ErrTooManyAttempts      = &Error{Kind: KindTooManyAttempts, Message: "too many failed login attempts, try again later"}
)

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorizedUser, Message: msg}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}
