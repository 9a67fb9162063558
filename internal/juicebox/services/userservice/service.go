package userservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Leopold1975/juicebox/internal/juicebox/domain/apperr"
	"github.com/Leopold1975/juicebox/internal/juicebox/domain/authz"
	"github.com/Leopold1975/juicebox/internal/juicebox/domain/models"
	"github.com/Leopold1975/juicebox/internal/juicebox/repository/userrepo"
	"github.com/Leopold1975/juicebox/internal/pkg/config"
	"github.com/Leopold1975/juicebox/internal/pkg/jwtauth"
	"github.com/Leopold1975/juicebox/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

const (
	// maxFieldLength matches the VARCHAR columns of users.
	maxFieldLength = 255
	// maxPasswordBytes is the longest input bcrypt accepts.
	maxPasswordBytes = 72
)

type UserService struct {
	users   Repository
	posts   PostLister
	limiter Limiter
	cfg     config.Auth
	lg      logger.Logger
}

type Repository interface {
	CreateUser(context.Context, models.User) (models.User, error)
	GetUserByUsername(context.Context, string) (models.User, error)
	GetUserByID(context.Context, int64) (models.User, error)
	GetAllUsers(context.Context) ([]models.User, error)
	UpdateUser(context.Context, int64, userrepo.Patch) (models.User, error)
	SetActive(context.Context, int64, bool) (models.User, error)
}

// PostLister hydrates the posts attached to a user.
type PostLister interface {
	GetPostsByAuthor(context.Context, int64) ([]models.Post, error)
}

// Limiter throttles failed logins per username.
type Limiter interface {
	Blocked(ctx context.Context, username string) (bool, error)
	Fail(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

func New(users Repository, posts PostLister, limiter Limiter, cfg config.Auth, lg logger.Logger) *UserService {
	return &UserService{
		users:   users,
		posts:   posts,
		limiter: limiter,
		cfg:     cfg,
		lg:      lg,
	}
}

// CreateUser stores a new user with a hashed password. The returned user
// carries the hash and must not be sent to clients.
func (us *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (models.User, error) {
	req.Username = strings.TrimSpace(req.Username)

	if req.Username == "" || req.Password == "" {
		return models.User{}, apperr.Validation("username and password are required")
	}

	switch {
	case len(req.Password) > maxPasswordBytes:
		return models.User{}, apperr.Validation(fmt.Sprintf("password is longer than %d bytes", maxPasswordBytes))
	case tooLong(req.Username), tooLong(req.Name), tooLong(req.Location):
		return models.User{}, apperr.Validation(fmt.Sprintf("username, name and location are limited to %d characters",
			maxFieldLength))
	}

	_, err := us.users.GetUserByUsername(ctx, req.Username)

	switch {
	case err == nil:
		return models.User{}, apperr.ErrUserExists
	case !errors.Is(err, userrepo.ErrNotFound):
		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), us.cost())
	if err != nil {
		return models.User{}, fmt.Errorf("generate from password error: %w", err)
	}

	u, err := us.users.CreateUser(ctx, models.User{ //nolint:exhaustruct
		Username: req.Username,
		Password: string(hash),
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrAlreadyExists) {
			return models.User{}, apperr.ErrUserExists
		}

		return models.User{}, fmt.Errorf("create user error: %w", err)
	}

	if u.ID == 0 {
		return models.User{}, apperr.ErrUserExists
	}

	us.lg.Infof("user %d registered as %q", u.ID, u.Username)

	return u, nil
}

// Register creates the user and issues a token for it.
func (us *UserService) Register(ctx context.Context, req CreateUserRequest) (string, error) {
	u, err := us.CreateUser(ctx, req)
	if err != nil {
		return "", err
	}

	token, err := jwtauth.GetToken(u, us.cfg.TTL, us.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("can't get token error: %w", err)
	}

	return token, nil
}

// Login checks the credentials and issues a token. Deactivated users may log
// in so that they can reactivate their account.
func (us *UserService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)

	if username == "" || password == "" {
		return "", apperr.ErrMissingCredentials
	}

	blocked, err := us.limiter.Blocked(ctx, username)
	if err != nil {
		return "", fmt.Errorf("login limiter error: %w", err)
	}

	if blocked {
		return "", apperr.ErrTooManyAttempts
	}

	u, err := us.users.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, userrepo.ErrNotFound) {
		return "", fmt.Errorf("get user error: %w", err)
	}

	if err != nil || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		if ferr := us.limiter.Fail(ctx, username); ferr != nil {
			us.lg.Errorf("record failed login for %q error: %s", username, ferr.Error())
		}

		return "", apperr.ErrIncorrectCredentials
	}

	if err := us.limiter.Reset(ctx, username); err != nil {
		us.lg.Errorf("reset login attempts for %q error: %s", username, err.Error())
	}

	token, err := jwtauth.GetToken(u, us.cfg.TTL, us.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("can't get token error: %w", err)
	}

	return token, nil
}

// Identify resolves a bearer token to the current state of its user.
func (us *UserService) Identify(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := jwtauth.ParseToken(token, us.cfg.Secret)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindMissingUser, Message: "invalid or expired token"}
	}

	u, err := us.users.GetUserByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, &apperr.Error{Kind: apperr.KindMissingUser, Message: "token user no longer exists"}
		}

		return nil, fmt.Errorf("get user error: %w", err)
	}

	return &models.Identity{ID: u.ID, Username: u.Username, Active: u.Active}, nil
}

func (us *UserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	users, err := us.users.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get users error: %w", err)
	}

	return users, nil
}

// GetUserByID returns the user with its posts hydrated like any other post.
func (us *UserService) GetUserByID(ctx context.Context, userID int64) (models.User, error) {
	u, err := us.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return models.User{}, apperr.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	posts, err := us.posts.GetPostsByAuthor(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("get user posts error: %w", err)
	}

	u.Posts = posts

	return u, nil
}

func (us *UserService) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	u, err := us.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return models.User{}, apperr.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	u.Password = ""

	return u, nil
}

func (us *UserService) DeactivateUser(ctx context.Context, actor *models.Identity, userID int64) (models.User, error) {
	return us.setActive(ctx, actor, userID, false)
}

func (us *UserService) ActivateUser(ctx context.Context, actor *models.Identity, userID int64) (models.User, error) {
	return us.setActive(ctx, actor, userID, true)
}

// UpdateProfile changes the actor's own name and location. Blank values are
// ignored.
func (us *UserService) UpdateProfile(ctx context.Context, actor *models.Identity, userID int64,
	req UpdateProfileRequest,
) (models.User, error) {
	if err := us.guard(actor, userID, "update"); err != nil {
		return models.User{}, err
	}

	if !actor.Active {
		return models.User{}, apperr.ErrInactiveUser
	}

	var patch userrepo.Patch

	if req.Name != nil {
		if n := strings.TrimSpace(*req.Name); n != "" {
			patch.Name = &n
		}
	}

	if req.Location != nil {
		if l := strings.TrimSpace(*req.Location); l != "" {
			patch.Location = &l
		}
	}

	if (patch.Name != nil && tooLong(*patch.Name)) || (patch.Location != nil && tooLong(*patch.Location)) {
		return models.User{}, apperr.Validation(fmt.Sprintf("name and location are limited to %d characters",
			maxFieldLength))
	}

	u, err := us.users.UpdateUser(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return models.User{}, apperr.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("update user error: %w", err)
	}

	return u, nil
}

func (us *UserService) setActive(ctx context.Context, actor *models.Identity, userID int64,
	active bool,
) (models.User, error) {
	action := "deactivate"
	if active {
		action = "activate"
	}

	if err := us.guard(actor, userID, action); err != nil {
		return models.User{}, err
	}

	u, err := us.users.SetActive(ctx, userID, active)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return models.User{}, apperr.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("set active error: %w", err)
	}

	us.lg.Infof("user %d set active=%t", userID, active)

	return u, nil
}

func (us *UserService) guard(actor *models.Identity, userID int64, action string) error {
	if actor == nil {
		return apperr.ErrMissingUser
	}

	if !authz.CanMutateUser(actor, userID) {
		us.lg.Warnf("user %d tried to %s user %d", actor.ID, action, userID)

		return apperr.Unauthorized("users can only " + action + " their own account")
	}

	return nil
}

func (us *UserService) cost() int {
	if us.cfg.BcryptCost < bcrypt.MinCost || us.cfg.BcryptCost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}

	return us.cfg.BcryptCost
}

func tooLong(s string) bool {
	return utf8.RuneCountInString(s) > maxFieldLength
}
