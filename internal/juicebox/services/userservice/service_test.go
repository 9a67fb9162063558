package userservice

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Leopold1975/juicebox/internal/juicebox/domain/apperr"
	"github.com/Leopold1975/juicebox/internal/juicebox/domain/models"
	"github.com/Leopold1975/juicebox/internal/juicebox/repository/memory"
	"github.com/Leopold1975/juicebox/internal/juicebox/services/postservice"
	"github.com/Leopold1975/juicebox/internal/pkg/config"
	"github.com/Leopold1975/juicebox/pkg/logger"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type countingLimiter struct {
	mu       sync.Mutex
	max      int
	failures map[string]int
}

func newCountingLimiter(maxAttempts int) *countingLimiter {
	return &countingLimiter{max: maxAttempts, failures: make(map[string]int)}
}

func (l *countingLimiter) Blocked(_ context.Context, username string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.failures[username] >= l.max, nil
}

func (l *countingLimiter) Fail(_ context.Context, username string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures[username]++

	return nil
}

func (l *countingLimiter) Reset(_ context.Context, username string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.failures, username)

	return nil
}

type fixture struct {
	store   *memory.Store
	posts   *postservice.PostService
	svc     *UserService
	limiter *countingLimiter
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	store := memory.NewStore()
	posts := postservice.New(store, store, store, logger.Nop())
	limiter := newCountingLimiter(3)
	cfg := config.Auth{TTL: time.Hour, Secret: "test-secret", BcryptCost: bcrypt.MinCost}

	return fixture{
		store:   store,
		posts:   posts,
		svc:     New(store, posts, limiter, cfg, logger.Nop()),
		limiter: limiter,
	}
}

func register(t *testing.T, f fixture, username, password string) models.User {
	t.Helper()

	u, err := f.svc.CreateUser(context.Background(), CreateUserRequest{
		Username: username,
		Password: password,
		Name:     username,
		Location: "omaha, ne",
	})
	require.NoError(t, err)

	return u
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := register(t, f, "albert", "bertie99")
	require.NotZero(t, u.ID)
	require.True(t, u.Active)
	require.NotEqual(t, "bertie99", u.Password)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("bertie99")))

	_, err := f.svc.CreateUser(ctx, CreateUserRequest{Username: "albert", Password: "other"})
	require.ErrorIs(t, err, apperr.ErrUserExists)

	_, err = f.svc.CreateUser(ctx, CreateUserRequest{Username: "  ", Password: "x"})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.CreateUser(ctx, CreateUserRequest{Username: "sandra"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRegisterIssuesUsableToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.svc.Register(ctx, CreateUserRequest{Username: "sandra", Password: "2sandy4me"})
	require.NoError(t, err)

	id, err := f.svc.Identify(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "sandra", id.Username)
	require.True(t, id.Active)

	_, err = f.svc.Identify(ctx, token+"x")
	require.ErrorIs(t, err, apperr.ErrMissingUser)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	register(t, f, "glamgal", "soglam")

	_, err := f.svc.Login(ctx, "glamgal", "")
	require.ErrorIs(t, err, apperr.ErrMissingCredentials)

	_, err = f.svc.Login(ctx, "glamgal", "wrong")
	require.ErrorIs(t, err, apperr.ErrIncorrectCredentials)

	_, err = f.svc.Login(ctx, "nobody", "soglam")
	require.ErrorIs(t, err, apperr.ErrIncorrectCredentials)

	token, err := f.svc.Login(ctx, "glamgal", "soglam")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Zero(t, f.limiter.failures["glamgal"])
}

func TestLoginTrimsUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	register(t, f, " bob ", "builder")

	token, err := f.svc.Login(ctx, " bob ", "builder")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = f.svc.Login(ctx, "bob\t", "wrong")
	require.ErrorIs(t, err, apperr.ErrIncorrectCredentials)
	require.Equal(t, 1, f.limiter.failures["bob"])

	_, err = f.svc.Login(ctx, "   ", "builder")
	require.ErrorIs(t, err, apperr.ErrMissingCredentials)
}

func TestCreateUserRejectsOverlongFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	long := strings.Repeat("ж", maxFieldLength+1)

	for _, req := range []CreateUserRequest{
		{Username: long, Password: "x"},
		{Username: "albert", Password: "x", Name: long},
		{Username: "albert", Password: "x", Location: long},
		{Username: "albert", Password: strings.Repeat("p", maxPasswordBytes+1)},
	} {
		_, err := f.svc.CreateUser(ctx, req)
		require.ErrorIs(t, err, apperr.ErrValidation)
	}

	require.Zero(t, f.store.WriteCount())

	register(t, f, strings.Repeat("ж", maxFieldLength), "x")
}

func TestLoginThrottled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	register(t, f, "albert", "bertie99")

	for i := 0; i < 3; i++ {
		_, err := f.svc.Login(ctx, "albert", "nope")
		require.ErrorIs(t, err, apperr.ErrIncorrectCredentials)
	}

	_, err := f.svc.Login(ctx, "albert", "bertie99")
	require.ErrorIs(t, err, apperr.ErrTooManyAttempts)
}

func TestGetUserByIDHydratesPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := register(t, f, "albert", "bertie99")

	_, err := f.posts.CreatePost(ctx, postservice.CreatePostRequest{
		AuthorID: u.ID, Title: "First", Content: "hello", Tags: []string{"#happy #youcandoanything"},
	})
	require.NoError(t, err)

	got, err := f.svc.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, got.Password)
	require.Len(t, got.Posts, 1)
	require.Equal(t, u.ID, got.Posts[0].Author.ID)
	require.Len(t, got.Posts[0].Tags, 2)

	_, err = f.svc.GetUserByID(ctx, 999)
	require.ErrorIs(t, err, apperr.ErrUserNotFound)

	all, err := f.svc.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Empty(t, all[0].Password)

	byName, err := f.svc.GetUserByUsername(ctx, "albert")
	require.NoError(t, err)
	require.Empty(t, byName.Password)
}

func TestDeactivateAndActivateOwnAccountOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := register(t, f, "albert", "bertie99")
	b := register(t, f, "sandra", "2sandy4me")

	actorA := &models.Identity{ID: a.ID, Username: a.Username, Active: true}
	actorB := &models.Identity{ID: b.ID, Username: b.Username, Active: true}

	before := f.store.WriteCount()

	_, err := f.svc.DeactivateUser(ctx, actorB, a.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthorizedUser)

	_, err = f.svc.DeactivateUser(ctx, nil, a.ID)
	require.ErrorIs(t, err, apperr.ErrMissingUser)
	require.Equal(t, before, f.store.WriteCount())

	u, err := f.svc.DeactivateUser(ctx, actorA, a.ID)
	require.NoError(t, err)
	require.False(t, u.Active)

	_, err = f.svc.Login(ctx, "albert", "bertie99")
	require.NoError(t, err)

	u, err = f.svc.ActivateUser(ctx, actorA, a.ID)
	require.NoError(t, err)
	require.True(t, u.Active)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := register(t, f, "albert", "bertie99")
	actor := &models.Identity{ID: a.ID, Username: a.Username, Active: true}
	name, blank := "Newname Sogood", "  "

	u, err := f.svc.UpdateProfile(ctx, actor, a.ID, UpdateProfileRequest{Name: &name, Location: &blank})
	require.NoError(t, err)
	require.Equal(t, "Newname Sogood", u.Name)
	require.Equal(t, "omaha, ne", u.Location)

	_, err = f.svc.UpdateProfile(ctx, &models.Identity{ID: a.ID + 1, Active: true}, a.ID, UpdateProfileRequest{Name: &name})
	require.ErrorIs(t, err, apperr.ErrUnauthorizedUser)

	long := strings.Repeat("n", maxFieldLength+1)
	_, err = f.svc.UpdateProfile(ctx, actor, a.ID, UpdateProfileRequest{Location: &long})
	require.ErrorIs(t, err, apperr.ErrValidation)

	actor.Active = false
	_, err = f.svc.UpdateProfile(ctx, actor, a.ID, UpdateProfileRequest{Name: &name})
	require.ErrorIs(t, err, apperr.ErrInactiveUser)
}
