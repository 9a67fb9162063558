package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Leopold1975/juicebox/internal/juicebox/repository/loginlimit"
	"github.com/Leopold1975/juicebox/internal/juicebox/repository/memory"
	"github.com/Leopold1975/juicebox/internal/juicebox/services/postservice"
	"github.com/Leopold1975/juicebox/internal/juicebox/services/userservice"
	"github.com/Leopold1975/juicebox/internal/pkg/config"
	"github.com/Leopold1975/juicebox/pkg/logger"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.NewStore()
	ps := postservice.New(store, store, store, logger.Nop())
	us := userservice.New(store, ps, loginlimit.Noop{}, config.Auth{
		TTL:        time.Hour,
		Secret:     "server-test",
		BcryptCost: bcrypt.MinCost,
	}, logger.Nop())

	s := New(config.Server{AllowedOrigins: []string{"*"}, IdleTimeout: time.Second}, ps, us, logger.Nop()) //nolint:exhaustruct

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, ts.URL+path, &buf) //nolint:noctx
	require.NoError(t, err)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	require.NotEmpty(t, resp.Header.Get(requestIDHeader))

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)

	return resp.StatusCode, out
}

func registerUser(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()

	code, body := do(t, ts, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": username, "password": "secret", "name": username, "location": "somewhere",
	})
	require.Equal(t, http.StatusCreated, code)

	token, ok := body["token"].(string)
	require.True(t, ok)

	return token
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	registerUser(t, ts, "albert")

	code, body := do(t, ts, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "albert", "password": "x",
	})
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "UserExistsError", body["name"])

	code, body = do(t, ts, http.MethodPost, "/api/users/login", "", map[string]string{"username": "albert"})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "MissingCredentialsError", body["name"])

	code, body = do(t, ts, http.MethodPost, "/api/users/login", "", map[string]string{
		"username": "albert", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "IncorrectCredentialsError", body["name"])

	code, body = do(t, ts, http.MethodPost, "/api/users/login", "", map[string]string{
		"username": "albert", "password": "secret",
	})
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, body["token"])

	code, body = do(t, ts, http.MethodGet, "/api/users", "", nil)
	require.Equal(t, http.StatusOK, code)
	users, ok := body["users"].([]any)
	require.True(t, ok)
	require.Len(t, users, 1)
	require.NotContains(t, users[0], "password")
}

func TestInvalidToken(t *testing.T) {
	ts := newTestServer(t)

	code, body := do(t, ts, http.MethodGet, "/api/posts", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "MissingUserError", body["name"])
}

func TestPostLifecycle(t *testing.T) {
	ts := newTestServer(t)

	alice := registerUser(t, ts, "albert")
	bob := registerUser(t, ts, "sandra")

	code, body := do(t, ts, http.MethodPost, "/api/posts", "", map[string]any{"title": "T", "content": "C"})
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "MissingUserError", body["name"])

	code, body = do(t, ts, http.MethodPost, "/api/posts", alice, map[string]any{
		"title": "T", "content": "C", "tags": "#x #y",
	})
	require.Equal(t, http.StatusCreated, code)

	post, ok := body["post"].(map[string]any)
	require.True(t, ok)
	require.Len(t, post["tags"], 2)
	require.NotContains(t, post, "authorId")

	postPath := fmt.Sprintf("/api/posts/%v", post["id"])

	code, body = do(t, ts, http.MethodPatch, postPath, bob, map[string]any{"title": "mine now"})
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "UnauthorizedUserError", body["name"])

	code, body = do(t, ts, http.MethodPatch, postPath, alice, map[string]any{"tags": []string{"#y", "#z"}})
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["post"].(map[string]any)["tags"], 2) //nolint:forcetypeassert

	code, body = do(t, ts, http.MethodGet, "/api/tags/%23z/posts", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["posts"], 1)

	code, _ = do(t, ts, http.MethodDelete, postPath, alice, nil)
	require.Equal(t, http.StatusOK, code)

	code, body = do(t, ts, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, body["posts"])

	code, body = do(t, ts, http.MethodGet, "/api/posts", alice, nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["posts"], 1)

	code, body = do(t, ts, http.MethodGet, postPath, bob, nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "PostNotFoundError", body["name"])

	code, _ = do(t, ts, http.MethodGet, "/api/posts/abc", "", nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, body = do(t, ts, http.MethodGet, "/api/tags", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["tags"], 3)
}

func TestDeactivatedUserCannotPublish(t *testing.T) {
	ts := newTestServer(t)

	alice := registerUser(t, ts, "albert")
	registerUser(t, ts, "sandra")

	code, body := do(t, ts, http.MethodDelete, "/api/users/2", alice, nil)
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "UnauthorizedUserError", body["name"])

	code, body = do(t, ts, http.MethodDelete, "/api/users/1", alice, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, false, body["user"].(map[string]any)["active"]) //nolint:forcetypeassert

	code, body = do(t, ts, http.MethodPost, "/api/posts", alice, map[string]any{"title": "T", "content": "C"})
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "InactiveUserError", body["name"])

	code, _ = do(t, ts, http.MethodPatch, "/api/users/1", alice, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, ts, http.MethodPost, "/api/posts", alice, map[string]any{"title": "T", "content": "C"})
	require.Equal(t, http.StatusCreated, code)

	code, body = do(t, ts, http.MethodGet, "/api/users/1", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["user"].(map[string]any)["posts"], 1) //nolint:forcetypeassert

	code, body = do(t, ts, http.MethodGet, "/api/users/1/posts", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["posts"], 1)
}

func TestOwnerRestoresRemovedPost(t *testing.T) {
	ts := newTestServer(t)

	alice := registerUser(t, ts, "albert")
	bob := registerUser(t, ts, "sandra")

	code, body := do(t, ts, http.MethodPost, "/api/posts", alice, map[string]any{"title": "T", "content": "C"})
	require.Equal(t, http.StatusCreated, code)

	postPath := fmt.Sprintf("/api/posts/%v", body["post"].(map[string]any)["id"]) //nolint:forcetypeassert

	code, _ = do(t, ts, http.MethodDelete, postPath, alice, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, ts, http.MethodPatch, postPath, bob, map[string]any{"active": true})
	require.Equal(t, http.StatusNotFound, code)

	code, body = do(t, ts, http.MethodPatch, postPath, alice, map[string]any{"active": true})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["post"].(map[string]any)["active"]) //nolint:forcetypeassert

	code, body = do(t, ts, http.MethodGet, postPath, "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "T", body["post"].(map[string]any)["title"]) //nolint:forcetypeassert

	code, body = do(t, ts, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["posts"], 1)
}
