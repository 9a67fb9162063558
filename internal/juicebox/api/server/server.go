package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Leopold1975/juicebox/internal/juicebox/domain/apperr"
	"github.com/Leopold1975/juicebox/internal/juicebox/domain/models"
	"github.com/Leopold1975/juicebox/internal/juicebox/domain/visibility"
	"github.com/Leopold1975/juicebox/internal/juicebox/services/postservice"
	"github.com/Leopold1975/juicebox/internal/juicebox/services/userservice"
	"github.com/Leopold1975/juicebox/internal/pkg/config"
	"github.com/Leopold1975/juicebox/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/oapi-codegen/runtime"
)

type Server struct {
	serv  *http.Server
	posts PostService
	users UserService
	lg    logger.Logger
}

type PostService interface {
	ListPosts(context.Context, *models.Identity) ([]models.Post, error)
	ListPostsByAuthor(context.Context, *models.Identity, int64) ([]models.Post, error)
	ListPostsByTag(context.Context, *models.Identity, string) ([]models.Post, error)
	ViewPost(context.Context, *models.Identity, int64) (models.Post, error)
	Publish(context.Context, *models.Identity, postservice.CreatePostRequest) (models.Post, error)
	EditPost(context.Context, *models.Identity, int64, postservice.UpdatePostRequest) (models.Post, error)
	RemovePost(context.Context, *models.Identity, int64) (models.Post, error)
	GetAllTags(context.Context) ([]models.Tag, error)
}

type UserService interface {
	Register(context.Context, userservice.CreateUserRequest) (string, error)
	Login(context.Context, string, string) (string, error)
	Identify(context.Context, string) (*models.Identity, error)
	GetAllUsers(context.Context) ([]models.User, error)
	GetUserByID(context.Context, int64) (models.User, error)
	UpdateProfile(context.Context, *models.Identity, int64, userservice.UpdateProfileRequest) (models.User, error)
	DeactivateUser(context.Context, *models.Identity, int64) (models.User, error)
	ActivateUser(context.Context, *models.Identity, int64) (models.User, error)
}

func New(cfg config.Server, ps PostService, us UserService, lg logger.Logger) *Server {
	s := &Server{
		posts: ps,
		users: us,
		lg:    lg,
	}

	s.serv = &http.Server{ //nolint:exhaustruct
		Addr:         cfg.Addr,
		Handler:      s.routes(cfg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.serv.Handler
}

func (s *Server) routes(cfg config.Server) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.lg))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{ //nolint:exhaustruct
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	}))
	r.Use(authMiddleware(s.users, s.lg))

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.GetUsers)
			r.Post("/register", s.PostRegister)
			r.Post("/login", s.PostLogin)
			r.Get("/{userId}", s.GetUser)
			r.Put("/{userId}", s.PutUser)
			r.Delete("/{userId}", s.DeleteUser)
			r.Patch("/{userId}", s.PatchUser)
			r.Get("/{userId}/posts", s.GetUserPosts)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", s.GetPosts)
			r.Post("/", s.PostPost)
			r.Get("/{postId}", s.GetPost)
			r.Patch("/{postId}", s.PatchPost)
			r.Delete("/{postId}", s.DeletePost)
		})

		r.Get("/tags", s.GetTags)
		r.Get("/tags/{tagName}/posts", s.GetTagPosts)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write(Error{Name: "NotFoundError", Err: "route not found"}.ToJSON()) //nolint:errcheck
	})

	return r
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
		defer cancel()

		if err := s.Shutdown(ctxS); err != nil { //nolint:contextcheck
			return fmt.Errorf("context error: %w server error %w", ctxS.Err(), err)
		}

		if !errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("context cancelled error: %w", ctx.Err())
		}

		return nil
	case err := <-errCh:
		return fmt.Errorf("listen and serve error: %w", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctxS, cancel := context.WithTimeout(ctx, s.serv.IdleTimeout)
	defer cancel()

	if err := s.serv.Shutdown(ctxS); err != nil {
		return fmt.Errorf("shutdown server error: %w", err)
	}

	return nil
}

// (GET /api/users).
func (s *Server) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.GetAllUsers(r.Context())
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	s.writeJSON(w, http.StatusOK, UsersResponse{Users: users})
}

// (POST /api/users/register).
func (s *Server) PostRegister(w http.ResponseWriter, r *http.Request) {
	var req userservice.CreateUserRequest

	if !s.decode(w, r, &req) {
		return
	}

	token, err := s.users.Register(r.Context(), req)
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	s.writeJSON(w, http.StatusCreated, TokenResponse{Message: "thank you for signing up", Token: token})
}

// (POST /api/users/login).
func (s *Server) PostLogin(w http.ResponseWriter, r *http.Request) {
	var b loginBody

	if !s.decode(w, r, &b) {
		return
	}

	token, err := s.users.Login(r.Context(), b.Username, b.Password)
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	s.writeJSON(w, http.StatusOK, TokenResponse{Message: "you're logged in!", Token: token})
}

// (GET /api/users/{userId}).
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "userId")
	if !ok {
		return
	}

	u, err := s.users.GetUserByID(r.Context(), id)
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	u.Posts = visibility.Filter(u.Posts, identityFrom(r.Context()), visibility.IsVisible)

	s.writeJSON(w, http.StatusOK, UserResponse{User: u}) //nolint:exhaustruct
}

// (PUT /api/users/{userId}).
func (s *Server) PutUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "userId")
	if !ok {
		return
	}

	var req userservice.UpdateProfileRequest

	if !s.decode(w, r, &req) {
		return
	}

	u, err := s.users.UpdateProfile(r.Context(), identityFrom(r.Context()), id, req)
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	s.writeJSON(w, http.StatusOK, UserResponse{Message: "profile updated", User: u})
}

// (DELETE /api/users/{userId}).
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "userId")
	if !ok {
		return
	}

	u, err := s.users.DeactivateUser(r.Context(), identityFrom(r.Context()), id)
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	s.writeJSON(w, http.StatusOK, UserResponse{Message: "you have successfully deactivated user", User: u})
}

// (PATCH /api/users/{userId}).
func (s *Server) PatchUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "userId")
	if !ok {
		return
	}

	u, err := s.users.ActivateUser(r.Context(), identityFrom(r.Context()), id)
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	s.writeJSON(w, http.StatusOK, UserResponse{Message: "you have successfully activated user", User: u})
}

// (GET /api/users/{userId}/posts).
func (s *Server) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "userId")
	if !ok {
		return
	}

	posts, err := s.posts.ListPostsByAuthor(r.Context(), identityFrom(r.Context()), id)
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	s.writeJSON(w, http.StatusOK, PostsResponse{Posts: posts})
}

// (GET /api/posts).
func (s *Server) GetPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.ListPosts(r.Context(), identityFrom(r.Context()))
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	s.writeJSON(w, http.StatusOK, PostsResponse{Posts: posts})
}

// (POST /api/posts).
func (s *Server) PostPost(w http.ResponseWriter, r *http.Request) {
	var b createPostBody

	if !s.decode(w, r, &b) {
		return
	}

	post, err := s.posts.Publish(r.Context(), identityFrom(r.Context()), postservice.CreatePostRequest{ //nolint:exhaustruct
		Title:   b.Title,
		Content: b.Content,
		Tags:    b.Tags,
	})
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	s.writeJSON(w, http.StatusCreated, PostResponse{Post: post})
}

// (GET /api/posts/{postId}).
func (s *Server) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "postId")
	if !ok {
		return
	}

	post, err := s.posts.ViewPost(r.Context(), identityFrom(r.Context()), id)
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	s.writeJSON(w, http.StatusOK, PostResponse{Post: post})
}

// (PATCH /api/posts/{postId}).
func (s *Server) PatchPost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "postId")
	if !ok {
		return
	}

	var b updatePostBody

	if !s.decode(w, r, &b) {
		return
	}

	req := postservice.UpdatePostRequest{ //nolint:exhaustruct
		Title:   b.Title,
		Content: b.Content,
		Active:  b.Active,
	}

	if b.Tags != nil {
		tags := []string(*b.Tags)
		req.Tags = &tags
	}

	post, err := s.posts.EditPost(r.Context(), identityFrom(r.Context()), id, req)
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	s.writeJSON(w, http.StatusOK, PostResponse{Post: post})
}

// (DELETE /api/posts/{postId}).
func (s *Server) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "postId")
	if !ok {
		return
	}

	post, err := s.posts.RemovePost(r.Context(), identityFrom(r.Context()), id)
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	s.writeJSON(w, http.StatusOK, PostResponse{Post: post})
}

// (GET /api/tags).
func (s *Server) GetTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.posts.GetAllTags(r.Context())
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	s.writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// (GET /api/tags/{tagName}/posts).
func (s *Server) GetTagPosts(w http.ResponseWriter, r *http.Request) {
	var tagName string

	err := runtime.BindStyledParameterWithLocation("simple", false, "tagName", runtime.ParamLocationPath,
		chi.URLParam(r, "tagName"), &tagName)
	if err != nil {
		handleError(w, s.lg, apperr.Validation("invalid tagName"))

		return
	}

	posts, err := s.posts.ListPostsByTag(r.Context(), identityFrom(r.Context()), tagName)
	if err != nil {
		handleError(w, s.lg, err)

		return
	}

	s.writeJSON(w, http.StatusOK, PostsResponse{Posts: posts})
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	var id int64

	err := runtime.BindStyledParameterWithLocation("simple", false, name, runtime.ParamLocationPath,
		chi.URLParam(r, name), &id)
	if err != nil || id <= 0 {
		handleError(w, s.lg, apperr.Validation("invalid "+name))

		return 0, false
	}

	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		handleError(w, s.lg, apperr.Validation(fmt.Sprintf("decode error: %s", err.Error())))

		return false
	}

	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	bts, err := json.Marshal(v)
	if err != nil {
		handleError(w, s.lg, fmt.Errorf("encode error: %w", err))

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(bts) //nolint:errcheck
}
