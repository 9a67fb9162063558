package postservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Leopold1975/juicebox/internal/juicebox/domain/apperr"
	"github.com/Leopold1975/juicebox/internal/juicebox/domain/authz"
	"github.com/Leopold1975/juicebox/internal/juicebox/domain/models"
	"github.com/Leopold1975/juicebox/internal/juicebox/domain/visibility"
	repo "github.com/Leopold1975/juicebox/internal/juicebox/repository/postrepo"
	"github.com/Leopold1975/juicebox/internal/juicebox/repository/userrepo"
	"github.com/Leopold1975/juicebox/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const hydrateLimit = 8

type PostService struct {
	posts PostRepository
	tags  TagRepository
	users AuthorRepository
	lg    logger.Logger
}

type PostRepository interface {
	CreatePost(context.Context, repo.Record) (int64, error)
	UpdatePost(context.Context, int64, repo.Patch) error
	GetPost(context.Context, int64) (repo.Record, error)
	ListPosts(context.Context, repo.Filter) ([]repo.Record, error)
}

type TagRepository interface {
	UpsertTags(context.Context, []string) ([]models.Tag, error)
	LinkPostToTags(context.Context, int64, []models.Tag) error
	ReconcilePostTags(context.Context, int64, []models.Tag) error
	GetTagsByPost(context.Context, int64) ([]models.Tag, error)
	GetAllTags(context.Context) ([]models.Tag, error)
}

type AuthorRepository interface {
	GetUserByID(context.Context, int64) (models.User, error)
}

func New(posts PostRepository, tags TagRepository, users AuthorRepository, lg logger.Logger) *PostService {
	return &PostService{
		posts: posts,
		tags:  tags,
		users: users,
		lg:    lg,
	}
}

func (ps *PostService) CreatePost(ctx context.Context, req CreatePostRequest) (models.Post, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)

	switch {
	case req.AuthorID == 0:
		return models.Post{}, apperr.Validation("authorId is required")
	case req.Title == "":
		return models.Post{}, apperr.Validation("title is required")
	case req.Content == "":
		return models.Post{}, apperr.Validation("content is required")
	case tooLong(req.Title):
		return models.Post{}, apperr.Validation(fmt.Sprintf("title is longer than %d characters", maxNameLength))
	}

	tagNames := NormalizeTags(req.Tags)
	if err := validateTags(tagNames); err != nil {
		return models.Post{}, err
	}

	if _, err := ps.users.GetUserByID(ctx, req.AuthorID); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return models.Post{}, apperr.Validation("authorId does not reference an existing user")
		}

		return models.Post{}, fmt.Errorf("get author error: %w", err)
	}

	id, err := ps.posts.CreatePost(ctx, repo.Record{
		AuthorID: req.AuthorID,
		Title:    req.Title,
		Content:  req.Content,
		Active:   true,
	})
	if err != nil {
		if errors.Is(err, repo.ErrAuthorNotFound) {
			return models.Post{}, apperr.Validation("authorId does not reference an existing user")
		}

		return models.Post{}, fmt.Errorf("create post error: %w", err)
	}

	tags, err := ps.tags.UpsertTags(ctx, tagNames)
	if err != nil {
		return models.Post{}, fmt.Errorf("upsert tags error: %w", err)
	}

	if err := ps.tags.LinkPostToTags(ctx, id, tags); err != nil {
		return models.Post{}, fmt.Errorf("link tags error: %w", err)
	}

	ps.lg.Infof("post %d created by user %d", id, req.AuthorID)

	return ps.GetPostByID(ctx, id)
}

// UpdatePost applies the non-empty fields of req. Tags, when present, replace
// the post's tag set.
func (ps *PostService) UpdatePost(ctx context.Context, postID int64, req UpdatePostRequest) (models.Post, error) {
	var patch repo.Patch

	if req.Title != nil {
		if t := strings.TrimSpace(*req.Title); t != "" {
			if tooLong(t) {
				return models.Post{}, apperr.Validation(fmt.Sprintf("title is longer than %d characters", maxNameLength))
			}

			patch.Title = &t
		}
	}

	var tagNames []string

	if req.Tags != nil {
		tagNames = NormalizeTags(*req.Tags)
		if err := validateTags(tagNames); err != nil {
			return models.Post{}, err
		}
	}

	if req.Content != nil {
		if c := strings.TrimSpace(*req.Content); c != "" {
			patch.Content = &c
		}
	}

	patch.Active = req.Active

	if err := ps.posts.UpdatePost(ctx, postID, patch); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Post{}, apperr.ErrPostNotFound
		}

		return models.Post{}, fmt.Errorf("update post error: %w", err)
	}

	if req.Tags != nil {
		tags, err := ps.tags.UpsertTags(ctx, tagNames)
		if err != nil {
			return models.Post{}, fmt.Errorf("upsert tags error: %w", err)
		}

		if err := ps.tags.ReconcilePostTags(ctx, postID, tags); err != nil {
			return models.Post{}, fmt.Errorf("reconcile tags error: %w", err)
		}
	}

	return ps.GetPostByID(ctx, postID)
}

func (ps *PostService) DeactivatePost(ctx context.Context, postID int64) (models.Post, error) {
	inactive := false

	return ps.UpdatePost(ctx, postID, UpdatePostRequest{Active: &inactive}) //nolint:exhaustruct
}

func (ps *PostService) GetPostByID(ctx context.Context, postID int64) (models.Post, error) {
	rec, err := ps.posts.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Post{}, apperr.ErrPostNotFound
		}

		return models.Post{}, fmt.Errorf("get post error: %w", err)
	}

	return ps.hydrate(ctx, rec)
}

func (ps *PostService) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	return ps.list(ctx, repo.Filter{}) //nolint:exhaustruct
}

func (ps *PostService) GetPostsByAuthor(ctx context.Context, authorID int64) ([]models.Post, error) {
	return ps.list(ctx, repo.Filter{AuthorID: authorID}) //nolint:exhaustruct
}

func (ps *PostService) GetPostsByTagName(ctx context.Context, tagName string) ([]models.Post, error) {
	if tagName == "" {
		return []models.Post{}, nil
	}

	return ps.list(ctx, repo.Filter{TagName: tagName}) //nolint:exhaustruct
}

func (ps *PostService) GetAllTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := ps.tags.GetAllTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("get tags error: %w", err)
	}

	return tags, nil
}

// Viewer-facing reads. These are the only place visibility rules are applied.

func (ps *PostService) ListPosts(ctx context.Context, viewer *models.Identity) ([]models.Post, error) {
	posts, err := ps.GetAllPosts(ctx)
	if err != nil {
		return nil, err
	}

	return visibility.Filter(posts, viewer, visibility.IsVisible), nil
}

func (ps *PostService) ListPostsByAuthor(ctx context.Context, viewer *models.Identity,
	authorID int64,
) ([]models.Post, error) {
	posts, err := ps.GetPostsByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}

	return visibility.Filter(posts, viewer, visibility.IsVisible), nil
}

func (ps *PostService) ListPostsByTag(ctx context.Context, viewer *models.Identity,
	tagName string,
) ([]models.Post, error) {
	posts, err := ps.GetPostsByTagName(ctx, tagName)
	if err != nil {
		return nil, err
	}

	return visibility.Filter(posts, viewer, visibility.IsVisibleByTag), nil
}

// ViewPost returns the post if viewer may see it. Hidden posts are reported
// as not found.
func (ps *PostService) ViewPost(ctx context.Context, viewer *models.Identity, postID int64) (models.Post, error) {
	post, err := ps.GetPostByID(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}

	if !visibility.IsVisible(post, viewer) {
		return models.Post{}, apperr.ErrPostNotFound
	}

	return post, nil
}

// Actor-facing writes. The guard runs before any store mutation.

func (ps *PostService) Publish(ctx context.Context, actor *models.Identity, req CreatePostRequest) (models.Post, error) {
	if err := requireActive(actor); err != nil {
		return models.Post{}, err
	}

	req.AuthorID = actor.ID

	return ps.CreatePost(ctx, req)
}

func (ps *PostService) EditPost(ctx context.Context, actor *models.Identity, postID int64,
	req UpdatePostRequest,
) (models.Post, error) {
	if err := ps.guard(ctx, actor, postID); err != nil {
		return models.Post{}, err
	}

	return ps.UpdatePost(ctx, postID, req)
}

func (ps *PostService) RemovePost(ctx context.Context, actor *models.Identity, postID int64) (models.Post, error) {
	if err := ps.guard(ctx, actor, postID); err != nil {
		return models.Post{}, err
	}

	return ps.DeactivatePost(ctx, postID)
}

func (ps *PostService) guard(ctx context.Context, actor *models.Identity, postID int64) error {
	if err := requireActive(actor); err != nil {
		return err
	}

	post, err := ps.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}

	if !visibility.IsVisible(post, actor) {
		return apperr.ErrPostNotFound
	}

	if !authz.CanMutatePost(actor, post) {
		ps.lg.Warnf("user %d tried to modify post %d owned by %d", actor.ID, postID, post.Author.ID)

		return apperr.Unauthorized("you cannot modify a post that is not yours")
	}

	return nil
}

func (ps *PostService) list(ctx context.Context, filter repo.Filter) ([]models.Post, error) {
	records, err := ps.posts.ListPosts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list posts error: %w", err)
	}

	posts := make([]models.Post, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateLimit)

	for i, rec := range records {
		i, rec := i, rec

		g.Go(func() error {
			p, err := ps.hydrate(gctx, rec)
			if err != nil {
				return err
			}

			posts[i] = p

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (ps *PostService) hydrate(ctx context.Context, rec repo.Record) (models.Post, error) {
	tags, err := ps.tags.GetTagsByPost(ctx, rec.ID)
	if err != nil {
		return models.Post{}, fmt.Errorf("get post %d tags error: %w", rec.ID, err)
	}

	author, err := ps.users.GetUserByID(ctx, rec.AuthorID)
	if err != nil {
		return models.Post{}, fmt.Errorf("get post %d author error: %w", rec.ID, err)
	}

	return models.Post{
		ID:      rec.ID,
		Title:   rec.Title,
		Content: rec.Content,
		Active:  rec.Active,
		Tags:    tags,
		Author:  author.Author(),
	}, nil
}

func requireActive(actor *models.Identity) error {
	if actor == nil {
		return apperr.ErrMissingUser
	}

	if !actor.Active {
		return apperr.ErrInactiveUser
	}

	return nil
}
