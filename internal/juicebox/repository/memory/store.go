// Package memory is an in-process implementation of the post, tag and user
// repositories with the same semantics as the postgres ones.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Leopold1975/juicebox/internal/juicebox/domain/models"
	"github.com/Leopold1975/juicebox/internal/juicebox/repository/postrepo"
	"github.com/Leopold1975/juicebox/internal/juicebox/repository/userrepo"
)

type postTag struct {
	postID int64
	tagID  int64
}

type Store struct {
	mu sync.RWMutex

	users    map[int64]models.User
	posts    map[int64]postrepo.Record
	tags     map[int64]models.Tag
	tagNames map[string]int64
	postTags map[postTag]struct{}

	nextUserID int64
	nextPostID int64
	nextTagID  int64

	writes int
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]models.User),
		posts:    make(map[int64]postrepo.Record),
		tags:     make(map[int64]models.Tag),
		tagNames: make(map[string]int64),
		postTags: make(map[postTag]struct{}),
	}
}

// Users

func (s *Store) CreateUser(_ context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return models.User{}, userrepo.ErrAlreadyExists
		}
	}

	s.nextUserID++
	u.ID = s.nextUserID
	u.Active = true
	u.Posts = nil
	s.users[u.ID] = u

	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}

	return models.User{}, userrepo.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, userID int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return models.User{}, userrepo.ErrNotFound
	}

	u.Password = ""

	return u, nil
}

func (s *Store) GetAllUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		u.Password = ""
		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	return users, nil
}

func (s *Store) UpdateUser(_ context.Context, userID int64, patch userrepo.Patch) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return models.User{}, userrepo.ErrNotFound
	}

	if !patch.Empty() {
		s.writes++
	}

	if patch.Name != nil {
		u.Name = *patch.Name
	}

	if patch.Location != nil {
		u.Location = *patch.Location
	}

	if patch.Active != nil {
		u.Active = *patch.Active
	}

	s.users[userID] = u
	u.Password = ""

	return u, nil
}

func (s *Store) SetActive(ctx context.Context, userID int64, active bool) (models.User, error) {
	return s.UpdateUser(ctx, userID, userrepo.Patch{Active: &active})
}

// Posts

func (s *Store) CreatePost(_ context.Context, post postrepo.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++

	if _, ok := s.users[post.AuthorID]; !ok {
		return 0, postrepo.ErrAuthorNotFound
	}

	s.nextPostID++
	post.ID = s.nextPostID
	post.Active = true
	s.posts[post.ID] = post

	return post.ID, nil
}

func (s *Store) UpdatePost(_ context.Context, postID int64, patch postrepo.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return postrepo.ErrNotFound
	}

	if patch.Empty() {
		return nil
	}

	s.writes++

	if patch.Title != nil {
		p.Title = *patch.Title
	}

	if patch.Content != nil {
		p.Content = *patch.Content
	}

	if patch.Active != nil {
		p.Active = *patch.Active
	}

	s.posts[postID] = p

	return nil
}

func (s *Store) GetPost(_ context.Context, postID int64) (postrepo.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[postID]
	if !ok {
		return postrepo.Record{}, postrepo.ErrNotFound
	}

	return p, nil
}

func (s *Store) ListPosts(_ context.Context, filter postrepo.Filter) ([]postrepo.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tagID int64

	if filter.TagName != "" {
		id, ok := s.tagNames[filter.TagName]
		if !ok {
			return []postrepo.Record{}, nil
		}

		tagID = id
	}

	records := make([]postrepo.Record, 0, len(s.posts))

	for _, p := range s.posts {
		if filter.AuthorID != 0 && p.AuthorID != filter.AuthorID {
			continue
		}

		if tagID != 0 {
			if _, ok := s.postTags[postTag{p.ID, tagID}]; !ok {
				continue
			}
		}

		records = append(records, p)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	return records, nil
}

// Tags

func (s *Store) UpsertTags(_ context.Context, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return []models.Tag{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++

	tags := make([]models.Tag, 0, len(names))
	seen := make(map[int64]struct{}, len(names))

	for _, n := range names {
		if n == "" {
			continue
		}

		id, ok := s.tagNames[n]
		if !ok {
			s.nextTagID++
			id = s.nextTagID
			s.tagNames[n] = id
			s.tags[id] = models.Tag{ID: id, Name: n}
		}

		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}
		tags = append(tags, s.tags[id])
	}

	sortTags(tags)

	return tags, nil
}

func (s *Store) LinkPostToTags(_ context.Context, postID int64, tags []models.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tags) != 0 {
		s.writes++
	}

	s.link(postID, tags)

	return nil
}

func (s *Store) ReconcilePostTags(_ context.Context, postID int64, desired []models.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++

	keep := make(map[int64]struct{}, len(desired))
	for _, t := range desired {
		keep[t.ID] = struct{}{}
	}

	for pt := range s.postTags {
		if pt.postID != postID {
			continue
		}

		if _, ok := keep[pt.tagID]; !ok {
			delete(s.postTags, pt)
		}
	}

	s.link(postID, desired)

	return nil
}

func (s *Store) GetTagsByPost(_ context.Context, postID int64) ([]models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tags := make([]models.Tag, 0, 4) //nolint:gomnd

	for pt := range s.postTags {
		if pt.postID == postID {
			tags = append(tags, s.tags[pt.tagID])
		}
	}

	sortTags(tags)

	return tags, nil
}

func (s *Store) GetAllTags(_ context.Context) ([]models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tags := make([]models.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		tags = append(tags, t)
	}

	sortTags(tags)

	return tags, nil
}

// AssociationCount returns the number of post_tags pairs of postID.
func (s *Store) AssociationCount(postID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0

	for pt := range s.postTags {
		if pt.postID == postID {
			n++
		}
	}

	return n
}

func (s *Store) link(postID int64, tags []models.Tag) {
	for _, t := range tags {
		s.postTags[postTag{postID, t.ID}] = struct{}{}
	}
}

func sortTags(tags []models.Tag) {
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
}

// WriteCount returns the number of mutating calls served so far.
func (s *Store) WriteCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.writes
}
