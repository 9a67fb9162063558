// Package visibility decides which posts a viewer may see. Every listing goes
// through Filter so the rules live in one place.
package visibility

import "github.com/Leopold1975/juicebox/internal/juicebox/domain/models"

// Rule is a visibility predicate over a hydrated post.
type Rule func(post models.Post, viewer *models.Identity) bool

// IsVisible reports whether viewer may see post: active posts are public,
// inactive posts are visible to their author only.
func IsVisible(post models.Post, viewer *models.Identity) bool {
	return post.Active || isOwner(post, viewer)
}

// IsVisibleByTag is the rule used for tag listings. On top of IsVisible it
// hides posts of deactivated authors from everyone except the author.
func IsVisibleByTag(post models.Post, viewer *models.Identity) bool {
	return (post.Author.Active || isOwner(post, viewer)) && IsVisible(post, viewer)
}

// Filter keeps the posts that satisfy rule, preserving order. It never
// returns nil.
func Filter(posts []models.Post, viewer *models.Identity, rule Rule) []models.Post {
	out := make([]models.Post, 0, len(posts))

	for _, p := range posts {
		if rule(p, viewer) {
			out = append(out, p)
		}
	}

	return out
}

func isOwner(post models.Post, viewer *models.Identity) bool {
	return viewer != nil && viewer.ID == post.Author.ID
}
