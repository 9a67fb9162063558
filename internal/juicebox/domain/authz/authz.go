// Package authz holds the ownership checks guarding every mutation.
package authz

import "github.com/Leopold1975/juicebox/internal/juicebox/domain/models"

func CanMutatePost(actor *models.Identity, post models.Post) bool {
	return actor != nil && actor.ID == post.Author.ID
}

func CanMutateUser(actor *models.Identity, targetUserID int64) bool {
	return actor != nil && actor.ID == targetUserID
}
