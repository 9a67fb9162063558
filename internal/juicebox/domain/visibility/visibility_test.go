package visibility

import (
	"testing"

	"github.com/Leopold1975/juicebox/internal/juicebox/domain/models"
	"github.com/stretchr/testify/require"
)

func post(id int64, active bool, authorID int64, authorActive bool) models.Post {
	return models.Post{
		ID:     id,
		Active: active,
		Author: models.Author{ID: authorID, Active: authorActive},
	}
}

func TestIsVisible(t *testing.T) {
	author := &models.Identity{ID: 1}
	other := &models.Identity{ID: 2}

	tests := []struct {
		name   string
		post   models.Post
		viewer *models.Identity
		want   bool
	}{
		{"active post anonymous", post(1, true, 1, true), nil, true},
		{"active post other user", post(1, true, 1, true), other, true},
		{"active post inactive author anonymous", post(1, true, 1, false), nil, true},
		{"inactive post anonymous", post(1, false, 1, true), nil, false},
		{"inactive post other user", post(1, false, 1, true), other, false},
		{"inactive post author", post(1, false, 1, true), author, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsVisible(tt.post, tt.viewer))
		})
	}
}

func TestIsVisibleByTag(t *testing.T) {
	author := &models.Identity{ID: 1}
	other := &models.Identity{ID: 2}

	tests := []struct {
		name   string
		post   models.Post
		viewer *models.Identity
		want   bool
	}{
		{"active post active author anonymous", post(1, true, 1, true), nil, true},
		{"active post inactive author anonymous", post(1, true, 1, false), nil, false},
		{"active post inactive author other", post(1, true, 1, false), other, false},
		{"active post inactive author self", post(1, true, 1, false), author, true},
		{"inactive post inactive author self", post(1, false, 1, false), author, true},
		{"inactive post active author other", post(1, false, 1, true), other, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsVisibleByTag(tt.post, tt.viewer))
		})
	}
}

func TestFilterKeepsOrder(t *testing.T) {
	posts := []models.Post{
		post(1, true, 1, true),
		post(2, false, 1, true),
		post(3, true, 2, true),
		post(4, false, 2, true),
	}

	anon := Filter(posts, nil, IsVisible)
	require.Equal(t, []int64{1, 3}, ids(anon))

	own := Filter(posts, &models.Identity{ID: 2}, IsVisible)
	require.Equal(t, []int64{1, 3, 4}, ids(own))

	require.NotNil(t, Filter(nil, nil, IsVisible))
}

func ids(posts []models.Post) []int64 {
	out := make([]int64, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}

	return out
}
