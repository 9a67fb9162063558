package postgres

import (
	"context"
	"errors"
	"fmt"

	repo "github.com/Leopold1975/juicebox/internal/juicebox/repository/postrepo"
	"github.com/Leopold1975/juicebox/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

type PostsPostgresRepo struct {
	db pgtools.DB
}

func New(db pgtools.DB) PostsPostgresRepo {
	return PostsPostgresRepo{
		db: db,
	}
}

func (pr PostsPostgresRepo) CreatePost(ctx context.Context, post repo.Record) (int64, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Insert("posts").
		Columns("author_id", "title", "content").
		Values(post.AuthorID, post.Title, post.Content).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	var id int64

	if err := pr.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if pgtools.IsCode(err, pgtools.ForeignKeyViolation) {
			return 0, repo.ErrAuthorNotFound
		}

		return 0, fmt.Errorf("scan error: %w", err)
	}

	return id, nil
}

func (pr PostsPostgresRepo) UpdatePost(ctx context.Context, postID int64, patch repo.Patch) error {
	if patch.Empty() {
		_, err := pr.GetPost(ctx, postID)

		return err
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	ub := psql.Update("posts").Where(squirrel.Eq{"id": postID})

	if patch.Title != nil {
		ub = ub.Set("title", *patch.Title)
	}

	if patch.Content != nil {
		ub = ub.Set("content", *patch.Content)
	}

	if patch.Active != nil {
		ub = ub.Set("active", *patch.Active)
	}

	query, args, err := ub.ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := pr.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	return nil
}

func (pr PostsPostgresRepo) GetPost(ctx context.Context, postID int64) (repo.Record, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("id", "author_id", "title", "content", "active").
		From("posts").
		Where(squirrel.Eq{"id": postID}).ToSql()
	if err != nil {
		return repo.Record{}, fmt.Errorf("to sql error: %w", err)
	}

	var r repo.Record

	if err := pr.db.QueryRow(ctx, query, args...).Scan(
		&r.ID, &r.AuthorID, &r.Title, &r.Content, &r.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, repo.ErrNotFound
		}

		return r, fmt.Errorf("scan error: %w", err)
	}

	return r, nil
}

// ListPosts returns the stored posts matching filter ordered by id. It applies
// no visibility rules.
func (pr PostsPostgresRepo) ListPosts(ctx context.Context, filter repo.Filter) ([]repo.Record, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sb := psql.Select("posts.id", "posts.author_id", "posts.title", "posts.content", "posts.active").
		From("posts")

	if filter.AuthorID != 0 {
		sb = sb.Where(squirrel.Eq{"posts.author_id": filter.AuthorID})
	}

	if filter.TagName != "" {
		sb = sb.Join("post_tags ON posts.id = post_tags.post_id").
			Join("tags ON tags.id = post_tags.tag_id").
			Where(squirrel.Eq{"tags.name": filter.TagName})
	}

	query, args, err := sb.OrderBy("posts.id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := pr.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	records := make([]repo.Record, 0, 10) //nolint:gomnd

	for rows.Next() {
		var r repo.Record

		if err := rows.Scan(&r.ID, &r.AuthorID, &r.Title, &r.Content, &r.Active); err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return records, nil
}
