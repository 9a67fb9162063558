package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/Leopold1975/juicebox/internal/juicebox/domain/models"
	"github.com/Leopold1975/juicebox/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
)

type TagsPostgresRepo struct {
	db pgtools.DB
}

func New(db pgtools.DB) TagsPostgresRepo {
	return TagsPostgresRepo{
		db: db,
	}
}

// UpsertTags inserts the names that are not stored yet and returns the rows of
// every requested name ordered by id. Existing rows are never updated. Names
// are inserted in sorted order so overlapping concurrent upserts lock rows in
// the same order.
func (tr TagsPostgresRepo) UpsertTags(ctx context.Context, //nolint:nonamedreturns
	names []string,
) (tags []models.Tag, err error) {
	names = dedupe(names)
	if len(names) == 0 {
		return []models.Tag{}, nil
	}

	sort.Strings(names)

	tx, err := tr.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "upsert tags")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	ib := psql.Insert("tags").Columns("name")
	for _, n := range names {
		ib = ib.Values(n)
	}

	query, args, err := ib.Suffix("ON CONFLICT (name) DO NOTHING").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	if _, err = tx.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("exec error: %w", err)
	}

	query, args, err = psql.Select("id", "name").
		From("tags").
		Where(squirrel.Eq{"name": names}).
		OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	return queryTags(ctx, tx, query, args)
}

// LinkPostToTags associates the post with every tag. Existing pairs are left
// as they are, so overlapping concurrent calls converge to the union.
func (tr TagsPostgresRepo) LinkPostToTags(ctx context.Context, postID int64, tags []models.Tag) error {
	return linkPostToTags(ctx, tr.db, postID, tags)
}

// ReconcilePostTags makes the post's associations equal to desired: pairs whose
// tag is not desired are deleted, then desired pairs are linked.
func (tr TagsPostgresRepo) ReconcilePostTags(ctx context.Context, postID int64, desired []models.Tag) (err error) {
	tx, err := tr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "reconcile post tags")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	del := psql.Delete("post_tags").Where(squirrel.Eq{"post_id": postID})

	// An empty desired set removes every association of the post.
	if len(desired) != 0 {
		ids := make([]int64, 0, len(desired))
		for _, t := range desired {
			ids = append(ids, t.ID)
		}

		del = del.Where(squirrel.NotEq{"tag_id": ids})
	}

	query, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err = tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	return linkPostToTags(ctx, tx, postID, desired)
}

func (tr TagsPostgresRepo) GetTagsByPost(ctx context.Context, postID int64) ([]models.Tag, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("tags.id", "tags.name").
		From("tags").
		Join("post_tags ON tags.id = post_tags.tag_id").
		Where(squirrel.Eq{"post_tags.post_id": postID}).
		OrderBy("tags.id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	return queryTags(ctx, tr.db, query, args)
}

func (tr TagsPostgresRepo) GetAllTags(ctx context.Context) ([]models.Tag, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("id", "name").
		From("tags").
		OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	return queryTags(ctx, tr.db, query, args)
}

func linkPostToTags(ctx context.Context, db pgtools.DB, postID int64, tags []models.Tag) error {
	if len(tags) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	ib := psql.Insert("post_tags").Columns("post_id", "tag_id")
	for _, id := range ids {
		ib = ib.Values(postID, id)
	}

	query, args, err := ib.Suffix("ON CONFLICT (post_id, tag_id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("link exec error: %w", err)
	}

	return nil
}

func queryTags(ctx context.Context, db pgtools.DB, query string, args []interface{}) ([]models.Tag, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	tags := make([]models.Tag, 0, 4) //nolint:gomnd

	for rows.Next() {
		var t models.Tag

		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		tags = append(tags, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tags, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))

	for _, n := range names {
		if n == "" {
			continue
		}

		if _, ok := seen[n]; ok {
			continue
		}

		seen[n] = struct{}{}
		out = append(out, n)
	}

	return out
}
