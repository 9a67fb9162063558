package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/juicebox/internal/juicebox/domain/models"
	"github.com/Leopold1975/juicebox/internal/juicebox/repository/userrepo"
	"github.com/Leopold1975/juicebox/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// publicColumns never include the password.
var publicColumns = []string{"id", "username", "name", "location", "active"} //nolint:gochecknoglobals

type UsersPostgresRepo struct {
	db pgtools.DB
}

func New(db pgtools.DB) UsersPostgresRepo {
	return UsersPostgresRepo{
		db: db,
	}
}

// CreateUser inserts u and returns the stored row including the password hash.
// A username conflict yields ErrAlreadyExists instead of an empty result.
func (ur UsersPostgresRepo) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Insert("users").
		Columns("username", "password", "name", "location").
		Values(u.Username, u.Password, u.Name, u.Location).
		Suffix("ON CONFLICT (username) DO NOTHING RETURNING id, username, password, name, location, active").
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("to sql error: %w", err)
	}

	var created models.User

	if err := ur.db.QueryRow(ctx, query, args...).Scan(
		&created.ID, &created.Username, &created.Password, &created.Name, &created.Location, &created.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgtools.IsCode(err, pgtools.UniqueViolation) {
			return models.User{}, userrepo.ErrAlreadyExists
		}

		return models.User{}, fmt.Errorf("scan error: %w", err)
	}

	return created, nil
}

// GetUserByUsername returns the full row, password hash included, for
// credential checks.
func (ur UsersPostgresRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("id", "username", "password", "name", "location", "active").
		From("users").
		Where(squirrel.Eq{"username": username}).ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("to sql error: %w", err)
	}

	var u models.User

	if err := ur.db.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.Password, &u.Name, &u.Location, &u.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return u, userrepo.ErrNotFound
		}

		return u, fmt.Errorf("scan error: %w", err)
	}

	return u, nil
}

func (ur UsersPostgresRepo) GetUserByID(ctx context.Context, userID int64) (models.User, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select(publicColumns...).
		From("users").
		Where(squirrel.Eq{"id": userID}).ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("to sql error: %w", err)
	}

	return ur.scanOne(ctx, query, args)
}

func (ur UsersPostgresRepo) GetAllUsers(ctx context.Context) ([]models.User, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select(publicColumns...).
		From("users").
		OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := ur.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0, 10) //nolint:gomnd

	for rows.Next() {
		var u models.User

		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Location, &u.Active); err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

// UpdateUser applies patch and returns the updated public row.
func (ur UsersPostgresRepo) UpdateUser(ctx context.Context, userID int64, patch userrepo.Patch) (models.User, error) {
	if patch.Empty() {
		return ur.GetUserByID(ctx, userID)
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	ub := psql.Update("users").Where(squirrel.Eq{"id": userID})

	if patch.Name != nil {
		ub = ub.Set("name", *patch.Name)
	}

	if patch.Location != nil {
		ub = ub.Set("location", *patch.Location)
	}

	if patch.Active != nil {
		ub = ub.Set("active", *patch.Active)
	}

	query, args, err := ub.Suffix("RETURNING id, username, name, location, active").ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("to sql error: %w", err)
	}

	return ur.scanOne(ctx, query, args)
}

func (ur UsersPostgresRepo) SetActive(ctx context.Context, userID int64, active bool) (models.User, error) {
	return ur.UpdateUser(ctx, userID, userrepo.Patch{Active: &active})
}

func (ur UsersPostgresRepo) scanOne(ctx context.Context, query string, args []interface{}) (models.User, error) {
	var u models.User

	if err := ur.db.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.Name, &u.Location, &u.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return u, userrepo.ErrNotFound
		}

		return u, fmt.Errorf("scan error: %w", err)
	}

	return u, nil
}
