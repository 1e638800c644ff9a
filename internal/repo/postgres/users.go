package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// DBObserver is satisfied by *observability.Prom.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

type UsersRepo struct {
	pool    *pgxpool.Pool
	metrics DBObserver
}

func NewUsersRepo(pool *pgxpool.Pool, metrics DBObserver) *UsersRepo {
	return &UsersRepo{pool: pool, metrics: metrics}
}

const userColumns = `id, email, password_hash, name, role, created_at, updated_at`

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.metrics == nil {
		return fn()
	}
	return r.metrics.ObserveDB(op, fn)
}

func scanUser(row pgx.Row, u *user.User) error {
	return row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

// mapErr turns driver errors into the store's sentinel errors.
func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return user.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return user.ErrEmailTaken
	}

	return err
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		return scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+`
			 FROM users
			 WHERE id = $1`,
			id,
		), &u)
	})
	if err != nil {
		return user.User{}, mapErr(err)
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+`
			 FROM users
			 WHERE email = $1`,
			user.NormalizeEmail(email),
		), &u)
	})
	if err != nil {
		return user.User{}, mapErr(err)
	}

	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0)

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var u user.User
			if err := scanUser(rows, &u); err != nil {
				return err
			}
			out = append(out, u)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return out, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	var created user.User

	err := r.observe("users.create", func() error {
		return scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (email, password_hash, name, role)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+userColumns,
			user.NormalizeEmail(u.Email), u.PasswordHash, u.Name, u.Role,
		), &created)
	})
	if err != nil {
		return user.User{}, mapErr(err)
	}

	return created, nil
}

// Update writes every mutable column of u; callers merge partial changes first.
func (r *UsersRepo) Update(ctx context.Context, u user.User) (user.User, error) {
	var updated user.User

	err := r.observe("users.update", func() error {
		return scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
			 SET email = $2,
			     password_hash = $3,
			     name = $4,
			     role = $5,
			     updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+userColumns,
			u.ID, user.NormalizeEmail(u.Email), u.PasswordHash, u.Name, u.Role,
		), &updated)
	})
	if err != nil {
		return user.User{}, mapErr(err)
	}

	return updated, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id int64) error {
	err := r.observe("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return user.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
