package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/irsalhamdi/e-learning/database"
	"github.com/jmoiron/sqlx"
)

const columns = `user_id, username, password, email, full_name, role, avatar, bio, is_active, created_at`

func Fetch(ctx context.Context, db sqlx.ExtContext, id int) (User, error) {
	var u User
	q := `SELECT ` + columns + ` FROM users WHERE user_id = $1`
	if err := sqlx.GetContext(ctx, db, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, database.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func FetchByUsername(ctx context.Context, db sqlx.ExtContext, username string) (User, error) {
	var u User
	q := `SELECT ` + columns + ` FROM users WHERE username = $1`
	if err := sqlx.GetContext(ctx, db, &u, q, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, database.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// FetchByIDs returns the users found among ids, keyed by id.
func FetchByIDs(ctx context.Context, db sqlx.ExtContext, ids []int) (map[int]User, error) {
	m := make(map[int]User, len(ids))
	if len(ids) == 0 {
		return m, nil
	}

	q, args, err := sqlx.In(`SELECT `+columns+` FROM users WHERE user_id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var users []User
	if err := sqlx.SelectContext(ctx, db, &users, db.Rebind(q), args...); err != nil {
		return nil, err
	}
	for _, u := range users {
		m[u.ID] = u
	}
	return m, nil
}

func Create(ctx context.Context, db sqlx.ExtContext, u User) (User, error) {
	const q = `
	INSERT INTO users (username, password, email, full_name, role, avatar, bio, is_active, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING user_id`

	err := db.QueryRowxContext(ctx, q,
		u.Username, u.Password, u.Email, u.FullName, u.Role, u.Avatar, u.Bio, u.IsActive, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		return User{}, database.Classify(err)
	}
	return u, nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, id int, active bool) error {
	res, err := db.ExecContext(ctx, `UPDATE users SET is_active = $1 WHERE user_id = $2`, active, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

func List(ctx context.Context, db sqlx.ExtContext, f Filter) (Page, error) {
	var w database.Where
	if f.Role != "" {
		w.And("role = ?", f.Role)
	}
	if f.IsActive != nil {
		w.And("is_active = ?", *f.IsActive)
	}
	w.Search(f.Search, "username", "email", "full_name")

	var total int
	if err := sqlx.GetContext(ctx, db, &total, db.Rebind(`SELECT count(*) FROM users`+w.Clause()), w.Args()...); err != nil {
		return Page{}, fmt.Errorf("counting users: %w", err)
	}

	_, limit, offset := database.Paginate(f.Page, f.Limit)
	q := `SELECT ` + columns + ` FROM users` + w.Clause() + ` ORDER BY created_at DESC, user_id DESC LIMIT ? OFFSET ?`
	args := append(append([]interface{}{}, w.Args()...), limit, offset)

	users := []User{}
	if err := sqlx.SelectContext(ctx, db, &users, db.Rebind(q), args...); err != nil {
		return Page{}, fmt.Errorf("selecting users: %w", err)
	}

	return Page{Users: users, Total: total}, nil
}
