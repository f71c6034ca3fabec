package category

import (
	"context"
	"database/sql"
	"errors"

	"github.com/irsalhamdi/e-learning/database"
	"github.com/jmoiron/sqlx"
)

const columns = `category_id, name, slug, description, icon`

func List(ctx context.Context, db sqlx.ExtContext) ([]Category, error) {
	cats := []Category{}
	if err := sqlx.SelectContext(ctx, db, &cats, `SELECT `+columns+` FROM categories ORDER BY name, category_id`); err != nil {
		return nil, err
	}
	return cats, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id int) (Category, error) {
	return fetchBy(ctx, db, "category_id", id)
}

func FetchBySlug(ctx context.Context, db sqlx.ExtContext, slug string) (Category, error) {
	return fetchBy(ctx, db, "slug", slug)
}

func fetchBy(ctx context.Context, db sqlx.ExtContext, column string, val interface{}) (Category, error) {
	var c Category
	q := `SELECT ` + columns + ` FROM categories WHERE ` + column + ` = $1`
	if err := sqlx.GetContext(ctx, db, &c, q, val); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Category{}, database.ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}

func Create(ctx context.Context, db sqlx.ExtContext, c Category) (Category, error) {
	const q = `
	INSERT INTO categories (name, slug, description, icon)
	VALUES ($1, $2, $3, $4)
	RETURNING category_id`

	if err := db.QueryRowxContext(ctx, q, c.Name, c.Slug, c.Description, c.Icon).Scan(&c.ID); err != nil {
		return Category{}, database.Classify(err)
	}
	return c, nil
}
