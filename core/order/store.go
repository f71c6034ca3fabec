package order

import (
	"context"

	"github.com/irsalhamdi/e-learning/database"
	"github.com/jmoiron/sqlx"
)

const columns = `order_id, reference, user_id, course_id, amount, status, created_at`

func Create(ctx context.Context, db sqlx.ExtContext, o Order) (Order, error) {
	const q = `
	INSERT INTO orders (reference, user_id, course_id, amount, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING order_id`

	if err := db.QueryRowxContext(ctx, q, o.Reference, o.UserID, o.CourseID, o.Amount, o.Status, o.CreatedAt).Scan(&o.ID); err != nil {
		return Order{}, database.Classify(err)
	}
	return o, nil
}

func ListByUser(ctx context.Context, db sqlx.ExtContext, userID int) ([]Order, error) {
	orders := []Order{}
	q := `SELECT ` + columns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, order_id DESC`
	if err := sqlx.SelectContext(ctx, db, &orders, q, userID); err != nil {
		return nil, err
	}
	return orders, nil
}

func ListRecent(ctx context.Context, db sqlx.ExtContext, limit int) ([]Order, error) {
	orders := []Order{}
	q := `SELECT ` + columns + ` FROM orders ORDER BY created_at DESC, order_id DESC LIMIT $1`
	if err := sqlx.SelectContext(ctx, db, &orders, q, limit); err != nil {
		return nil, err
	}
	return orders, nil
}
