package stats

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Count counts the rows of table, split by the months of p.
func Count(ctx context.Context, db sqlx.ExtContext, table string, p Period) (Counter, error) {
	q := `
	SELECT count(*) AS total,
		count(*) FILTER (WHERE created_at >= $2 AND created_at < $3) AS current,
		count(*) FILTER (WHERE created_at >= $1 AND created_at < $2) AS previous
	FROM ` + table

	var c Counter
	if err := sqlx.GetContext(ctx, db, &c, q, p.Previous, p.Current, p.Next); err != nil {
		return Counter{}, fmt.Errorf("counting %s: %w", table, err)
	}
	return c, nil
}

// Revenue sums completed order amounts, split by the months of p.
func Revenue(ctx context.Context, db sqlx.ExtContext, p Period) (Counter, error) {
	const q = `
	SELECT COALESCE(SUM(amount), 0) AS total,
		COALESCE(SUM(amount) FILTER (WHERE created_at >= $2 AND created_at < $3), 0) AS current,
		COALESCE(SUM(amount) FILTER (WHERE created_at >= $1 AND created_at < $2), 0) AS previous
	FROM orders
	WHERE status = 'completed'`

	var c Counter
	if err := sqlx.GetContext(ctx, db, &c, q, p.Previous, p.Current, p.Next); err != nil {
		return Counter{}, fmt.Errorf("summing revenue: %w", err)
	}
	return c, nil
}

func RevenueByMonth(ctx context.Context, db sqlx.ExtContext, year int) ([]MonthlyRevenue, error) {
	const q = `
	SELECT EXTRACT(MONTH FROM created_at AT TIME ZONE 'UTC')::int AS month, SUM(amount) AS revenue
	FROM orders
	WHERE status = 'completed' AND created_at >= $1 AND created_at < $2
	GROUP BY 1`

	start, end := YearBounds(year)
	rows := []struct {
		Month   int `db:"month"`
		Revenue int `db:"revenue"`
	}{}
	if err := sqlx.SelectContext(ctx, db, &rows, q, start, end); err != nil {
		return nil, fmt.Errorf("summing revenue of %d: %w", year, err)
	}

	sums := make(map[int]int, len(rows))
	for _, r := range rows {
		sums[r.Month] = r.Revenue
	}
	return Year(sums), nil
}
