package review

import (
	"context"
	"database/sql"
	"errors"

	"github.com/irsalhamdi/e-learning/database"
	"github.com/jmoiron/sqlx"
)

const columns = `review_id, user_id, course_id, rating, content, created_at`

func ListByCourse(ctx context.Context, db sqlx.ExtContext, courseID int) ([]Review, error) {
	reviews := []Review{}
	q := `SELECT ` + columns + ` FROM reviews WHERE course_id = $1 ORDER BY created_at DESC, review_id DESC`
	if err := sqlx.SelectContext(ctx, db, &reviews, q, courseID); err != nil {
		return nil, err
	}
	return reviews, nil
}

func ListByUser(ctx context.Context, db sqlx.ExtContext, userID int) ([]Review, error) {
	reviews := []Review{}
	q := `SELECT ` + columns + ` FROM reviews WHERE user_id = $1 ORDER BY created_at DESC, review_id DESC`
	if err := sqlx.SelectContext(ctx, db, &reviews, q, userID); err != nil {
		return nil, err
	}
	return reviews, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, userID, courseID int) (Review, error) {
	var r Review
	q := `SELECT ` + columns + ` FROM reviews WHERE user_id = $1 AND course_id = $2`
	if err := sqlx.GetContext(ctx, db, &r, q, userID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Review{}, database.ErrNotFound
		}
		return Review{}, err
	}
	return r, nil
}

func Create(ctx context.Context, db sqlx.ExtContext, r Review) (Review, error) {
	const q = `
	INSERT INTO reviews (user_id, course_id, rating, content, created_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING review_id`

	if err := db.QueryRowxContext(ctx, q, r.UserID, r.CourseID, r.Rating, r.Content, r.CreatedAt).Scan(&r.ID); err != nil {
		return Review{}, database.Classify(err)
	}
	return r, nil
}

func DeleteByCourse(ctx context.Context, db sqlx.ExtContext, courseID int) error {
	_, err := db.ExecContext(ctx, `DELETE FROM reviews WHERE course_id = $1`, courseID)
	return err
}

func ListTestimonials(ctx context.Context, db sqlx.ExtContext, limit int) ([]Testimonial, error) {
	const q = `
	SELECT r.review_id, r.content, r.rating, r.created_at,
		u.full_name, u.avatar, u.role,
		c.title AS course_title
	FROM reviews r
	JOIN users u ON u.user_id = r.user_id
	JOIN courses c ON c.course_id = r.course_id
	WHERE r.rating >= $1 AND r.content IS NOT NULL AND r.content <> ''
	ORDER BY r.created_at DESC, r.review_id DESC
	LIMIT $2`

	testimonials := []Testimonial{}
	if err := sqlx.SelectContext(ctx, db, &testimonials, q, TestimonialMinRating, limit); err != nil {
		return nil, err
	}
	return testimonials, nil
}
