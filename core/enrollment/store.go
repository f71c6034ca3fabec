package enrollment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/irsalhamdi/e-learning/database"
	"github.com/jmoiron/sqlx"
)

const columns = `enrollment_id, user_id, course_id, enrolled_at, progress, completed, price`

func Fetch(ctx context.Context, db sqlx.ExtContext, userID, courseID int) (Enrollment, error) {
	var e Enrollment
	q := `SELECT ` + columns + ` FROM enrollments WHERE user_id = $1 AND course_id = $2`
	if err := sqlx.GetContext(ctx, db, &e, q, userID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Enrollment{}, database.ErrNotFound
		}
		return Enrollment{}, err
	}
	return e, nil
}

func ListByUser(ctx context.Context, db sqlx.ExtContext, userID int) ([]Enrollment, error) {
	enrollments := []Enrollment{}
	q := `SELECT ` + columns + ` FROM enrollments WHERE user_id = $1 ORDER BY enrolled_at DESC, enrollment_id DESC`
	if err := sqlx.SelectContext(ctx, db, &enrollments, q, userID); err != nil {
		return nil, err
	}
	return enrollments, nil
}

func Create(ctx context.Context, db sqlx.ExtContext, e Enrollment) (Enrollment, error) {
	const q = `
	INSERT INTO enrollments (user_id, course_id, enrolled_at, progress, completed, price)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING enrollment_id`

	if err := db.QueryRowxContext(ctx, q, e.UserID, e.CourseID, e.EnrolledAt, e.Progress, e.Completed, e.Price).Scan(&e.ID); err != nil {
		return Enrollment{}, database.Classify(err)
	}
	return e, nil
}

func UpdateProgress(ctx context.Context, db sqlx.ExtContext, e Enrollment) error {
	const q = `UPDATE enrollments SET progress = $1, completed = $2 WHERE enrollment_id = $3`

	res, err := db.ExecContext(ctx, q, e.Progress, e.Completed, e.ID)
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

func DeleteByCourse(ctx context.Context, db sqlx.ExtContext, courseID int) error {
	_, err := db.ExecContext(ctx, `DELETE FROM enrollments WHERE course_id = $1`, courseID)
	return err
}
