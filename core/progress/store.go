package progress

import (
	"context"

	"github.com/irsalhamdi/e-learning/database"
	"github.com/jmoiron/sqlx"
)

const columns = `progress_id, user_id, lesson_id, course_id, completed, last_watched, watched_seconds`

// Upsert inserts p or folds it into the existing row for the same user and
// lesson, with the same rules as Merge.
func Upsert(ctx context.Context, db sqlx.ExtContext, p Progress) (Progress, error) {
	const q = `
	INSERT INTO user_lesson_progress (user_id, lesson_id, course_id, completed, last_watched, watched_seconds)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT ON CONSTRAINT user_lesson_progress_user_lesson_key DO UPDATE SET
		completed = user_lesson_progress.completed OR EXCLUDED.completed,
		watched_seconds = GREATEST(user_lesson_progress.watched_seconds, EXCLUDED.watched_seconds),
		last_watched = EXCLUDED.last_watched
	RETURNING ` + columns

	var out Progress
	err := sqlx.GetContext(ctx, db, &out, q, p.UserID, p.LessonID, p.CourseID, p.Completed, p.LastWatched, p.WatchedSeconds)
	if err != nil {
		return Progress{}, database.Classify(err)
	}
	return out, nil
}

func ListRecent(ctx context.Context, db sqlx.ExtContext, userID, limit int) ([]Progress, error) {
	rows := []Progress{}
	q := `SELECT ` + columns + ` FROM user_lesson_progress
	WHERE user_id = $1 AND last_watched IS NOT NULL
	ORDER BY last_watched DESC, progress_id DESC
	LIMIT $2`
	if err := sqlx.SelectContext(ctx, db, &rows, q, userID, limit); err != nil {
		return nil, err
	}
	return rows, nil
}

func DeleteByCourse(ctx context.Context, db sqlx.ExtContext, courseID int) error {
	_, err := db.ExecContext(ctx, `DELETE FROM user_lesson_progress WHERE course_id = $1`, courseID)
	return err
}
