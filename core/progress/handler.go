package progress

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/e-learning/api/web"
	"github.com/irsalhamdi/e-learning/api/weberr"
	"github.com/irsalhamdi/e-learning/core/claims"
	"github.com/irsalhamdi/e-learning/core/course"
	"github.com/irsalhamdi/e-learning/core/enrollment"
	"github.com/irsalhamdi/e-learning/database"
	"github.com/irsalhamdi/e-learning/validate"
)

type Store interface {
	GetLesson(ctx context.Context, id int) (course.Lesson, error)
	GetUserCourseEnrollment(ctx context.Context, userID, courseID int) (enrollment.Enrollment, error)
	GetUserRecentProgress(ctx context.Context, userID int) ([]Recent, error)
	SaveProgress(ctx context.Context, np ProgressNew) (Progress, error)
}

func HandleListRecent(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		recent, err := store.GetUserRecentProgress(ctx, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing progress of user[%d]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, recent, http.StatusOK)
	}
}

// HandleSave records where the user is in a lesson. Free lessons can be
// tracked by anyone, the others only by students enrolled in the course.
func HandleSave(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		lessonID, err := validate.ParseID(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		var up ProgressUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.BadRequest(err)
		}

		l, err := store.GetLesson(ctx, lessonID)
		if err != nil {
			return weberr.FromStore(fmt.Errorf("fetching lesson[%d]: %w", lessonID, err))
		}

		if !l.IsFree {
			_, err := store.GetUserCourseEnrollment(ctx, clm.UserID, l.CourseID)
			switch {
			case errors.Is(err, database.ErrNotFound):
				return weberr.Forbidden(fmt.Errorf("user[%d] is not enrolled in course[%d]", clm.UserID, l.CourseID))
			case err != nil:
				return fmt.Errorf("checking enrollment of user[%d] in course[%d]: %w", clm.UserID, l.CourseID, err)
			}
		}

		np := ProgressNew{
			UserID:         clm.UserID,
			LessonID:       lessonID,
			Completed:      up.Completed,
			WatchedSeconds: up.WatchedSeconds,
		}

		p, err := store.SaveProgress(ctx, np)
		if err != nil {
			return weberr.FromStore(err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}
