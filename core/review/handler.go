package review

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
	GetCourse(ctx context.Context, id int) (course.Course, error)
	GetCourseReviews(ctx context.Context, courseID int) ([]Review, error)
	GetUserReviews(ctx context.Context, userID int) ([]Review, error)
	GetUserCourseEnrollment(ctx context.Context, userID, courseID int) (enrollment.Enrollment, error)
	CreateReview(ctx context.Context, nr ReviewNew) (Review, error)
	GetTestimonials(ctx context.Context) ([]Testimonial, error)
}

// Body is what a student posts to review a course.
type Body struct {
	Rating  int     `json:"rating" validate:"required,gte=1,lte=5"`
	Content *string `json:"content" validate:"omitempty,max=2000"`
}

func HandleListByCourse(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID, err := validate.ParseID(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		if _, err := store.GetCourse(ctx, courseID); err != nil {
			return weberr.FromStore(fmt.Errorf("fetching course[%d]: %w", courseID, err))
		}

		reviews, err := store.GetCourseReviews(ctx, courseID)
		if err != nil {
			return fmt.Errorf("listing reviews of course[%d]: %w", courseID, err)
		}

		return web.Respond(ctx, w, reviews, http.StatusOK)
	}
}

// HandleCreate lets an enrolled student review a course once.
func HandleCreate(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID, err := validate.ParseID(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		var b Body
		if err := web.Decode(w, r, &b); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(b); err != nil {
			return weberr.BadRequest(err)
		}

		_, err = store.GetUserCourseEnrollment(ctx, clm.UserID, courseID)
		switch {
		case errors.Is(err, database.ErrNotFound):
			return weberr.Forbidden(fmt.Errorf("user[%d] is not enrolled in course[%d]", clm.UserID, courseID))
		case err != nil:
			return fmt.Errorf("checking enrollment of user[%d] in course[%d]: %w", clm.UserID, courseID, err)
		}

		nr := ReviewNew{
			UserID:   clm.UserID,
			CourseID: courseID,
			Rating:   b.Rating,
			Content:  b.Content,
		}

		rv, err := store.CreateReview(ctx, nr)
		if err != nil {
			return weberr.FromStore(err)
		}

		return web.Respond(ctx, w, rv, http.StatusCreated)
	}
}

func HandleListMine(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		reviews, err := store.GetUserReviews(ctx, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing reviews of user[%d]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, reviews, http.StatusOK)
	}
}

func HandleListTestimonials(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ts, err := store.GetTestimonials(ctx)
		if err != nil {
			return fmt.Errorf("listing testimonials: %w", err)
		}

		return web.Respond(ctx, w, ts, http.StatusOK)
	}
}
