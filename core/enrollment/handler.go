package enrollment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/e-learning/api/web"
	"github.com/irsalhamdi/e-learning/api/weberr"
	"github.com/irsalhamdi/e-learning/core/claims"
	"github.com/irsalhamdi/e-learning/core/order"
	"github.com/irsalhamdi/e-learning/validate"
)

type Store interface {
	GetUserEnrollments(ctx context.Context, userID int) ([]WithCourse, error)
	UpdateEnrollmentProgress(ctx context.Context, userID, courseID, progress int) (Enrollment, error)
	Enroll(ctx context.Context, userID, courseID int) (Enrollment, order.Order, error)
}

// Purchase is the answer to an enrollment: the new enrollment and the order
// paying for it.
type Purchase struct {
	Enrollment Enrollment  `json:"enrollment"`
	Order      order.Order `json:"order"`
}

func HandleEnroll(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID, err := validate.ParseID(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		e, ord, err := store.Enroll(ctx, clm.UserID, courseID)
		if err != nil {
			return weberr.FromStore(err)
		}

		return web.Respond(ctx, w, Purchase{Enrollment: e, Order: ord}, http.StatusCreated)
	}
}

func HandleListMine(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		enrollments, err := store.GetUserEnrollments(ctx, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing enrollments of user[%d]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, enrollments, http.StatusOK)
	}
}

func HandleUpdateProgress(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID, err := validate.ParseID(web.Param(r, "course_id"))
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

		e, err := store.UpdateEnrollmentProgress(ctx, clm.UserID, courseID, *up.Progress)
		if err != nil {
			return weberr.FromStore(err)
		}

		return web.Respond(ctx, w, e, http.StatusOK)
	}
}
