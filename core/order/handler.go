package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/e-learning/api/web"
	"github.com/irsalhamdi/e-learning/api/weberr"
	"github.com/irsalhamdi/e-learning/core/claims"
)

type Store interface {
	GetUserOrders(ctx context.Context, userID int) ([]WithCourse, error)
	GetRecentOrders(ctx context.Context) ([]Detail, error)
}

func HandleListMine(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		orders, err := store.GetUserOrders(ctx, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing orders of user[%d]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, orders, http.StatusOK)
	}
}

func HandleListRecent(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		orders, err := store.GetRecentOrders(ctx)
		if err != nil {
			return fmt.Errorf("listing recent orders: %w", err)
		}

		return web.Respond(ctx, w, orders, http.StatusOK)
	}
}
