package stats

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/e-learning/api/web"
	"github.com/irsalhamdi/e-learning/api/weberr"
)

type Store interface {
	GetAdminStats(ctx context.Context) (Stats, error)
	GetRevenueByMonth(ctx context.Context, year int) ([]MonthlyRevenue, error)
}

func HandleShow(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := store.GetAdminStats(ctx)
		if err != nil {
			return fmt.Errorf("computing admin stats: %w", err)
		}

		return web.Respond(ctx, w, s, http.StatusOK)
	}
}

// HandleRevenue serves the completed revenue of each month of ?year=,
// the current year by default.
func HandleRevenue(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		year, err := web.QueryInt(r, "year", time.Now().UTC().Year())
		if err != nil {
			return weberr.BadRequest(err)
		}
		if year < 1970 || year > 9999 {
			return weberr.BadRequest(fmt.Errorf("year %d is out of range", year))
		}

		months, err := store.GetRevenueByMonth(ctx, year)
		if err != nil {
			return fmt.Errorf("computing revenue of %d: %w", year, err)
		}

		return web.Respond(ctx, w, months, http.StatusOK)
	}
}
