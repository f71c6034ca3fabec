package user

import (
	"context"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/e-learning/api/web"
	"github.com/irsalhamdi/e-learning/api/weberr"
	"github.com/irsalhamdi/e-learning/validate"
)

type Store interface {
	GetUsers(ctx context.Context, f Filter) (Page, error)
	UpdateUserStatus(ctx context.Context, id int, active bool) (User, error)
}

// HandleList serves the admin user listing. Query parameters: page, limit,
// search, role and isActive.
func HandleList(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		f, err := parseFilter(r)
		if err != nil {
			return weberr.BadRequest(err)
		}

		page, err := store.GetUsers(ctx, f)
		if err != nil {
			return fmt.Errorf("listing users: %w", err)
		}

		return web.Respond(ctx, w, page, http.StatusOK)
	}
}

func parseFilter(r *http.Request) (Filter, error) {
	var (
		f   Filter
		err error
	)

	if f.Page, err = web.QueryInt(r, "page", 1); err != nil {
		return Filter{}, err
	}
	if f.Limit, err = web.QueryInt(r, "limit", 10); err != nil {
		return Filter{}, err
	}
	if f.IsActive, err = web.QueryBool(r, "isActive"); err != nil {
		return Filter{}, err
	}

	f.Search = r.URL.Query().Get("search")
	f.Role = Role(r.URL.Query().Get("role"))
	switch f.Role {
	case "", RoleStudent, RoleInstructor, RoleAdmin:
	default:
		return Filter{}, fmt.Errorf("unknown role %q", f.Role)
	}

	return f, nil
}

func HandleUpdateStatus(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := validate.ParseID(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		var up StatusUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.BadRequest(err)
		}

		u, err := store.UpdateUserStatus(ctx, id, *up.IsActive)
		if err != nil {
			return weberr.FromStore(fmt.Errorf("updating status of user[%d]: %w", id, err))
		}

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}
