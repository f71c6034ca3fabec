package category

import (
	"context"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/e-learning/api/web"
	"github.com/irsalhamdi/e-learning/api/weberr"
	"github.com/irsalhamdi/e-learning/validate"
)

type Store interface {
	GetCategories(ctx context.Context) ([]Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (Category, error)
	CreateCategory(ctx context.Context, nc CategoryNew) (Category, error)
}

func HandleList(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cats, err := store.GetCategories(ctx)
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}

		return web.Respond(ctx, w, cats, http.StatusOK)
	}
}

func HandleShow(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		slug := web.Param(r, "slug")

		c, err := store.GetCategoryBySlug(ctx, slug)
		if err != nil {
			return weberr.FromStore(fmt.Errorf("fetching category[%s]: %w", slug, err))
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleCreate(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var nc CategoryNew
		if err := web.Decode(w, r, &nc); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(nc); err != nil {
			return weberr.BadRequest(err)
		}

		c, err := store.CreateCategory(ctx, nc)
		if err != nil {
			return weberr.FromStore(fmt.Errorf("creating category[%s]: %w", nc.Slug, err))
		}

		return web.Respond(ctx, w, c, http.StatusCreated)
	}
}
