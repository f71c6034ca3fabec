// Package auth keeps the logged in user in an scs session and guards the
// routes that need one.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/e-learning/api/web"
	"github.com/irsalhamdi/e-learning/api/weberr"
	"github.com/irsalhamdi/e-learning/core/claims"
	"github.com/irsalhamdi/e-learning/core/user"
	"github.com/irsalhamdi/e-learning/database"
	"golang.org/x/crypto/bcrypt"
)

const userIDKey = "userID"

// Store is what auth needs to resolve and register users.
type Store interface {
	GetUser(ctx context.Context, id int) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
	CreateUser(ctx context.Context, nu user.UserNew) (user.User, error)
}

var ErrInvalidCredentials = errors.New("invalid username or password")

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// LoadAndSave loads the session of the request and commits it once the
// rest of the chain has run.
func LoadAndSave(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			})

			sm.LoadAndSave(next).ServeHTTP(w, r.WithContext(ctx))
			return err
		}
		return h
	}
	return m
}

// Authenticate rejects requests without a session of an active user and
// stores the user's claims in the context.
func Authenticate(sm *scs.SessionManager, store Store) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			id := sm.GetInt(ctx, userIDKey)
			if id == 0 {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			u, err := store.GetUser(ctx, id)
			switch {
			case errors.Is(err, database.ErrNotFound):
				return weberr.NotAuthorized(fmt.Errorf("session of unknown user[%d]", id))
			case err != nil:
				return fmt.Errorf("fetching session user[%d]: %w", id, err)
			}

			if !u.IsActive {
				return weberr.Forbidden(fmt.Errorf("user[%d] is deactivated", id))
			}

			ctx = claims.Set(ctx, claims.Claims{UserID: u.ID, Role: u.Role})
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Admin lets through authenticated admins only.
func Admin(sm *scs.SessionManager, store Store) web.Middleware {
	admin := func(handler web.Handler) web.Handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !claims.IsAdmin(ctx) {
				return weberr.Forbidden(errors.New("admin role required"))
			}
			return handler(ctx, w, r)
		}
	}

	authen := Authenticate(sm, store)
	return func(handler web.Handler) web.Handler {
		return authen(admin(handler))
	}
}
