package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/e-learning/api/web"
	"github.com/irsalhamdi/e-learning/api/weberr"
	"github.com/irsalhamdi/e-learning/core/claims"
	"github.com/irsalhamdi/e-learning/core/user"
	"github.com/irsalhamdi/e-learning/database"
	"github.com/irsalhamdi/e-learning/rate"
	"github.com/irsalhamdi/e-learning/validate"
)

// Signup is the public registration form. Everybody signs up as a student.
type Signup struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password string  `json:"password" validate:"required,min=6"`
	Email    string  `json:"email" validate:"required,email"`
	FullName string  `json:"fullName" validate:"required"`
	Avatar   *string `json:"avatar" validate:"omitempty,url"`
	Bio      *string `json:"bio"`
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func HandleSignup(store Store, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var s Signup
		if err := web.Decode(w, r, &s); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(s); err != nil {
			return weberr.BadRequest(err)
		}

		hash, err := HashPassword(s.Password)
		if err != nil {
			return err
		}

		nu := user.UserNew{
			Username: s.Username,
			Password: hash,
			Email:    s.Email,
			FullName: s.FullName,
			Role:     user.RoleStudent,
			Avatar:   s.Avatar,
			Bio:      s.Bio,
		}

		u, err := store.CreateUser(ctx, nu)
		if err != nil {
			return weberr.FromStore(fmt.Errorf("signing up user[%s]: %w", s.Username, err))
		}

		if err := login(ctx, sm, u); err != nil {
			return err
		}

		return web.Respond(ctx, w, u, http.StatusCreated)
	}
}

// HandleLogin checks the credentials and starts a session. Attempts are
// throttled per username.
func HandleLogin(store Store, sm *scs.SessionManager, limiter *rate.Limiter) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var cred Credentials
		if err := web.Decode(w, r, &cred); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(cred); err != nil {
			return weberr.BadRequest(err)
		}

		if !limiter.Allow(strings.ToLower(cred.Username)) {
			retry := strconv.Itoa(int(math.Ceil(limiter.Every().Seconds())))
			return weberr.TooManyRequests(
				fmt.Errorf("login attempts exhausted for user[%s]", cred.Username),
				weberr.WithHeader("Retry-After", retry),
			)
		}

		u, err := store.GetUserByUsername(ctx, cred.Username)
		switch {
		case errors.Is(err, database.ErrNotFound):
			return weberr.NotAuthorized(ErrInvalidCredentials)
		case err != nil:
			return fmt.Errorf("fetching user[%s]: %w", cred.Username, err)
		}

		if !CheckPassword(u.Password, cred.Password) {
			return weberr.NotAuthorized(ErrInvalidCredentials)
		}

		if !u.IsActive {
			return weberr.Forbidden(fmt.Errorf("user[%d] is deactivated", u.ID))
		}

		if err := login(ctx, sm, u); err != nil {
			return err
		}

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}

func login(ctx context.Context, sm *scs.SessionManager, u user.User) error {
	if err := sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	sm.Put(ctx, userIDKey, u.ID)
	return nil
}

func HandleLogout(sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := sm.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleShowCurrent answers with the logged in user.
func HandleShowCurrent(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		u, err := store.GetUser(ctx, clm.UserID)
		if err != nil {
			return weberr.FromStore(fmt.Errorf("fetching current user[%d]: %w", clm.UserID, err))
		}

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}
