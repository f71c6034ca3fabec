package claims

import (
	"context"
	"errors"

	"github.com/irsalhamdi/e-learning/core/user"
)

// Claims identify the user behind a request.
type Claims struct {
	UserID int
	Role   user.Role
}

type ctxKey int

const claimsKey ctxKey = 1

var ErrMissing = errors.New("claim value missing from context")

func Set(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func Get(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(claimsKey).(Claims)
	if !ok {
		return Claims{}, ErrMissing
	}
	return v, nil
}

func IsAdmin(ctx context.Context) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}

	return c.Role == user.RoleAdmin
}

func IsUser(ctx context.Context, id int) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}

	return c.UserID == id
}
