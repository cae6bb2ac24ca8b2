package auth

import (
	"fmt"

	"chat-graph/contract"
	"chat-graph/domain"
	"chat-graph/errors"
)

// Context is the authenticated identity of one operation. There is no
// fallback identity: resolvers receive a Context or the request fails before
// any side effect.
type Context struct {
	User domain.User
}

// ResolveContext turns a bearer credential into an authenticated Context.
// Any failure, including a token whose user no longer exists, surfaces as
// unauthenticated.
func ResolveContext(token string, users contract.UserStore) (Context, error) {
	claims, err := ValidateToken(token)
	if err != nil {
		return Context{}, fmt.Errorf("%w: invalid or expired token", errors.ErrUnauthenticated)
	}
	user, err := users.GetUserByID(claims.UserID)
	if err != nil {
		return Context{}, fmt.Errorf("%w: unknown subject", errors.ErrUnauthenticated)
	}
	return Context{User: user}, nil
}
