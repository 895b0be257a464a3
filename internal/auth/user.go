package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrUnauthenticated = errors.New("no authenticated user")

// UserContext identifies the user every store and chat operation is scoped to.
type UserContext struct {
	UserID string
	Email  string
}

func (u UserContext) Validate() error {
	if u.UserID == "" {
		return ErrUnauthenticated
	}
	return nil
}

type ctxKey struct{}

func WithUser(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFromContext(ctx context.Context) (UserContext, error) {
	u, ok := ctx.Value(ctxKey{}).(UserContext)
	if !ok || u.UserID == "" {
		return UserContext{}, ErrUnauthenticated
	}
	return u, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
