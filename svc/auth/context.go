package auth

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/offlineauth/pkg/logger"
)

type userContextKey struct{}

// WithUser stores the session identity in ctx.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the identity stored by WithUser, or nil.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}

// LogUserExtractor adds the session user id to log records. Register it with
// logger.WithContextExtractors.
func LogUserExtractor(ctx context.Context) (slog.Attr, bool) {
	if u := UserFromContext(ctx); u != nil && u.UUID != "" {
		return logger.UserID(u.UUID), true
	}
	return slog.Attr{}, false
}
