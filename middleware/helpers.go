package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
)

var ErrNoUserInContext = errors.New("user id not found in context")

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}

// GetUserIDFromContext returns the authenticated user id.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userContextKey).(string)
	if !ok || userID == "" {
		return "", ErrNoUserInContext
	}
	return userID, nil
}

// ViewerID returns the user id if the request was authenticated, "" for
// anonymous viewers.
func ViewerID(ctx context.Context) string {
	userID, _ := ctx.Value(userContextKey).(string)
	return userID
}

// ClientIP returns the caller address. chi's RealIP middleware has already
// replaced RemoteAddr with the forwarded address when one was sent.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
