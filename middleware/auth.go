package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Dosada05/tournament-finder/services"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const userContextKey contextKey = "user"

// ErrorWriter renders a service error; the handlers package supplies it so
// auth failures share the API error body.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

type Authenticator struct {
	secret    []byte
	writeErr  ErrorWriter
	algorithm string
}

func NewAuthenticator(secret string, writeErr ErrorWriter) *Authenticator {
	return &Authenticator{
		secret:    []byte(secret),
		writeErr:  writeErr,
		algorithm: jwt.SigningMethodHS256.Alg(),
	}
}

// Authenticate rejects requests without a valid bearer token.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			a.writeErr(w, r, services.ErrNoTokenProvided)
			return
		}
		userID, err := a.verify(raw)
		if err != nil {
			a.writeErr(w, r, &services.Error{
				Kind:    services.KindUnauthorized,
				Code:    services.CodeInvalidToken,
				Message: "invalid token",
				Err:     err,
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// OptionalAuthenticate attaches the viewer when a valid token is present and
// otherwise lets the request through anonymously.
func (a *Authenticator) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw, ok := bearerToken(r); ok {
			if userID, err := a.verify(raw); err == nil {
				r = r.WithContext(WithUserID(r.Context(), userID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{a.algorithm}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("token is not valid")
	}
	if claims.Subject == "" {
		return "", errors.New("missing 'sub' claim in token")
	}
	return claims.Subject, nil
}

// IssueToken signs a token for userID. Used by tooling and tests; the
// identity provider issues production tokens.
func (a *Authenticator) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
