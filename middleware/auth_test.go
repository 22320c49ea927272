package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/tournament-finder/metrics"
	"github.com/Dosada05/tournament-finder/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func codeWriter(w http.ResponseWriter, r *http.Request, err error) {
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = io.WriteString(w, services.AsError(err).Code)
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, "user="+ViewerID(r.Context()))
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuthenticator(testSecret, codeWriter)
	valid, err := auth.IssueToken("user_123", time.Hour)
	require.NoError(t, err)
	expired, err := auth.IssueToken("user_123", -time.Hour)
	require.NoError(t, err)
	foreign, err := NewAuthenticator("other", codeWriter).IssueToken("user_123", time.Hour)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid", header: "Bearer " + valid, wantStatus: 200, wantBody: "user=user_123"},
		{name: "lowercase scheme", header: "bearer " + valid, wantStatus: 200, wantBody: "user=user_123"},
		{name: "missing", wantStatus: 401, wantBody: services.CodeNoTokenProvided},
		{name: "wrong scheme", header: "Basic abc", wantStatus: 401, wantBody: services.CodeNoTokenProvided},
		{name: "garbage", header: "Bearer abc.def.ghi", wantStatus: 401, wantBody: services.CodeInvalidToken},
		{name: "expired", header: "Bearer " + expired, wantStatus: 401, wantBody: services.CodeInvalidToken},
		{name: "foreign signature", header: "Bearer " + foreign, wantStatus: 401, wantBody: services.CodeInvalidToken},
		{name: "no subject", header: "Bearer " + noSubject, wantStatus: 401, wantBody: services.CodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			auth.Authenticate(http.HandlerFunc(echoUser)).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestAuthenticate_RejectsOtherAlgorithms(t *testing.T) {
	auth := NewAuthenticator(testSecret, codeWriter)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "u"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	auth.Authenticate(http.HandlerFunc(echoUser)).ServeHTTP(rec, req)
	assert.Equal(t, services.CodeInvalidToken, rec.Body.String())
}

func TestOptionalAuthenticate(t *testing.T) {
	auth := NewAuthenticator(testSecret, codeWriter)
	valid, err := auth.IssueToken("viewer", time.Hour)
	require.NoError(t, err)

	for header, want := range map[string]string{
		"":                   "user=",
		"Bearer " + valid:    "user=viewer",
		"Bearer not-a-token": "user=",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		auth.OptionalAuthenticate(http.HandlerFunc(echoUser)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, rec.Body.String())
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetUserIDFromContext(req.Context())
	assert.True(t, errors.Is(err, ErrNoUserInContext))

	id, err := GetUserIDFromContext(WithUserID(req.Context(), "u1"))
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5123"
	assert.Equal(t, "203.0.113.7", ClientIP(req))

	req.RemoteAddr = "203.0.113.8"
	assert.Equal(t, "203.0.113.8", ClientIP(req))
}

type recordedRequest struct {
	method, route string
	status        int
}

type fakeRecorder struct {
	metrics.NoOp
	requests []recordedRequest
}

func (f *fakeRecorder) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	f.requests = append(f.requests, recordedRequest{method, route, status})
}

func TestInstrument_RecordsRoutePattern(t *testing.T) {
	rec := &fakeRecorder{}
	r := chi.NewRouter()
	r.Use(Instrument(slog.New(slog.NewTextHandler(io.Discard, nil)), rec))
	r.Get("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tournaments/abc", nil))

	require.Len(t, rec.requests, 1)
	assert.Equal(t, recordedRequest{"GET", "/tournaments/{id}", http.StatusTeapot}, rec.requests[0])
}
