package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	tokens map[string]*auth.Token
}

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if t, ok := f.tokens[idToken]; ok {
		return t, nil
	}
	return nil, errors.New("bad token")
}

func newVerifier() fakeVerifier {
	return fakeVerifier{tokens: map[string]*auth.Token{
		"client": {UID: "u1", Claims: map[string]interface{}{"email": "c@example.com", "role": "client"}},
		"admin":  {UID: "a1", Claims: map[string]interface{}{"admin": true}},
	}}
}

func TestWithAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	h := WithAuth(newVerifier())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), `"unauthenticated"`)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWithAuthAttachesUser(t *testing.T) {
	var got *AuthUser
	h := WithAuth(newVerifier())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetAuthUser(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer client")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	require.Equal(t, "u1", got.UID)
	require.Equal(t, "c@example.com", got.Email)
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	var uid string
	h := OptionalAuth(newVerifier())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid = CallerUID(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Empty(t, uid)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer admin")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "a1", uid)
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := WithAuth(newVerifier())(RequireAdmin(ok))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer client")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "permission-denied")

	req.Header.Set("Authorization", "Bearer admin")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRoleClaims(t *testing.T) {
	require.True(t, IsAdmin(map[string]any{"role": "admin"}))
	require.True(t, IsAdmin(map[string]any{"roles": map[string]interface{}{"admin": true}}))
	require.True(t, IsAdmin(map[string]any{"roles": []interface{}{"x", "admin"}}))
	require.False(t, IsAdmin(map[string]any{"roles": map[string]interface{}{"admin": false}}))
	require.False(t, IsAdmin(nil))

	require.True(t, IsProvider(map[string]any{"role": "lawyer"}))
	require.True(t, IsProvider(map[string]any{"expat": true}))
	require.False(t, IsProvider(map[string]any{"role": "client"}))
}
