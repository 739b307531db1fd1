package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
)

type ctxKey string

const authUserKey ctxKey = "authUser"

type AuthUser struct {
	UID    string
	Email  string
	Claims map[string]any
}

// TokenVerifier is the part of *auth.Client the middleware needs.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

func WithAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idToken, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing Authorization: Bearer <token>")
				return
			}

			tok, err := verifier.VerifyIDToken(r.Context(), idToken)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), userFromToken(tok))))
		})
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if idToken, ok := bearerToken(r); ok {
				if tok, err := verifier.VerifyIDToken(r.Context(), idToken); err == nil {
					r = r.WithContext(WithAuthUser(r.Context(), userFromToken(tok)))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin must run after WithAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		au, ok := GetAuthUser(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !IsAdmin(au.Claims) {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithAuthUser(ctx context.Context, au *AuthUser) context.Context {
	return context.WithValue(ctx, authUserKey, au)
}

func GetAuthUser(ctx context.Context) (*AuthUser, bool) {
	v := ctx.Value(authUserKey)
	if v == nil {
		return nil, false
	}
	au, ok := v.(*AuthUser)
	return au, ok && au != nil
}

// CallerUID returns the authenticated uid or "".
func CallerUID(ctx context.Context) string {
	if au, ok := GetAuthUser(ctx); ok {
		return au.UID
	}
	return ""
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[len("Bearer "):])
	return tok, tok != ""
}

func userFromToken(tok *auth.Token) *AuthUser {
	au := &AuthUser{
		UID:    tok.UID,
		Claims: tok.Claims,
	}
	if v, ok := tok.Claims["email"].(string); ok {
		au.Email = v
	}
	return au
}

// IsAdmin checks if the user has admin role in their claims
func IsAdmin(claims map[string]any) bool {
	return hasRole(claims, "admin")
}

// IsProvider checks for a lawyer or expat provider account.
func IsProvider(claims map[string]any) bool {
	return hasRole(claims, "lawyer") || hasRole(claims, "expat") || hasRole(claims, "provider")
}

func hasRole(claims map[string]any, role string) bool {
	if claims == nil {
		return false
	}
	if flag, ok := claims[role].(bool); ok && flag {
		return true
	}
	if r, ok := claims["role"].(string); ok && r == role {
		return true
	}
	// roles map
	if roles, ok := claims["roles"].(map[string]interface{}); ok {
		if b, ok := roles[role].(bool); ok && b {
			return true
		}
	}
	// roles array
	if roles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range roles {
			if str, ok := r.(string); ok && str == role {
				return true
			}
		}
	}
	return false
}
